package signature

import (
	"context"
	"encoding/json"
	"net/http"
)

type contextKey struct{}

// Middleware verifies the action-scheduler signature headers on
// inbound requests. Requests with a missing or mismatched signature
// are rejected with 401 before reaching the handler. The raw argument
// JSON, when present, is made available via ArgsFromContext.
func Middleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := r.Header.Get(HeaderSignature)
			args := r.Header.Get(HeaderArgs)

			if err := Verify(secret, []byte(args), presented); err != nil {
				http.Error(w, "Invalid Signature", http.StatusUnauthorized)
				return
			}

			if args != "" {
				ctx := context.WithValue(r.Context(), contextKey{}, json.RawMessage(args))
				r = r.WithContext(ctx)
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ArgsFromContext returns the verified argument JSON attached by
// Middleware, or nil when the request carried no arguments.
func ArgsFromContext(ctx context.Context) json.RawMessage {
	args, _ := ctx.Value(contextKey{}).(json.RawMessage)
	return args
}
