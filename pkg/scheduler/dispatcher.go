package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/flowmatic/actionsched/pkg/signature"
)

// HandlerFunc is a locally registered action handler. It receives the
// action's canonicalized arguments and reports failure via its error.
type HandlerFunc func(ctx context.Context, args json.RawMessage) error

// Dispatcher determines the execution target of an action (locally
// registered handler vs. remote HTTP endpoint), invokes it, and races
// the invocation against a timeout budget.
type Dispatcher struct {
	handlers map[string]HandlerFunc
	baseURL  string
	secret   string
	client   *http.Client
	logger   *slog.Logger
}

// NewDispatcher creates a new Dispatcher
func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	options := &dispatcherOptions{
		handlers: make(map[string]HandlerFunc),
		baseURL:  "/api",
		client:   &http.Client{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	return &Dispatcher{
		handlers: options.handlers,
		baseURL:  options.baseURL,
		secret:   options.secret,
		client:   options.client,
		logger:   options.logger,
	}
}

// RegisterHandler registers a local handler under the given endpoint
// name. The name is matched both with and without the "@" prefix.
func (d *Dispatcher) RegisterHandler(endpoint string, handler HandlerFunc) {
	d.handlers[endpoint] = handler
}

// lookup finds a registered handler by exact endpoint match, falling
// back to the endpoint with the "@" prefix stripped.
func (d *Dispatcher) lookup(endpoint string) (HandlerFunc, bool) {
	if h, ok := d.handlers[endpoint]; ok {
		return h, true
	}
	h, ok := d.handlers[strings.TrimPrefix(endpoint, "@")]
	return h, ok
}

// Dispatch executes one action within the given timeout budget and
// classifies the result. The invocation is raced against a timer;
// on timer expiry the invocation is abandoned, not cancelled, so
// callees must tolerate late completion.
func (d *Dispatcher) Dispatch(ctx context.Context, action *Action, budget time.Duration) Outcome {
	if strings.HasPrefix(action.Endpoint, "@") {
		handler, ok := d.lookup(action.Endpoint)
		if !ok {
			return Outcome{
				Status:  StatusFailed,
				Message: fmt.Sprintf("Action %s is not registered", action.Endpoint),
				Code:    http.StatusNotFound,
			}
		}
		if handler == nil {
			return Outcome{
				Status:  StatusFailed,
				Message: fmt.Sprintf("Action %s is not callable", action.Endpoint),
				Code:    http.StatusUnprocessableEntity,
			}
		}
		return d.race(ctx, action, budget, func(ctx context.Context) Outcome {
			return classifyHandlerResult(handler(ctx, action.Args))
		})
	}

	return d.race(ctx, action, budget, func(ctx context.Context) Outcome {
		return d.post(ctx, action)
	})
}

// race runs invoke concurrently against a timeout budget. Whichever
// settles first wins; a timed-out invocation keeps running in the
// background unobserved.
func (d *Dispatcher) race(ctx context.Context, action *Action, budget time.Duration, invoke func(context.Context) Outcome) Outcome {
	done := make(chan Outcome, 1)

	// Detach from the cycle's context so an abandoned invocation is
	// not cancelled when the cycle returns.
	callCtx := context.WithoutCancel(ctx)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("handler panicked",
					slog.String("endpoint", action.Endpoint),
					slog.Any("panic", r))
				done <- Outcome{
					Status:  StatusFailed,
					Message: fmt.Sprintf("panic in handler: %v", r),
					Code:    http.StatusInternalServerError,
				}
			}
		}()
		done <- invoke(callCtx)
	}()

	timer := time.NewTimer(budget)
	defer timer.Stop()

	select {
	case outcome := <-done:
		return outcome
	case <-timer.C:
		d.logger.ErrorContext(ctx, "action timed out",
			slog.String("endpoint", action.Endpoint),
			slog.Duration("budget", budget))
		return Outcome{
			Status:  StatusTimeout,
			Message: "Timed out",
			Code:    http.StatusGatewayTimeout,
		}
	}
}

// post issues the signed HTTP call to a remote action endpoint
func (d *Dispatcher) post(ctx context.Context, action *Action) Outcome {
	url := action.Endpoint
	if !strings.HasPrefix(url, "http") {
		url = d.baseURL + url
	}

	sig, err := signature.Sign(d.secret, action.Args)
	if err != nil {
		return Outcome{Status: StatusFailed, Message: err.Error(), Code: http.StatusInternalServerError}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return Outcome{Status: StatusFailed, Message: err.Error(), Code: http.StatusInternalServerError}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(signature.HeaderSignature, sig)
	req.Header.Set(signature.HeaderArgs, string(action.Args))

	resp, err := d.client.Do(req)
	if err != nil {
		return classifyHandlerResult(err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return Outcome{Status: StatusCompleted, Message: "Action completed", Code: resp.StatusCode}
	}
	return Outcome{Status: StatusFailed, Message: http.StatusText(resp.StatusCode), Code: resp.StatusCode}
}

// classifyHandlerResult maps a handler or transport error to an outcome
func classifyHandlerResult(err error) Outcome {
	if err == nil {
		return Outcome{Status: StatusCompleted, Message: "Action completed", Code: http.StatusOK}
	}
	code := http.StatusInternalServerError
	if err.Error() == "Not Found" {
		code = http.StatusNotFound
	}
	return Outcome{Status: StatusFailed, Message: err.Error(), Code: code}
}

// DispatcherOption is a functional option for configuring a Dispatcher
type DispatcherOption func(*dispatcherOptions)

type dispatcherOptions struct {
	handlers map[string]HandlerFunc
	baseURL  string
	secret   string
	client   *http.Client
	logger   *slog.Logger
}

// WithHandler registers a local action handler
func WithHandler(endpoint string, handler HandlerFunc) DispatcherOption {
	return func(o *dispatcherOptions) {
		o.handlers[endpoint] = handler
	}
}

// WithBaseURL sets the base URL prepended to relative endpoints
func WithBaseURL(baseURL string) DispatcherOption {
	return func(o *dispatcherOptions) {
		if baseURL != "" {
			o.baseURL = baseURL
		}
	}
}

// WithSigningSecret sets the shared secret for outbound call signatures
func WithSigningSecret(secret string) DispatcherOption {
	return func(o *dispatcherOptions) {
		o.secret = secret
	}
}

// WithHTTPClient sets the HTTP client used for remote dispatch
func WithHTTPClient(client *http.Client) DispatcherOption {
	return func(o *dispatcherOptions) {
		if client != nil {
			o.client = client
		}
	}
}

// WithDispatcherLogger sets the logger for the dispatcher
func WithDispatcherLogger(logger *slog.Logger) DispatcherOption {
	return func(o *dispatcherOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}
