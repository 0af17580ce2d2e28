// Package signature implements the authentication scheme for outbound
// action dispatch calls: an HMAC-SHA256 digest of the canonicalized
// argument JSON, keyed by a shared secret. The receiving endpoint
// recomputes the digest over the raw argument header and rejects on
// mismatch.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// Header names carried on every signed dispatch call
const (
	HeaderSignature = "X-Action-Scheduler-Signature"
	HeaderArgs      = "X-Scheduled-Action-Args"
)

// emptyBody substitutes for an absent argument payload so that
// argument-less actions still produce a verifiable signature.
const emptyBody = "undefined"

var (
	ErrSecretRequired   = errors.New("signing secret is required")
	ErrInvalidSignature = errors.New("invalid signature")
)

// Sign computes the hex-encoded HMAC-SHA256 digest of body. A nil or
// empty body is signed as the literal string "undefined".
func Sign(secret string, body []byte) (string, error) {
	if secret == "" {
		return "", ErrSecretRequired
	}
	if len(body) == 0 {
		body = []byte(emptyBody)
	}

	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Verify recomputes the signature over body and compares it against
// the presented value in constant time.
func Verify(secret string, body []byte, presented string) error {
	expected, err := Sign(secret, body)
	if err != nil {
		return err
	}
	if !hmac.Equal([]byte(expected), []byte(presented)) {
		return ErrInvalidSignature
	}
	return nil
}
