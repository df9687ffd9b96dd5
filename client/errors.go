package client

import (
	"errors"
	"fmt"
	"net/http"
)

// =============================================================================
// TRANSPORT ERROR TAXONOMY
// =============================================================================

var (
	// ErrUnauthorized covers 401/403 from the backend and a missing token.
	// Callers must tear the session down and return to login; never retry.
	ErrUnauthorized = errors.New("authentication rejected")

	// ErrTransport covers network failures before any HTTP status exists.
	ErrTransport = errors.New("network error")
)

// APIError is a non-2xx backend response. Message is the backend-provided
// message when one was present, otherwise the HTTP status text.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden {
		return ErrUnauthorized
	}
	return nil
}

// IsAuthError reports whether err must trigger session teardown.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
