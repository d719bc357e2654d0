// Package embedding provides the retry/batching decorator shared by all
// embedding adapters, plus the error classification it relies on.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// StatusError is an HTTP error from an embedding provider. Adapters
// return it for non-200 responses so the retry decorator can tell
// transient failures from permanent ones.
type StatusError struct {
	Code int
	Body string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("embedding provider returned status %d: %s", e.Code, e.Body)
}

// Retryable reports whether an error is worth retrying: network
// failures and transient provider statuses (5xx, 429). Context
// cancellation and client errors are permanent.
func Retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code >= http.StatusInternalServerError ||
			statusErr.Code == http.StatusTooManyRequests
	}

	// Anything else (connection refused, timeouts, DNS) is transient.
	return true
}
