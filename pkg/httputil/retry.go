// Package httputil provides the shared HTTP plumbing for external
// collaborators: a JSON GET client with uniform status handling and a
// retry helper with exponential backoff.
//
// Transient failures (network errors, 5xx responses) are wrapped in
// [RetryableError] so that [Retry] attempts them again; definitive
// failures such as 404 are returned immediately.
package httputil

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors shared by all HTTP collaborators.
var (
	// ErrNotFound is returned for 404 responses.
	ErrNotFound = errors.New("not found")

	// ErrNetwork is returned for connection failures, timeouts, and
	// server-side error responses.
	ErrNetwork = errors.New("network error")
)

// RetryableError wraps an error to indicate it should trigger a retry.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retry executes fn up to attempts times with exponential backoff.
// Only errors wrapped with [RetryableError] are retried; other errors
// return immediately. The delay doubles after each failed attempt.
// Returns the last error if all attempts fail, or ctx.Err() when the
// context is cancelled while waiting.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)
	var lastErr error

	for i := range attempts {
		if err := fn(); err == nil {
			return nil
		} else if lastErr = err; !isRetryable(err) {
			return err
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return lastErr
}

// RetryWithBackoff is a convenience wrapper around [Retry] with the
// defaults used throughout the service: 3 attempts, 1 second initial delay.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	return Retry(ctx, 3, time.Second, fn)
}

func isRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}
