// Package httpretry retries transient provider failures with jittered backoff.
package httpretry

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"time"
)

const MaxRetries = 3

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

// CheckStatus turns a non-2xx response into an error. 429 and 5xx are
// retryable; everything else is final.
func CheckStatus(statusCode int, body []byte) error {
	if statusCode == http.StatusTooManyRequests || statusCode >= 500 {
		return &RetryableError{StatusCode: statusCode, Message: string(body)}
	}
	if statusCode < 200 || statusCode >= 300 {
		return fmt.Errorf("api error (status %d): %s", statusCode, truncate(string(body), 200))
	}
	return nil
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

// Policy controls how Do retries.
type Policy struct {
	MaxRetries int
	Backoff    func(attempt int) time.Duration
}

// DefaultPolicy retries MaxRetries times using Backoff.
func DefaultPolicy() Policy {
	return Policy{MaxRetries: MaxRetries, Backoff: Backoff}
}

// Do calls fn until it succeeds, fails with a non-retryable error, runs out of
// retries or ctx is done.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	backoff := p.Backoff
	if backoff == nil {
		backoff = Backoff
	}

	var lastErr error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff(attempt - 1)):
			}
		}

		lastErr = fn()
		if lastErr == nil || !IsRetryable(lastErr) {
			return lastErr
		}
	}
	return fmt.Errorf("giving up after %d retries: %w", p.MaxRetries, lastErr)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
