// ABOUTME: Retry helpers for model and HTTP calls with exponential backoff
// ABOUTME: Retries transient failures until attempts run out or the context ends
package util

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

// maxBackoff caps a single wait between attempts
const maxBackoff = 30 * time.Second

// CalculateBackoff returns 2^attempt * baseDelay, capped at 30s, with ±25% jitter.
// Attempts ≤0 and non-positive delays wait nothing.
func CalculateBackoff(baseDelay time.Duration, attempt int) time.Duration {
	if attempt <= 0 || baseDelay <= 0 {
		return 0
	}
	attempt = min(attempt, 30)

	backoff := min(baseDelay*time.Duration(1<<uint(attempt)), maxBackoff)
	if backoff < 4 {
		return backoff
	}

	jitter := time.Duration(rand.Int64N(int64(backoff)/2)) - backoff/4
	return backoff + jitter
}

// permanentError stops Retry immediately
type permanentError struct{ err error }

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// Retry calls fn up to maxRetries+1 times, sleeping with CalculateBackoff in
// between. It stops early on success, on a Permanent error, or when ctx ends.
func Retry(ctx context.Context, maxRetries int, baseDelay time.Duration, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("gave up after %d attempts: %w", attempt, errors.Join(ctx.Err(), lastErr))
			case <-time.After(CalculateBackoff(baseDelay, attempt)):
			}
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		if IsPermanent(err) {
			var p *permanentError
			errors.As(err, &p)
			return p.err
		}
		lastErr = fmt.Errorf("attempt %d: %w", attempt+1, err)
		if ctx.Err() != nil {
			return lastErr
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", maxRetries+1, lastErr)
}
