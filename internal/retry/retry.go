// Package retry holds the attempt policy used around subprocess
// invocations, kept separate so it can be tested without running
// anything external.
package retry

import (
	"context"
	"time"
)

// Policy bounds a retried operation. Delay before attempt n (2-based)
// is BaseDelay * (n-1), matching the linear backoff of the download
// tool's own retry flags.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// Backoff returns the wait before the given attempt (1-based). The
// first attempt never waits.
func (p Policy) Backoff(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}
	return p.BaseDelay * time.Duration(attempt-1)
}

// Do runs fn up to MaxAttempts times, sleeping Backoff between
// attempts. It returns nil on the first success, the last error after
// exhaustion, or the context error if cancelled while waiting.
func (p Policy) Do(ctx context.Context, fn func(attempt int) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if wait := p.Backoff(attempt); wait > 0 {
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := fn(attempt); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
