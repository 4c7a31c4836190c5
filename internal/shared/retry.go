package shared

import (
	"context"
	"fmt"
	"time"
)

// Policy retries an operation on transient failures with growing backoff.
//
// One Policy instance is shared by every remote call site so retry behavior
// is tuned in a single place.
type Policy struct {
	MaxAttempts int                             // Total attempts including the first
	Backoff     func(attempt int) time.Duration // Wait before attempt n+1
	Retryable   func(error) bool                // Predicate deciding whether to retry
}

// DefaultPolicy returns the retry policy used for all catalogue calls:
// 5 attempts with a 0.8s * attempt backoff, retrying transient errors only.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 5,
		Backoff: func(attempt int) time.Duration {
			return time.Duration(attempt) * 800 * time.Millisecond
		},
		Retryable: IsTransient,
	}
}

// Do runs fn until it succeeds, fails with a non-retryable error, or the
// attempt budget is exhausted. Exhaustion returns an error wrapping
// [ErrRetriesExhausted]; callers that should degrade to "no result" check
// for it with errors.Is.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}

	var last error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		last = fn()
		if last == nil {
			return nil
		}
		if p.Retryable == nil || !p.Retryable(last) {
			return last
		}
		if attempt == p.MaxAttempts {
			break
		}

		wait := time.Duration(0)
		if p.Backoff != nil {
			wait = p.Backoff(attempt)
		}
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return fmt.Errorf("%w after %d attempts: %v", ErrRetriesExhausted, p.MaxAttempts, last)
}
