package shared

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func testPolicy(maxAttempts int) Policy {
	return Policy{
		MaxAttempts: maxAttempts,
		Backoff:     func(int) time.Duration { return 0 },
		Retryable:   IsTransient,
	}
}

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := testPolicy(5).Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return fmt.Errorf("%w: try again", ErrRateLimited)
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Do() error = %v, want nil", err)
	}
	if calls != 3 {
		t.Errorf("fn called %d times, want 3", calls)
	}
}

func TestDoPermanentErrorNotRetried(t *testing.T) {
	calls := 0
	wantErr := fmt.Errorf("%w: status 401", ErrAuthFailed)

	err := testPolicy(5).Do(context.Background(), func() error {
		calls++
		return wantErr
	})

	if !errors.Is(err, ErrAuthFailed) {
		t.Errorf("Do() error = %v, want ErrAuthFailed", err)
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1", calls)
	}
}

func TestDoExhaustion(t *testing.T) {
	calls := 0
	err := testPolicy(5).Do(context.Background(), func() error {
		calls++
		return fmt.Errorf("%w: still down", ErrServiceUnavailable)
	})

	if !errors.Is(err, ErrRetriesExhausted) {
		t.Errorf("Do() error = %v, want ErrRetriesExhausted", err)
	}
	if calls != 5 {
		t.Errorf("fn called %d times, want 5", calls)
	}
}

func TestDoContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := testPolicy(5).Do(ctx, func() error {
		calls++
		return fmt.Errorf("%w", ErrTimeout)
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Do() error = %v, want context.Canceled", err)
	}
	if calls != 0 {
		t.Errorf("fn called %d times with cancelled context, want 0", calls)
	}
}

func TestDefaultPolicyBackoffGrowsLinearly(t *testing.T) {
	p := DefaultPolicy()

	if p.MaxAttempts != 5 {
		t.Errorf("MaxAttempts = %d, want 5", p.MaxAttempts)
	}
	for attempt := 1; attempt <= 4; attempt++ {
		want := time.Duration(attempt) * 800 * time.Millisecond
		if got := p.Backoff(attempt); got != want {
			t.Errorf("Backoff(%d) = %v, want %v", attempt, got, want)
		}
	}
}

func TestErrorClassification(t *testing.T) {
	tc := []struct {
		name      string
		err       error
		transient bool
		permanent bool
	}{
		{"timeout", fmt.Errorf("%w: deadline", ErrTimeout), true, false},
		{"rate limited", ErrRateLimited, true, false},
		{"unavailable", ErrServiceUnavailable, true, false},
		{"auth failed", ErrAuthFailed, false, true},
		{"not authenticated", ErrNotAuthenticated, false, true},
		{"token expired", ErrTokenExpired, false, true},
		{"bad request", ErrBadRequest, false, true},
		{"generic api", ErrAPIRequest, false, false},
		{"plain", errors.New("boom"), false, false},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.transient {
				t.Errorf("IsTransient() = %v, want %v", got, tt.transient)
			}
			if got := IsPermanent(tt.err); got != tt.permanent {
				t.Errorf("IsPermanent() = %v, want %v", got, tt.permanent)
			}
		})
	}
}
