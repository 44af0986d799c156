package shared

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBackoff(t *testing.T) {
	fast := Backoff{Initial: time.Millisecond, Max: 4 * time.Millisecond, Factor: 2.0, Attempts: 4}

	t.Run("Delay", func(t *testing.T) {
		b := Backoff{Initial: 250 * time.Millisecond, Max: 10 * time.Second, Factor: 2.0, Attempts: 5}

		want := []time.Duration{
			250 * time.Millisecond,
			500 * time.Millisecond,
			time.Second,
			2 * time.Second,
			4 * time.Second,
			8 * time.Second,
			10 * time.Second,
			10 * time.Second,
		}
		for attempt, expected := range want {
			if got := b.Delay(attempt); got != expected {
				t.Errorf("attempt %d: expected delay %v, got %v", attempt, expected, got)
			}
		}
	})

	t.Run("SucceedsFirstTry", func(t *testing.T) {
		calls := 0
		err := fast.Retry(context.Background(), nil, func() error {
			calls++
			return nil
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if calls != 1 {
			t.Errorf("expected 1 call, got %d", calls)
		}
	})

	t.Run("RetriesUntilSuccess", func(t *testing.T) {
		transient := errors.New("transient")
		calls := 0
		err := fast.Retry(context.Background(), func(error) bool { return true }, func() error {
			calls++
			if calls < 3 {
				return transient
			}
			return nil
		})
		if err != nil {
			t.Fatalf("expected eventual success, got %v", err)
		}
		if calls != 3 {
			t.Errorf("expected 3 calls, got %d", calls)
		}
	})

	t.Run("ExhaustsAttempts", func(t *testing.T) {
		transient := errors.New("transient")
		calls := 0
		err := fast.Retry(context.Background(), func(error) bool { return true }, func() error {
			calls++
			return transient
		})
		if !errors.Is(err, transient) {
			t.Fatalf("expected last error surfaced, got %v", err)
		}
		if calls != fast.Attempts {
			t.Errorf("expected %d calls, got %d", fast.Attempts, calls)
		}
	})

	t.Run("StopsOnUnretryable", func(t *testing.T) {
		fatal := errors.New("fatal")
		calls := 0
		err := fast.Retry(context.Background(), func(err error) bool { return !errors.Is(err, fatal) }, func() error {
			calls++
			return fatal
		})
		if !errors.Is(err, fatal) {
			t.Fatalf("expected fatal error, got %v", err)
		}
		if calls != 1 {
			t.Errorf("unretryable error should not be retried, got %d calls", calls)
		}
	})

	t.Run("HonorsCancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		transient := errors.New("transient")
		calls := 0
		err := fast.Retry(ctx, func(error) bool { return true }, func() error {
			calls++
			cancel()
			return transient
		})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if calls != 1 {
			t.Errorf("expected 1 call before cancellation, got %d", calls)
		}
	})

	t.Run("ZeroAttemptsRunsOnce", func(t *testing.T) {
		calls := 0
		b := Backoff{}
		if err := b.Retry(context.Background(), nil, func() error {
			calls++
			return nil
		}); err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if calls != 1 {
			t.Errorf("expected 1 call, got %d", calls)
		}
	})
}
