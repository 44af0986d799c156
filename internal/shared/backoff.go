package shared

import (
	"context"
	"time"
)

// Backoff is a bounded exponential retry policy. The same policy object is
// shared by session re-authentication, track prefetching, and playlist
// fetches; only the error classification differs per caller.
type Backoff struct {
	Initial  time.Duration // delay before the first retry
	Max      time.Duration // ceiling for any single delay
	Factor   float64       // multiplier applied per attempt
	Attempts int           // total tries, including the first
}

// DefaultBackoff returns the policy used across the application.
func DefaultBackoff() Backoff {
	return Backoff{
		Initial:  250 * time.Millisecond,
		Max:      10 * time.Second,
		Factor:   2.0,
		Attempts: 5,
	}
}

// Delay returns the wait before retry number attempt (0-based).
func (b Backoff) Delay(attempt int) time.Duration {
	d := b.Initial
	for i := 0; i < attempt; i++ {
		d = time.Duration(float64(d) * b.Factor)
		if d >= b.Max {
			return b.Max
		}
	}
	if d > b.Max {
		return b.Max
	}
	return d
}

// Retry runs op until it succeeds, the policy is exhausted, the error is not
// retryable, or ctx is cancelled. Returns the last error seen.
func (b Backoff) Retry(ctx context.Context, retryable func(error) bool, op func() error) error {
	attempts := b.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(b.Delay(attempt - 1))
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		if err = op(); err == nil {
			return nil
		}
		if retryable != nil && !retryable(err) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	return err
}
