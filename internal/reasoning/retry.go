package reasoning

import (
	"context"
	"math/rand"
	"time"

	"sdcritic/internal/logging"
)

// RetryPolicy is the shared backoff schedule for reasoning-service calls.
// Worst case with the defaults: 1s + 2s + jitter before the third and final
// attempt, each attempt bounded by the client timeout.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	MaxDelay    time.Duration
	Jitter      time.Duration
}

// DefaultRetryPolicy returns the policy every Layer-2 critic, evidence
// verifier and dispatched agent uses.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   1000 * time.Millisecond,
		Multiplier:  2,
		MaxDelay:    10000 * time.Millisecond,
		Jitter:      500 * time.Millisecond,
	}
}

// Do runs fn up to MaxAttempts times, backing off between attempts.
// Non-retryable errors are returned immediately. The final error is the
// last attempt's error.
func (p RetryPolicy) Do(ctx context.Context, op string, fn func() error) error {
	var lastErr error

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := p.sleep(ctx, attempt-1); err != nil {
				return err
			}
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !IsRetryable(lastErr) {
			logging.APIDebug("%s: non-retryable error, giving up: %v", op, lastErr)
			return lastErr
		}
		logging.Get(logging.CategoryAPI).Warn("%s: attempt %d/%d failed: %v", op, attempt, p.MaxAttempts, lastErr)
	}

	return lastErr
}

// sleep waits for the backoff delay before attempt n+1, honoring context
// cancellation.
func (p RetryPolicy) sleep(ctx context.Context, prevAttempts int) error {
	delay := p.BaseDelay
	for i := 1; i < prevAttempts; i++ {
		delay = time.Duration(float64(delay) * p.Multiplier)
	}
	if delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	if p.Jitter > 0 {
		delay += time.Duration(rand.Int63n(int64(p.Jitter)))
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
