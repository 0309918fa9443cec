package bootstrap

import (
	"context"
	"log/slog"
	"time"

	"github.com/projectatomic/commissaire-bootstrap/internal/store"
)

// RetryPolicy bounds retries of transient store failures.
type RetryPolicy struct {
	// MaxAttempts counts the first try. 1 disables retries.
	MaxAttempts int

	// BaseDelay is the wait before the second attempt; it doubles after
	// every further failure up to MaxDelay.
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// Backoff returns the wait after the given failed attempt (1-based).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 || p.BaseDelay <= 0 {
		return 0
	}
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// retrier runs one store operation under a per-request timeout and the
// retry policy.
type retrier struct {
	policy  RetryPolicy
	timeout time.Duration
	after   func(time.Duration) <-chan time.Time
}

// do calls fn until it succeeds, fails with a non-transient error, or
// attempts run out. It returns the number of attempts made.
func (r retrier) do(ctx context.Context, log *slog.Logger, fn func(context.Context) error) (int, error) {
	maxAttempts := r.policy.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for attempt := 1; ; attempt++ {
		err := r.once(ctx, fn)
		if err == nil {
			return attempt, nil
		}
		if !store.IsTransient(err) || attempt >= maxAttempts || ctx.Err() != nil {
			return attempt, err
		}

		delay := r.policy.Backoff(attempt)
		log.Warn("transient store failure, retrying",
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"delay", delay,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return attempt, ctx.Err()
		case <-r.after(delay):
		}
	}
}

func (r retrier) once(ctx context.Context, fn func(context.Context) error) error {
	if r.timeout <= 0 {
		return fn(ctx)
	}
	reqCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return fn(reqCtx)
}
