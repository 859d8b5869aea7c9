package llm

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// RetryPolicy governs how the client re-issues failed provider calls.
// MaxRetries counts attempts after the first; delays grow by Multiplier per
// attempt up to MaxDelay, which also bounds a provider-supplied Retry-After.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
	Jitter     bool
	Logger     *zap.Logger
}

// DefaultRetryPolicy returns the default policy: four retries starting at
// two seconds, doubling, capped at a minute.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 4,
		BaseDelay:  2 * time.Second,
		MaxDelay:   60 * time.Second,
		Multiplier: 2.0,
		Jitter:     true,
	}
}

// backoff returns the wait before retry attempt n (0-indexed). A rate limit
// carrying Retry-After overrides the schedule; ok is false when the provider
// asks for longer than MaxDelay, in which case the error is surfaced instead
// of waited out.
func (p RetryPolicy) backoff(attempt int, err error) (delay time.Duration, ok bool) {
	var rl *RateLimitError
	if errors.As(err, &rl) && rl.RetryAfter != nil {
		d := time.Duration(*rl.RetryAfter * float64(time.Second))
		if d > p.MaxDelay {
			return 0, false
		}
		return d, true
	}

	delay = p.BaseDelay
	for i := 0; i < attempt && delay < p.MaxDelay; i++ {
		delay = time.Duration(float64(delay) * p.Multiplier)
	}
	if delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	if p.Jitter {
		// +/- 50%
		delay = time.Duration(float64(delay) * (0.5 + rand.Float64()))
	}
	return delay, true
}

// Retry runs fn until it succeeds, the error is not retryable, or the
// attempt budget is spent. Context cancellation during a backoff wait is
// reported as a RequestTimeoutError.
func Retry[T any](ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	logger := policy.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	for attempt := 0; ; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if attempt >= policy.MaxRetries || !IsRetryable(err) {
			return zero, err
		}

		delay, ok := policy.backoff(attempt, err)
		if !ok {
			return zero, err
		}
		logger.Warn("retrying LLM request",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", policy.MaxRetries),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return zero, &RequestTimeoutError{ClientError: ClientError{Message: "request cancelled during retry", Cause: ctx.Err()}}
		case <-time.After(delay):
		}
	}
}
