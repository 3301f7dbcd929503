// Package resilience wraps upstream calls with a circuit breaker, bounded retries and a per-call timeout.
package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/abgdnv/rocketcart/pkg/config"
	"github.com/cenkalti/backoff/v5"
	"github.com/sony/gobreaker/v2"
)

// FailureFunc reports whether err is a system failure that should count against the breaker and be retried.
// Business outcomes such as "not found" must return false.
type FailureFunc func(err error) bool

// NewCircuitBreaker builds a breaker that trips on consecutive failures or on a failure ratio,
// ignoring errors for which isFailure returns false.
func NewCircuitBreaker[T any](name string, cfg config.CircuitBreakerConfig, isFailure FailureFunc) *gobreaker.CircuitBreaker[T] {
	halfOpen := cfg.HalfOpenRequests
	if halfOpen == 0 {
		halfOpen = 3
	}
	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: halfOpen,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures ||
				(counts.Requests > cfg.ConsecutiveFailures &&
					float64(counts.TotalFailures)/float64(counts.Requests)*100 > float64(cfg.ErrorRatePercent))
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !isFailure(err)
		},
	}
	return gobreaker.NewCircuitBreaker[T](st)
}

// Caller executes upstream calls through a breaker with retries, all bounded by one timeout.
type Caller[T any] struct {
	breaker   *gobreaker.CircuitBreaker[T]
	retry     config.RetryConfig
	timeout   time.Duration
	isFailure FailureFunc
}

// NewCaller creates a Caller. A zero timeout disables the per-call deadline.
func NewCaller[T any](name string, cfg config.ResilienceConfig, timeout time.Duration, isFailure FailureFunc) *Caller[T] {
	return &Caller[T]{
		breaker:   NewCircuitBreaker[T](name, cfg.CircuitBreaker, isFailure),
		retry:     cfg.Retry,
		timeout:   timeout,
		isFailure: isFailure,
	}
}

// Do runs op. Failures are retried with exponential backoff up to the configured attempts;
// other errors, an open breaker and an expired deadline end the call at once.
func (c *Caller[T]) Do(ctx context.Context, op func(ctx context.Context) (T, error)) (T, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.retry.InitialBackoff

	attempts := c.retry.MaxAttempts
	if attempts == 0 {
		attempts = 1
	}

	return backoff.Retry(ctx, func() (T, error) {
		res, err := c.breaker.Execute(func() (T, error) {
			return op(ctx)
		})
		if err == nil {
			return res, nil
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) ||
			ctx.Err() != nil || !c.isFailure(err) {
			return res, backoff.Permanent(err)
		}
		return res, err
	}, backoff.WithBackOff(eb), backoff.WithMaxTries(attempts))
}

// State reports the breaker state, mostly for diagnostics.
func (c *Caller[T]) State() gobreaker.State {
	return c.breaker.State()
}
