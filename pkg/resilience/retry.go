package resilience

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/richxcame/rental-insights/pkg/logger"
	"go.uber.org/zap"
)

// RetryConfig controls exponential backoff between attempts.
type RetryConfig struct {
	// MaxAttempts includes the first call.
	MaxAttempts       int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
	// EnableJitter draws each wait uniformly from [0, backoff).
	EnableJitter bool
	// RetryableChecker overrides the default classification.
	RetryableChecker func(error) bool
}

// DefaultRetryConfig makes three attempts, 100ms apart at first.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        2 * time.Second,
		BackoffMultiplier: 2,
		EnableJitter:      true,
	}
}

// Do calls fn until it succeeds, returns a non-retryable error, runs out of
// attempts or ctx is done. The last error is returned unchanged.
func Do[T any](ctx context.Context, cfg RetryConfig, operation string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	attempts := max(cfg.MaxAttempts, 1)
	began := time.Now()

	finish := func(err error) {
		retryDuration.WithLabelValues(operation, outcomeOf(err)).Observe(time.Since(began).Seconds())
	}

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			finish(err)
			return zero, err
		}

		out, err := fn(ctx)
		retryAttempts.WithLabelValues(operation, outcomeOf(err)).Inc()
		if err == nil {
			if attempt > 1 {
				logger.Info("upstream call recovered", zap.String("operation", operation), zap.Int("attempt", attempt))
			}
			finish(nil)
			return out, nil
		}

		if !cfg.retryable(err) {
			finish(err)
			return zero, err
		}
		if attempt == attempts {
			logger.Warn("upstream call failed, attempts exhausted",
				zap.String("operation", operation),
				zap.Int("attempts", attempt),
				zap.Error(err),
			)
			finish(err)
			return zero, err
		}

		wait := cfg.backoff(attempt)
		logger.Debug("retrying upstream call",
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			finish(ctx.Err())
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
}

// backoff is the wait after the given (1-based) failed attempt.
func (c RetryConfig) backoff(attempt int) time.Duration {
	multiplier := c.BackoffMultiplier
	if multiplier < 1 {
		multiplier = 1
	}

	wait := float64(c.InitialBackoff)
	for i := 1; i < attempt; i++ {
		wait *= multiplier
		if c.MaxBackoff > 0 && wait >= float64(c.MaxBackoff) {
			break
		}
	}
	if c.MaxBackoff > 0 && wait > float64(c.MaxBackoff) {
		wait = float64(c.MaxBackoff)
	}

	d := time.Duration(wait)
	if c.EnableJitter && d > 0 {
		d = time.Duration(rand.Int64N(int64(d)))
	}
	return d
}

func (c RetryConfig) retryable(err error) bool {
	if c.RetryableChecker != nil {
		return c.RetryableChecker(err)
	}
	return !errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded) &&
		!errors.Is(err, ErrCircuitOpen)
}
