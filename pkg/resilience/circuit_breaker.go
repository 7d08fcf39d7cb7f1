package resilience

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/richxcame/rental-insights/pkg/config"
	"github.com/richxcame/rental-insights/pkg/logger"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ErrCircuitOpen is returned when the breaker refuses a call and no fallback is set.
var ErrCircuitOpen = errors.New("circuit breaker open")

const defaultFailureThreshold = 5

// Fallback decides what error a caller sees while the breaker is rejecting calls.
type Fallback func(ctx context.Context, err error) error

// Settings defines runtime options for the circuit breaker.
type Settings struct {
	Name             string
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
	SuccessThreshold uint32
}

// SettingsFromConfig builds breaker settings for the named upstream, applying
// any per-upstream override.
func SettingsFromConfig(name string, cfg config.CircuitBreakerConfig) Settings {
	s := cfg.SettingsFor(name)
	return Settings{
		Name:             name,
		Interval:         time.Duration(s.IntervalSeconds) * time.Second,
		Timeout:          time.Duration(s.TimeoutSeconds) * time.Second,
		FailureThreshold: uint32(s.FailureThreshold),
		SuccessThreshold: uint32(s.SuccessThreshold),
	}
}

// CircuitBreaker guards one upstream. A nil *CircuitBreaker lets every call through.
type CircuitBreaker struct {
	name     string
	cb       *gobreaker.CircuitBreaker
	fallback Fallback
}

var unnamedBreakers atomic.Uint64

// NewCircuitBreaker trips after FailureThreshold consecutive failures and
// admits SuccessThreshold probe calls once Timeout has passed.
func NewCircuitBreaker(settings Settings, fallback Fallback) *CircuitBreaker {
	name := settings.Name
	if name == "" {
		name = "breaker-" + strconv.FormatUint(unnamedBreakers.Add(1), 10)
	}

	threshold := settings.FailureThreshold
	if threshold == 0 {
		threshold = defaultFailureThreshold
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: settings.SuccessThreshold,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			observeTransition(name, from, to)
			logger.Warn("upstream breaker changed state",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	observeState(name, gobreaker.StateClosed)

	return &CircuitBreaker{name: name, cb: cb, fallback: fallback}
}

// Name returns the breaker name used in logs and metrics.
func (c *CircuitBreaker) Name() string {
	if c == nil {
		return ""
	}
	return c.name
}

// Open reports whether calls are currently being rejected.
func (c *CircuitBreaker) Open() bool {
	return c != nil && c.cb.State() == gobreaker.StateOpen
}

// Guard runs fn through the breaker.
func Guard[T any](ctx context.Context, c *CircuitBreaker, fn func(context.Context) (T, error)) (T, error) {
	if c == nil {
		return fn(ctx)
	}

	var zero T
	out, err := c.cb.Execute(func() (interface{}, error) {
		return fn(ctx)
	})
	switch {
	case err == nil:
		observeCall(c.name, outcomeSuccess)
		value, ok := out.(T)
		if !ok && out != nil {
			return zero, fmt.Errorf("breaker %s: unexpected result type %T", c.name, out)
		}
		return value, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		observeCall(c.name, outcomeRejected)
		if c.fallback != nil {
			return zero, c.fallback(ctx, err)
		}
		return zero, ErrCircuitOpen
	default:
		observeCall(c.name, outcomeFailure)
		return zero, err
	}
}
