package resilience

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker"
)

const (
	outcomeSuccess  = "success"
	outcomeFailure  = "failure"
	outcomeRejected = "rejected"
)

var (
	breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "upstream_breaker_state",
		Help: "Breaker state per upstream: 0 closed, 0.5 half-open, 1 open",
	}, []string{"breaker"})

	breakerCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "upstream_breaker_calls_total",
		Help: "Calls made through a breaker by outcome (success, failure, rejected)",
	}, []string{"breaker", "outcome"})

	breakerTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "upstream_breaker_transitions_total",
		Help: "Breaker state changes",
	}, []string{"breaker", "from", "to"})

	retryAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "upstream_retry_attempts_total",
		Help: "Individual attempts made by retried operations",
	}, []string{"operation", "outcome"})

	retryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "upstream_retry_duration_seconds",
		Help:    "Wall time of a retried operation across all of its attempts",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 13),
	}, []string{"operation", "outcome"})
)

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 0.5
	case gobreaker.StateOpen:
		return 1
	}
	return -1
}

func observeState(name string, s gobreaker.State) {
	breakerState.WithLabelValues(name).Set(stateValue(s))
}

func observeTransition(name string, from, to gobreaker.State) {
	breakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
	observeState(name, to)
}

func observeCall(name, outcome string) {
	breakerCalls.WithLabelValues(name, outcome).Inc()
}

func outcomeOf(err error) string {
	if err != nil {
		return outcomeFailure
	}
	return outcomeSuccess
}
