package stats

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	kindAgency = "agency"
	kindAdmin  = "admin"
)

var (
	reportBuildDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stats_report_build_duration_seconds",
		Help:    "Time spent fetching records and assembling a report",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
	}, []string{"kind"})

	reportFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stats_report_failures_total",
		Help: "Reports that could not be produced because a record fetch failed",
	}, []string{"kind"})

	reportCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stats_report_cache_total",
		Help: "Report cache lookups by result (hit, miss, error)",
	}, []string{"kind", "result"})
)

var reportInvalidationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "stats_report_cache_invalidations_total",
	Help: "Cached reports dropped after a booking or fleet change",
}, []string{"kind"})
