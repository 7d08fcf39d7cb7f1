package stats

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/rental-insights/pkg/common"
	"github.com/richxcame/rental-insights/pkg/database"
	"github.com/richxcame/rental-insights/pkg/logger"
	"github.com/richxcame/rental-insights/pkg/resilience"
	"go.uber.org/zap"
)

// ResilientSource retries transient record fetch failures and stops calling
// the store while its breaker is open.
type ResilientSource struct {
	source  RecordSource
	breaker *resilience.CircuitBreaker
	retry   resilience.RetryConfig
}

// NewResilientSource creates a resilient wrapper around source. A nil breaker
// gets one named "stats-records" with default thresholds.
func NewResilientSource(source RecordSource, breaker *resilience.CircuitBreaker, retry resilience.RetryConfig) *ResilientSource {
	if breaker == nil {
		breaker = resilience.NewCircuitBreaker(resilience.Settings{
			Name:             "stats-records",
			Interval:         60 * time.Second,
			Timeout:          30 * time.Second,
			FailureThreshold: 5,
			SuccessThreshold: 2,
		}, RecordSourceFallback)
	}
	retry.RetryableChecker = isRecordFetchRetryable

	return &ResilientSource{
		source:  source,
		breaker: breaker,
		retry:   retry,
	}
}

// RecordSourceFallback answers for the record store while its breaker is open.
func RecordSourceFallback(ctx context.Context, err error) error {
	logger.ErrorContext(ctx, "record store breaker open, report unavailable", zap.Error(err))
	return common.NewServiceUnavailableError("reports are temporarily unavailable, please try again")
}

// isRecordFetchRetryable retries only transient database failures. An open
// breaker answers with an AppError, which is final.
func isRecordFetchRetryable(err error) bool {
	var appErr *common.AppError
	if errors.As(err, &appErr) || errors.Is(err, resilience.ErrCircuitOpen) {
		return false
	}
	return database.IsTransient(err)
}

func guarded[T any](ctx context.Context, r *ResilientSource, operation string, fetch func(context.Context) (T, error)) (T, error) {
	return resilience.Do(ctx, r.retry, operation, func(ctx context.Context) (T, error) {
		return resilience.Guard(ctx, r.breaker, fetch)
	})
}

func (r *ResilientSource) FetchBookings(ctx context.Context, start, end time.Time, agencyID *uuid.UUID) ([]BookingRecord, error) {
	return guarded(ctx, r, "stats.fetch_bookings", func(ctx context.Context) ([]BookingRecord, error) {
		return r.source.FetchBookings(ctx, start, end, agencyID)
	})
}

func (r *ResilientSource) FetchCarCount(ctx context.Context, agencyIDs []uuid.UUID) (int, error) {
	return guarded(ctx, r, "stats.fetch_car_count", func(ctx context.Context) (int, error) {
		return r.source.FetchCarCount(ctx, agencyIDs)
	})
}

func (r *ResilientSource) FetchViews(ctx context.Context, start, end time.Time, agencyID *uuid.UUID) ([]ViewRecord, error) {
	return guarded(ctx, r, "stats.fetch_views", func(ctx context.Context) ([]ViewRecord, error) {
		return r.source.FetchViews(ctx, start, end, agencyID)
	})
}

func (r *ResilientSource) FetchSupplierNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	return guarded(ctx, r, "stats.fetch_supplier_names", func(ctx context.Context) (map[uuid.UUID]string, error) {
		return r.source.FetchSupplierNames(ctx, ids)
	})
}
