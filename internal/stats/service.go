package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/rental-insights/pkg/logger"
	"github.com/richxcame/rental-insights/pkg/tracing"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const tracerName = "stats-service"

// Service assembles agency and platform reports from a RecordSource
type Service struct {
	source   RecordSource
	topLimit int
	now      func() time.Time
}

// NewService creates a new report service. A non-positive topLimit falls back
// to DefaultTopLimit.
func NewService(source RecordSource, topLimit int) *Service {
	if topLimit <= 0 {
		topLimit = DefaultTopLimit
	}
	return &Service{source: source, topLimit: topLimit, now: time.Now}
}

// coreMetrics is everything both reports compute from the same inputs.
type coreMetrics struct {
	counts           BookingCounts
	summary          Summary
	statusBreakdown  []StatusCount
	monthly          []PeriodRevenue
	weekly           []WeeklyRevenue
	views            []ViewsPoint
	revenueByModel   []ModelRevenue
	occupancyByModel []ModelOccupancy
	cancellations    PaymentCancellations
	topModels        []TopModel
}

func computeCore(bookings []BookingRecord, carCount int, views []ViewRecord, start, end time.Time, topLimit int) coreMetrics {
	counts := CountBookings(bookings)
	revenue := TotalRevenue(bookings)

	return coreMetrics{
		counts: counts,
		summary: Summary{
			TotalRevenue:             revenue,
			TotalBookings:            counts.Total,
			AcceptedBookings:         counts.Accepted,
			CancelledBookings:        counts.Cancelled,
			AcceptanceRate:           AcceptanceRate(counts.Accepted, counts.Total),
			CancellationRate:         CancellationRate(counts.Cancelled, counts.Total),
			AverageRevenuePerBooking: AverageRevenuePerBooking(revenue, counts.Accepted),
			AverageDuration:          AverageDuration(bookings),
			OccupancyRate:            OccupancyRate(bookings, carCount, start, end),
			RebookingRate:            RebookingRate(bookings),
			AverageLeadTime:          AverageLeadTime(bookings),
		},
		statusBreakdown:  StatusBreakdown(bookings),
		monthly:          MonthlyRevenue(bookings, start, end),
		weekly:           WeeklyTrend(bookings, start, end),
		views:            ViewsOverTime(views),
		revenueByModel:   RevenueByModel(bookings, topLimit),
		occupancyByModel: OccupancyByModel(bookings, start, end, topLimit),
		cancellations:    CancellationByPaymentStatus(bookings),
		topModels:        TopModelsByBookings(bookings, topLimit),
	}
}

// BuildAgencyReport fetches one agency's bookings, fleet size and views for
// the window and assembles its report. Any fetch failure fails the report.
func (s *Service) BuildAgencyReport(ctx context.Context, agencyID uuid.UUID, start, end time.Time) (*AgencyReport, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "stats.BuildAgencyReport")
	defer span.End()
	span.SetAttributes(tracing.ReportAttributes(kindAgency, agencyID.String(), start, end)...)
	began := time.Now()

	var (
		bookings []BookingRecord
		carCount int
		views    []ViewRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		bookings, err = s.source.FetchBookings(gctx, start, end, &agencyID)
		if err != nil {
			return fmt.Errorf("fetch bookings: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		carCount, err = s.source.FetchCarCount(gctx, []uuid.UUID{agencyID})
		if err != nil {
			return fmt.Errorf("fetch car count: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		views, err = s.source.FetchViews(gctx, start, end, &agencyID)
		if err != nil {
			return fmt.Errorf("fetch views: %w", err)
		}
		return nil
	})
	if err := waitAll(ctx, g); err != nil {
		s.recordFailure(ctx, span, kindAgency, err, zap.String("agency_id", agencyID.String()))
		return nil, err
	}

	core := computeCore(bookings, carCount, views, start, end, s.topLimit)
	report := &AgencyReport{
		AgencyID:                     agencyID,
		Range:                        DateRange{Start: start, End: end},
		GeneratedAt:                  s.now(),
		Summary:                      core.summary,
		StatusBreakdown:              core.statusBreakdown,
		MonthlyRevenue:               core.monthly,
		WeeklyTrend:                  core.weekly,
		ViewsOverTime:                core.views,
		RevenueByModel:               core.revenueByModel,
		OccupancyByModel:             core.occupancyByModel,
		CancellationsByPaymentStatus: core.cancellations,
		TopModels:                    core.topModels,
	}

	reportBuildDuration.WithLabelValues(kindAgency).Observe(time.Since(began).Seconds())
	logger.DebugContext(ctx, "agency report built",
		zap.String("agency_id", agencyID.String()),
		zap.Time("start", start),
		zap.Time("end", end),
		zap.Int("bookings", len(bookings)),
		zap.Int("views", len(views)),
		zap.Int("cars", carCount),
		zap.Duration("duration", time.Since(began)),
	)
	return report, nil
}

// BuildAdminReport assembles the platform-wide report. Year-over-year revenue
// always covers calendar years derived from end, whatever the window.
func (s *Service) BuildAdminReport(ctx context.Context, start, end time.Time) (*AdminReport, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "stats.BuildAdminReport")
	defer span.End()
	span.SetAttributes(tracing.ReportAttributes(kindAdmin, "", start, end)...)
	began := time.Now()

	currentYearStart, _ := YearBounds(end)
	// Overlap fetches return bookings spanning New Year to both years; each
	// year only counts the bookings picked up in it.
	previousYearStart, previousYearEnd := PreviousYearBounds(end)

	var (
		bookings         []BookingRecord
		views            []ViewRecord
		currentYear      []BookingRecord
		previousYear     []BookingRecord
		supplierNames    map[uuid.UUID]string
		carCount         int
		activeSupplierID []uuid.UUID
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		bookings, err = s.source.FetchBookings(gctx, start, end, nil)
		if err != nil {
			return fmt.Errorf("fetch bookings: %w", err)
		}

		// Names and fleet size depend only on which suppliers have bookings.
		activeSupplierID = DistinctSuppliers(bookings)
		if len(activeSupplierID) == 0 {
			supplierNames = map[uuid.UUID]string{}
			return nil
		}

		inner, ictx := errgroup.WithContext(gctx)
		inner.Go(func() error {
			var err error
			supplierNames, err = s.source.FetchSupplierNames(ictx, activeSupplierID)
			if err != nil {
				return fmt.Errorf("fetch supplier names: %w", err)
			}
			return nil
		})
		inner.Go(func() error {
			var err error
			carCount, err = s.source.FetchCarCount(ictx, activeSupplierID)
			if err != nil {
				return fmt.Errorf("fetch car count: %w", err)
			}
			return nil
		})
		return inner.Wait()
	})
	g.Go(func() error {
		var err error
		views, err = s.source.FetchViews(gctx, start, end, nil)
		if err != nil {
			return fmt.Errorf("fetch views: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		currentYear, err = s.source.FetchBookings(gctx, currentYearStart, end, nil)
		if err != nil {
			return fmt.Errorf("fetch current year bookings: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		previousYear, err = s.source.FetchBookings(gctx, previousYearStart, previousYearEnd, nil)
		if err != nil {
			return fmt.Errorf("fetch previous year bookings: %w", err)
		}
		return nil
	})
	if err := waitAll(ctx, g); err != nil {
		s.recordFailure(ctx, span, kindAdmin, err)
		return nil, err
	}

	core := computeCore(bookings, carCount, views, start, end, s.topLimit)
	report := &AdminReport{
		Range:       DateRange{Start: start, End: end},
		GeneratedAt: s.now(),
		Summary: AdminSummary{
			Summary:             core.summary,
			ActiveAgencies:      len(activeSupplierID),
			CurrentYearRevenue:  TotalRevenue(StartedWithin(currentYear, currentYearStart, end)),
			PreviousYearRevenue: TotalRevenue(StartedWithin(previousYear, previousYearStart, previousYearEnd)),
			ConversionRate:      ConversionRate(core.counts.Accepted, len(views)),
		},
		RevenueByStatus:              core.statusBreakdown,
		MonthlyRevenue:               core.monthly,
		WeeklyTrend:                  core.weekly,
		ViewsOverTime:                core.views,
		RevenueByModel:               core.revenueByModel,
		OccupancyByModel:             core.occupancyByModel,
		CancellationsByPaymentStatus: core.cancellations,
		TopModels:                    core.topModels,
		AverageDurationByAgency:      AverageDurationByAgency(bookings, supplierNames),
	}

	reportBuildDuration.WithLabelValues(kindAdmin).Observe(time.Since(began).Seconds())
	logger.DebugContext(ctx, "admin report built",
		zap.Time("start", start),
		zap.Time("end", end),
		zap.Int("bookings", len(bookings)),
		zap.Int("views", len(views)),
		zap.Int("agencies", len(activeSupplierID)),
		zap.Int("cars", carCount),
		zap.Duration("duration", time.Since(began)),
	)
	return report, nil
}

// waitAll waits for every fetch and refuses to report success if the caller
// has gone away in the meantime.
func waitAll(ctx context.Context, g *errgroup.Group) error {
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (s *Service) recordFailure(ctx context.Context, span trace.Span, kind string, err error, fields ...zap.Field) {
	reportFailuresTotal.WithLabelValues(kind).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	logger.ErrorContext(ctx, "failed to build report",
		append(fields, zap.String("kind", kind), zap.Error(err))...,
	)
}
