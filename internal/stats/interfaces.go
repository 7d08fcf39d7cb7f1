package stats

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RecordSource supplies the already-materialized records a report is computed
// from. A nil agencyID means no agency filter.
type RecordSource interface {
	FetchBookings(ctx context.Context, start, end time.Time, agencyID *uuid.UUID) ([]BookingRecord, error)
	FetchCarCount(ctx context.Context, agencyIDs []uuid.UUID) (int, error)
	FetchViews(ctx context.Context, start, end time.Time, agencyID *uuid.UUID) ([]ViewRecord, error)
	FetchSupplierNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
}

// ReportBuilder produces agency and platform reports
type ReportBuilder interface {
	BuildAgencyReport(ctx context.Context, agencyID uuid.UUID, start, end time.Time) (*AgencyReport, error)
	BuildAdminReport(ctx context.Context, start, end time.Time) (*AdminReport, error)
}

var (
	_ ReportBuilder = (*Service)(nil)
	_ ReportBuilder = (*CachedReports)(nil)
	_ RecordSource  = (*PostgresSource)(nil)
	_ RecordSource  = (*ResilientSource)(nil)
)
