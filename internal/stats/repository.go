package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/richxcame/rental-insights/pkg/tracing"
)

const repositoryTracer = "stats-repository"

// PostgresSource reads booking, fleet and view records from PostgreSQL
type PostgresSource struct {
	db      *pgxpool.Pool
	builder squirrel.StatementBuilderType
}

// NewPostgresSource creates a new PostgreSQL record source
func NewPostgresSource(db *pgxpool.Pool) *PostgresSource {
	return &PostgresSource{
		db:      db,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// uuidStrings keeps squirrel from expanding a uuid.UUID, which is a byte
// array, into one placeholder per byte.
func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func (s *PostgresSource) bookingsQuery(start, end time.Time, agencyID *uuid.UUID) (string, []any, error) {
	q := s.builder.
		Select(
			"b.id",
			"b.status",
			"b.price",
			`b."from" AS from_date`,
			`b."to" AS to_date`,
			"b.created_at",
			"b.supplier_id",
			"COALESCE(sp.full_name, '') AS supplier_name",
			"b.car_id",
			"COALESCE(c.name, '') AS car_name",
			"b.driver_id",
			"b.payment_intent_id",
			"b.session_id",
		).
		From("bookings b").
		LeftJoin("suppliers sp ON sp.id = b.supplier_id").
		LeftJoin("cars c ON c.id = b.car_id").
		Where(squirrel.LtOrEq{`b."from"`: end}).
		Where(squirrel.GtOrEq{`b."to"`: start}).
		OrderBy(`b."from"`, "b.id")

	if agencyID != nil {
		q = q.Where(squirrel.Eq{"b.supplier_id": agencyID.String()})
	}
	return q.ToSql()
}

// FetchBookings returns every booking whose rental period overlaps the window.
func (s *PostgresSource) FetchBookings(ctx context.Context, start, end time.Time, agencyID *uuid.UUID) ([]BookingRecord, error) {
	query, args, err := s.bookingsQuery(start, end, agencyID)
	if err != nil {
		return nil, fmt.Errorf("build bookings query: %w", err)
	}

	var records []BookingRecord
	err = tracing.TraceDBQuery(ctx, repositoryTracer, "select_bookings", query, func(ctx context.Context) (int, error) {
		if err := pgxscan.Select(ctx, s.db, &records, query, args...); err != nil {
			return 0, err
		}
		return len(records), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get bookings: %w", err)
	}
	return records, nil
}

func (s *PostgresSource) carCountQuery(agencyIDs []uuid.UUID) (string, []any, error) {
	return s.builder.
		Select("COUNT(*)").
		From("cars").
		Where(squirrel.Eq{"deleted_at": nil}).
		Where(squirrel.Eq{"supplier_id": uuidStrings(agencyIDs)}).
		ToSql()
}

// FetchCarCount counts live cars owned by the given agencies.
func (s *PostgresSource) FetchCarCount(ctx context.Context, agencyIDs []uuid.UUID) (int, error) {
	if len(agencyIDs) == 0 {
		return 0, nil
	}

	query, args, err := s.carCountQuery(agencyIDs)
	if err != nil {
		return 0, fmt.Errorf("build car count query: %w", err)
	}

	var count int
	err = tracing.TraceDBQuery(ctx, repositoryTracer, "count_cars", query, func(ctx context.Context) (int, error) {
		return 1, pgxscan.Get(ctx, s.db, &count, query, args...)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count cars: %w", err)
	}
	return count, nil
}

func (s *PostgresSource) viewsQuery(start, end time.Time, agencyID *uuid.UUID) (string, []any, error) {
	q := s.builder.
		Select("v.viewed_at", "v.paid_view").
		From("car_views v").
		Where(squirrel.GtOrEq{"v.viewed_at": start}).
		Where(squirrel.LtOrEq{"v.viewed_at": end})

	if agencyID != nil {
		q = q.Join("cars c ON c.id = v.car_id").
			Where(squirrel.Eq{"c.supplier_id": agencyID.String()})
	}
	return q.ToSql()
}

// FetchViews returns the car page views recorded inside the window.
func (s *PostgresSource) FetchViews(ctx context.Context, start, end time.Time, agencyID *uuid.UUID) ([]ViewRecord, error) {
	query, args, err := s.viewsQuery(start, end, agencyID)
	if err != nil {
		return nil, fmt.Errorf("build views query: %w", err)
	}

	var views []ViewRecord
	err = tracing.TraceDBQuery(ctx, repositoryTracer, "select_views", query, func(ctx context.Context) (int, error) {
		if err := pgxscan.Select(ctx, s.db, &views, query, args...); err != nil {
			return 0, err
		}
		return len(views), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get views: %w", err)
	}
	return views, nil
}

type supplierName struct {
	ID       uuid.UUID `db:"id"`
	FullName string    `db:"full_name"`
}

func (s *PostgresSource) supplierNamesQuery(ids []uuid.UUID) (string, []any, error) {
	return s.builder.
		Select("id", "COALESCE(full_name, '') AS full_name").
		From("suppliers").
		Where(squirrel.Eq{"id": uuidStrings(ids)}).
		ToSql()
}

// FetchSupplierNames resolves supplier display names. Unknown ids are absent
// from the result.
func (s *PostgresSource) FetchSupplierNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	query, args, err := s.supplierNamesQuery(ids)
	if err != nil {
		return nil, fmt.Errorf("build supplier names query: %w", err)
	}

	var rows []supplierName
	err = tracing.TraceDBQuery(ctx, repositoryTracer, "select_supplier_names", query, func(ctx context.Context) (int, error) {
		if err := pgxscan.Select(ctx, s.db, &rows, query, args...); err != nil {
			return 0, err
		}
		return len(rows), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get supplier names: %w", err)
	}

	for _, r := range rows {
		names[r.ID] = r.FullName
	}
	return names, nil
}
