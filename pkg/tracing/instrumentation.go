package tracing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Database span attributes
const (
	DBSystemKey    = attribute.Key("db.system")
	DBStatementKey = attribute.Key("db.statement")
	DBOperationKey = attribute.Key("db.operation")
	DBRowsKey      = attribute.Key("db.rows_returned")
)

// Redis span attributes
const (
	RedisCommandKey = attribute.Key("redis.command")
	RedisKeyKey     = attribute.Key("redis.key")
)

// Report span attributes
const (
	ReportKindKey  = attribute.Key("report.kind")
	AgencyIDKey    = attribute.Key("agency.id")
	RangeStartKey  = attribute.Key("report.range_start")
	RangeEndKey    = attribute.Key("report.range_end")
	RangeDaysKey   = attribute.Key("report.range_days")
	CacheResultKey = attribute.Key("cache.result")
)

// TraceDBQuery wraps a database query with tracing. fn returns the number of
// rows it read so the span can carry it.
func TraceDBQuery(ctx context.Context, tracerName, operation, query string, fn func(context.Context) (int, error)) error {
	ctx, span := StartSpan(ctx, tracerName, fmt.Sprintf("db.%s", operation),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	defer span.End()

	span.SetAttributes(
		DBSystemKey.String("postgresql"),
		DBOperationKey.String(operation),
		DBStatementKey.String(query),
	)

	rows, err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetAttributes(DBRowsKey.Int(rows))
	span.SetStatus(codes.Ok, "")
	return nil
}

// TraceRedisCommand wraps a Redis command with tracing. A cache miss is not
// an error.
func TraceRedisCommand(ctx context.Context, tracerName, command, key string, fn func(context.Context) error) error {
	ctx, span := StartSpan(ctx, tracerName, fmt.Sprintf("redis.%s", command),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	defer span.End()

	span.SetAttributes(
		attribute.String("db.system", "redis"),
		RedisCommandKey.String(command),
		RedisKeyKey.String(key),
	)

	err := fn(ctx)
	if err != nil && !errors.Is(err, redis.Nil) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	return err
}

// ReportAttributes describes the report being built. agencyID is omitted for
// platform-wide reports.
func ReportAttributes(kind, agencyID string, start, end time.Time) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 5)
	attrs = append(attrs,
		ReportKindKey.String(kind),
		RangeStartKey.String(start.UTC().Format(time.RFC3339)),
		RangeEndKey.String(end.UTC().Format(time.RFC3339)),
	)
	if agencyID != "" {
		attrs = append(attrs, AgencyIDKey.String(agencyID))
	}
	if !end.Before(start) {
		attrs = append(attrs, RangeDaysKey.Int(int(end.Sub(start).Hours()/24)+1))
	}
	return attrs
}
