package tracing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(previous) })
	return recorder
}

func attr(span sdktrace.ReadOnlySpan, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTraceDBQuery(t *testing.T) {
	recorder := recordSpans(t)

	err := TraceDBQuery(context.Background(), "test", "select_bookings", "SELECT 1", func(context.Context) (int, error) {
		return 7, nil
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = TraceDBQuery(context.Background(), "test", "count_cars", "SELECT COUNT(*)", func(context.Context) (int, error) {
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "db.select_bookings", spans[0].Name())
	rows, ok := attr(spans[0], DBRowsKey)
	require.True(t, ok)
	assert.Equal(t, int64(7), rows.AsInt64())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)

	assert.Equal(t, codes.Error, spans[1].Status().Code)
	_, ok = attr(spans[1], DBRowsKey)
	assert.False(t, ok)
}

func TestTraceRedisCommand_MissIsNotAnError(t *testing.T) {
	recorder := recordSpans(t)

	err := TraceRedisCommand(context.Background(), "test", "get", "k", func(context.Context) error {
		return redis.Nil
	})
	assert.ErrorIs(t, err, redis.Nil)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "redis.get", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
}

func TestReportAttributes(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)

	attrs := ReportAttributes("agency", "a-1", start, end)
	values := make(map[attribute.Key]attribute.Value, len(attrs))
	for _, kv := range attrs {
		values[kv.Key] = kv.Value
	}

	assert.Equal(t, "agency", values[ReportKindKey].AsString())
	assert.Equal(t, "a-1", values[AgencyIDKey].AsString())
	assert.Equal(t, "2024-01-01T00:00:00Z", values[RangeStartKey].AsString())
	assert.Equal(t, int64(31), values[RangeDaysKey].AsInt64())

	platform := ReportAttributes("admin", "", end, start)
	for _, kv := range platform {
		assert.NotEqual(t, AgencyIDKey, kv.Key)
		assert.NotEqual(t, RangeDaysKey, kv.Key, "inverted windows carry no day count")
	}
}

func TestSampleRate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want float64
	}{
		{name: "configured", cfg: Config{SampleRate: 0.3, Environment: "production"}, want: 0.3},
		{name: "capped", cfg: Config{SampleRate: 4}, want: 1},
		{name: "production default", cfg: Config{Environment: "production"}, want: 0.2},
		{name: "development default", cfg: Config{Environment: "development"}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SampleRate(tt.cfg))
		})
	}
}

func TestInitTracer_Disabled(t *testing.T) {
	tp, err := InitTracer(Config{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, tp)
}
