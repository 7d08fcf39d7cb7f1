package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	t.Cleanup(Replace(zap.New(core)))
	return logs
}

func TestCorrelationIDRoundTrip(t *testing.T) {
	ctx := ContextWithCorrelationID(context.Background(), "req-1")
	assert.Equal(t, "req-1", CorrelationIDFromContext(ctx))
	assert.Empty(t, CorrelationIDFromContext(context.Background()))
}

func TestWithContext_Fields(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	traced := trace.ContextWithSpanContext(context.Background(),
		trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID}))

	tests := []struct {
		name string
		ctx  context.Context
		want map[string]interface{}
	}{
		{"bare", context.Background(), map[string]interface{}{}},
		{"correlation id", ContextWithCorrelationID(context.Background(), "req-2"), map[string]interface{}{"correlation_id": "req-2"}},
		{"trace", traced, map[string]interface{}{"trace_id": traceID.String()}},
		{"both", ContextWithCorrelationID(traced, "req-3"), map[string]interface{}{"correlation_id": "req-3", "trace_id": traceID.String()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := observe(t)

			WithContext(tt.ctx).Info("report built")

			require.Equal(t, 1, logs.Len())
			assert.Equal(t, tt.want, logs.All()[0].ContextMap())
		})
	}
}

func TestLevelHelpers(t *testing.T) {
	logs := observe(t)
	ctx := ContextWithCorrelationID(context.Background(), "req-4")

	Debug("d")
	Info("i")
	Warn("w")
	WarnContext(ctx, "wc")
	ErrorContext(ctx, "ec")
	DebugContext(ctx, "dc")

	levels := make([]zapcore.Level, 0, logs.Len())
	for _, e := range logs.All() {
		levels = append(levels, e.Level)
	}
	assert.Equal(t, []zapcore.Level{
		zapcore.DebugLevel, zapcore.InfoLevel, zapcore.WarnLevel,
		zapcore.WarnLevel, zapcore.ErrorLevel, zapcore.DebugLevel,
	}, levels)
	assert.Equal(t, 3, logs.FilterField(zap.String("correlation_id", "req-4")).Len())
}

func TestInit(t *testing.T) {
	t.Cleanup(Replace(nil))

	for _, env := range []string{"production", "development"} {
		require.NoError(t, Init(env, "stats-service"))
		assert.NotNil(t, Get())
	}
}

func TestGet_FallsBackBeforeInit(t *testing.T) {
	t.Cleanup(Replace(nil))
	assert.NotNil(t, Get())
}
