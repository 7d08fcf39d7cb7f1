package logger

import (
	"context"
	"sync/atomic"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKey struct{}

const (
	correlationIDField = "correlation_id"
	traceIDField       = "trace_id"
)

var global atomic.Pointer[zap.Logger]

// Init builds the process logger: JSON at info level in production, coloured
// console output at debug level elsewhere. Every entry carries the service name.
func Init(environment, service string) error {
	var cfg zap.Config
	if environment == "production" {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	l, err := cfg.Build(zap.Fields(
		zap.String("service", service),
		zap.String("environment", environment),
	))
	if err != nil {
		return err
	}
	global.Store(l)
	return nil
}

// Replace swaps the process logger and returns a func restoring the previous one.
func Replace(l *zap.Logger) (restore func()) {
	prev := global.Swap(l)
	return func() { global.Store(prev) }
}

// Get returns the process logger. Before Init it is a development logger.
func Get() *zap.Logger {
	if l := global.Load(); l != nil {
		return l
	}
	global.CompareAndSwap(nil, zap.Must(zap.NewDevelopment()))
	return global.Load()
}

// WithContext adds the request's correlation ID and trace ID, when present.
func WithContext(ctx context.Context) *zap.Logger {
	l := Get()
	if ctx == nil {
		return l
	}

	var fields []zap.Field
	if id := CorrelationIDFromContext(ctx); id != "" {
		fields = append(fields, zap.String(correlationIDField, id))
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		fields = append(fields, zap.String(traceIDField, sc.TraceID().String()))
	}
	if len(fields) == 0 {
		return l
	}
	return l.With(fields...)
}

func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey{}, id)
}

func CorrelationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func Debug(msg string, fields ...zap.Field) { Get().Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { Get().Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { Get().Warn(msg, fields...) }

// Fatal logs and exits the process.
func Fatal(msg string, fields ...zap.Field) { Get().Fatal(msg, fields...) }

func DebugContext(ctx context.Context, msg string, fields ...zap.Field) {
	WithContext(ctx).Debug(msg, fields...)
}

func WarnContext(ctx context.Context, msg string, fields ...zap.Field) {
	WithContext(ctx).Warn(msg, fields...)
}

func ErrorContext(ctx context.Context, msg string, fields ...zap.Field) {
	WithContext(ctx).Error(msg, fields...)
}

// Sync flushes buffered entries.
func Sync() error {
	if l := global.Load(); l != nil {
		return l.Sync()
	}
	return nil
}
