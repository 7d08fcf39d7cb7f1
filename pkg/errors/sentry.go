// Package errors reports unexpected failures to Sentry.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/richxcame/rental-insights/pkg/common"
	"github.com/richxcame/rental-insights/pkg/config"
	"github.com/richxcame/rental-insights/pkg/logger"
)

// ErrNoDSN is returned by InitSentry when error tracking is not configured.
var ErrNoDSN = stderrors.New("sentry DSN is not configured")

// scrubbedHeaders carry credentials and never leave the process.
var scrubbedHeaders = []string{"Authorization", "Cookie", "Proxy-Authorization"}

type SentryConfig struct {
	DSN              string
	Environment      string
	Release          string
	TracesSampleRate float64
	ServerName       string
}

func ConfigFromApp(cfg *config.Config, release string) *SentryConfig {
	return &SentryConfig{
		DSN:              cfg.Sentry.DSN,
		Environment:      cfg.Server.Environment,
		Release:          release,
		TracesSampleRate: cfg.Sentry.TracesSampleRate,
		ServerName:       cfg.Server.ServiceName,
	}
}

// InitSentry configures the global Sentry client. It returns ErrNoDSN when
// cfg has no DSN so the caller can log that tracking is off.
func InitSentry(cfg *SentryConfig) error {
	if cfg.DSN == "" {
		return ErrNoDSN
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		TracesSampleRate: cfg.TracesSampleRate,
		ServerName:       cfg.ServerName,
		AttachStacktrace: true,
		BeforeSend:       scrubEvent,
	})
	if err != nil {
		return fmt.Errorf("init sentry: %w", err)
	}
	return nil
}

// scrubEvent drops info and debug events and strips credentials from requests.
func scrubEvent(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	if event.Level == sentry.LevelInfo || event.Level == sentry.LevelDebug {
		return nil
	}
	if event.Request != nil {
		for _, h := range scrubbedHeaders {
			delete(event.Request.Headers, h)
		}
	}
	return event
}

func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}

// CaptureError reports err on a hub scoped to this call. Tags are indexed by
// Sentry; the correlation ID from ctx is added to them.
func CaptureError(ctx context.Context, err error, tags map[string]string) *sentry.EventID {
	if err == nil {
		return nil
	}

	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub().Clone()
	}

	var id *sentry.EventID
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		if correlationID := logger.CorrelationIDFromContext(ctx); correlationID != "" {
			scope.SetTag("correlation_id", correlationID)
		}
		id = hub.CaptureException(err)
	})
	return id
}

// AddBreadcrumbForRequest records a finished HTTP request on the current hub.
func AddBreadcrumbForRequest(method, route string, status int, took time.Duration) {
	level := sentry.LevelInfo
	switch {
	case status >= http.StatusInternalServerError:
		level = sentry.LevelError
	case status >= http.StatusBadRequest:
		level = sentry.LevelWarning
	}

	sentry.AddBreadcrumb(&sentry.Breadcrumb{
		Type:     "http",
		Category: "request",
		Level:    level,
		Data: map[string]interface{}{
			"method":      method,
			"route":       route,
			"status_code": status,
			"duration_ms": took.Milliseconds(),
		},
	})
}

// ShouldReportError is false for client errors, typed or inferred from the
// status, and for requests the client abandoned.
func ShouldReportError(err error, status int) bool {
	if err == nil || stderrors.Is(err, context.Canceled) {
		return false
	}

	var appErr *common.AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code >= http.StatusInternalServerError
	}
	return status < http.StatusBadRequest || status >= http.StatusInternalServerError
}
