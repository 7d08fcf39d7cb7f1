package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/richxcame/rental-insights/pkg/errors"
)

// SentryMiddleware attaches a Sentry hub to every request and reports panics.
func SentryMiddleware() gin.HandlerFunc {
	return sentrygin.New(sentrygin.Options{
		Repanic:         true,
		WaitForDelivery: false,
		Timeout:         2 * time.Second,
	})
}

// ErrorHandler reports unexpected request errors to Sentry. Place it after
// SentryMiddleware and the auth middleware.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		errors.AddBreadcrumbForRequest(c.Request.Method, routeLabel(c), statusCode, duration)

		for _, err := range c.Errors {
			if errors.ShouldReportError(err.Err, statusCode) {
				captureErrorWithContext(c, err.Err, statusCode, duration)
			}
		}

		if statusCode >= 500 && len(c.Errors) == 0 {
			hub := hubFor(c, statusCode)
			hub.CaptureMessage(fmt.Sprintf("HTTP %d: %s %s", statusCode, c.Request.Method, c.FullPath()))
		}
	}
}

// RecoveryWithSentry turns a panic into a 500 and reports it.
func RecoveryWithSentry() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				hub := hubFor(c, http.StatusInternalServerError)
				hub.RecoverWithContext(c.Request.Context(), rec)
				hub.Flush(2 * time.Second)

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"error": gin.H{
						"code":    http.StatusInternalServerError,
						"message": "an unexpected error occurred",
					},
				})
			}
		}()

		c.Next()
	}
}

func hubFor(c *gin.Context, statusCode int) *sentry.Hub {
	hub := sentrygin.GetHubFromContext(c)
	if hub == nil {
		hub = sentry.CurrentHub().Clone()
	}

	scope := hub.Scope()
	scope.SetRequest(c.Request)
	scope.SetLevel(getSentryLevel(statusCode))
	scope.SetTag("http.method", c.Request.Method)
	scope.SetTag("http.status_code", fmt.Sprintf("%d", statusCode))
	scope.SetTag("route", c.FullPath())

	if correlationID := c.GetString(CorrelationIDKey); correlationID != "" {
		scope.SetTag("correlation_id", correlationID)
	}
	if userID, err := GetUserID(c); err == nil {
		scope.SetUser(sentry.User{ID: userID.String(), IPAddress: c.ClientIP()})
	}
	if role, err := GetUserRole(c); err == nil {
		scope.SetTag("user_role", string(role))
	}
	if agencyID, ok := GetAgencyID(c); ok {
		scope.SetTag("agency_id", agencyID.String())
	}
	return hub
}

func captureErrorWithContext(c *gin.Context, err error, statusCode int, duration time.Duration) {
	hub := hubFor(c, statusCode)
	hub.Scope().SetContext("http", map[string]interface{}{
		"method":      c.Request.Method,
		"url":         c.Request.URL.String(),
		"status_code": statusCode,
		"duration_ms": duration.Milliseconds(),
		"handler":     c.HandlerName(),
	})
	hub.CaptureException(err)
}

// getSentryLevel maps HTTP status codes to Sentry severity levels
func getSentryLevel(statusCode int) sentry.Level {
	switch {
	case statusCode >= 500:
		return sentry.LevelError
	case statusCode == http.StatusTooManyRequests:
		return sentry.LevelWarning
	default:
		return sentry.LevelInfo
	}
}
