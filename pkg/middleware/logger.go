package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/rental-insights/pkg/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RequestLogger writes one line per request. Probe and scrape routes log at
// debug; server errors at error and client errors at warn. Bodies are never
// logged: report payloads are large and exports are binary.
func RequestLogger(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("service", serviceName),
			zap.String("method", c.Request.Method),
			zap.String("route", routeLabel(c)),
			zap.String("path", c.Request.URL.Path),
			zap.String("query", c.Request.URL.RawQuery),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.Int("response_size", c.Writer.Size()),
			zap.String("ip", c.ClientIP()),
		}
		if userID, err := GetUserID(c); err == nil {
			fields = append(fields, zap.Stringer("user_id", userID))
		}
		if agencyID, ok := GetAgencyID(c); ok {
			fields = append(fields, zap.Stringer("agency_id", agencyID))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		logger.WithContext(c.Request.Context()).Log(requestLevel(c.FullPath(), status), "request completed", fields...)
	}
}

func requestLevel(route string, status int) zapcore.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zapcore.ErrorLevel
	case status >= http.StatusBadRequest:
		return zapcore.WarnLevel
	case strings.HasPrefix(route, "/health") || route == "/metrics":
		return zapcore.DebugLevel
	}
	return zapcore.InfoLevel
}
