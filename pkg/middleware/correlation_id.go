package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/richxcame/rental-insights/pkg/logger"
)

const (
	CorrelationIDHeader = "X-Request-ID"
	// LegacyCorrelationIDHeader is still sent by older dashboard builds.
	LegacyCorrelationIDHeader = "X-Correlation-ID"
	CorrelationIDKey          = "correlation_id"
)

// CorrelationID tags each request with a UUID taken from the request headers,
// or a fresh one when they carry none. The ID is echoed in the response and
// attached to the request context for logging.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := incomingCorrelationID(c)
		if id == "" {
			id = uuid.NewString()
		}

		c.Set(CorrelationIDKey, id)
		c.Header(CorrelationIDHeader, id)
		c.Request = c.Request.WithContext(logger.ContextWithCorrelationID(c.Request.Context(), id))

		c.Next()
	}
}

// incomingCorrelationID ignores anything that is not a UUID so clients cannot
// inject arbitrary text into logs.
func incomingCorrelationID(c *gin.Context) string {
	for _, header := range [...]string{CorrelationIDHeader, LegacyCorrelationIDHeader} {
		raw := strings.TrimSpace(c.GetHeader(header))
		if raw == "" {
			continue
		}
		if id, err := uuid.Parse(raw); err == nil {
			return id.String()
		}
		return ""
	}
	return ""
}

// GetCorrelationID returns the ID assigned by CorrelationID.
func GetCorrelationID(c *gin.Context) string {
	if id := c.GetString(CorrelationIDKey); id != "" {
		return id
	}
	return logger.CorrelationIDFromContext(c.Request.Context())
}
