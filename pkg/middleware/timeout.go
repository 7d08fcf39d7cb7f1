package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/rental-insights/pkg/common"
	"github.com/richxcame/rental-insights/pkg/logger"
	"go.uber.org/zap"
)

// RequestTimeout puts a deadline on the request context. Handlers stop on
// their own when it expires; if nothing was written yet the client gets 504.
func RequestTimeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		if !errors.Is(ctx.Err(), context.DeadlineExceeded) || c.Writer.Written() {
			return
		}

		logger.WithContext(ctx).Warn("Request timeout",
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.Duration("timeout", timeout),
		)
		common.ErrorResponse(c, http.StatusGatewayTimeout, "the request took too long to process")
		c.Abort()
	}
}
