package common

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/richxcame/rental-insights/pkg/logger"
	"go.uber.org/zap"
)

// HandleServiceError writes the response for a failed report build and
// reports whether it did. An *AppError anywhere in the chain sets the status.
// Anything else is logged and answered 500 with fallbackMessage.
// Server-side failures are attached to the gin context for the error middleware.
func HandleServiceError(c *gin.Context, err error, fallbackMessage string) bool {
	if err == nil {
		return false
	}

	var appErr *AppError
	if !errors.As(err, &appErr) {
		logger.ErrorContext(c.Request.Context(), fallbackMessage, zap.Error(err))
		appErr = NewInternalError(fallbackMessage, err)
	}
	if appErr.Code >= http.StatusInternalServerError {
		_ = c.Error(err)
	}

	AppErrorResponse(c, appErr)
	return true
}

// ParseUUIDParam reads a UUID path parameter, answering 400 when it is
// missing or malformed.
func ParseUUIDParam(c *gin.Context, param, label string) (uuid.UUID, bool) {
	raw := c.Param(param)
	if raw == "" {
		AppErrorResponse(c, NewValidationError(label+" is required"))
		return uuid.Nil, false
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		AppErrorResponse(c, NewValidationError("invalid "+label))
		return uuid.Nil, false
	}
	return id, true
}

// BindQuery decodes the query string into dst, answering 400 on failure.
func BindQuery(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		AppErrorResponse(c, NewValidationError(err.Error()))
		return false
	}
	return true
}
