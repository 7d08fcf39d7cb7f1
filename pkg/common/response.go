package common

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Response is the JSON envelope for every endpoint except the workbook export.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo describes a failed request. Code repeats the HTTP status.
type ErrorInfo struct {
	Code      int    `json:"code"`
	ErrorCode string `json:"error_code,omitempty"`
	Message   string `json:"message"`
}

// SuccessResponse answers 200 with data.
func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

// ErrorResponse answers with status and a message. The error code is the
// status text, e.g. GATEWAY_TIMEOUT.
func ErrorResponse(c *gin.Context, status int, message string) {
	fail(c, ErrorInfo{Code: status, ErrorCode: statusErrorCode(status), Message: message})
}

// AppErrorResponse answers with the status and code carried by err.
func AppErrorResponse(c *gin.Context, err *AppError) {
	fail(c, ErrorInfo{Code: err.Code, ErrorCode: err.ErrorCode, Message: err.Message})
}

func fail(c *gin.Context, info ErrorInfo) {
	c.JSON(info.Code, Response{Error: &info})
}

func statusErrorCode(status int) string {
	text := http.StatusText(status)
	if text == "" {
		return ""
	}
	return strings.ToUpper(strings.NewReplacer(" ", "_", "-", "_", "'", "").Replace(text))
}
