package common

import (
	"errors"
	"net/http"
)

// Sentinels wrapped by AppError, for errors.Is checks.
var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrValidation         = errors.New("validation error")
	ErrInternal           = errors.New("internal error")
	ErrServiceUnavailable = errors.New("service unavailable")
)

// AppError is an error that knows its HTTP status and the machine-readable
// code sent to clients.
type AppError struct {
	Code      int    `json:"code"`
	ErrorCode string `json:"error_code,omitempty"`
	Message   string `json:"message"`
	Err       error  `json:"-"`
}

func (e *AppError) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e *AppError) Unwrap() error { return e.Err }

func newAppError(status int, code, message string, cause error) *AppError {
	return &AppError{Code: status, ErrorCode: code, Message: message, Err: cause}
}

// NewForbiddenError is for an authenticated caller asking for another agency's data.
func NewForbiddenError(message string) *AppError {
	return newAppError(http.StatusForbidden, "FORBIDDEN", message, ErrForbidden)
}

// NewValidationError is for a malformed or out-of-range report query.
func NewValidationError(message string) *AppError {
	return newAppError(http.StatusBadRequest, "VALIDATION_FAILED", message, ErrValidation)
}

func NewInternalError(message string, cause error) *AppError {
	if cause == nil {
		cause = ErrInternal
	}
	return newAppError(http.StatusInternalServerError, "INTERNAL", message, cause)
}

// NewServiceUnavailableError is for a record store that is down or shedding load.
func NewServiceUnavailableError(message string) *AppError {
	return newAppError(http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", message, ErrServiceUnavailable)
}
