package validation

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// DateLayout is the calendar-day format accepted in query strings
const DateLayout = "2006-01-02"

var (
	// Validate is the global validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	_ = Validate.RegisterValidation("date_ymd", validateDate)
	_ = Validate.RegisterValidation("report_format", validateReportFormat)
}

// ValidationError collects per-field messages
type ValidationError struct {
	Errors map[string]string
}

// NewValidationError converts validator errors into a ValidationError keyed
// by the field's query or json name.
func NewValidationError(errs validator.ValidationErrors) *ValidationError {
	ve := &ValidationError{Errors: make(map[string]string, len(errs))}
	for _, fe := range errs {
		ve.AddError(fieldName(fe), messageFor(fe))
	}
	return ve
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Errors))
	for f := range e.Errors {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+e.Errors[f])
	}
	return strings.Join(parts, "; ")
}

// AddError records a message for field
func (e *ValidationError) AddError(field, message string) {
	if e.Errors == nil {
		e.Errors = make(map[string]string)
	}
	e.Errors[field] = message
}

// HasErrors reports whether any field failed
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// GetFieldError returns the message recorded for field
func (e *ValidationError) GetFieldError(field string) (string, bool) {
	msg, ok := e.Errors[field]
	return msg, ok
}

// ValidateStruct validates a struct and returns a ValidationError if validation fails
func ValidateStruct(s interface{}) error {
	err := Validate.Struct(s)
	if err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return NewValidationError(validationErrors)
		}
		return err
	}
	return nil
}

func fieldName(fe validator.FieldError) string {
	name := fe.Field()
	// snake_case the Go field name so messages match the query parameters
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "date_ymd":
		return fmt.Sprintf("must be a date in %s format", DateLayout)
	case "report_format":
		return "must be json or xlsx"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// validateDate checks a YYYY-MM-DD calendar date
func validateDate(fl validator.FieldLevel) bool {
	_, err := time.Parse(DateLayout, fl.Field().String())
	return err == nil
}

func validateReportFormat(fl validator.FieldLevel) bool {
	switch strings.ToLower(fl.Field().String()) {
	case "json", "xlsx":
		return true
	}
	return false
}
