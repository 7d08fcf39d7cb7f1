package validation

import (
	"strings"
	"time"
)

// MaxReportWindow bounds how far apart start and end may be
const MaxReportWindow = 3 * 366 * 24 * time.Hour

// ReportQuery is the query string accepted by the report endpoints
type ReportQuery struct {
	StartDate string `form:"start_date" validate:"omitempty,date_ymd"`
	EndDate   string `form:"end_date" validate:"omitempty,date_ymd"`
	Format    string `form:"format" validate:"omitempty,report_format"`
}

// WantsWorkbook reports whether the caller asked for an XLSX download
func (q ReportQuery) WantsWorkbook() bool {
	return strings.EqualFold(q.Format, "xlsx")
}

// ValidateDateRange validates that end is not before start and the window is
// not unreasonably long.
func ValidateDateRange(start, end time.Time) error {
	if end.Before(start) {
		return &ValidationError{
			Errors: map[string]string{
				"date_range": "end date must not be before start date",
			},
		}
	}
	if end.Sub(start) > MaxReportWindow {
		return &ValidationError{
			Errors: map[string]string{
				"date_range": "date range must not exceed three years",
			},
		}
	}
	return nil
}
