package stats

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/richxcame/rental-insights/pkg/common"
	"github.com/richxcame/rental-insights/pkg/middleware"
	"github.com/richxcame/rental-insights/pkg/validation"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handler handles HTTP requests for reports
type Handler struct {
	reports           ReportBuilder
	defaultWindowDays int
	now               func() time.Time
}

// NewHandler creates a new report handler. Requests without start_date cover
// the last defaultWindowDays days.
func NewHandler(reports ReportBuilder, defaultWindowDays int) *Handler {
	if defaultWindowDays <= 0 {
		defaultWindowDays = 30
	}
	return &Handler{reports: reports, defaultWindowDays: defaultWindowDays, now: time.Now}
}

// RegisterRoutes mounts the report endpoints behind JWT auth
func (h *Handler) RegisterRoutes(r gin.IRouter, jwtSecret string) {
	api := r.Group("/api/v1/stats")
	api.Use(middleware.AuthMiddleware(jwtSecret))

	agencies := api.Group("/agencies")
	agencies.Use(middleware.RequireRole(middleware.RoleAdmin, middleware.RoleAgency))
	{
		agencies.GET("/:agency_id", h.GetAgencyReport)
		agencies.GET("/:agency_id/export", h.ExportAgencyReport)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.RequireAdmin())
	{
		admin.GET("", h.GetAdminReport)
		admin.GET("/export", h.ExportAdminReport)
	}
}

// GetAgencyReport handles agency report requests. format=xlsx answers with
// the workbook instead of JSON.
func (h *Handler) GetAgencyReport(c *gin.Context) {
	report, q, ok := h.agencyReport(c)
	if !ok {
		return
	}
	if q.WantsWorkbook() {
		h.sendAgencyWorkbook(c, report)
		return
	}
	common.SuccessResponse(c, report)
}

// ExportAgencyReport returns the agency report as a workbook
func (h *Handler) ExportAgencyReport(c *gin.Context) {
	report, _, ok := h.agencyReport(c)
	if !ok {
		return
	}
	h.sendAgencyWorkbook(c, report)
}

// GetAdminReport handles platform report requests. format=xlsx answers with
// the workbook instead of JSON.
func (h *Handler) GetAdminReport(c *gin.Context) {
	report, q, ok := h.adminReport(c)
	if !ok {
		return
	}
	if q.WantsWorkbook() {
		h.sendAdminWorkbook(c, report)
		return
	}
	common.SuccessResponse(c, report)
}

// ExportAdminReport returns the platform report as a workbook
func (h *Handler) ExportAdminReport(c *gin.Context) {
	report, _, ok := h.adminReport(c)
	if !ok {
		return
	}
	h.sendAdminWorkbook(c, report)
}

func (h *Handler) agencyReport(c *gin.Context) (*AgencyReport, validation.ReportQuery, bool) {
	var q validation.ReportQuery
	agencyID, ok := common.ParseUUIDParam(c, "agency_id", "agency id")
	if !ok {
		return nil, q, false
	}
	if !canReadAgency(c, agencyID) {
		common.AppErrorResponse(c, common.NewForbiddenError("you can only view your own agency's statistics"))
		return nil, q, false
	}

	q, start, end, ok := h.dateRange(c)
	if !ok {
		return nil, q, false
	}

	report, err := h.reports.BuildAgencyReport(c.Request.Context(), agencyID, start, end)
	if common.HandleServiceError(c, err, "failed to build agency report") {
		return nil, q, false
	}
	return report, q, true
}

func (h *Handler) adminReport(c *gin.Context) (*AdminReport, validation.ReportQuery, bool) {
	q, start, end, ok := h.dateRange(c)
	if !ok {
		return nil, q, false
	}

	report, err := h.reports.BuildAdminReport(c.Request.Context(), start, end)
	if common.HandleServiceError(c, err, "failed to build admin report") {
		return nil, q, false
	}
	return report, q, true
}

// canReadAgency lets admins read any agency and agency staff only their own
func canReadAgency(c *gin.Context, agencyID uuid.UUID) bool {
	role, err := middleware.GetUserRole(c)
	if err != nil {
		return false
	}
	if role == middleware.RoleAdmin {
		return true
	}
	own, ok := middleware.GetAgencyID(c)
	return ok && own == agencyID
}

func (h *Handler) dateRange(c *gin.Context) (validation.ReportQuery, time.Time, time.Time, bool) {
	var q validation.ReportQuery
	if !common.BindQuery(c, &q) {
		return q, time.Time{}, time.Time{}, false
	}

	start, end, err := parseDateRange(q, h.now(), h.defaultWindowDays)
	if err != nil {
		common.AppErrorResponse(c, common.NewValidationError(err.Error()))
		return q, time.Time{}, time.Time{}, false
	}
	return q, start, end, true
}

// parseDateRange resolves the reporting window. A missing start is
// defaultDays before now at midnight UTC, a missing end is now, and an
// explicit end covers its whole day.
func parseDateRange(q validation.ReportQuery, now time.Time, defaultDays int) (time.Time, time.Time, error) {
	if err := validation.ValidateStruct(q); err != nil {
		return time.Time{}, time.Time{}, err
	}

	var start, end time.Time
	if q.StartDate == "" {
		start = now.UTC().AddDate(0, 0, -defaultDays).Truncate(24 * time.Hour)
	} else {
		start, _ = time.Parse(validation.DateLayout, q.StartDate)
	}

	if q.EndDate == "" {
		end = now.UTC()
	} else {
		day, _ := time.Parse(validation.DateLayout, q.EndDate)
		end = day.Add(24*time.Hour - time.Millisecond)
	}

	if err := validation.ValidateDateRange(start, end); err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

func (h *Handler) sendAgencyWorkbook(c *gin.Context, report *AgencyReport) {
	h.sendWorkbook(c, fmt.Sprintf("agency-%s-%s.xlsx", report.AgencyID, report.Range.End.Format("20060102")), report)
}

func (h *Handler) sendAdminWorkbook(c *gin.Context, report *AdminReport) {
	h.sendWorkbook(c, fmt.Sprintf("platform-%s.xlsx", report.Range.End.Format("20060102")), report)
}

func (h *Handler) sendWorkbook(c *gin.Context, filename string, report interface{}) {
	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, report); err != nil {
		common.HandleServiceError(c, err, "failed to export report")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
