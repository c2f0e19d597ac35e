package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/formhub-api/internal/dto"
	"github.com/noah-isme/formhub-api/internal/models"
	"github.com/noah-isme/formhub-api/internal/service"
	appErrors "github.com/noah-isme/formhub-api/pkg/errors"
	"github.com/noah-isme/formhub-api/pkg/response"
)

const defaultAnalyticsWindowDays = 30

// AnalyticsHandler exposes aggregated analytics endpoints.
type AnalyticsHandler struct {
	submissions *service.SubmissionService
	analytics   *service.AnalyticsService
	exporter    *service.ExportService
}

// NewAnalyticsHandler constructs the handler.
func NewAnalyticsHandler(submissions *service.SubmissionService, analytics *service.AnalyticsService, exporter *service.ExportService) *AnalyticsHandler {
	return &AnalyticsHandler{submissions: submissions, analytics: analytics, exporter: exporter}
}

// FormAnalytics godoc
// @Summary Aggregated analytics for a form
// @Tags Analytics
// @Produce json
// @Param id path string true "Form ID"
// @Param windowDays query int false "Trend window in days (default 30)"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /forms/{id}/analytics [get]
func (h *AnalyticsHandler) FormAnalytics(c *gin.Context) {
	var query dto.AnalyticsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	if query.WindowDays <= 0 {
		query.WindowDays = defaultAnalyticsWindowDays
	}

	subs, form, err := h.submissions.ListFiltered(c.Request.Context(), c.Param("id"), models.FilterCriteria{})
	if err != nil {
		response.Error(c, err)
		return
	}

	analytics, cached, err := h.analytics.AggregateForm(c.Request.Context(), form, subs, query.WindowDays)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, analytics, nil, map[string]interface{}{"cached": cached})
}

// SummaryPDF godoc
// @Summary Analytics summary as PDF
// @Tags Analytics
// @Produce application/pdf
// @Param id path string true "Form ID"
// @Param windowDays query int false "Trend window in days (default 30)"
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /forms/{id}/analytics/summary.pdf [get]
func (h *AnalyticsHandler) SummaryPDF(c *gin.Context) {
	var query dto.AnalyticsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	if query.WindowDays <= 0 {
		query.WindowDays = defaultAnalyticsWindowDays
	}

	subs, form, err := h.submissions.ListFiltered(c.Request.Context(), c.Param("id"), models.FilterCriteria{})
	if err != nil {
		response.Error(c, err)
		return
	}

	analytics, _, err := h.analytics.AggregateForm(c.Request.Context(), form, subs, query.WindowDays)
	if err != nil {
		response.Error(c, err)
		return
	}

	data, filename, err := h.exporter.AnalyticsSummaryPDF(form, analytics)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/pdf", data)
}
