package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/formhub-api/internal/dto"
	"github.com/noah-isme/formhub-api/internal/models"
	"github.com/noah-isme/formhub-api/internal/repository"
	"github.com/noah-isme/formhub-api/internal/service"
	appErrors "github.com/noah-isme/formhub-api/pkg/errors"
	"github.com/noah-isme/formhub-api/pkg/response"
)

// SubmissionHandler exposes submission intake and review endpoints.
type SubmissionHandler struct {
	submissions *service.SubmissionService
}

// NewSubmissionHandler constructs the handler.
func NewSubmissionHandler(submissions *service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions}
}

// Create godoc
// @Summary Submit answers to a form
// @Tags Submissions
// @Accept json
// @Produce json
// @Param id path string true "Form ID"
// @Param payload body dto.CreateSubmissionRequest true "Answers"
// @Success 201 {object} response.Envelope
// @Router /forms/{id}/submissions [post]
func (h *SubmissionHandler) Create(c *gin.Context) {
	var req dto.CreateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid submission payload"))
		return
	}

	sub, result, err := h.submissions.Create(c.Request.Context(), c.Param("id"), req.Data, c.Request.UserAgent(), req.SourceLabel)
	if err != nil {
		appErr := appErrors.FromError(err)
		if len(result) > 0 {
			c.Header("Cache-Control", "no-store")
			c.JSON(appErr.Status, response.Envelope{Error: appErr, Meta: map[string]interface{}{"errors": result}})
			return
		}
		response.Error(c, err)
		return
	}
	response.Created(c, sub)
}

// Validate godoc
// @Summary Dry-run validation without storing
// @Tags Submissions
// @Accept json
// @Produce json
// @Param id path string true "Form ID"
// @Param payload body dto.ValidateSubmissionRequest true "Answers"
// @Success 200 {object} response.Envelope
// @Router /forms/{id}/submissions/validate [post]
func (h *SubmissionHandler) Validate(c *gin.Context) {
	var req dto.ValidateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid submission payload"))
		return
	}

	valid, result, err := h.submissions.DryRun(c.Request.Context(), c.Param("id"), req.Data)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"valid": valid, "errors": result}, nil)
}

// List godoc
// @Summary List a form's submissions with filters
// @Tags Submissions
// @Produce json
// @Param id path string true "Form ID"
// @Param status query string false "Submission status"
// @Param dateFrom query string false "Start date (YYYY-MM-DD or RFC 3339)"
// @Param dateTo query string false "End date (YYYY-MM-DD or RFC 3339)"
// @Param flags query []string false "Required flags"
// @Param search query string false "Free-text search"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /forms/{id}/submissions [get]
func (h *SubmissionHandler) List(c *gin.Context) {
	var query dto.ListSubmissionsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}

	criteria, err := filterCriteriaFromQuery(query)
	if err != nil {
		response.Error(c, err)
		return
	}

	subs, _, err := h.submissions.ListFiltered(c.Request.Context(), c.Param("id"), criteria)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subs, nil, map[string]interface{}{"total": len(subs)})
}

// Get godoc
// @Summary Fetch a submission
// @Tags Submissions
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /submissions/{id} [get]
func (h *SubmissionHandler) Get(c *gin.Context) {
	sub, err := h.submissions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sub, nil)
}

// Review godoc
// @Summary Update review state of a submission
// @Tags Submissions
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param payload body dto.ReviewSubmissionRequest true "Review changes"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /submissions/{id} [patch]
func (h *SubmissionHandler) Review(c *gin.Context) {
	var req dto.ReviewSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid review payload"))
		return
	}

	sub, err := h.submissions.UpdateReview(c.Request.Context(), c.Param("id"), repository.UpdateSubmissionParams{
		Status:  req.Status,
		Flags:   req.Flags,
		AddNote: req.AddNote,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sub, nil)
}

// Delete godoc
// @Summary Delete a submission
// @Tags Submissions
// @Param id path string true "Submission ID"
// @Success 204
// @Security BearerAuth
// @Router /submissions/{id} [delete]
func (h *SubmissionHandler) Delete(c *gin.Context) {
	if err := h.submissions.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// filterCriteriaFromQuery translates query parameters into filter criteria.
// A date-only dateTo is widened to the end of that day so the range stays
// inclusive.
func filterCriteriaFromQuery(query dto.ListSubmissionsQuery) (models.FilterCriteria, error) {
	criteria := models.FilterCriteria{
		Flags:      query.Flags,
		SearchTerm: query.Search,
	}
	if query.Status != "" {
		status := models.SubmissionStatus(query.Status)
		criteria.Status = &status
	}
	if query.DateFrom != "" {
		from, _, err := parseFilterDate(query.DateFrom)
		if err != nil {
			return criteria, appErrors.Clone(appErrors.ErrValidation, "invalid dateFrom")
		}
		criteria.DateFrom = &from
	}
	if query.DateTo != "" {
		to, dateOnly, err := parseFilterDate(query.DateTo)
		if err != nil {
			return criteria, appErrors.Clone(appErrors.ErrValidation, "invalid dateTo")
		}
		if dateOnly {
			to = to.Add(24*time.Hour - time.Nanosecond)
		}
		criteria.DateTo = &to
	}
	return criteria, nil
}

func parseFilterDate(raw string) (time.Time, bool, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	return t, false, err
}
