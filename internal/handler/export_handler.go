package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/noah-isme/formhub-api/internal/dto"
	"github.com/noah-isme/formhub-api/internal/models"
	"github.com/noah-isme/formhub-api/internal/service"
	appErrors "github.com/noah-isme/formhub-api/pkg/errors"
	"github.com/noah-isme/formhub-api/pkg/response"
)

// ExportHandler exposes export job and download endpoints.
type ExportHandler struct {
	submissions *service.SubmissionService
	queue       *service.ExportQueueService
	history     *service.ExportHistoryService
	exporter    *service.ExportService
}

// NewExportHandler constructs the handler.
func NewExportHandler(submissions *service.SubmissionService, queue *service.ExportQueueService, history *service.ExportHistoryService, exporter *service.ExportService) *ExportHandler {
	return &ExportHandler{submissions: submissions, queue: queue, history: history, exporter: exporter}
}

// Enqueue godoc
// @Summary Export a form's submissions, as a queued job or a direct download
// @Tags Exports
// @Accept json
// @Produce json
// @Param id path string true "Form ID"
// @Param payload body dto.ExportRequest true "Export parameters"
// @Success 202 {object} response.Envelope
// @Security BearerAuth
// @Router /forms/{id}/exports [post]
func (h *ExportHandler) Enqueue(c *gin.Context) {
	var req dto.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid export payload"))
		return
	}
	if !req.Format.Known() {
		response.Error(c, appErrors.Clone(appErrors.ErrUnsupportedFormat, "unsupported export format: "+string(req.Format)))
		return
	}

	criteria, err := criteriaFromExportFilters(req.Filters)
	if err != nil {
		response.Error(c, err)
		return
	}

	subs, form, err := h.submissions.ListFiltered(c.Request.Context(), c.Param("id"), criteria)
	if err != nil {
		response.Error(c, err)
		return
	}
	if len(subs) == 0 {
		response.Error(c, appErrors.ErrNoMatches)
		return
	}

	payload := models.ExportPayload{
		FormID:      form.ID,
		Form:        form,
		Submissions: subs,
		FieldSchema: form.Fields,
		Format:      req.Format,
		Options:     req.Options,
	}

	if req.Direct {
		h.direct(c, payload)
		return
	}

	jobID, err := h.queue.Enqueue(payload, service.ExportJobCallbacks{})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusAccepted, dto.ExportJobResponse{ID: jobID, Status: models.ExportStatusQueued}, nil)
}

// direct serializes synchronously and streams the file back. Direct exports
// land in the history log like queued ones.
func (h *ExportHandler) direct(c *gin.Context, payload models.ExportPayload) {
	result, err := h.exporter.Serialize(payload)

	entry := models.ExportHistoryEntry{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Format:    payload.Format,
		Success:   err == nil,
	}
	if result != nil {
		entry.RecordCount = result.RecordCount
		entry.Filename = result.Filename
		entry.SizeBytes = result.SizeBytes
	}
	h.history.Record(c.Request.Context(), entry)

	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+result.Filename)
	c.Data(http.StatusOK, result.MimeType, result.Payload)
}

// Status godoc
// @Summary Export job status
// @Tags Exports
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /exports/{id} [get]
func (h *ExportHandler) Status(c *gin.Context) {
	job, err := h.queue.Job(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := dto.ExportStatusResponse{
		ID:       job.ID,
		Status:   job.Status,
		Result:   job.Result,
		Error:    job.Error,
		Enqueued: job.EnqueuedAt.Format(time.RFC3339),
	}
	if job.StartedAt != nil {
		resp.Started = job.StartedAt.Format(time.RFC3339)
	}
	if job.FinishedAt != nil {
		resp.Finished = job.FinishedAt.Format(time.RFC3339)
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// QueueStatus godoc
// @Summary Export queue counters
// @Tags Exports
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /exports/queue [get]
func (h *ExportHandler) QueueStatus(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.queue.QueueStatus(), nil)
}

// Completed godoc
// @Summary Completed and failed export jobs
// @Tags Exports
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /exports/completed [get]
func (h *ExportHandler) Completed(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.queue.Completed(), nil)
}

// ClearCompleted godoc
// @Summary Evict terminal jobs from the registry
// @Tags Exports
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /exports/completed [delete]
func (h *ExportHandler) ClearCompleted(c *gin.Context) {
	removed := h.queue.ClearCompleted()
	response.JSON(c, http.StatusOK, gin.H{"removed": removed}, nil)
}

// History godoc
// @Summary Export history, newest first
// @Tags Exports
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /exports/history [get]
func (h *ExportHandler) History(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.history.History(), nil)
}

// Statistics godoc
// @Summary Aggregated export statistics
// @Tags Exports
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /exports/statistics [get]
func (h *ExportHandler) Statistics(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.history.Statistics(), nil)
}

// Download godoc
// @Summary Download an export file by signed token
// @Tags Exports
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} binary
// @Router /exports/download/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	file, filename, err := h.exporter.OpenByToken(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Header("Content-Type", "application/octet-stream")
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, file)
}

func criteriaFromExportFilters(filters *dto.SubmissionFilters) (models.FilterCriteria, error) {
	if filters == nil {
		return models.FilterCriteria{}, nil
	}
	return filterCriteriaFromQuery(dto.ListSubmissionsQuery{
		Status:   filters.Status,
		DateFrom: filters.DateFrom,
		DateTo:   filters.DateTo,
		Flags:    filters.Flags,
		Search:   filters.Search,
	})
}
