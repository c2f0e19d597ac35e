package dto

import "github.com/noah-isme/formhub-api/internal/models"

// ExportRequest captures POST /forms/:id/exports payload. Filters narrow the
// submission set before serialization. Direct skips the queue and streams the
// serialized file in the response.
type ExportRequest struct {
	Format  models.ExportFormat     `json:"format" binding:"required"`
	Direct  bool                    `json:"direct,omitempty"`
	Options models.SerializeOptions `json:"options"`
	Filters *SubmissionFilters      `json:"filters,omitempty"`
}

// SubmissionFilters mirrors the list query filters for export payloads.
type SubmissionFilters struct {
	Status   string   `json:"status,omitempty"`
	DateFrom string   `json:"dateFrom,omitempty"`
	DateTo   string   `json:"dateTo,omitempty"`
	Flags    []string `json:"flags,omitempty"`
	Search   string   `json:"search,omitempty"`
}

// ExportJobResponse is returned after enqueueing an export.
type ExportJobResponse struct {
	ID     string              `json:"id"`
	Status models.ExportStatus `json:"status"`
}

// ExportStatusResponse exposes job state and, once completed, the result.
type ExportStatusResponse struct {
	ID       string                  `json:"id"`
	Status   models.ExportStatus     `json:"status"`
	Result   *models.SerializeResult `json:"result,omitempty"`
	Error    string                  `json:"error,omitempty"`
	Enqueued string                  `json:"enqueuedAt"`
	Started  string                  `json:"startedAt,omitempty"`
	Finished string                  `json:"finishedAt,omitempty"`
}
