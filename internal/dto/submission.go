package dto

import "github.com/noah-isme/formhub-api/internal/models"

// CreateSubmissionRequest captures POST /forms/:id/submissions payload.
type CreateSubmissionRequest struct {
	Data        models.SubmissionData `json:"data" binding:"required"`
	SourceLabel string                `json:"sourceLabel"`
}

// ValidateSubmissionRequest captures the dry-run validation payload.
type ValidateSubmissionRequest struct {
	Data models.SubmissionData `json:"data" binding:"required"`
}

// ReviewSubmissionRequest captures PATCH /submissions/:id payload. Data is
// immutable after intake; only review state can change.
type ReviewSubmissionRequest struct {
	Status  *models.SubmissionStatus `json:"status,omitempty"`
	Flags   *models.StringList       `json:"flags,omitempty"`
	AddNote *string                  `json:"addNote,omitempty"`
}

// ListSubmissionsQuery captures GET /forms/:id/submissions query parameters.
// Dates accept YYYY-MM-DD or RFC 3339.
type ListSubmissionsQuery struct {
	Status   string   `form:"status"`
	DateFrom string   `form:"dateFrom"`
	DateTo   string   `form:"dateTo"`
	Flags    []string `form:"flags"`
	Search   string   `form:"search"`
}
