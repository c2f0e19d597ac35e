package dto

import "github.com/noah-isme/formhub-api/internal/models"

// CreateFormRequest captures POST /forms payload.
type CreateFormRequest struct {
	Title       string            `json:"title" binding:"required"`
	Description string            `json:"description"`
	Fields      models.FieldList  `json:"fields"`
	Status      models.FormStatus `json:"status"`
}

// UpdateFormRequest captures PATCH /forms/:id payload. Absent fields are left
// untouched.
type UpdateFormRequest struct {
	Title       *string            `json:"title,omitempty"`
	Description *string            `json:"description,omitempty"`
	Fields      *models.FieldList  `json:"fields,omitempty"`
	Status      *models.FormStatus `json:"status,omitempty"`
}

// ListFormsQuery captures GET /forms query parameters.
type ListFormsQuery struct {
	Status   string `form:"status"`
	Search   string `form:"search"`
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
}
