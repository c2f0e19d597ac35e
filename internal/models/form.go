package models

import "time"

// FormStatus captures a form's publication lifecycle.
type FormStatus string

const (
	FormStatusDraft     FormStatus = "draft"
	FormStatusPublished FormStatus = "published"
	FormStatusArchived  FormStatus = "archived"
)

// Form is a user-defined schema document stored in the forms table.
type Form struct {
	ID          string     `db:"id" json:"id"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description,omitempty"`
	Fields      FieldList  `db:"fields" json:"fields"`
	Status      FormStatus `db:"status" json:"status"`
	CreatedBy   string     `db:"created_by" json:"created_by"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// FormFilter captures listing criteria for forms.
type FormFilter struct {
	Status   *FormStatus
	Search   string
	Page     int
	PageSize int
}
