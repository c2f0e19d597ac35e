package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// SubmissionStatus tracks reviewer workflow state on a submission.
type SubmissionStatus string

const (
	SubmissionStatusNew      SubmissionStatus = "new"
	SubmissionStatusReviewed SubmissionStatus = "reviewed"
	SubmissionStatusArchived SubmissionStatus = "archived"
	SubmissionStatusSpam     SubmissionStatus = "spam"
)

// SubmissionData holds raw answers keyed by field ID, persisted as JSONB.
type SubmissionData map[string]interface{}

// Value marshals submission data to JSON for persistence.
func (d SubmissionData) Value() (driver.Value, error) {
	if d == nil {
		d = SubmissionData{}
	}
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal submission data: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into submission data.
func (d *SubmissionData) Scan(value interface{}) error {
	if value == nil {
		*d = SubmissionData{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for SubmissionData", value)
	}
	if len(data) == 0 {
		*d = SubmissionData{}
		return nil
	}
	if err := json.Unmarshal(data, d); err != nil {
		return fmt.Errorf("unmarshal submission data: %w", err)
	}
	return nil
}

// StringList is a JSONB-persisted ordered list of strings (flags, notes).
type StringList []string

// Value marshals the list to JSON for persistence.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("marshal string list: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the list.
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for StringList", value)
	}
	if len(data) == 0 {
		*l = StringList{}
		return nil
	}
	if err := json.Unmarshal(data, l); err != nil {
		return fmt.Errorf("unmarshal string list: %w", err)
	}
	return nil
}

// Contains reports membership.
func (l StringList) Contains(item string) bool {
	for _, s := range l {
		if s == item {
			return true
		}
	}
	return false
}

// Submission is one completed set of answers against a form. Data and the
// embedded schema copy are immutable after creation; only status, flags and
// notes may change.
type Submission struct {
	ID          string           `db:"id" json:"id"`
	FormID      string           `db:"form_id" json:"form_id"`
	Data        SubmissionData   `db:"data" json:"data"`
	FieldSchema FieldList        `db:"field_schema" json:"field_schema,omitempty"`
	SubmittedAt time.Time        `db:"submitted_at" json:"submitted_at"`
	Status      SubmissionStatus `db:"status" json:"status"`
	Flags       StringList       `db:"flags" json:"flags"`
	Notes       StringList       `db:"notes" json:"notes,omitempty"`
	UserAgent   string           `db:"user_agent" json:"user_agent,omitempty"`
	SourceLabel string           `db:"source_label" json:"source_label,omitempty"`
}

// ValidationResult maps field IDs to their error messages. An absent key or
// an empty slice both mean the field is valid.
type ValidationResult map[string][]string

// Valid reports whether no field carries an error.
func (r ValidationResult) Valid() bool {
	for _, errs := range r {
		if len(errs) > 0 {
			return false
		}
	}
	return true
}

// FilterCriteria narrows a submission set. All present criteria are ANDed.
type FilterCriteria struct {
	Status     *SubmissionStatus `json:"status,omitempty"`
	DateFrom   *time.Time        `json:"dateFrom,omitempty"`
	DateTo     *time.Time        `json:"dateTo,omitempty"`
	Flags      []string          `json:"flags,omitempty"`
	SearchTerm string            `json:"searchTerm,omitempty"`
}

// Empty reports whether no predicate is present.
func (c FilterCriteria) Empty() bool {
	return c.Status == nil && c.DateFrom == nil && c.DateTo == nil &&
		len(c.Flags) == 0 && c.SearchTerm == ""
}
