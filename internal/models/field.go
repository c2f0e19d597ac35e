package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// FieldType enumerates the closed set of supported form field types.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeEmail    FieldType = "email"
	FieldTypeTextarea FieldType = "textarea"
	FieldTypeNumber   FieldType = "number"
	FieldTypeDate     FieldType = "date"
	FieldTypeSelect   FieldType = "select"
	FieldTypeRadio    FieldType = "radio"
	FieldTypeCheckbox FieldType = "checkbox"
	FieldTypeFile     FieldType = "file"
	FieldTypeRating   FieldType = "rating"
)

// Known reports whether the type belongs to the supported set.
func (t FieldType) Known() bool {
	switch t {
	case FieldTypeText, FieldTypeEmail, FieldTypeTextarea, FieldTypeNumber,
		FieldTypeDate, FieldTypeSelect, FieldTypeRadio, FieldTypeCheckbox,
		FieldTypeFile, FieldTypeRating:
		return true
	default:
		return false
	}
}

// IsTextLike groups the free-text family sharing length/pattern constraints.
func (t FieldType) IsTextLike() bool {
	return t == FieldTypeText || t == FieldTypeEmail || t == FieldTypeTextarea
}

// IsChoice groups single-choice types constrained to their options list.
func (t FieldType) IsChoice() bool {
	return t == FieldTypeSelect || t == FieldTypeRadio
}

// FieldDefinition describes one schema-defined question in a form. A field is
// immutable once a submission references it; submissions embed a copy of the
// schema valid at submit time.
type FieldDefinition struct {
	ID       string    `json:"id"`
	Label    string    `json:"label"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required"`

	// Choice constraints (select, radio, checkbox).
	Options []string `json:"options,omitempty"`

	// Number constraints. Step congruence is checked against Min.
	Min           *float64 `json:"min,omitempty"`
	Max           *float64 `json:"max,omitempty"`
	Step          *float64 `json:"step,omitempty"`
	AllowDecimals *bool    `json:"allowDecimals,omitempty"`

	// Text constraints.
	MinLength *int    `json:"minLength,omitempty"`
	MaxLength *int    `json:"maxLength,omitempty"`
	Pattern   *string `json:"pattern,omitempty"`

	// Date constraints, ISO "2006-01-02" strings.
	MinDate    *string `json:"minDate,omitempty"`
	MaxDate    *string `json:"maxDate,omitempty"`
	FutureOnly bool    `json:"futureOnly,omitempty"`
	PastOnly   bool    `json:"pastOnly,omitempty"`

	// Checkbox constraints.
	MinSelections *int `json:"minSelections,omitempty"`
	MaxSelections *int `json:"maxSelections,omitempty"`

	// File constraints. MaxFileSize is megabytes.
	MaxFileSize   *float64 `json:"maxFileSize,omitempty"`
	MaxFiles      *int     `json:"maxFiles,omitempty"`
	AcceptedTypes []string `json:"acceptedTypes,omitempty"`

	// Rating constraints.
	MaxRating *float64 `json:"maxRating,omitempty"`
	MinRating *float64 `json:"minRating,omitempty"`
	AllowHalf bool     `json:"allowHalf,omitempty"`
}

// FieldList is an ordered field schema persisted as a JSONB column.
type FieldList []FieldDefinition

// Value marshals the field list to JSON for persistence.
func (l FieldList) Value() (driver.Value, error) {
	if l == nil {
		l = FieldList{}
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("marshal field list: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the field list.
func (l *FieldList) Scan(value interface{}) error {
	if value == nil {
		*l = FieldList{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for FieldList", value)
	}
	if len(data) == 0 {
		*l = FieldList{}
		return nil
	}
	if err := json.Unmarshal(data, l); err != nil {
		return fmt.Errorf("unmarshal field list: %w", err)
	}
	return nil
}

// HasOption reports whether the value is a member of the field's options.
func (f FieldDefinition) HasOption(value string) bool {
	for _, opt := range f.Options {
		if opt == value {
			return true
		}
	}
	return false
}
