package service

import (
	"sort"
	"strings"

	"github.com/noah-isme/formhub-api/internal/models"
)

// resolveEffectiveSchema picks the field set used to interpret raw submission
// data, in strict priority order: the embedded schema of the most recently
// submitted record, then the caller-supplied fallback, then best-effort
// inference from observed data keys.
func resolveEffectiveSchema(submissions []models.Submission, fallback models.FieldList) (models.FieldList, models.FieldSource) {
	var newest *models.Submission
	for i := range submissions {
		sub := &submissions[i]
		if len(sub.FieldSchema) == 0 {
			continue
		}
		if newest == nil || sub.SubmittedAt.After(newest.SubmittedAt) {
			newest = sub
		}
	}
	if newest != nil {
		return newest.FieldSchema, models.FieldSourceStored
	}
	if len(fallback) > 0 {
		return fallback, models.FieldSourceFallback
	}
	return inferSchema(submissions), models.FieldSourceInferred
}

// inferSchema synthesizes field definitions from observed data keys, guessing
// the type from the first value seen per key. Keys are sorted for stable
// column order.
func inferSchema(submissions []models.Submission) models.FieldList {
	samples := map[string]interface{}{}
	keys := make([]string, 0)
	for _, sub := range submissions {
		for key, value := range sub.Data {
			if _, seen := samples[key]; !seen {
				samples[key] = value
				keys = append(keys, key)
			}
		}
	}
	sort.Strings(keys)

	fields := make(models.FieldList, 0, len(keys))
	for _, key := range keys {
		fields = append(fields, models.FieldDefinition{
			ID:    key,
			Label: key,
			Type:  inferFieldType(samples[key]),
		})
	}
	return fields
}

func inferFieldType(value interface{}) models.FieldType {
	switch v := value.(type) {
	case []interface{}:
		return models.FieldTypeCheckbox
	case float64, float32, int, int64:
		return models.FieldTypeNumber
	case string:
		if strings.Contains(v, "@") && strings.Contains(v, ".") {
			return models.FieldTypeEmail
		}
		if strings.Contains(v, "-") {
			if _, err := parseDate(v); err == nil {
				return models.FieldTypeDate
			}
		}
		if len(v) > 100 {
			return models.FieldTypeTextarea
		}
		return models.FieldTypeText
	default:
		return models.FieldTypeText
	}
}
