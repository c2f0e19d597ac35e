package service

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/formhub-api/internal/models"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// stepTolerance absorbs floating point error in step congruence checks.
const stepTolerance = 1e-4

// fieldChecker validates a non-empty value against one field type.
type fieldChecker func(value interface{}, field models.FieldDefinition) []string

// fieldCheckers is the closed dispatch table; one handler per field type.
var fieldCheckers = map[models.FieldType]fieldChecker{
	models.FieldTypeText:     checkText,
	models.FieldTypeEmail:    checkText,
	models.FieldTypeTextarea: checkText,
	models.FieldTypeNumber:   checkNumber,
	models.FieldTypeDate:     checkDate,
	models.FieldTypeSelect:   checkChoice,
	models.FieldTypeRadio:    checkChoice,
	models.FieldTypeCheckbox: checkCheckbox,
	models.FieldTypeFile:     checkFile,
	models.FieldTypeRating:   checkRating,
}

// ValidationService validates submission values against field definitions.
// It is pure and never returns an error other than through the result map.
type ValidationService struct{}

// NewValidationService constructs the validator.
func NewValidationService() *ValidationService {
	return &ValidationService{}
}

// Validate returns human-readable errors for one value. An empty slice means
// the value is valid. A required field with an empty value yields exactly one
// error; further type checks are skipped.
func (s *ValidationService) Validate(value interface{}, field models.FieldDefinition) []string {
	if isEmptyValue(value, field.Type) {
		if field.Required {
			return []string{fmt.Sprintf("%s is required", field.Label)}
		}
		return nil
	}
	checker, ok := fieldCheckers[field.Type]
	if !ok {
		return nil
	}
	return checker(value, field)
}

// ValidateAll runs Validate over every field and collects per-field errors.
func (s *ValidationService) ValidateAll(data models.SubmissionData, fields []models.FieldDefinition) (bool, models.ValidationResult) {
	result := models.ValidationResult{}
	for _, field := range fields {
		errs := s.Validate(data[field.ID], field)
		if len(errs) > 0 {
			result[field.ID] = errs
		}
	}
	return result.Valid(), result
}

// isEmptyValue applies the per-type notion of "no answer".
func isEmptyValue(value interface{}, fieldType models.FieldType) bool {
	if value == nil {
		return true
	}
	switch fieldType {
	case models.FieldTypeCheckbox:
		arr, ok := value.([]interface{})
		return ok && len(arr) == 0
	case models.FieldTypeFile:
		if arr, ok := value.([]interface{}); ok {
			return len(arr) == 0
		}
		return false
	default:
		if s, ok := value.(string); ok {
			return strings.TrimSpace(s) == ""
		}
		return false
	}
}

func checkText(value interface{}, field models.FieldDefinition) []string {
	str, ok := value.(string)
	if !ok {
		return []string{fmt.Sprintf("%s must be text", field.Label)}
	}
	var errs []string
	if field.MinLength != nil && len(str) < *field.MinLength {
		errs = append(errs, fmt.Sprintf("%s must be at least %d characters", field.Label, *field.MinLength))
	}
	if field.MaxLength != nil && len(str) > *field.MaxLength {
		errs = append(errs, fmt.Sprintf("%s must not exceed %d characters", field.Label, *field.MaxLength))
	}
	if field.Pattern != nil && *field.Pattern != "" {
		if re, err := regexp.Compile(*field.Pattern); err == nil && !re.MatchString(str) {
			errs = append(errs, fmt.Sprintf("%s format is invalid", field.Label))
		}
	}
	if field.Type == models.FieldTypeEmail && !emailPattern.MatchString(str) {
		errs = append(errs, fmt.Sprintf("%s must be a valid email address", field.Label))
	}
	return errs
}

func checkNumber(value interface{}, field models.FieldDefinition) []string {
	num, ok := toFloat(value)
	if !ok {
		return []string{fmt.Sprintf("%s must be a number", field.Label)}
	}
	var errs []string
	if field.AllowDecimals != nil && !*field.AllowDecimals && num != math.Trunc(num) {
		errs = append(errs, fmt.Sprintf("%s must be a whole number", field.Label))
	}
	if field.Min != nil && num < *field.Min {
		errs = append(errs, fmt.Sprintf("%s must be at least %s", field.Label, formatNumber(*field.Min)))
	}
	if field.Max != nil && num > *field.Max {
		errs = append(errs, fmt.Sprintf("%s must not exceed %s", field.Label, formatNumber(*field.Max)))
	}
	if field.Step != nil && *field.Step > 0 {
		base := 0.0
		if field.Min != nil {
			base = *field.Min
		}
		rem := math.Mod(math.Abs(num-base), *field.Step)
		if rem > stepTolerance && *field.Step-rem > stepTolerance {
			errs = append(errs, fmt.Sprintf("%s must be in increments of %s", field.Label, formatNumber(*field.Step)))
		}
	}
	return errs
}

func checkDate(value interface{}, field models.FieldDefinition) []string {
	str, ok := value.(string)
	if !ok {
		return []string{fmt.Sprintf("%s must be a valid date", field.Label)}
	}
	parsed, err := parseDate(str)
	if err != nil {
		return []string{fmt.Sprintf("%s must be a valid date", field.Label)}
	}
	// Calendar-day comparisons on ISO day strings keep the boundary at local
	// start-of-today regardless of the parsed value's zone.
	day := parsed.Format("2006-01-02")
	today := time.Now().Format("2006-01-02")
	var errs []string
	if field.FutureOnly && day < today {
		errs = append(errs, fmt.Sprintf("%s must be a future date", field.Label))
	}
	if field.PastOnly && day > today {
		errs = append(errs, fmt.Sprintf("%s must be a past date", field.Label))
	}
	if field.MinDate != nil {
		if min, err := parseDate(*field.MinDate); err == nil && day < min.Format("2006-01-02") {
			errs = append(errs, fmt.Sprintf("%s must be on or after %s", field.Label, *field.MinDate))
		}
	}
	if field.MaxDate != nil {
		if max, err := parseDate(*field.MaxDate); err == nil && day > max.Format("2006-01-02") {
			errs = append(errs, fmt.Sprintf("%s must be on or before %s", field.Label, *field.MaxDate))
		}
	}
	return errs
}

func checkChoice(value interface{}, field models.FieldDefinition) []string {
	str, ok := value.(string)
	if !ok || !field.HasOption(str) {
		return []string{fmt.Sprintf("%s must be one of the available options", field.Label)}
	}
	return nil
}

func checkCheckbox(value interface{}, field models.FieldDefinition) []string {
	arr, ok := value.([]interface{})
	if !ok {
		return []string{fmt.Sprintf("%s must be a list of selections", field.Label)}
	}
	var errs []string
	if field.MinSelections != nil && len(arr) < *field.MinSelections {
		errs = append(errs, fmt.Sprintf("%s requires at least %d selections", field.Label, *field.MinSelections))
	}
	if field.MaxSelections != nil && len(arr) > *field.MaxSelections {
		errs = append(errs, fmt.Sprintf("%s allows at most %d selections", field.Label, *field.MaxSelections))
	}
	for _, item := range arr {
		str, ok := item.(string)
		if !ok || !field.HasOption(str) {
			errs = append(errs, fmt.Sprintf("%s contains an invalid selection", field.Label))
			break
		}
	}
	return errs
}

func checkFile(value interface{}, field models.FieldDefinition) []string {
	files := fileItems(value)
	if len(files) == 0 {
		return []string{fmt.Sprintf("%s must be a file upload", field.Label)}
	}
	var errs []string
	if field.MaxFiles != nil && len(files) > *field.MaxFiles {
		errs = append(errs, fmt.Sprintf("%s allows at most %d files", field.Label, *field.MaxFiles))
	}
	if field.MaxFileSize != nil {
		limit := *field.MaxFileSize * 1024 * 1024
		for _, f := range files {
			if f.Size > limit {
				errs = append(errs, fmt.Sprintf("%s files must not exceed %s MB", field.Label, formatNumber(*field.MaxFileSize)))
				break
			}
		}
	}
	if len(field.AcceptedTypes) > 0 {
		for _, f := range files {
			if !fileTypeAccepted(f, field.AcceptedTypes) {
				errs = append(errs, fmt.Sprintf("%s must be one of the accepted file types", field.Label))
				break
			}
		}
	}
	return errs
}

func checkRating(value interface{}, field models.FieldDefinition) []string {
	num, ok := toFloat(value)
	if !ok {
		return []string{fmt.Sprintf("%s must be a number", field.Label)}
	}
	var errs []string
	max := 5.0
	if field.MaxRating != nil {
		max = *field.MaxRating
	}
	if num < 0 || num > max {
		errs = append(errs, fmt.Sprintf("%s must be between 0 and %s", field.Label, formatNumber(max)))
	}
	if field.MinRating != nil && num < *field.MinRating {
		errs = append(errs, fmt.Sprintf("%s must be at least %s", field.Label, formatNumber(*field.MinRating)))
	}
	if field.AllowHalf {
		if num*2 != math.Trunc(num*2) {
			errs = append(errs, fmt.Sprintf("%s must be a whole or half rating", field.Label))
		}
	} else if num != math.Trunc(num) {
		errs = append(errs, fmt.Sprintf("%s must be a whole number", field.Label))
	}
	return errs
}

// fileMeta is the shape of a single uploaded-file value in submission data.
type fileMeta struct {
	Name string
	Size float64
	Type string
}

func fileItems(value interface{}) []fileMeta {
	var raw []interface{}
	if arr, ok := value.([]interface{}); ok {
		raw = arr
	} else {
		raw = []interface{}{value}
	}
	files := make([]fileMeta, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		f := fileMeta{}
		if name, ok := m["name"].(string); ok {
			f.Name = name
		}
		if size, ok := toFloat(m["size"]); ok {
			f.Size = size
		}
		if mime, ok := m["type"].(string); ok {
			f.Type = mime
		}
		files = append(files, f)
	}
	return files
}

func fileTypeAccepted(f fileMeta, accepted []string) bool {
	ext := strings.ToLower(fileExtension(f.Name))
	mime := strings.ToLower(f.Type)
	for _, entry := range accepted {
		entry = strings.ToLower(strings.TrimSpace(entry))
		switch {
		case strings.HasPrefix(entry, "."):
			if ext == entry {
				return true
			}
		case strings.HasSuffix(entry, "/*"):
			if strings.HasPrefix(mime, strings.TrimSuffix(entry, "*")) {
				return true
			}
		default:
			if mime == entry {
				return true
			}
		}
	}
	return false
}

func fileExtension(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return ""
	}
	return name[idx:]
}

func toFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		num, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return num, true
	default:
		return 0, false
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}
