package models

import "time"

// OptionCount is one bucket in a frequency distribution.
type OptionCount struct {
	Value      string  `json:"value"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// RatingCount is one bucket in a rating distribution, sorted ascending by rating.
type RatingCount struct {
	Rating     float64 `json:"rating"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// TextStats summarises free-text responses.
type TextStats struct {
	AverageLength float64 `json:"average_length"`
	AverageWords  float64 `json:"average_words"`
	MaxLength     int     `json:"max_length"`
	MinLength     int     `json:"min_length"`
}

// NumberStats summarises numeric responses.
type NumberStats struct {
	Average float64 `json:"average"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Median  float64 `json:"median"`
}

// ChoiceStats summarises single-choice responses.
type ChoiceStats struct {
	Distribution []OptionCount `json:"distribution"`
	Mode         string        `json:"mode"`
}

// CheckboxStats summarises multi-choice responses. Percentages are relative
// to the submission count, not the flattened selection count.
type CheckboxStats struct {
	Distribution      []OptionCount `json:"distribution"`
	AverageSelections float64       `json:"average_selections"`
}

// RatingStats summarises rating responses.
type RatingStats struct {
	Average      float64       `json:"average"`
	Distribution []RatingCount `json:"distribution"`
}

// DateStats summarises date responses.
type DateStats struct {
	Earliest string `json:"earliest"`
	Latest   string `json:"latest"`
	SpanDays int    `json:"span_days"`
}

// FileStats summarises file-upload responses. TotalSize is human readable
// with binary (1024) units.
type FileStats struct {
	TotalFiles   int           `json:"total_files"`
	AverageFiles float64       `json:"average_files"`
	TotalSize    string        `json:"total_size"`
	Extensions   []OptionCount `json:"extensions"`
}

// FieldAnalytics is a type-tagged union: Type selects which payload pointer
// is populated. Unknown types carry only Summary.
type FieldAnalytics struct {
	FieldID       string    `json:"field_id"`
	Label         string    `json:"label"`
	Type          FieldType `json:"type"`
	ResponseCount int       `json:"response_count"`

	Text     *TextStats     `json:"text,omitempty"`
	Number   *NumberStats   `json:"number,omitempty"`
	Choice   *ChoiceStats   `json:"choice,omitempty"`
	Checkbox *CheckboxStats `json:"checkbox,omitempty"`
	Rating   *RatingStats   `json:"rating,omitempty"`
	Date     *DateStats     `json:"date,omitempty"`
	File     *FileStats     `json:"file,omitempty"`
	Summary  string         `json:"summary,omitempty"`
}

// TrendPoint is one day in the zero-filled submission trend.
type TrendPoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// BucketCount is a labelled submission count, used for peak-time buckets.
type BucketCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// FormAnalytics aggregates submission activity and per-field statistics for
// a form over a window of days.
type FormAnalytics struct {
	FormID            string           `json:"form_id"`
	TotalSubmissions  int              `json:"total_submissions"`
	RecentSubmissions int              `json:"recent_submissions"`
	Today             int              `json:"today"`
	ThisWeek          int              `json:"this_week"`
	ThisMonth         int              `json:"this_month"`
	AveragePerDay     float64          `json:"average_per_day"`
	CompletionRate    int              `json:"completion_rate"`
	Trend             []TrendPoint     `json:"trend"`
	PeakHours         []BucketCount    `json:"peak_hours"`
	PeakDays          []BucketCount    `json:"peak_days"`
	PeakHour          string           `json:"peak_hour"`
	PeakDay           string           `json:"peak_day"`
	Fields            []FieldAnalytics `json:"fields"`
	WindowDays        int              `json:"window_days"`
	GeneratedAt       time.Time        `json:"generated_at"`
}
