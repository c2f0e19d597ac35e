package models

import "time"

// ExportFormat enumerates the record serialization formats.
type ExportFormat string

const (
	ExportFormatCSV      ExportFormat = "csv"
	ExportFormatExcelCSV ExportFormat = "excel-csv"
	ExportFormatJSON     ExportFormat = "json"
)

// Known reports whether the format is a supported record codec.
func (f ExportFormat) Known() bool {
	return f == ExportFormatCSV || f == ExportFormatExcelCSV || f == ExportFormatJSON
}

// Extension returns the filename extension for the format.
func (f ExportFormat) Extension() string {
	if f == ExportFormatJSON {
		return "json"
	}
	return "csv"
}

// MimeType returns the content type served for the format.
func (f ExportFormat) MimeType() string {
	if f == ExportFormatJSON {
		return "application/json"
	}
	return "text/csv"
}

// ExportStatus captures the export job state machine.
type ExportStatus string

const (
	ExportStatusQueued     ExportStatus = "queued"
	ExportStatusProcessing ExportStatus = "processing"
	ExportStatusCompleted  ExportStatus = "completed"
	ExportStatusFailed     ExportStatus = "failed"
)

// Terminal reports whether the status is final.
func (s ExportStatus) Terminal() bool {
	return s == ExportStatusCompleted || s == ExportStatusFailed
}

// FieldSource identifies which schema source resolved the export columns.
type FieldSource string

const (
	FieldSourceStored   FieldSource = "stored"
	FieldSourceFallback FieldSource = "fallback"
	FieldSourceInferred FieldSource = "inferred"
)

// SerializeOptions tunes the record serializer.
type SerializeOptions struct {
	IncludeHeaders          *bool  `json:"includeHeaders,omitempty"`
	Delimiter               string `json:"delimiter,omitempty"`
	IncludeFormData         bool   `json:"includeFormData,omitempty"`
	IncludeMetadata         bool   `json:"includeMetadata,omitempty"`
	IncludeFieldDefinitions bool   `json:"includeFieldDefinitions,omitempty"`
	PrettyPrint             bool   `json:"prettyPrint,omitempty"`
	FilenameBase            string `json:"filenameBase,omitempty"`
	TimestampSuffix         bool   `json:"timestampSuffix,omitempty"`
}

// HeadersEnabled resolves the IncludeHeaders default (true).
func (o SerializeOptions) HeadersEnabled() bool {
	return o.IncludeHeaders == nil || *o.IncludeHeaders
}

// SerializeResult captures serializer output metadata handed to the queue
// and history layers. Payload is the encoded document and never serialized
// back to API clients.
type SerializeResult struct {
	Format      ExportFormat `json:"format"`
	Filename    string       `json:"filename"`
	MimeType    string       `json:"mime_type"`
	RecordCount int          `json:"record_count"`
	SizeBytes   int64        `json:"size_bytes"`
	FieldSource FieldSource  `json:"field_source"`
	DownloadURL string       `json:"download_url,omitempty"`
	Payload     []byte       `json:"-"`
}

// ExportPayload is the work unit queued for asynchronous serialization.
type ExportPayload struct {
	FormID      string
	Form        *Form
	Submissions []Submission
	FieldSchema FieldList
	Format      ExportFormat
	Options     SerializeOptions
}

// ExportJob is the in-memory job record tracked by the queue service.
type ExportJob struct {
	ID         string           `json:"id"`
	Status     ExportStatus     `json:"status"`
	Payload    ExportPayload    `json:"-"`
	Result     *SerializeResult `json:"result,omitempty"`
	Error      string           `json:"error,omitempty"`
	EnqueuedAt time.Time        `json:"enqueued_at"`
	StartedAt  *time.Time       `json:"started_at,omitempty"`
	FinishedAt *time.Time       `json:"finished_at,omitempty"`
}

// ExportQueueStatus reports job counts by state.
type ExportQueueStatus struct {
	Queued     int `json:"queued"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
	Total      int `json:"total"`
}

// ExportHistoryEntry records one completed serializer invocation.
type ExportHistoryEntry struct {
	ID          string       `db:"id" json:"id"`
	Timestamp   time.Time    `db:"timestamp" json:"timestamp"`
	Format      ExportFormat `db:"format" json:"format"`
	RecordCount int          `db:"record_count" json:"record_count"`
	Filename    string       `db:"filename" json:"filename"`
	SizeBytes   int64        `db:"size_bytes" json:"size_bytes"`
	Success     bool         `db:"success" json:"success"`
}

// ExportStatistics aggregates history entries for reporting.
type ExportStatistics struct {
	TotalExports   int            `json:"total_exports"`
	TotalRecords   int            `json:"total_records"`
	PerFormat      map[string]int `json:"per_format"`
	AverageRecords float64        `json:"average_records"`
}
