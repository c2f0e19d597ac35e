package service

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/formhub-api/internal/models"
	appErrors "github.com/noah-isme/formhub-api/pkg/errors"
	"github.com/noah-isme/formhub-api/pkg/export"
	"github.com/noah-isme/formhub-api/pkg/storage"
)

const downloadRoutePrefix = "/api/v1/exports/download/"

var filenameSanitizer = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// ExportService serializes submission sets into downloadable documents and
// manages the files they produce.
type ExportService struct {
	storage *storage.LocalStorage
	signer  *storage.SignedURLSigner
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

func NewExportService(store *storage.LocalStorage, signer *storage.SignedURLSigner, metrics *MetricsService, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		storage: store,
		signer:  signer,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// Serialize renders the payload's submissions in the requested format. An
// empty submission set is rejected here rather than in the filter pipeline,
// so list endpoints can return empty pages while exports surface the problem.
func (s *ExportService) Serialize(payload models.ExportPayload) (*models.SerializeResult, error) {
	started := s.now()

	if len(payload.Submissions) == 0 {
		return nil, appErrors.ErrNoMatches
	}
	if !payload.Format.Known() {
		return nil, appErrors.Clone(appErrors.ErrUnsupportedFormat, fmt.Sprintf("unsupported export format: %s", payload.Format))
	}

	fields, source := resolveEffectiveSchema(payload.Submissions, payload.FieldSchema)

	var (
		data []byte
		err  error
	)
	switch payload.Format {
	case models.ExportFormatCSV, models.ExportFormatExcelCSV:
		data, err = s.encodeCSV(payload, fields)
	case models.ExportFormatJSON:
		data, err = s.encodeJSON(payload, fields)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrSerialization.Code, appErrors.ErrSerialization.Status, fmt.Sprintf("Export failed: %s", err))
	}

	if s.metrics != nil {
		s.metrics.ObserveSerialization(string(payload.Format), s.now().Sub(started))
	}

	return &models.SerializeResult{
		Format:      payload.Format,
		Filename:    s.buildFilename(payload),
		MimeType:    payload.Format.MimeType(),
		RecordCount: len(payload.Submissions),
		SizeBytes:   int64(len(data)),
		FieldSource: source,
		Payload:     data,
	}, nil
}

// Store persists the serialized payload to disk and attaches a signed
// download URL to the result.
func (s *ExportService) Store(jobID string, result *models.SerializeResult) error {
	if _, err := s.storage.Save(result.Filename, result.Payload); err != nil {
		return fmt.Errorf("store export %s: %w", result.Filename, err)
	}

	token, _, err := s.signer.Generate(jobID, result.Filename)
	if err != nil {
		return fmt.Errorf("sign export url: %w", err)
	}
	result.DownloadURL = downloadRoutePrefix + token
	return nil
}

// OpenByToken validates a signed download token and opens the export file it
// references.
func (s *ExportService) OpenByToken(token string) (*os.File, string, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}

	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "export file not found")
	}
	return file, relPath, nil
}

// Cleanup removes stored export files older than the retention window.
func (s *ExportService) Cleanup(ttl time.Duration) {
	removed, err := s.storage.CleanupOlderThan(ttl)
	if err != nil {
		s.logger.Warn("export cleanup failed", zap.Error(err))
		return
	}
	if len(removed) > 0 {
		s.logger.Info("removed expired export files", zap.Int("count", len(removed)))
	}
}

// AnalyticsSummaryPDF renders a one-page tabular summary of form analytics.
// PDF is a reporting supplement, not a record export format.
func (s *ExportService) AnalyticsSummaryPDF(form *models.Form, analytics *models.FormAnalytics) ([]byte, string, error) {
	table := export.Table{
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Total submissions", fmt.Sprintf("%d", analytics.TotalSubmissions)},
			{"Submissions in window", fmt.Sprintf("%d (last %d days)", analytics.RecentSubmissions, analytics.WindowDays)},
			{"Today", fmt.Sprintf("%d", analytics.Today)},
			{"This week", fmt.Sprintf("%d", analytics.ThisWeek)},
			{"This month", fmt.Sprintf("%d", analytics.ThisMonth)},
			{"Average per day", fmt.Sprintf("%.2f", analytics.AveragePerDay)},
			{"Completion rate", fmt.Sprintf("%d%%", analytics.CompletionRate)},
			{"Peak hour", analytics.PeakHour},
			{"Peak day", analytics.PeakDay},
		},
	}

	data, err := export.NewPDFExporter().Render(table, fmt.Sprintf("Analytics Summary: %s", form.Title))
	if err != nil {
		return nil, "", fmt.Errorf("render analytics pdf: %w", err)
	}
	filename := fmt.Sprintf("%s_analytics_%s.pdf", sanitizeFilename(form.Title), s.now().Format("20060102_150405"))
	return data, filename, nil
}

func (s *ExportService) encodeCSV(payload models.ExportPayload, fields models.FieldList) ([]byte, error) {
	headers := []string{"Submission ID", "Submitted At"}
	for _, field := range fields {
		headers = append(headers, field.Label)
	}

	rows := make([][]string, 0, len(payload.Submissions))
	for _, sub := range payload.Submissions {
		row := []string{sub.ID, sub.SubmittedAt.Format(time.RFC3339)}
		for _, field := range fields {
			row = append(row, cellValue(sub.Data[field.ID]))
		}
		rows = append(rows, row)
	}

	encoder := export.NewCSVEncoder()
	encoder.IncludeHeaders = payload.Options.HeadersEnabled()
	if payload.Options.Delimiter != "" {
		encoder.Delimiter = payload.Options.Delimiter
	}

	table := export.Table{Headers: headers, Rows: rows}
	if payload.Format == models.ExportFormatExcelCSV {
		return encoder.EncodeExcel(table)
	}
	return encoder.Encode(table)
}

func (s *ExportService) encodeJSON(payload models.ExportPayload, fields models.FieldList) ([]byte, error) {
	records := make([]map[string]interface{}, 0, len(payload.Submissions))
	for _, sub := range payload.Submissions {
		record := map[string]interface{}{
			"id":          sub.ID,
			"submittedAt": sub.SubmittedAt.Format(time.RFC3339),
		}
		if payload.Options.IncludeFormData {
			data := make(map[string]interface{}, len(fields))
			for _, field := range fields {
				if value, ok := sub.Data[field.ID]; ok {
					data[field.Label] = value
				}
			}
			record["data"] = data
		}
		if payload.Options.IncludeMetadata {
			record["metadata"] = map[string]interface{}{
				"status":      sub.Status,
				"flags":       sub.Flags,
				"userAgent":   sub.UserAgent,
				"sourceLabel": sub.SourceLabel,
			}
		}
		records = append(records, record)
	}

	var document interface{} = records
	if payload.Options.IncludeFieldDefinitions {
		document = map[string]interface{}{
			"fieldDefinitions": fields,
			"submissions":      records,
		}
	}

	if payload.Options.PrettyPrint {
		return json.MarshalIndent(document, "", "  ")
	}
	return json.Marshal(document)
}

func (s *ExportService) buildFilename(payload models.ExportPayload) string {
	base := payload.Options.FilenameBase
	if base == "" && payload.Form != nil {
		base = payload.Form.Title
	}
	base = sanitizeFilename(base)
	if base == "" {
		base = "submissions"
	}
	if payload.Options.TimestampSuffix {
		base = fmt.Sprintf("%s_%s", base, s.now().Format("20060102_150405"))
	}
	return fmt.Sprintf("%s.%s", base, payload.Format.Extension())
}

func sanitizeFilename(name string) string {
	cleaned := filenameSanitizer.ReplaceAllString(strings.TrimSpace(name), "_")
	return strings.Trim(strings.ToLower(cleaned), "_")
}

// cellValue renders a raw submission value as a single CSV cell. Arrays are
// joined with ", " and uploaded file descriptors collapse to their names.
func cellValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "true"
		}
		return "false"
	case float64:
		return formatNumber(v)
	case []interface{}:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, cellValue(item))
		}
		return strings.Join(parts, ", ")
	case map[string]interface{}:
		if name, ok := v["name"].(string); ok {
			return name
		}
		return fmt.Sprintf("%v", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
