package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/formhub-api/internal/models"
)

// SubmissionRepository persists submission documents. Raw answers and the
// embedded field schema are JSONB columns; filtering happens in memory so the
// rows come back in submission order.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository constructs the repository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// Create inserts a new submission row.
func (r *SubmissionRepository) Create(ctx context.Context, sub *models.Submission) error {
	const query = `INSERT INTO submissions (id, form_id, data, field_schema, submitted_at, status, flags, notes, user_agent, source_label)
VALUES (:id, :form_id, :data, :field_schema, :submitted_at, :status, :flags, :notes, :user_agent, :source_label)`
	if _, err := r.db.NamedExecContext(ctx, query, sub); err != nil {
		return fmt.Errorf("create submission: %w", err)
	}
	return nil
}

// GetByID fetches a submission by its identifier.
func (r *SubmissionRepository) GetByID(ctx context.Context, id string) (*models.Submission, error) {
	const query = `SELECT id, form_id, data, field_schema, submitted_at, status, flags, notes, user_agent, source_label
FROM submissions WHERE id = $1`
	var sub models.Submission
	if err := r.db.GetContext(ctx, &sub, query, id); err != nil {
		return nil, err
	}
	return &sub, nil
}

// ListByForm returns all submissions for a form, oldest first.
func (r *SubmissionRepository) ListByForm(ctx context.Context, formID string) ([]models.Submission, error) {
	const query = `SELECT id, form_id, data, field_schema, submitted_at, status, flags, notes, user_agent, source_label
FROM submissions WHERE form_id = $1 ORDER BY submitted_at ASC`
	var subs []models.Submission
	if err := r.db.SelectContext(ctx, &subs, query, formID); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return subs, nil
}

// CountByForm returns the submission count for a form.
func (r *SubmissionRepository) CountByForm(ctx context.Context, formID string) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM submissions WHERE form_id = $1", formID); err != nil {
		return 0, fmt.Errorf("count submissions: %w", err)
	}
	return total, nil
}

// UpdateSubmissionParams defines the reviewer-mutable fields. AddNote appends
// to the notes array; submission data itself is immutable.
type UpdateSubmissionParams struct {
	Status  *models.SubmissionStatus
	Flags   *models.StringList
	AddNote *string
}

// Update persists the provided changes for a submission row.
func (r *SubmissionRepository) Update(ctx context.Context, id string, params UpdateSubmissionParams) error {
	set := make([]string, 0, 3)
	args := make([]interface{}, 0, 4)
	argPos := 1

	if params.Status != nil {
		set = append(set, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *params.Status)
		argPos++
	}
	if params.Flags != nil {
		set = append(set, fmt.Sprintf("flags = $%d", argPos))
		args = append(args, *params.Flags)
		argPos++
	}
	if params.AddNote != nil {
		note, err := json.Marshal([]string{*params.AddNote})
		if err != nil {
			return fmt.Errorf("marshal note: %w", err)
		}
		set = append(set, fmt.Sprintf("notes = COALESCE(notes, '[]'::jsonb) || $%d::jsonb", argPos))
		args = append(args, note)
		argPos++
	}

	if len(set) == 0 {
		return nil
	}

	query := fmt.Sprintf("UPDATE submissions SET %s WHERE id = $%d", strings.Join(set, ", "), argPos)
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update submission: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a submission row.
func (r *SubmissionRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM submissions WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete submission: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
