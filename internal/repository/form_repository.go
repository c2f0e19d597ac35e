package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/formhub-api/internal/models"
)

// FormRepository persists form schema documents. Field definitions are stored
// as a JSONB column so schema shape changes never require migrations.
type FormRepository struct {
	db *sqlx.DB
}

// NewFormRepository constructs the repository.
func NewFormRepository(db *sqlx.DB) *FormRepository {
	return &FormRepository{db: db}
}

// Create inserts a new form row.
func (r *FormRepository) Create(ctx context.Context, form *models.Form) error {
	const query = `INSERT INTO forms (id, title, description, fields, status, created_by, created_at, updated_at)
VALUES (:id, :title, :description, :fields, :status, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, form); err != nil {
		return fmt.Errorf("create form: %w", err)
	}
	return nil
}

// GetByID fetches a form by its identifier.
func (r *FormRepository) GetByID(ctx context.Context, id string) (*models.Form, error) {
	const query = `SELECT id, title, description, fields, status, created_by, created_at, updated_at
FROM forms WHERE id = $1`
	var form models.Form
	if err := r.db.GetContext(ctx, &form, query, id); err != nil {
		return nil, err
	}
	return &form, nil
}

// List returns forms matching the filter with pagination metadata.
func (r *FormRepository) List(ctx context.Context, filter models.FormFilter) ([]models.Form, *models.Pagination, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(title) LIKE $%d OR LOWER(description) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	where := strings.Join(conditions, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT id, title, description, fields, status, created_by, created_at, updated_at
FROM forms WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`, where, size, offset)

	var forms []models.Form
	if err := r.db.SelectContext(ctx, &forms, query, args...); err != nil {
		return nil, nil, fmt.Errorf("list forms: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM forms WHERE %s", where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, nil, fmt.Errorf("count forms: %w", err)
	}

	return forms, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// UpdateFormParams defines the mutable form fields.
type UpdateFormParams struct {
	Title       *string
	Description *string
	Fields      *models.FieldList
	Status      *models.FormStatus
}

// Update persists the provided changes for a form row.
func (r *FormRepository) Update(ctx context.Context, id string, params UpdateFormParams) error {
	set := make([]string, 0, 5)
	args := make([]interface{}, 0, 6)
	argPos := 1

	if params.Title != nil {
		set = append(set, fmt.Sprintf("title = $%d", argPos))
		args = append(args, *params.Title)
		argPos++
	}
	if params.Description != nil {
		set = append(set, fmt.Sprintf("description = $%d", argPos))
		args = append(args, *params.Description)
		argPos++
	}
	if params.Fields != nil {
		set = append(set, fmt.Sprintf("fields = $%d", argPos))
		args = append(args, *params.Fields)
		argPos++
	}
	if params.Status != nil {
		set = append(set, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *params.Status)
		argPos++
	}

	if len(set) == 0 {
		return nil
	}

	set = append(set, fmt.Sprintf("updated_at = $%d", argPos))
	args = append(args, time.Now().UTC())
	argPos++

	query := fmt.Sprintf("UPDATE forms SET %s WHERE id = $%d", strings.Join(set, ", "), argPos)
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update form: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a form row. Submissions reference forms with ON DELETE
// CASCADE, so their rows go with it.
func (r *FormRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM forms WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete form: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
