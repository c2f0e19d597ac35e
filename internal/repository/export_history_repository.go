package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/formhub-api/internal/models"
)

// ExportHistoryRepository mirrors the tail of the in-memory export log so the
// most recent entries survive restarts.
type ExportHistoryRepository struct {
	db *sqlx.DB
}

// NewExportHistoryRepository constructs the repository.
func NewExportHistoryRepository(db *sqlx.DB) *ExportHistoryRepository {
	return &ExportHistoryRepository{db: db}
}

// ReplaceRecent swaps the persisted snapshot for the provided entries in one
// transaction.
func (r *ExportHistoryRepository) ReplaceRecent(ctx context.Context, entries []models.ExportHistoryEntry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin export history transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM export_history"); err != nil {
		return fmt.Errorf("clear export history: %w", err)
	}

	const query = `INSERT INTO export_history (id, timestamp, format, record_count, filename, size_bytes, success)
VALUES (:id, :timestamp, :format, :record_count, :filename, :size_bytes, :success)`
	for _, entry := range entries {
		if _, err := tx.NamedExecContext(ctx, query, entry); err != nil {
			return fmt.Errorf("insert export history entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit export history: %w", err)
	}
	return nil
}

// ListRecent returns the persisted entries, newest first.
func (r *ExportHistoryRepository) ListRecent(ctx context.Context, limit int) ([]models.ExportHistoryEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	const query = `SELECT id, timestamp, format, record_count, filename, size_bytes, success
FROM export_history ORDER BY timestamp DESC LIMIT $1`
	var entries []models.ExportHistoryEntry
	if err := r.db.SelectContext(ctx, &entries, query, limit); err != nil {
		return nil, fmt.Errorf("list export history: %w", err)
	}
	return entries, nil
}
