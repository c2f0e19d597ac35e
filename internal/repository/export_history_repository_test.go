package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/formhub-api/internal/models"
)

func newExportHistoryRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestExportHistoryReplaceRecent(t *testing.T) {
	db, mock, cleanup := newExportHistoryRepoMock(t)
	defer cleanup()
	repo := NewExportHistoryRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM export_history")).
		WillReturnResult(sqlmock.NewResult(0, 10))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO export_history")).
		WithArgs("job-2", sqlmock.AnyArg(), "csv", 12, "feedback.csv", int64(2048), true).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO export_history")).
		WithArgs("job-1", sqlmock.AnyArg(), "json", 0, "", int64(0), false).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	entries := []models.ExportHistoryEntry{
		{ID: "job-2", Timestamp: time.Now(), Format: models.ExportFormatCSV, RecordCount: 12, Filename: "feedback.csv", SizeBytes: 2048, Success: true},
		{ID: "job-1", Timestamp: time.Now().Add(-time.Minute), Format: models.ExportFormatJSON, Success: false},
	}
	require.NoError(t, repo.ReplaceRecent(context.Background(), entries))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExportHistoryReplaceRecentRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newExportHistoryRepoMock(t)
	defer cleanup()
	repo := NewExportHistoryRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM export_history")).
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	err := repo.ReplaceRecent(context.Background(), nil)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExportHistoryListRecent(t *testing.T) {
	db, mock, cleanup := newExportHistoryRepoMock(t)
	defer cleanup()
	repo := NewExportHistoryRepository(db)

	rows := sqlmock.NewRows([]string{"id", "timestamp", "format", "record_count", "filename", "size_bytes", "success"}).
		AddRow("job-2", time.Now(), "csv", 12, "feedback.csv", 2048, true).
		AddRow("job-1", time.Now().Add(-time.Minute), "json", 3, "feedback.json", 512, true)
	mock.ExpectQuery(regexp.QuoteMeta("FROM export_history ORDER BY timestamp DESC LIMIT $1")).
		WithArgs(2).
		WillReturnRows(rows)

	entries, err := repo.ListRecent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "job-2", entries[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExportHistoryListRecentDefaultLimit(t *testing.T) {
	db, mock, cleanup := newExportHistoryRepoMock(t)
	defer cleanup()
	repo := NewExportHistoryRepository(db)

	rows := sqlmock.NewRows([]string{"id", "timestamp", "format", "record_count", "filename", "size_bytes", "success"})
	mock.ExpectQuery(regexp.QuoteMeta("FROM export_history ORDER BY timestamp DESC LIMIT $1")).
		WithArgs(10).
		WillReturnRows(rows)

	entries, err := repo.ListRecent(context.Background(), 0)
	require.NoError(t, err)
	require.Empty(t, entries)
	require.NoError(t, mock.ExpectationsWereMet())
}
