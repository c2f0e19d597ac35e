package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/formhub-api/internal/models"
)

func newSubmissionRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSubmissionRepositoryCreateAndGet(t *testing.T) {
	db, mock, cleanup := newSubmissionRepoMock(t)
	defer cleanup()

	repo := NewSubmissionRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO submissions")).
		WithArgs("sub-1", "form-1", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), "new", sqlmock.AnyArg(), sqlmock.AnyArg(), "curl/8.0", "landing-page").
		WillReturnResult(sqlmock.NewResult(1, 1))

	sub := &models.Submission{
		ID:          "sub-1",
		FormID:      "form-1",
		Data:        models.SubmissionData{"name": "Ada"},
		SubmittedAt: time.Now().UTC(),
		Status:      models.SubmissionStatusNew,
		UserAgent:   "curl/8.0",
		SourceLabel: "landing-page",
	}
	require.NoError(t, repo.Create(context.Background(), sub))

	rows := sqlmock.NewRows([]string{"id", "form_id", "data", "field_schema", "submitted_at", "status", "flags", "notes", "user_agent", "source_label"}).
		AddRow("sub-1", "form-1", `{"name":"Ada"}`, `[]`, time.Now(), "new", `[]`, nil, "curl/8.0", "landing-page")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, form_id, data, field_schema, submitted_at, status, flags, notes, user_agent, source_label\nFROM submissions WHERE id = $1")).
		WithArgs("sub-1").
		WillReturnRows(rows)

	fetched, err := repo.GetByID(context.Background(), "sub-1")
	require.NoError(t, err)
	require.Equal(t, "Ada", fetched.Data["name"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryListByForm(t *testing.T) {
	db, mock, cleanup := newSubmissionRepoMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	rows := sqlmock.NewRows([]string{"id", "form_id", "data", "field_schema", "submitted_at", "status", "flags", "notes", "user_agent", "source_label"}).
		AddRow("sub-1", "form-1", `{}`, `[]`, time.Now().Add(-time.Hour), "new", `[]`, nil, "", "").
		AddRow("sub-2", "form-1", `{}`, `[]`, time.Now(), "reviewed", `["vip"]`, nil, "", "")
	mock.ExpectQuery(regexp.QuoteMeta("FROM submissions WHERE form_id = $1 ORDER BY submitted_at ASC")).
		WithArgs("form-1").
		WillReturnRows(rows)

	subs, err := repo.ListByForm(context.Background(), "form-1")
	require.NoError(t, err)
	require.Len(t, subs, 2)
	require.Equal(t, models.StringList{"vip"}, subs[1].Flags)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryUpdateStatusAndFlags(t *testing.T) {
	db, mock, cleanup := newSubmissionRepoMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	status := models.SubmissionStatusReviewed
	flags := models.StringList{"vip"}
	mock.ExpectExec(regexp.QuoteMeta("UPDATE submissions SET status = $1, flags = $2 WHERE id = $3")).
		WithArgs(status, sqlmock.AnyArg(), "sub-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), "sub-1", UpdateSubmissionParams{Status: &status, Flags: &flags})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryUpdateAppendsNote(t *testing.T) {
	db, mock, cleanup := newSubmissionRepoMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	note := "confirmed by phone"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE submissions SET notes = COALESCE(notes, '[]'::jsonb) || $1::jsonb WHERE id = $2")).
		WithArgs([]byte(`["confirmed by phone"]`), "sub-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), "sub-1", UpdateSubmissionParams{AddNote: &note})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryUpdateMissingRow(t *testing.T) {
	db, mock, cleanup := newSubmissionRepoMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	status := models.SubmissionStatusSpam
	mock.ExpectExec(regexp.QuoteMeta("UPDATE submissions SET status = $1 WHERE id = $2")).
		WithArgs(status, "ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), "ghost", UpdateSubmissionParams{Status: &status})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newSubmissionRepoMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM submissions WHERE id = $1")).
		WithArgs("sub-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), "sub-1"))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM submissions WHERE id = $1")).
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.ErrorIs(t, repo.Delete(context.Background(), "ghost"), sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
