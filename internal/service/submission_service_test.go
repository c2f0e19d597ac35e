package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/formhub-api/internal/models"
	"github.com/noah-isme/formhub-api/internal/repository"
	appErrors "github.com/noah-isme/formhub-api/pkg/errors"
)

type submissionStoreStub struct {
	subs map[string]*models.Submission
}

func newSubmissionStoreStub() *submissionStoreStub {
	return &submissionStoreStub{subs: map[string]*models.Submission{}}
}

func (s *submissionStoreStub) Create(ctx context.Context, sub *models.Submission) error {
	s.subs[sub.ID] = sub
	return nil
}

func (s *submissionStoreStub) GetByID(ctx context.Context, id string) (*models.Submission, error) {
	sub, ok := s.subs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return sub, nil
}

func (s *submissionStoreStub) ListByForm(ctx context.Context, formID string) ([]models.Submission, error) {
	out := make([]models.Submission, 0)
	for _, sub := range s.subs {
		if sub.FormID == formID {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (s *submissionStoreStub) Update(ctx context.Context, id string, params repository.UpdateSubmissionParams) error {
	sub, ok := s.subs[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Status != nil {
		sub.Status = *params.Status
	}
	if params.Flags != nil {
		sub.Flags = *params.Flags
	}
	if params.AddNote != nil {
		sub.Notes = append(sub.Notes, *params.AddNote)
	}
	return nil
}

func (s *submissionStoreStub) Delete(ctx context.Context, id string) error {
	delete(s.subs, id)
	return nil
}

type formStoreStub struct {
	form *models.Form
}

func (s *formStoreStub) GetByID(ctx context.Context, id string) (*models.Form, error) {
	if s.form == nil || s.form.ID != id {
		return nil, sql.ErrNoRows
	}
	return s.form, nil
}

func newSubmissionServiceForTest() (*SubmissionService, *submissionStoreStub, *models.Form) {
	form := &models.Form{
		ID:    "form-1",
		Title: "Customer Feedback",
		Fields: models.FieldList{
			{ID: "name", Label: "Name", Type: models.FieldTypeText, Required: true},
			{ID: "age", Label: "Age", Type: models.FieldTypeNumber, Max: fptr(120)},
		},
	}
	store := newSubmissionStoreStub()
	svc := NewSubmissionService(store, &formStoreStub{form: form}, NewValidationService(), nil)
	return svc, store, form
}

func TestSubmissionCreateEmbedsSchema(t *testing.T) {
	svc, store, form := newSubmissionServiceForTest()

	sub, result, err := svc.Create(context.Background(), form.ID, models.SubmissionData{"name": "Ada"}, "agent", "web")
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.True(t, result.Valid())
	assert.Equal(t, models.SubmissionStatusNew, sub.Status)
	assert.Len(t, sub.FieldSchema, 2)
	assert.Contains(t, store.subs, sub.ID)
}

func TestSubmissionCreateValidationFailureStoresNothing(t *testing.T) {
	svc, store, form := newSubmissionServiceForTest()

	sub, result, err := svc.Create(context.Background(), form.ID, models.SubmissionData{"age": float64(150)}, "", "")
	require.Error(t, err)
	assert.Nil(t, sub)
	assert.Equal(t, []string{"Name is required"}, result["name"])
	assert.Equal(t, []string{"Age must not exceed 120"}, result["age"])
	assert.Empty(t, store.subs)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestSubmissionCreateUnknownForm(t *testing.T) {
	svc, _, _ := newSubmissionServiceForTest()

	_, _, err := svc.Create(context.Background(), "missing", models.SubmissionData{}, "", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSubmissionDryRunDoesNotStore(t *testing.T) {
	svc, store, form := newSubmissionServiceForTest()

	valid, result, err := svc.DryRun(context.Background(), form.ID, models.SubmissionData{"name": "Ada"})
	require.NoError(t, err)
	assert.True(t, valid)
	assert.Empty(t, result)
	assert.Empty(t, store.subs)
}

func TestSubmissionUpdateReviewAppendsNote(t *testing.T) {
	svc, store, form := newSubmissionServiceForTest()
	store.subs["sub-1"] = &models.Submission{ID: "sub-1", FormID: form.ID, Status: models.SubmissionStatusNew}

	reviewed := models.SubmissionStatusReviewed
	note := "looks good"
	sub, err := svc.UpdateReview(context.Background(), "sub-1", repository.UpdateSubmissionParams{
		Status:  &reviewed,
		AddNote: &note,
	})
	require.NoError(t, err)
	assert.Equal(t, reviewed, sub.Status)
	assert.Equal(t, models.StringList{"looks good"}, sub.Notes)
}

func filterFixture() (*models.Form, []models.Submission) {
	form := &models.Form{ID: "form-1", Title: "Customer Feedback", Fields: models.FieldList{
		{ID: "company", Label: "Company", Type: models.FieldTypeText},
	}}
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	subs := []models.Submission{
		{
			ID: "s1", FormID: form.ID, SubmittedAt: base,
			Status: models.SubmissionStatusNew,
			Flags:  models.StringList{"vip"},
			Data:   models.SubmissionData{"company": "Acme Corp"},
		},
		{
			ID: "s2", FormID: form.ID, SubmittedAt: base.AddDate(0, 0, 1),
			Status: models.SubmissionStatusReviewed,
			Data:   models.SubmissionData{"company": "acme industries"},
		},
		{
			ID: "s3", FormID: form.ID, SubmittedAt: base.AddDate(0, 0, 2),
			Status: models.SubmissionStatusReviewed,
			Data:   models.SubmissionData{"company": "Globex"},
		},
		{
			ID: "s4", FormID: form.ID, SubmittedAt: base.AddDate(0, 0, 3),
			Status: models.SubmissionStatusSpam,
			Data:   models.SubmissionData{"company": "ACME Ltd"},
		},
	}
	return form, subs
}

func TestFilterByStatus(t *testing.T) {
	form, subs := filterFixture()
	reviewed := models.SubmissionStatusReviewed

	out := Filter(form, subs, models.FilterCriteria{Status: &reviewed})
	require.Len(t, out, 2)
	assert.Equal(t, "s2", out[0].ID)
	assert.Equal(t, "s3", out[1].ID)
}

func TestFilterByDateRange(t *testing.T) {
	form, subs := filterFixture()
	from := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 6, 3, 23, 59, 59, 0, time.UTC)

	out := Filter(form, subs, models.FilterCriteria{DateFrom: &from, DateTo: &to})
	require.Len(t, out, 2)
	assert.Equal(t, "s2", out[0].ID)
	assert.Equal(t, "s3", out[1].ID)
}

func TestFilterByFlags(t *testing.T) {
	form, subs := filterFixture()

	out := Filter(form, subs, models.FilterCriteria{Flags: []string{"vip", "urgent"}})
	require.Len(t, out, 1)
	assert.Equal(t, "s1", out[0].ID)
}

func TestFilterSearchCaseInsensitive(t *testing.T) {
	form, subs := filterFixture()

	out := Filter(form, subs, models.FilterCriteria{SearchTerm: "acme"})
	require.Len(t, out, 3)
}

func TestFilterCombinedStatusAndSearch(t *testing.T) {
	form, subs := filterFixture()
	reviewed := models.SubmissionStatusReviewed

	out := Filter(form, subs, models.FilterCriteria{Status: &reviewed, SearchTerm: "acme"})
	require.Len(t, out, 1)
	assert.Equal(t, "s2", out[0].ID)
}

func TestFilterSearchMatchesFormTitle(t *testing.T) {
	form, subs := filterFixture()

	out := Filter(form, subs, models.FilterCriteria{SearchTerm: "feedback"})
	assert.Len(t, out, len(subs))
}

func TestFilterEmptyResultIsNotError(t *testing.T) {
	form, subs := filterFixture()

	out := Filter(form, subs, models.FilterCriteria{SearchTerm: "no such term"})
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestFilterNoCriteriaReturnsAll(t *testing.T) {
	form, subs := filterFixture()

	out := Filter(form, subs, models.FilterCriteria{})
	assert.Len(t, out, len(subs))
}
