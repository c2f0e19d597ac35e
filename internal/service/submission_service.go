package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/formhub-api/internal/models"
	"github.com/noah-isme/formhub-api/internal/repository"
	appErrors "github.com/noah-isme/formhub-api/pkg/errors"
)

type submissionStore interface {
	Create(ctx context.Context, sub *models.Submission) error
	GetByID(ctx context.Context, id string) (*models.Submission, error)
	ListByForm(ctx context.Context, formID string) ([]models.Submission, error)
	Update(ctx context.Context, id string, params repository.UpdateSubmissionParams) error
	Delete(ctx context.Context, id string) error
}

type formStore interface {
	GetByID(ctx context.Context, id string) (*models.Form, error)
}

// SubmissionService handles submission intake, mutation and filtering.
type SubmissionService struct {
	repo      submissionStore
	forms     formStore
	validator *ValidationService
	logger    *zap.Logger
}

// NewSubmissionService constructs a submission service.
func NewSubmissionService(repo submissionStore, forms formStore, validator *ValidationService, logger *zap.Logger) *SubmissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validator == nil {
		validator = NewValidationService()
	}
	return &SubmissionService{repo: repo, forms: forms, validator: validator, logger: logger}
}

// Create validates the answers against the form's current fields and stores
// the submission with an embedded copy of that schema. When validation fails
// the returned result carries per-field errors and no record is stored.
func (s *SubmissionService) Create(ctx context.Context, formID string, data models.SubmissionData, userAgent, sourceLabel string) (*models.Submission, models.ValidationResult, error) {
	form, err := s.forms.GetByID(ctx, formID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.ErrNotFound
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load form")
	}

	valid, result := s.validator.ValidateAll(data, form.Fields)
	if !valid {
		return nil, result, appErrors.Clone(appErrors.ErrValidation, "submission failed validation")
	}

	sub := &models.Submission{
		ID:          uuid.NewString(),
		FormID:      form.ID,
		Data:        data,
		FieldSchema: append(models.FieldList(nil), form.Fields...),
		SubmittedAt: time.Now().UTC(),
		Status:      models.SubmissionStatusNew,
		Flags:       models.StringList{},
		UserAgent:   userAgent,
		SourceLabel: sourceLabel,
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store submission")
	}
	return sub, result, nil
}

// DryRun validates answers without storing anything.
func (s *SubmissionService) DryRun(ctx context.Context, formID string, data models.SubmissionData) (bool, models.ValidationResult, error) {
	form, err := s.forms.GetByID(ctx, formID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil, appErrors.ErrNotFound
		}
		return false, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load form")
	}
	valid, result := s.validator.ValidateAll(data, form.Fields)
	return valid, result, nil
}

// Get returns one submission.
func (s *SubmissionService) Get(ctx context.Context, id string) (*models.Submission, error) {
	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	return sub, nil
}

// ListFiltered loads a form's submissions and applies the filter pipeline.
func (s *SubmissionService) ListFiltered(ctx context.Context, formID string, criteria models.FilterCriteria) ([]models.Submission, *models.Form, error) {
	form, err := s.forms.GetByID(ctx, formID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.ErrNotFound
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load form")
	}
	subs, err := s.repo.ListByForm(ctx, formID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}
	return Filter(form, subs, criteria), form, nil
}

// UpdateReview mutates the reviewer-owned parts of a submission: status,
// flags and appended notes. Data stays immutable.
func (s *SubmissionService) UpdateReview(ctx context.Context, id string, params repository.UpdateSubmissionParams) (*models.Submission, error) {
	if err := s.repo.Update(ctx, id, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update submission")
	}
	return s.Get(ctx, id)
}

// Delete removes a submission.
func (s *SubmissionService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete submission")
	}
	return nil
}

// Filter applies the present criteria in fixed order: status, date range,
// flags, then free-text search. Predicates AND together; an empty result is
// not an error at this layer.
func Filter(form *models.Form, submissions []models.Submission, criteria models.FilterCriteria) []models.Submission {
	filtered := submissions
	if criteria.Status != nil {
		filtered = keep(filtered, func(sub models.Submission) bool {
			return sub.Status == *criteria.Status
		})
	}
	if criteria.DateFrom != nil || criteria.DateTo != nil {
		filtered = keep(filtered, func(sub models.Submission) bool {
			if criteria.DateFrom != nil && sub.SubmittedAt.Before(*criteria.DateFrom) {
				return false
			}
			if criteria.DateTo != nil && sub.SubmittedAt.After(*criteria.DateTo) {
				return false
			}
			return true
		})
	}
	if len(criteria.Flags) > 0 {
		filtered = keep(filtered, func(sub models.Submission) bool {
			for _, flag := range criteria.Flags {
				if sub.Flags.Contains(flag) {
					return true
				}
			}
			return false
		})
	}
	if criteria.SearchTerm != "" {
		term := strings.ToLower(criteria.SearchTerm)
		filtered = keep(filtered, func(sub models.Submission) bool {
			return matchesSearch(form, sub, term)
		})
	}
	return filtered
}

func keep(subs []models.Submission, pred func(models.Submission) bool) []models.Submission {
	out := make([]models.Submission, 0, len(subs))
	for _, sub := range subs {
		if pred(sub) {
			out = append(out, sub)
		}
	}
	return out
}

// matchesSearch checks the form title, embedded field labels and any string
// or string-array answer, case-insensitively.
func matchesSearch(form *models.Form, sub models.Submission, term string) bool {
	if form != nil && strings.Contains(strings.ToLower(form.Title), term) {
		return true
	}
	for _, field := range sub.FieldSchema {
		if strings.Contains(strings.ToLower(field.Label), term) {
			return true
		}
	}
	for _, value := range sub.Data {
		switch v := value.(type) {
		case string:
			if strings.Contains(strings.ToLower(v), term) {
				return true
			}
		case []interface{}:
			for _, item := range v {
				if str, ok := item.(string); ok && strings.Contains(strings.ToLower(str), term) {
					return true
				}
			}
		}
	}
	return false
}
