package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/formhub-api/internal/models"
	"github.com/noah-isme/formhub-api/internal/repository"
	appErrors "github.com/noah-isme/formhub-api/pkg/errors"
)

type formRepository interface {
	Create(ctx context.Context, form *models.Form) error
	GetByID(ctx context.Context, id string) (*models.Form, error)
	List(ctx context.Context, filter models.FormFilter) ([]models.Form, *models.Pagination, error)
	Update(ctx context.Context, id string, params repository.UpdateFormParams) error
	Delete(ctx context.Context, id string) error
}

// FormService manages form schema documents.
type FormService struct {
	repo   formRepository
	logger *zap.Logger
}

// NewFormService constructs a form service.
func NewFormService(repo formRepository, logger *zap.Logger) *FormService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FormService{repo: repo, logger: logger}
}

// Create validates field uniqueness and stores a new form.
func (s *FormService) Create(ctx context.Context, form *models.Form) (*models.Form, error) {
	if form.Title == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "title is required")
	}
	if err := validateFieldSchema(form.Fields); err != nil {
		return nil, err
	}
	if form.ID == "" {
		form.ID = uuid.NewString()
	}
	if form.Status == "" {
		form.Status = models.FormStatusDraft
	}
	now := time.Now().UTC()
	form.CreatedAt = now
	form.UpdatedAt = now
	if err := s.repo.Create(ctx, form); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create form")
	}
	return form, nil
}

// Get returns one form by ID.
func (s *FormService) Get(ctx context.Context, id string) (*models.Form, error) {
	form, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load form")
	}
	return form, nil
}

// List returns forms matching the filter.
func (s *FormService) List(ctx context.Context, filter models.FormFilter) ([]models.Form, *models.Pagination, error) {
	forms, pagination, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list forms")
	}
	return forms, pagination, nil
}

// Update applies the provided changes.
func (s *FormService) Update(ctx context.Context, id string, params repository.UpdateFormParams) (*models.Form, error) {
	if params.Fields != nil {
		if err := validateFieldSchema(*params.Fields); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Update(ctx, id, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update form")
	}
	return s.Get(ctx, id)
}

// Delete removes a form.
func (s *FormService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete form")
	}
	return nil
}

func validateFieldSchema(fields models.FieldList) error {
	seen := map[string]struct{}{}
	for _, field := range fields {
		if field.ID == "" {
			return appErrors.Clone(appErrors.ErrValidation, "every field requires an id")
		}
		if _, dup := seen[field.ID]; dup {
			return appErrors.Clone(appErrors.ErrValidation, "duplicate field id: "+field.ID)
		}
		seen[field.ID] = struct{}{}
		if !field.Type.Known() {
			return appErrors.Clone(appErrors.ErrValidation, "unknown field type: "+string(field.Type))
		}
	}
	return nil
}
