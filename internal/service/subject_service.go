package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/studytrackhq/studytrack-api/internal/models"
	appErrors "github.com/studytrackhq/studytrack-api/pkg/errors"
)

type subjectRepository interface {
	List(ctx context.Context) ([]models.Subject, error)
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	ExistsByCode(ctx context.Context, code string, excludeID string) (bool, error)
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id string) error
	CountReferences(ctx context.Context, id string) (int, error)
}

// CreateSubjectRequest captures fields for creating subjects.
type CreateSubjectRequest struct {
	Name  string `json:"name" validate:"required"`
	Code  string `json:"code" validate:"required"`
	Color string `json:"color" validate:"required,hexcolor"`
}

// UpdateSubjectRequest modifies subject fields. Only the listed fields are
// bindable; id and timestamps are never client-supplied.
type UpdateSubjectRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=1"`
	Code  *string `json:"code" validate:"omitempty,min=1"`
	Color *string `json:"color" validate:"omitempty,hexcolor"`
}

// SubjectService handles subject domain workflows. Subjects are global and
// readable by anyone authenticated; every write requires the admin role.
type SubjectService struct {
	repo      subjectRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubjectService creates a new subject service.
func NewSubjectService(repo subjectRepository, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{repo: repo, validator: validate, logger: logger}
}

// List returns all subjects, newest first, for any authenticated requester.
func (s *SubjectService) List(ctx context.Context) ([]models.Subject, error) {
	subjects, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	return subjects, nil
}

// Get returns a subject by identifier.
func (s *SubjectService) Get(ctx context.Context, id string) (*models.Subject, error) {
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	return subject, nil
}

// Create adds a new subject. Admin only; subject codes are unique.
func (s *SubjectService) Create(ctx context.Context, requester *models.AuthUser, req CreateSubjectRequest) (*models.Subject, error) {
	if err := requireAdmin(requester); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}

	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))

	exists, err := s.repo.ExistsByCode(ctx, req.Code, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "subject code already exists")
	}

	subject := &models.Subject{
		Name:  req.Name,
		Code:  req.Code,
		Color: req.Color,
	}

	if err := s.repo.Create(ctx, subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject")
	}
	return subject, nil
}

// Update modifies an existing subject. Admin only.
func (s *SubjectService) Update(ctx context.Context, requester *models.AuthUser, id string, req UpdateSubjectRequest) (*models.Subject, error) {
	if err := requireAdmin(requester); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}

	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	if req.Name != nil {
		subject.Name = *req.Name
	}
	if req.Code != nil {
		code := strings.ToUpper(strings.TrimSpace(*req.Code))

		exists, err := s.repo.ExistsByCode(ctx, code, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject code")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrConflict, "subject code already exists")
		}
		subject.Code = code
	}
	if req.Color != nil {
		subject.Color = *req.Color
	}

	if err := s.repo.Update(ctx, subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update subject")
	}
	return subject, nil
}

// Delete removes a subject. Admin only; refused while assignments or exams
// still reference it, so no dangling references are created here.
func (s *SubjectService) Delete(ctx context.Context, requester *models.AuthUser, id string) error {
	if err := requireAdmin(requester); err != nil {
		return err
	}

	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	count, err := s.repo.CountReferences(ctx, subject.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject references")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "subject is referenced by assignments or exams")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete subject")
	}
	return nil
}

// requireAdmin is the role gate shared by admin-only operations. The role
// enum is closed: anything that is not explicitly ADMIN is denied.
func requireAdmin(requester *models.AuthUser) error {
	if requester == nil {
		return appErrors.ErrUnauthorized
	}
	switch requester.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleStudent:
		return appErrors.ErrForbidden
	default:
		return appErrors.ErrForbidden
	}
}
