package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/studytrackhq/studytrack-api/internal/models"
	appErrors "github.com/studytrackhq/studytrack-api/pkg/errors"
)

type examRepository interface {
	List(ctx context.Context) ([]models.Exam, error)
	FindByID(ctx context.Context, id string) (*models.Exam, error)
	Create(ctx context.Context, exam *models.Exam) error
	Update(ctx context.Context, exam *models.Exam) error
	Delete(ctx context.Context, id string) error
}

// CreateExamRequest captures fields for creating exams.
type CreateExamRequest struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	SubjectID   string    `json:"subject_id" validate:"required"`
	Date        time.Time `json:"date" validate:"required"`
}

// UpdateExamRequest modifies exam fields.
type UpdateExamRequest struct {
	Title       *string    `json:"title" validate:"omitempty,min=1"`
	Description *string    `json:"description"`
	SubjectID   *string    `json:"subject_id" validate:"omitempty,min=1"`
	Date        *time.Time `json:"date"`
}

// ExamService handles exam workflows. Exams are readable by anyone
// authenticated; every write requires the admin role.
type ExamService struct {
	repo      examRepository
	subjects  subjectFinder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewExamService creates a new exam service.
func NewExamService(repo examRepository, subjects subjectFinder, validate *validator.Validate, logger *zap.Logger) *ExamService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExamService{repo: repo, subjects: subjects, validator: validate, logger: logger}
}

// List returns all exams ordered by exam date.
func (s *ExamService) List(ctx context.Context) ([]models.Exam, error) {
	exams, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list exams")
	}
	return exams, nil
}

// Get returns an exam by identifier.
func (s *ExamService) Get(ctx context.Context, id string) (*models.Exam, error) {
	exam, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam")
	}
	return exam, nil
}

// Create adds a new exam. Admin only.
func (s *ExamService) Create(ctx context.Context, requester *models.AuthUser, req CreateExamRequest) (*models.Exam, error) {
	if err := requireAdmin(requester); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exam payload")
	}

	if _, err := s.subjects.FindByID(ctx, req.SubjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown subject")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject")
	}

	exam := &models.Exam{
		Title:       req.Title,
		Description: req.Description,
		SubjectID:   req.SubjectID,
		Date:        req.Date,
	}

	if err := s.repo.Create(ctx, exam); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create exam")
	}

	created, err := s.repo.FindByID(ctx, exam.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload exam")
	}
	return created, nil
}

// Update modifies an existing exam. Admin only.
func (s *ExamService) Update(ctx context.Context, requester *models.AuthUser, id string, req UpdateExamRequest) (*models.Exam, error) {
	if err := requireAdmin(requester); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exam payload")
	}

	exam, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam")
	}

	if req.Title != nil {
		exam.Title = *req.Title
	}
	if req.Description != nil {
		exam.Description = *req.Description
	}
	if req.SubjectID != nil {
		if _, err := s.subjects.FindByID(ctx, *req.SubjectID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "unknown subject")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject")
		}
		exam.SubjectID = *req.SubjectID
	}
	if req.Date != nil {
		exam.Date = *req.Date
	}

	if err := s.repo.Update(ctx, exam); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update exam")
	}

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload exam")
	}
	return updated, nil
}

// Delete removes an exam. Admin only.
func (s *ExamService) Delete(ctx context.Context, requester *models.AuthUser, id string) error {
	if err := requireAdmin(requester); err != nil {
		return err
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete exam")
	}
	return nil
}
