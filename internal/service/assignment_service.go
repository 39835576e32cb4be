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

type assignmentRepository interface {
	List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, error)
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
	Create(ctx context.Context, assignment *models.Assignment) error
	Update(ctx context.Context, assignment *models.Assignment, ownerScope string) (int64, error)
	Delete(ctx context.Context, id string) error
}

type subjectFinder interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

// CreateAssignmentRequest captures fields for creating assignments. There is
// deliberately no owner field: the owner is always stamped from the
// requester's identity, whatever the payload carries.
type CreateAssignmentRequest struct {
	Title       string                  `json:"title" validate:"required"`
	Description string                  `json:"description"`
	SubjectID   string                  `json:"subject_id" validate:"required"`
	DueDate     time.Time               `json:"due_date" validate:"required"`
	Status      models.AssignmentStatus `json:"status" validate:"omitempty,oneof=pending in_progress completed"`
}

// UpdateAssignmentRequest modifies assignment fields. Owner, id, and
// timestamps are not bindable.
type UpdateAssignmentRequest struct {
	Title       *string                  `json:"title" validate:"omitempty,min=1"`
	Description *string                  `json:"description"`
	SubjectID   *string                  `json:"subject_id" validate:"omitempty,min=1"`
	DueDate     *time.Time               `json:"due_date"`
	Status      *models.AssignmentStatus `json:"status" validate:"omitempty,oneof=pending in_progress completed"`
}

// AssignmentService handles assignment workflows. Assignments are self-owned:
// students see and change only their own records, admins see everything, and
// deletion is admin-only even for the owner.
type AssignmentService struct {
	repo      assignmentRepository
	subjects  subjectFinder
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAssignmentService creates a new assignment service.
func NewAssignmentService(repo assignmentRepository, subjects subjectFinder, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{repo: repo, subjects: subjects, validator: validate, logger: logger, now: time.Now}
}

// listScope translates the requester's role into a list filter. Scoping is a
// query filter, never a per-record rejection. Only an explicit admin role
// sees the unscoped collection.
func listScope(requester *models.AuthUser) models.AssignmentFilter {
	switch requester.Role {
	case models.RoleAdmin:
		return models.AssignmentFilter{}
	default:
		return models.AssignmentFilter{OwnerID: requester.ID}
	}
}

func canAccess(requester *models.AuthUser, assignment *models.Assignment) bool {
	if requester.Role == models.RoleAdmin {
		return true
	}
	return assignment.CreatedBy == requester.ID
}

// List returns assignments visible to the requester, due date ascending.
func (s *AssignmentService) List(ctx context.Context, requester *models.AuthUser) ([]models.Assignment, error) {
	if requester == nil {
		return nil, appErrors.ErrUnauthorized
	}
	assignments, err := s.repo.List(ctx, listScope(requester))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return assignments, nil
}

// ListOverdue returns the requester-visible assignments that are past due and
// not completed.
func (s *AssignmentService) ListOverdue(ctx context.Context, requester *models.AuthUser) ([]models.Assignment, error) {
	if requester == nil {
		return nil, appErrors.ErrUnauthorized
	}
	filter := listScope(requester)
	now := s.now().UTC()
	filter.OverdueAt = &now

	assignments, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list overdue assignments")
	}
	return assignments, nil
}

// Get returns an assignment by id for its owner or an admin.
func (s *AssignmentService) Get(ctx context.Context, requester *models.AuthUser, id string) (*models.Assignment, error) {
	if requester == nil {
		return nil, appErrors.ErrUnauthorized
	}
	assignment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}

	if !canAccess(requester, assignment) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "assignment belongs to another user")
	}
	return assignment, nil
}

// Create stores a new assignment owned by the requester.
func (s *AssignmentService) Create(ctx context.Context, requester *models.AuthUser, req CreateAssignmentRequest) (*models.Assignment, error) {
	if requester == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	if _, err := s.subjects.FindByID(ctx, req.SubjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown subject")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject")
	}

	status := req.Status
	if status == "" {
		status = models.AssignmentPending
	}

	assignment := &models.Assignment{
		Title:       req.Title,
		Description: req.Description,
		SubjectID:   req.SubjectID,
		CreatedBy:   requester.ID,
		DueDate:     req.DueDate,
		Status:      status,
	}

	if err := s.repo.Create(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}

	created, err := s.repo.FindByID(ctx, assignment.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload assignment")
	}
	return created, nil
}

// Update merges the payload onto the stored record and persists it as one
// conditional write: for non-admins the statement matches on id and owner
// together, so a concurrent ownership change cannot slip a write through.
func (s *AssignmentService) Update(ctx context.Context, requester *models.AuthUser, id string, req UpdateAssignmentRequest) (*models.Assignment, error) {
	if requester == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	assignment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}

	if !canAccess(requester, assignment) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "assignment belongs to another user")
	}

	if req.Title != nil {
		assignment.Title = *req.Title
	}
	if req.Description != nil {
		assignment.Description = *req.Description
	}
	if req.SubjectID != nil {
		if _, err := s.subjects.FindByID(ctx, *req.SubjectID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "unknown subject")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject")
		}
		assignment.SubjectID = *req.SubjectID
	}
	if req.DueDate != nil {
		assignment.DueDate = *req.DueDate
	}
	if req.Status != nil {
		assignment.Status = *req.Status
	}

	ownerScope := requester.ID
	if requester.Role == models.RoleAdmin {
		ownerScope = ""
	}

	affected, err := s.repo.Update(ctx, assignment, ownerScope)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update assignment")
	}
	if affected == 0 {
		// The record changed between the load and the conditional write.
		if _, err := s.repo.FindByID(ctx, id); errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Clone(appErrors.ErrForbidden, "assignment belongs to another user")
	}

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload assignment")
	}
	return updated, nil
}

// Delete removes an assignment. Admin only, with no exception for the owner.
func (s *AssignmentService) Delete(ctx context.Context, requester *models.AuthUser, id string) error {
	if err := requireAdmin(requester); err != nil {
		return err
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete assignment")
	}
	return nil
}
