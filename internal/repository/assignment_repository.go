package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/studytrackhq/studytrack-api/internal/models"
)

// assignmentRow carries an assignment plus the joined display columns used
// for reference expansion. Subject columns are nullable because a subject may
// have been deleted out from under the assignment.
type assignmentRow struct {
	models.Assignment
	SubjectName  sql.NullString `db:"subject_name"`
	SubjectCode  sql.NullString `db:"subject_code"`
	SubjectColor sql.NullString `db:"subject_color"`
	CreatorName  sql.NullString `db:"creator_name"`
	CreatorEmail sql.NullString `db:"creator_email"`
}

func (row assignmentRow) expand() models.Assignment {
	assignment := row.Assignment
	if row.SubjectName.Valid {
		assignment.Subject = &models.SubjectRef{
			ID:    assignment.SubjectID,
			Name:  row.SubjectName.String,
			Code:  row.SubjectCode.String,
			Color: row.SubjectColor.String,
		}
	}
	if row.CreatorName.Valid {
		assignment.Creator = &models.UserRef{
			ID:       assignment.CreatedBy,
			FullName: row.CreatorName.String,
			Email:    row.CreatorEmail.String,
		}
	}
	return assignment
}

const assignmentSelect = `SELECT a.id, a.title, a.description, a.subject_id, a.created_by, a.due_date, a.status, a.created_at, a.updated_at,
s.name AS subject_name, s.code AS subject_code, s.color AS subject_color,
u.full_name AS creator_name, u.email AS creator_email
FROM assignments a
LEFT JOIN subjects s ON s.id = a.subject_id
LEFT JOIN users u ON u.id = a.created_by`

// AssignmentRepository handles persistence for assignments.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository creates a new repository instance.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// List returns assignments matching the filter, expanded and ordered by due
// date ascending. OwnerID scopes the result to one user's records; OverdueAt
// restricts to unfinished work due before the given instant.
func (r *AssignmentRepository) List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, error) {
	var conditions []string
	var args []interface{}

	if filter.OwnerID != "" {
		conditions = append(conditions, fmt.Sprintf("a.created_by = $%d", len(args)+1))
		args = append(args, filter.OwnerID)
	}
	if filter.OverdueAt != nil {
		conditions = append(conditions, fmt.Sprintf("a.due_date < $%d", len(args)+1))
		args = append(args, *filter.OverdueAt)
		conditions = append(conditions, fmt.Sprintf("a.status <> $%d", len(args)+1))
		args = append(args, string(models.AssignmentCompleted))
	}

	query := assignmentSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY a.due_date ASC"

	var rows []assignmentRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}

	assignments := make([]models.Assignment, 0, len(rows))
	for _, row := range rows {
		assignments = append(assignments, row.expand())
	}
	return assignments, nil
}

// FindByID returns an assignment by id with references expanded.
func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	query := assignmentSelect + " WHERE a.id = $1"
	var row assignmentRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	assignment := row.expand()
	return &assignment, nil
}

// Create persists a new assignment.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = now
	}
	assignment.UpdatedAt = now

	const query = `INSERT INTO assignments (id, title, description, subject_id, created_by, due_date, status, created_at, updated_at) VALUES (:id, :title, :description, :subject_id, :created_by, :due_date, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// Update applies the assignment fields as a single conditional write. When
// ownerScope is non-empty the row only changes if it is still owned by that
// user, so the ownership check and the write cannot race. Returns the number
// of rows affected.
func (r *AssignmentRepository) Update(ctx context.Context, assignment *models.Assignment, ownerScope string) (int64, error) {
	assignment.UpdatedAt = time.Now().UTC()

	query := `UPDATE assignments SET title = $1, description = $2, subject_id = $3, due_date = $4, status = $5, updated_at = $6 WHERE id = $7`
	args := []interface{}{
		assignment.Title,
		assignment.Description,
		assignment.SubjectID,
		assignment.DueDate,
		assignment.Status,
		assignment.UpdatedAt,
		assignment.ID,
	}
	if ownerScope != "" {
		query += " AND created_by = $8"
		args = append(args, ownerScope)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("update assignment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update assignment: %w", err)
	}
	return affected, nil
}

// Delete removes an assignment record.
func (r *AssignmentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM assignments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	return nil
}
