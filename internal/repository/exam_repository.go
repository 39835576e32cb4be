package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/studytrackhq/studytrack-api/internal/models"
)

type examRow struct {
	models.Exam
	SubjectName  sql.NullString `db:"subject_name"`
	SubjectCode  sql.NullString `db:"subject_code"`
	SubjectColor sql.NullString `db:"subject_color"`
}

func (row examRow) expand() models.Exam {
	exam := row.Exam
	if row.SubjectName.Valid {
		exam.Subject = &models.SubjectRef{
			ID:    exam.SubjectID,
			Name:  row.SubjectName.String,
			Code:  row.SubjectCode.String,
			Color: row.SubjectColor.String,
		}
	}
	return exam
}

const examSelect = `SELECT e.id, e.title, e.description, e.subject_id, e.date, e.created_at, e.updated_at,
s.name AS subject_name, s.code AS subject_code, s.color AS subject_color
FROM exams e
LEFT JOIN subjects s ON s.id = e.subject_id`

// ExamRepository handles persistence for exams.
type ExamRepository struct {
	db *sqlx.DB
}

// NewExamRepository creates a new repository instance.
func NewExamRepository(db *sqlx.DB) *ExamRepository {
	return &ExamRepository{db: db}
}

// List returns all exams expanded, ordered by exam date ascending.
func (r *ExamRepository) List(ctx context.Context) ([]models.Exam, error) {
	query := examSelect + " ORDER BY e.date ASC"
	var rows []examRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}

	exams := make([]models.Exam, 0, len(rows))
	for _, row := range rows {
		exams = append(exams, row.expand())
	}
	return exams, nil
}

// FindByID returns an exam by id with the subject reference expanded.
func (r *ExamRepository) FindByID(ctx context.Context, id string) (*models.Exam, error) {
	query := examSelect + " WHERE e.id = $1"
	var row examRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	exam := row.expand()
	return &exam, nil
}

// Create persists a new exam.
func (r *ExamRepository) Create(ctx context.Context, exam *models.Exam) error {
	if exam.ID == "" {
		exam.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if exam.CreatedAt.IsZero() {
		exam.CreatedAt = now
	}
	exam.UpdatedAt = now

	const query = `INSERT INTO exams (id, title, description, subject_id, date, created_at, updated_at) VALUES (:id, :title, :description, :subject_id, :date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, exam); err != nil {
		return fmt.Errorf("create exam: %w", err)
	}
	return nil
}

// Update modifies an exam.
func (r *ExamRepository) Update(ctx context.Context, exam *models.Exam) error {
	exam.UpdatedAt = time.Now().UTC()
	const query = `UPDATE exams SET title = :title, description = :description, subject_id = :subject_id, date = :date, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, exam); err != nil {
		return fmt.Errorf("update exam: %w", err)
	}
	return nil
}

// Delete removes an exam record.
func (r *ExamRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM exams WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete exam: %w", err)
	}
	return nil
}
