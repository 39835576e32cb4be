package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var examColumns = []string{
	"id", "title", "description", "subject_id", "date", "created_at", "updated_at",
	"subject_name", "subject_code", "subject_color",
}

func TestExamListOrdersByDate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewExamRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(examColumns).
		AddRow("e1", "Midterm", "", "s1", now, now, now, "Math", "MATH101", "#ff0000").
		AddRow("e2", "Final", "", "s1", now.Add(24*time.Hour), now, now, "Math", "MATH101", "#ff0000")

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY e.date ASC")).WillReturnRows(rows)

	exams, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, exams, 2)
	assert.Equal(t, "e1", exams[0].ID)
	require.NotNil(t, exams[0].Subject)
	assert.Equal(t, "Math", exams[0].Subject.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExamFindByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewExamRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(examColumns).
		AddRow("e1", "Midterm", "Chapters 1-4", "s1", now, now, now, "Math", "MATH101", "#ff0000")

	mock.ExpectQuery(regexp.QuoteMeta("WHERE e.id = $1")).
		WithArgs("e1").
		WillReturnRows(rows)

	exam, err := repo.FindByID(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, "Midterm", exam.Title)
	require.NotNil(t, exam.Subject)
	assert.Equal(t, "MATH101", exam.Subject.Code)
}

func TestExamDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewExamRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM exams WHERE id = $1")).
		WithArgs("e1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "e1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
