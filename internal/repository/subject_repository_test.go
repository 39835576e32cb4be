package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studytrackhq/studytrack-api/internal/models"
)

func TestSubjectListOrdersNewestFirst(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "code", "color", "created_at", "updated_at"}).
		AddRow("s2", "Physics", "PHY101", "#00ff00", now, now).
		AddRow("s1", "Math", "MATH101", "#ff0000", now.Add(-time.Hour), now.Add(-time.Hour))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, code, color, created_at, updated_at FROM subjects ORDER BY created_at DESC")).
		WillReturnRows(rows)

	subjects, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, subjects, 2)
	assert.Equal(t, "s2", subjects[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectExistsByCodeExcludesID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	rows := sqlmock.NewRows([]string{"?column?"}).AddRow(1)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM subjects WHERE LOWER(code) = LOWER($1) AND id <> $2 LIMIT 1")).
		WithArgs("MATH101", "s1").
		WillReturnRows(rows)

	exists, err := repo.ExistsByCode(context.Background(), "MATH101", "s1")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectCountReferences(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	rows := sqlmock.NewRows([]string{"count"}).AddRow(3)
	mock.ExpectQuery("SELECT .+ FROM assignments WHERE subject_id").
		WithArgs("s1").
		WillReturnRows(rows)

	count, err := repo.CountReferences(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestSubjectCreateStampsIDAndTimestamps(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	mock.ExpectExec("INSERT INTO subjects").WillReturnResult(sqlmock.NewResult(1, 1))

	subject := &models.Subject{Name: "Math", Code: "MATH101", Color: "#ff0000"}
	err := repo.Create(context.Background(), subject)
	require.NoError(t, err)
	assert.NotEmpty(t, subject.ID)
	assert.False(t, subject.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM subjects WHERE id = $1")).
		WithArgs("s1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "s1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
