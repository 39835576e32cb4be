package handler

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/studytrackhq/studytrack-api/internal/models"
	"github.com/studytrackhq/studytrack-api/internal/repository"
)

// memStore backs the integration tests with in-memory tables so the full
// stack runs without Postgres or Redis.
type memStore struct {
	users       map[string]models.User
	subjects    map[string]models.Subject
	assignments map[string]models.Assignment
	exams       map[string]models.Exam
	tokens      map[string]models.RefreshToken
	seq         int
}

func newMemStore() *memStore {
	return &memStore{
		users:       make(map[string]models.User),
		subjects:    make(map[string]models.Subject),
		assignments: make(map[string]models.Assignment),
		exams:       make(map[string]models.Exam),
		tokens:      make(map[string]models.RefreshToken),
	}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

type memUserRepo struct{ store *memStore }

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, user := range r.store.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *memUserRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	user, ok := r.store.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &user, nil
}

func (r *memUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

func (r *memUserRepo) Create(_ context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = r.store.nextID("user")
	}
	r.store.users[user.ID] = *user
	return nil
}

type memTokenStore struct{ store *memStore }

func (r *memTokenStore) Save(_ context.Context, token *models.RefreshToken) error {
	r.store.tokens[token.Token] = *token
	return nil
}

func (r *memTokenStore) Find(_ context.Context, token string) (*models.RefreshToken, error) {
	stored, ok := r.store.tokens[token]
	if !ok {
		return nil, repository.ErrTokenNotFound
	}
	return &stored, nil
}

func (r *memTokenStore) Revoke(_ context.Context, token string) error {
	delete(r.store.tokens, token)
	return nil
}

type memSubjectRepo struct{ store *memStore }

func (r *memSubjectRepo) List(_ context.Context) ([]models.Subject, error) {
	out := make([]models.Subject, 0, len(r.store.subjects))
	for _, subject := range r.store.subjects {
		out = append(out, subject)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memSubjectRepo) FindByID(_ context.Context, id string) (*models.Subject, error) {
	subject, ok := r.store.subjects[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &subject, nil
}

func (r *memSubjectRepo) ExistsByCode(_ context.Context, code string, excludeID string) (bool, error) {
	for _, subject := range r.store.subjects {
		if subject.Code == code && subject.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memSubjectRepo) Create(_ context.Context, subject *models.Subject) error {
	if subject.ID == "" {
		subject.ID = r.store.nextID("subject")
	}
	r.store.subjects[subject.ID] = *subject
	return nil
}

func (r *memSubjectRepo) Update(_ context.Context, subject *models.Subject) error {
	r.store.subjects[subject.ID] = *subject
	return nil
}

func (r *memSubjectRepo) Delete(_ context.Context, id string) error {
	delete(r.store.subjects, id)
	return nil
}

func (r *memSubjectRepo) CountReferences(_ context.Context, id string) (int, error) {
	count := 0
	for _, assignment := range r.store.assignments {
		if assignment.SubjectID == id {
			count++
		}
	}
	for _, exam := range r.store.exams {
		if exam.SubjectID == id {
			count++
		}
	}
	return count, nil
}

type memAssignmentRepo struct{ store *memStore }

func (r *memAssignmentRepo) expand(assignment models.Assignment) models.Assignment {
	if subject, ok := r.store.subjects[assignment.SubjectID]; ok {
		assignment.Subject = &models.SubjectRef{ID: subject.ID, Name: subject.Name, Code: subject.Code, Color: subject.Color}
	}
	if user, ok := r.store.users[assignment.CreatedBy]; ok {
		assignment.Creator = &models.UserRef{ID: user.ID, FullName: user.FullName, Email: user.Email}
	}
	return assignment
}

func (r *memAssignmentRepo) List(_ context.Context, filter models.AssignmentFilter) ([]models.Assignment, error) {
	var out []models.Assignment
	for _, assignment := range r.store.assignments {
		if filter.OwnerID != "" && assignment.CreatedBy != filter.OwnerID {
			continue
		}
		if filter.OverdueAt != nil && !assignment.IsOverdue(*filter.OverdueAt) {
			continue
		}
		out = append(out, r.expand(assignment))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func (r *memAssignmentRepo) FindByID(_ context.Context, id string) (*models.Assignment, error) {
	assignment, ok := r.store.assignments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	expanded := r.expand(assignment)
	return &expanded, nil
}

func (r *memAssignmentRepo) Create(_ context.Context, assignment *models.Assignment) error {
	if assignment.ID == "" {
		assignment.ID = r.store.nextID("assignment")
	}
	r.store.assignments[assignment.ID] = *assignment
	return nil
}

func (r *memAssignmentRepo) Update(_ context.Context, assignment *models.Assignment, ownerScope string) (int64, error) {
	stored, ok := r.store.assignments[assignment.ID]
	if !ok {
		return 0, nil
	}
	if ownerScope != "" && stored.CreatedBy != ownerScope {
		return 0, nil
	}
	assignment.CreatedBy = stored.CreatedBy
	r.store.assignments[assignment.ID] = *assignment
	return 1, nil
}

func (r *memAssignmentRepo) Delete(_ context.Context, id string) error {
	delete(r.store.assignments, id)
	return nil
}

type memExamRepo struct{ store *memStore }

func (r *memExamRepo) expand(exam models.Exam) models.Exam {
	if subject, ok := r.store.subjects[exam.SubjectID]; ok {
		exam.Subject = &models.SubjectRef{ID: subject.ID, Name: subject.Name, Code: subject.Code, Color: subject.Color}
	}
	return exam
}

func (r *memExamRepo) List(_ context.Context) ([]models.Exam, error) {
	out := make([]models.Exam, 0, len(r.store.exams))
	for _, exam := range r.store.exams {
		out = append(out, r.expand(exam))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *memExamRepo) FindByID(_ context.Context, id string) (*models.Exam, error) {
	exam, ok := r.store.exams[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	expanded := r.expand(exam)
	return &expanded, nil
}

func (r *memExamRepo) Create(_ context.Context, exam *models.Exam) error {
	if exam.ID == "" {
		exam.ID = r.store.nextID("exam")
	}
	r.store.exams[exam.ID] = *exam
	return nil
}

func (r *memExamRepo) Update(_ context.Context, exam *models.Exam) error {
	r.store.exams[exam.ID] = *exam
	return nil
}

func (r *memExamRepo) Delete(_ context.Context, id string) error {
	delete(r.store.exams, id)
	return nil
}
