package models

import "time"

// Exam represents a scheduled exam for a subject. Exams carry no per-user
// ownership: any authenticated user may read them, only admins may write.
type Exam struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	SubjectID   string    `db:"subject_id" json:"subject_id"`
	Date        time.Time `db:"date" json:"date"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`

	Subject *SubjectRef `db:"-" json:"subject,omitempty"`
}
