package models

import "time"

// AssignmentStatus enumerates the assignment lifecycle states.
type AssignmentStatus string

const (
	AssignmentPending    AssignmentStatus = "pending"
	AssignmentInProgress AssignmentStatus = "in_progress"
	AssignmentCompleted  AssignmentStatus = "completed"
)

// Assignment represents a piece of work owned by exactly one user. The owner
// is stamped at creation from the requester's identity and never changed by
// clients afterwards.
type Assignment struct {
	ID          string           `db:"id" json:"id"`
	Title       string           `db:"title" json:"title"`
	Description string           `db:"description" json:"description"`
	SubjectID   string           `db:"subject_id" json:"subject_id"`
	CreatedBy   string           `db:"created_by" json:"created_by"`
	DueDate     time.Time        `db:"due_date" json:"due_date"`
	Status      AssignmentStatus `db:"status" json:"status"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updated_at"`

	// Expanded references, populated on reads.
	Subject *SubjectRef `db:"-" json:"subject,omitempty"`
	Creator *UserRef    `db:"-" json:"creator,omitempty"`
}

// IsOverdue returns true when the deadline has passed and the work is not done.
func (a Assignment) IsOverdue(reference time.Time) bool {
	return a.DueDate.Before(reference) && a.Status != AssignmentCompleted
}

// AssignmentFilter captures the scoping applied to assignment lists.
// OwnerID is set for student requesters; OverdueAt bounds the due date for
// the overdue view.
type AssignmentFilter struct {
	OwnerID   string
	OverdueAt *time.Time
}
