package models

import "time"

// Subject represents an academic subject. Subjects are global: there is no
// ownership concept and only admins may write them.
type Subject struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Code      string    `db:"code" json:"code"`
	Color     string    `db:"color" json:"color"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SubjectRef is the embedded subject summary carried by expanded assignment
// and exam reads. Display fields only, never the full record.
type SubjectRef struct {
	ID    string `db:"id" json:"id"`
	Name  string `db:"name" json:"name"`
	Code  string `db:"code" json:"code"`
	Color string `db:"color" json:"color"`
}
