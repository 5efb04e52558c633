package models

import "time"

// Course is the subject taught in a lesson.
type Course struct {
	ID        string     `db:"id" json:"id"`
	Name      string     `db:"name" json:"name"`
	DeletedAt *time.Time `db:"deleted_at" json:"-"`
}

// Classroom is an optional lesson location.
type Classroom struct {
	ID        string     `db:"id" json:"id"`
	Name      string     `db:"name" json:"name"`
	DeletedAt *time.Time `db:"deleted_at" json:"-"`
}
