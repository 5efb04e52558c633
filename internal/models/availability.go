package models

import (
	"time"

	"github.com/noah-isme/sma-lesson-scheduler/pkg/timeslot"
)

// OwnerKind identifies whether a record belongs to a student or a teacher.
type OwnerKind string

const (
	OwnerStudent OwnerKind = "STUDENT"
	OwnerTeacher OwnerKind = "TEACHER"
)

// Valid reports whether the kind is known.
func (k OwnerKind) Valid() bool {
	return k == OwnerStudent || k == OwnerTeacher
}

// AvailabilityKind tags a weekly window.
type AvailabilityKind string

const (
	AvailabilityAvailable   AvailabilityKind = "AVAILABLE"
	AvailabilityBusy        AvailabilityKind = "BUSY"
	AvailabilityUnavailable AvailabilityKind = "UNAVAILABLE"
	AvailabilitySchool      AvailabilityKind = "SCHOOL"
	AvailabilityBreak       AvailabilityKind = "BREAK"
)

// AvailabilityWindow is a declared recurring free/busy interval owned by exactly one student or teacher.
type AvailabilityWindow struct {
	ID          string             `db:"id" json:"id"`
	OwnerKind   OwnerKind          `db:"owner_kind" json:"owner_kind"`
	StudentID   *string            `db:"student_id" json:"student_id,omitempty"`
	TeacherID   *string            `db:"teacher_id" json:"teacher_id,omitempty"`
	DayOfWeek   int                `db:"day_of_week" json:"day_of_week"`
	StartTime   timeslot.TimeOfDay `db:"start_minute" json:"start_time"`
	EndTime     timeslot.TimeOfDay `db:"end_minute" json:"end_time"`
	Kind        AvailabilityKind   `db:"kind" json:"kind"`
	IsRecurring bool               `db:"is_recurring" json:"is_recurring"`
	Notes       *string            `db:"notes" json:"notes,omitempty"`
	CreatedAt   time.Time          `db:"created_at" json:"created_at"`
	DeletedAt   *time.Time         `db:"deleted_at" json:"-"`
}

// OwnerID returns the id of whichever side owns the window.
func (w AvailabilityWindow) OwnerID() string {
	if w.OwnerKind == OwnerStudent && w.StudentID != nil {
		return *w.StudentID
	}
	if w.TeacherID != nil {
		return *w.TeacherID
	}
	return ""
}

// IsActive reports whether the window has not been soft-deleted.
func (w AvailabilityWindow) IsActive() bool {
	return w.DeletedAt == nil
}

// AvailabilityFilter narrows window listings.
type AvailabilityFilter struct {
	OwnerKind OwnerKind
	OwnerID   string
	DayOfWeek *int
	Kind      AvailabilityKind
}
