package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/noah-isme/sma-lesson-scheduler/pkg/timeslot"
)

// ErrReservationOverlap is returned by the store when an exclusion constraint rejects an insert.
var ErrReservationOverlap = errors.New("reservation overlaps a committed lesson")

// ConflictType names the side of a conflict.
type ConflictType string

const (
	ConflictTeacher ConflictType = "TEACHER"
	ConflictStudent ConflictType = "STUDENT"
)

// ConflictDetail describes one existing slot that collides with a requested pattern.
type ConflictDetail struct {
	Type          ConflictType       `json:"type"`
	PersonID      string             `json:"person_id"`
	PersonName    string             `json:"person_name"`
	LessonID      string             `json:"lesson_id"`
	LessonKind    LessonKind         `json:"lesson_kind"`
	CourseID      string             `json:"course_id"`
	CourseName    string             `json:"course_name"`
	GroupID       *string            `json:"group_id,omitempty"`
	GroupName     *string            `json:"group_name,omitempty"`
	DayOfWeek     int                `json:"day_of_week"`
	StartTime     timeslot.TimeOfDay `json:"start_time"`
	EndTime       timeslot.TimeOfDay `json:"end_time"`
	EffectiveFrom time.Time          `json:"effective_from"`
	EffectiveTo   *time.Time         `json:"effective_to,omitempty"`
	Message       string             `json:"message"`
}

// ConflictReport accumulates every conflict found for a request.
type ConflictReport struct {
	HasConflict bool             `json:"has_conflict"`
	Conflicts   []ConflictDetail `json:"conflicts"`
}

// NewConflictReport returns an empty report.
func NewConflictReport() *ConflictReport {
	return &ConflictReport{Conflicts: []ConflictDetail{}}
}

// Add appends a conflict, filling the message when empty.
func (r *ConflictReport) Add(d ConflictDetail) {
	if d.Message == "" {
		d.Message = d.Describe()
	}
	r.Conflicts = append(r.Conflicts, d)
	r.HasConflict = true
}

// Describe renders a human-readable explanation.
func (d ConflictDetail) Describe() string {
	side := "Teacher"
	if d.Type == ConflictStudent {
		side = "Student"
	}
	what := d.CourseName
	if d.GroupName != nil {
		what = fmt.Sprintf("%s (group %s)", d.CourseName, *d.GroupName)
	}
	until := "open-ended"
	if d.EffectiveTo != nil {
		until = "until " + d.EffectiveTo.Format(timeslot.DateLayout)
	}
	return fmt.Sprintf("%s %s already has %s on %s %s-%s from %s %s",
		side, d.PersonName, what, time.Weekday(d.DayOfWeek), d.StartTime, d.EndTime,
		d.EffectiveFrom.Format(timeslot.DateLayout), until)
}
