package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/sma-lesson-scheduler/pkg/timeslot"
)

// CreateIndividualLessonRequest schedules a recurring lesson for one student.
type CreateIndividualLessonRequest struct {
	StudentID   string  `json:"student_id" validate:"required"`
	TeacherID   string  `json:"teacher_id" validate:"required"`
	CourseID    string  `json:"course_id" validate:"required"`
	ClassroomID *string `json:"classroom_id" validate:"omitempty,min=1"`
	Notes       *string `json:"notes" validate:"omitempty,max=500"`
	SlotInput
}

// CreateGroupLessonRequest schedules a recurring lesson for a group roster.
type CreateGroupLessonRequest struct {
	GroupID     string  `json:"-" validate:"required"`
	TeacherID   string  `json:"teacher_id" validate:"required"`
	CourseID    string  `json:"course_id" validate:"required"`
	ClassroomID *string `json:"classroom_id" validate:"omitempty,min=1"`
	Notes       *string `json:"notes" validate:"omitempty,max=500"`
	SlotInput
}

// CheckGroupLessonRequest validates a group pattern without persisting.
type CheckGroupLessonRequest struct {
	GroupID   string `json:"-" validate:"required"`
	TeacherID string `json:"teacher_id" validate:"required"`
	SlotInput
}

// CancelLessonRequest ends a slot or skips a single occurrence.
type CancelLessonRequest struct {
	CancelAll  bool    `json:"cancel_all"`
	CancelDate *string `json:"cancel_date" validate:"omitempty,datetime=2006-01-02"`
}

// Resolve returns the parsed date for single-occurrence cancellation.
// Neither option set is a malformed request.
func (r CancelLessonRequest) Resolve() (cancelAll bool, date *time.Time, err error) {
	if r.CancelAll {
		return true, nil, nil
	}
	if r.CancelDate == nil || strings.TrimSpace(*r.CancelDate) == "" {
		return false, nil, fmt.Errorf("either cancel_all or cancel_date is required")
	}
	d, err := timeslot.ParseDate(*r.CancelDate)
	if err != nil {
		return false, nil, err
	}
	return false, &d, nil
}
