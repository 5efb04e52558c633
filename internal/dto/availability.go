package dto

import (
	"fmt"

	"github.com/noah-isme/sma-lesson-scheduler/pkg/timeslot"
)

// CreateAvailabilityRequest declares a weekly window for a student or teacher.
type CreateAvailabilityRequest struct {
	OwnerKind   string  `json:"owner_kind" validate:"required,oneof=STUDENT TEACHER"`
	OwnerID     string  `json:"owner_id" validate:"required"`
	DayOfWeek   *int    `json:"day_of_week" validate:"required,min=0,max=6"`
	StartTime   string  `json:"start_time" validate:"required"`
	EndTime     string  `json:"end_time" validate:"required"`
	Kind        string  `json:"kind" validate:"required,oneof=AVAILABLE BUSY UNAVAILABLE SCHOOL BREAK"`
	IsRecurring *bool   `json:"is_recurring"`
	Notes       *string `json:"notes" validate:"omitempty,max=500"`
}

// Times parses and orders the window bounds.
func (r CreateAvailabilityRequest) Times() (timeslot.TimeOfDay, timeslot.TimeOfDay, error) {
	if r.DayOfWeek == nil || !timeslot.ValidWeekday(*r.DayOfWeek) {
		return 0, 0, fmt.Errorf("day_of_week must be between 0 (Sunday) and 6 (Saturday)")
	}
	return parseRange(r.StartTime, r.EndTime)
}

// MatchQuery selects the pair to intersect.
type MatchQuery struct {
	StudentID string `form:"studentId" validate:"required"`
	TeacherID string `form:"teacherId" validate:"required"`
	DayOfWeek *int   `form:"dayOfWeek" validate:"omitempty,min=0,max=6"`
}

// AvailabilityQuery lists one owner's windows.
type AvailabilityQuery struct {
	OwnerKind string `form:"ownerKind" validate:"required,oneof=STUDENT TEACHER"`
	OwnerID   string `form:"ownerId" validate:"required"`
	DayOfWeek *int   `form:"dayOfWeek" validate:"omitempty,min=0,max=6"`
	Kind      string `form:"kind" validate:"omitempty,oneof=AVAILABLE BUSY UNAVAILABLE SCHOOL BREAK"`
}
