package models

import (
	"time"

	"github.com/noah-isme/sma-lesson-scheduler/pkg/timeslot"
)

// CalendarSlotType separates availability windows from lesson occurrences.
type CalendarSlotType string

const (
	CalendarSlotAvailability     CalendarSlotType = "AVAILABILITY"
	CalendarSlotIndividualLesson CalendarSlotType = "INDIVIDUAL_LESSON"
	CalendarSlotGroupLesson      CalendarSlotType = "GROUP_LESSON"
)

// CalendarSlot is one display entry on a weekday.
type CalendarSlot struct {
	Type             CalendarSlotType   `json:"type"`
	SourceID         string             `json:"source_id"`
	Title            string             `json:"title"`
	StartTime        timeslot.TimeOfDay `json:"start_time"`
	EndTime          timeslot.TimeOfDay `json:"end_time"`
	Color            string             `json:"color"`
	Clickable        bool               `json:"clickable"`
	AvailabilityKind AvailabilityKind   `json:"availability_kind,omitempty"`
	CourseName       string             `json:"course_name,omitempty"`
	TeacherName      string             `json:"teacher_name,omitempty"`
	StudentName      string             `json:"student_name,omitempty"`
	GroupName        string             `json:"group_name,omitempty"`
	ClassroomName    string             `json:"classroom_name,omitempty"`
	IsCancelled      bool               `json:"is_cancelled"`
	Notes            string             `json:"notes,omitempty"`
}

// CalendarDay holds one weekday's slots ordered by start time.
type CalendarDay struct {
	Date      time.Time      `json:"date"`
	DayOfWeek int            `json:"day_of_week"`
	Slots     []CalendarSlot `json:"slots"`
}

// WeeklyCalendar is a Monday-based seven day view for one student or teacher.
type WeeklyCalendar struct {
	EntityID   string        `json:"entity_id"`
	EntityKind OwnerKind     `json:"entity_kind"`
	EntityName string        `json:"entity_name"`
	WeekStart  time.Time     `json:"week_start"`
	WeekEnd    time.Time     `json:"week_end"`
	Days       []CalendarDay `json:"days"`
	// CacheHit is set when the calendar was served from cache.
	CacheHit bool `json:"-"`
}
