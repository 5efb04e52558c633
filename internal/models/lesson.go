package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/lib/pq"

	"github.com/noah-isme/sma-lesson-scheduler/pkg/timeslot"
)

// LessonStatus captures the lifecycle of a recurring slot.
type LessonStatus string

const (
	LessonStatusScheduled LessonStatus = "SCHEDULED"
	LessonStatusCancelled LessonStatus = "CANCELLED"
)

// LessonKind distinguishes individual from group slots.
type LessonKind string

const (
	LessonKindIndividual LessonKind = "INDIVIDUAL"
	LessonKindGroup      LessonKind = "GROUP"
)

// DateSet is an ordered set of calendar dates stored as a Postgres DATE[].
type DateSet []time.Time

// NewDateSet normalises, de-duplicates and sorts the given dates.
func NewDateSet(dates ...time.Time) DateSet {
	var set DateSet
	for _, d := range dates {
		set, _ = set.Add(d)
	}
	return set
}

// Contains reports whether day is part of the set.
func (s DateSet) Contains(day time.Time) bool {
	day = timeslot.Date(day)
	i := sort.Search(len(s), func(i int) bool { return !s[i].Before(day) })
	return i < len(s) && s[i].Equal(day)
}

// Add returns the set including day and whether it was newly inserted.
func (s DateSet) Add(day time.Time) (DateSet, bool) {
	day = timeslot.Date(day)
	i := sort.Search(len(s), func(i int) bool { return !s[i].Before(day) })
	if i < len(s) && s[i].Equal(day) {
		return s, false
	}
	out := make(DateSet, 0, len(s)+1)
	out = append(out, s[:i]...)
	out = append(out, day)
	out = append(out, s[i:]...)
	return out, true
}

// Strings renders the set as YYYY-MM-DD values.
func (s DateSet) Strings() []string {
	out := make([]string, len(s))
	for i, d := range s {
		out[i] = d.Format(timeslot.DateLayout)
	}
	return out
}

// Value implements driver.Valuer.
func (s DateSet) Value() (driver.Value, error) {
	return pq.StringArray(s.Strings()).Value()
}

// Scan implements sql.Scanner.
func (s *DateSet) Scan(src interface{}) error {
	var raw pq.StringArray
	if err := raw.Scan(src); err != nil {
		return fmt.Errorf("scan date set: %w", err)
	}
	dates := make([]time.Time, 0, len(raw))
	for _, r := range raw {
		d, err := timeslot.ParseDate(r)
		if err != nil {
			return fmt.Errorf("scan date set: %w", err)
		}
		dates = append(dates, d)
	}
	*s = NewDateSet(dates...)
	return nil
}

// MarshalJSON renders dates as YYYY-MM-DD.
func (s DateSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Strings())
}

// UnmarshalJSON parses YYYY-MM-DD dates.
func (s *DateSet) UnmarshalJSON(data []byte) error {
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	dates := make([]time.Time, 0, len(raw))
	for _, r := range raw {
		d, err := timeslot.ParseDate(r)
		if err != nil {
			return err
		}
		dates = append(dates, d)
	}
	*s = NewDateSet(dates...)
	return nil
}

// LessonSlot is the recurring weekly commitment shared by individual and group lessons.
type LessonSlot struct {
	ID             string             `db:"id" json:"id"`
	TeacherID      string             `db:"teacher_id" json:"teacher_id"`
	CourseID       string             `db:"course_id" json:"course_id"`
	DayOfWeek      int                `db:"day_of_week" json:"day_of_week"`
	StartTime      timeslot.TimeOfDay `db:"start_minute" json:"start_time"`
	EndTime        timeslot.TimeOfDay `db:"end_minute" json:"end_time"`
	EffectiveFrom  time.Time          `db:"effective_from" json:"effective_from"`
	EffectiveTo    *time.Time         `db:"effective_to" json:"effective_to,omitempty"`
	ClassroomID    *string            `db:"classroom_id" json:"classroom_id,omitempty"`
	Status         LessonStatus       `db:"status" json:"status"`
	IsRecurring    bool               `db:"is_recurring" json:"is_recurring"`
	CancelledDates DateSet            `db:"cancelled_dates" json:"cancelled_dates"`
	Notes          *string            `db:"notes" json:"notes,omitempty"`
	CreatedAt      time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `db:"updated_at" json:"updated_at"`
	DeletedAt      *time.Time         `db:"deleted_at" json:"-"`
}

// IsDeleted reports a soft-deleted slot.
func (l LessonSlot) IsDeleted() bool {
	return l.DeletedAt != nil
}

// IsActive is the single predicate for "counts for conflicts and calendars".
func (l LessonSlot) IsActive() bool {
	return !l.IsDeleted() && l.Status == LessonStatusScheduled
}

// Collides reports whether the slot's weekly pattern overlaps the given pattern in both time and date range.
func (l LessonSlot) Collides(day int, start, end timeslot.TimeOfDay, from time.Time, to *time.Time) bool {
	return l.DayOfWeek == day &&
		timeslot.Overlaps(l.StartTime, l.EndTime, start, end) &&
		timeslot.DateRangesOverlap(l.EffectiveFrom, l.EffectiveTo, from, to)
}

// OccursOn reports whether the weekly pattern produces an occurrence on day.
// Cancelled exception dates still count as occurrences; see IsCancelledOn.
func (l LessonSlot) OccursOn(day time.Time) bool {
	return int(day.Weekday()) == l.DayOfWeek && timeslot.DateInRange(day, l.EffectiveFrom, l.EffectiveTo)
}

// IsCancelledOn reports whether day is an exception date.
func (l LessonSlot) IsCancelledOn(day time.Time) bool {
	return l.CancelledDates.Contains(day)
}

// EndedBefore reports whether the slot has a fixed end strictly before day.
func (l LessonSlot) EndedBefore(day time.Time) bool {
	return l.EffectiveTo != nil && timeslot.Date(*l.EffectiveTo).Before(timeslot.Date(day))
}

// IndividualLesson links one teacher and one student.
type IndividualLesson struct {
	LessonSlot
	StudentID string `db:"student_id" json:"student_id"`
}

// GroupLesson links one teacher and a group roster.
type GroupLesson struct {
	LessonSlot
	GroupID string `db:"group_id" json:"group_id"`
}

// IndividualLessonDetail carries resolved display names.
type IndividualLessonDetail struct {
	IndividualLesson
	StudentName   string  `db:"student_name" json:"student_name"`
	TeacherName   string  `db:"teacher_name" json:"teacher_name"`
	CourseName    string  `db:"course_name" json:"course_name"`
	ClassroomName *string `db:"classroom_name" json:"classroom_name,omitempty"`
}

// GroupLessonDetail carries resolved display names.
type GroupLessonDetail struct {
	GroupLesson
	GroupName     string  `db:"group_name" json:"group_name"`
	TeacherName   string  `db:"teacher_name" json:"teacher_name"`
	CourseName    string  `db:"course_name" json:"course_name"`
	ClassroomName *string `db:"classroom_name" json:"classroom_name,omitempty"`
}

// LessonPattern is the weekly pattern being validated or reserved.
type LessonPattern struct {
	DayOfWeek     int
	StartTime     timeslot.TimeOfDay
	EndTime       timeslot.TimeOfDay
	EffectiveFrom time.Time
	EffectiveTo   *time.Time
}

// LessonOverview lists the scheduled slots touching one student or teacher.
type LessonOverview struct {
	EntityID   string                   `json:"entity_id"`
	EntityKind OwnerKind                `json:"entity_kind"`
	Individual []IndividualLessonDetail `json:"individual"`
	Group      []GroupLessonDetail      `json:"group"`
}
