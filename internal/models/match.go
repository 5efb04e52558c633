package models

import "github.com/noah-isme/sma-lesson-scheduler/pkg/timeslot"

// MatchWindow is a weekly interval where both sides are available.
type MatchWindow struct {
	DayOfWeek       int                `json:"day_of_week"`
	StartTime       timeslot.TimeOfDay `json:"start_time"`
	EndTime         timeslot.TimeOfDay `json:"end_time"`
	DurationMinutes int                `json:"duration_minutes"`
	StudentWindowID string             `json:"student_window_id"`
	TeacherWindowID string             `json:"teacher_window_id"`
}

// MatchResult is the matcher output with a summary line.
type MatchResult struct {
	StudentID string        `json:"student_id"`
	TeacherID string        `json:"teacher_id"`
	Matches   []MatchWindow `json:"matches"`
	Summary   string        `json:"summary"`
}
