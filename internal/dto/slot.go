package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/sma-lesson-scheduler/internal/models"
	"github.com/noah-isme/sma-lesson-scheduler/pkg/timeslot"
)

// SlotInput is the weekly pattern shared by every lesson request.
type SlotInput struct {
	DayOfWeek     *int    `json:"day_of_week" validate:"required,min=0,max=6"`
	StartTime     string  `json:"start_time" validate:"required"`
	EndTime       string  `json:"end_time" validate:"required"`
	EffectiveFrom string  `json:"effective_from" validate:"required,datetime=2006-01-02"`
	EffectiveTo   *string `json:"effective_to" validate:"omitempty,datetime=2006-01-02"`
}

// Pattern parses the input and enforces start < end and from <= to.
func (in SlotInput) Pattern() (models.LessonPattern, error) {
	if in.DayOfWeek == nil || !timeslot.ValidWeekday(*in.DayOfWeek) {
		return models.LessonPattern{}, fmt.Errorf("day_of_week must be between 0 (Sunday) and 6 (Saturday)")
	}
	start, end, err := parseRange(in.StartTime, in.EndTime)
	if err != nil {
		return models.LessonPattern{}, err
	}
	from, err := timeslot.ParseDate(in.EffectiveFrom)
	if err != nil {
		return models.LessonPattern{}, err
	}
	var to *time.Time
	if in.EffectiveTo != nil && strings.TrimSpace(*in.EffectiveTo) != "" {
		parsed, err := timeslot.ParseDate(*in.EffectiveTo)
		if err != nil {
			return models.LessonPattern{}, err
		}
		if parsed.Before(from) {
			return models.LessonPattern{}, fmt.Errorf("effective_to must not be before effective_from")
		}
		to = &parsed
	}
	return models.LessonPattern{
		DayOfWeek:     *in.DayOfWeek,
		StartTime:     start,
		EndTime:       end,
		EffectiveFrom: from,
		EffectiveTo:   to,
	}, nil
}

func parseRange(rawStart, rawEnd string) (timeslot.TimeOfDay, timeslot.TimeOfDay, error) {
	start, err := timeslot.ParseTimeOfDay(rawStart)
	if err != nil {
		return 0, 0, err
	}
	end, err := timeslot.ParseTimeOfDay(rawEnd)
	if err != nil {
		return 0, 0, err
	}
	if start >= end {
		return 0, 0, fmt.Errorf("start_time must be before end_time")
	}
	return start, end, nil
}

// IntPtr is a small helper for optional weekday inputs.
func IntPtr(v int) *int { return &v }

// StringPtr is a small helper for optional string inputs.
func StringPtr(v string) *string { return &v }
