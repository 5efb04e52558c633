package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/sma-lesson-scheduler/internal/dto"
	"github.com/noah-isme/sma-lesson-scheduler/internal/models"
	"github.com/noah-isme/sma-lesson-scheduler/pkg/timeslot"
)

type availabilityLister interface {
	List(ctx context.Context, filter models.AvailabilityFilter) ([]models.AvailabilityWindow, error)
}

// MatcherService intersects student and teacher availability.
type MatcherService struct {
	windows   availabilityLister
	directory directoryReader
	validator *validator.Validate
}

// NewMatcherService constructs a MatcherService.
func NewMatcherService(windows availabilityLister, directory directoryReader, validate *validator.Validate) *MatcherService {
	if validate == nil {
		validate = validator.New()
	}
	return &MatcherService{windows: windows, directory: directory, validator: validate}
}

// FindMatchingSlots returns every non-empty intersection of the pair's Available windows on the same weekday.
func (s *MatcherService) FindMatchingSlots(ctx context.Context, query dto.MatchQuery) (*models.MatchResult, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, badRequest(err, "invalid match query")
	}
	if _, err := resolveParticipants(ctx, s.directory, query.StudentID, query.TeacherID, "", nil); err != nil {
		return nil, err
	}

	studentWindows, err := s.windows.List(ctx, models.AvailabilityFilter{
		OwnerKind: models.OwnerStudent,
		OwnerID:   query.StudentID,
		DayOfWeek: query.DayOfWeek,
		Kind:      models.AvailabilityAvailable,
	})
	if err != nil {
		return nil, internalError(err, "failed to load student availability")
	}
	teacherWindows, err := s.windows.List(ctx, models.AvailabilityFilter{
		OwnerKind: models.OwnerTeacher,
		OwnerID:   query.TeacherID,
		DayOfWeek: query.DayOfWeek,
		Kind:      models.AvailabilityAvailable,
	})
	if err != nil {
		return nil, internalError(err, "failed to load teacher availability")
	}

	matches := IntersectAvailability(studentWindows, teacherWindows, query.DayOfWeek)
	return &models.MatchResult{
		StudentID: query.StudentID,
		TeacherID: query.TeacherID,
		Matches:   matches,
		Summary:   fmt.Sprintf("Found %d matching time slot(s)", len(matches)),
	}, nil
}

// IntersectAvailability computes pairwise overlaps of Available windows, ordered by weekday then start.
func IntersectAvailability(student, teacher []models.AvailabilityWindow, day *int) []models.MatchWindow {
	matches := []models.MatchWindow{}
	for _, sw := range student {
		if !usableWindow(sw, day) {
			continue
		}
		for _, tw := range teacher {
			if !usableWindow(tw, day) || tw.DayOfWeek != sw.DayOfWeek {
				continue
			}
			start, end, ok := timeslot.Intersection(sw.StartTime, sw.EndTime, tw.StartTime, tw.EndTime)
			if !ok {
				continue
			}
			matches = append(matches, models.MatchWindow{
				DayOfWeek:       sw.DayOfWeek,
				StartTime:       start,
				EndTime:         end,
				DurationMinutes: int(end - start),
				StudentWindowID: sw.ID,
				TeacherWindowID: tw.ID,
			})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.DayOfWeek != b.DayOfWeek {
			return a.DayOfWeek < b.DayOfWeek
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return a.EndTime < b.EndTime
	})
	return matches
}

func usableWindow(w models.AvailabilityWindow, day *int) bool {
	if !w.IsActive() || w.Kind != models.AvailabilityAvailable {
		return false
	}
	return day == nil || w.DayOfWeek == *day
}
