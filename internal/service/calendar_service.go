package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-lesson-scheduler/internal/models"
	appErrors "github.com/noah-isme/sma-lesson-scheduler/pkg/errors"
	"github.com/noah-isme/sma-lesson-scheduler/pkg/export"
	"github.com/noah-isme/sma-lesson-scheduler/pkg/timeslot"
)

const calendarCachePrefix = "calendar"

var availabilityColors = map[models.AvailabilityKind]string{
	models.AvailabilityAvailable:   "#28a745",
	models.AvailabilityBusy:        "#dc3545",
	models.AvailabilityUnavailable: "#6c757d",
	models.AvailabilitySchool:      "#007bff",
	models.AvailabilityBreak:       "#ffc107",
}

const (
	individualLessonColor = "#17a2b8"
	groupLessonColor      = "#6f42c1"
)

type individualLessonLister interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.IndividualLessonDetail, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]models.IndividualLessonDetail, error)
}

type groupLessonLister interface {
	ListScheduledByGroups(ctx context.Context, exec sqlx.ExtContext, groupIDs []string) ([]models.GroupLessonDetail, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]models.GroupLessonDetail, error)
}

type studentMembershipReader interface {
	ListActiveMemberships(ctx context.Context, exec sqlx.ExtContext, studentIDs []string) ([]models.GroupMember, error)
}

type calendarRenderer interface {
	Render(table export.Table) ([]byte, error)
	ContentType() string
	Extension() string
}

// ExportFile is a rendered calendar ready to be sent as an attachment.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// CalendarService renders weekly views and lesson listings for students and teachers.
type CalendarService struct {
	windows       availabilityLister
	individual    individualLessonLister
	group         groupLessonLister
	memberships   studentMembershipReader
	directory     directoryReader
	cache         *CacheService
	cacheTTL      time.Duration
	hideCancelled bool
	renderers     map[string]calendarRenderer
	logger        *zap.Logger
	now           func() time.Time
}

// CalendarServiceParams groups constructor dependencies.
type CalendarServiceParams struct {
	Availability availabilityLister
	Individual   individualLessonLister
	Group        groupLessonLister
	Memberships  studentMembershipReader
	Directory    directoryReader
	Cache        *CacheService
	CacheTTL     time.Duration
	// HideCancelled drops exception-date occurrences instead of flagging them.
	HideCancelled bool
	Logger        *zap.Logger
}

// NewCalendarService constructs a CalendarService with CSV and PDF renderers.
func NewCalendarService(p CalendarServiceParams) *CalendarService {
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	csv := export.NewCSVExporter()
	pdf := export.NewPDFExporter()
	return &CalendarService{
		windows:       p.Availability,
		individual:    p.Individual,
		group:         p.Group,
		memberships:   p.Memberships,
		directory:     p.Directory,
		cache:         p.Cache,
		cacheTTL:      p.CacheTTL,
		hideCancelled: p.HideCancelled,
		renderers: map[string]calendarRenderer{
			csv.Extension(): csv,
			pdf.Extension(): pdf,
		},
		logger: p.Logger,
		now:    utcNow,
	}
}

func kindSegment(kind models.OwnerKind) string {
	return strings.ToLower(string(kind))
}

func calendarKey(kind models.OwnerKind, id string, weekStart time.Time) string {
	return fmt.Sprintf("%s:%s:%s:%s", calendarCachePrefix, kindSegment(kind), id, weekStart.Format(timeslot.DateLayout))
}

// resolveWeek normalizes an optional week start to its Monday; nil means the current week.
func (s *CalendarService) resolveWeek(weekStart *time.Time) time.Time {
	if weekStart == nil {
		return timeslot.WeekStart(s.now())
	}
	return timeslot.WeekStart(*weekStart)
}

// GetStudentWeeklyCalendar renders a student's availability, individual lessons and group lessons.
func (s *CalendarService) GetStudentWeeklyCalendar(ctx context.Context, studentID string, weekStart *time.Time) (*models.WeeklyCalendar, error) {
	return s.weekly(ctx, models.OwnerStudent, studentID, weekStart)
}

// GetTeacherWeeklyCalendar renders a teacher's availability and every lesson they teach.
func (s *CalendarService) GetTeacherWeeklyCalendar(ctx context.Context, teacherID string, weekStart *time.Time) (*models.WeeklyCalendar, error) {
	return s.weekly(ctx, models.OwnerTeacher, teacherID, weekStart)
}

func (s *CalendarService) weekly(ctx context.Context, kind models.OwnerKind, id string, weekStart *time.Time) (*models.WeeklyCalendar, error) {
	start := s.resolveWeek(weekStart)
	key := calendarKey(kind, id, start)

	var cached models.WeeklyCalendar
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		cached.CacheHit = true
		return &cached, nil
	}

	name, err := s.entityName(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	windows, err := s.windows.List(ctx, models.AvailabilityFilter{OwnerKind: kind, OwnerID: id})
	if err != nil {
		return nil, internalError(err, "failed to load availability")
	}
	overview, err := s.lessons(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	calendar := BuildWeeklyCalendar(start, windows, overview.Individual, overview.Group, s.hideCancelled)
	calendar.EntityID = id
	calendar.EntityKind = kind
	calendar.EntityName = name

	if err := s.cache.Set(ctx, key, calendar, s.cacheTTL); err != nil {
		s.logger.Debug("calendar cache write skipped", zap.String("key", key), zap.Error(err))
	}
	return calendar, nil
}

func (s *CalendarService) entityName(ctx context.Context, kind models.OwnerKind, id string) (string, error) {
	switch kind {
	case models.OwnerStudent:
		who, err := resolveParticipants(ctx, s.directory, id, "", "", nil)
		if err != nil {
			return "", err
		}
		return who.student.FullName, nil
	case models.OwnerTeacher:
		who, err := resolveParticipants(ctx, s.directory, "", id, "", nil)
		if err != nil {
			return "", err
		}
		return who.teacher.FullName, nil
	default:
		return "", badRequest(nil, fmt.Sprintf("unknown entity kind %q", kind))
	}
}

// lessons gathers scheduled slots: a student's own plus those of their active groups, or a teacher's taught slots.
func (s *CalendarService) lessons(ctx context.Context, kind models.OwnerKind, id string) (*models.LessonOverview, error) {
	overview := &models.LessonOverview{EntityID: id, EntityKind: kind}
	var err error
	switch kind {
	case models.OwnerStudent:
		if overview.Individual, err = s.individual.ListByStudent(ctx, id); err != nil {
			return nil, internalError(err, "failed to load individual lessons")
		}
		memberships, err := s.memberships.ListActiveMemberships(ctx, nil, []string{id})
		if err != nil {
			return nil, internalError(err, "failed to load group memberships")
		}
		if overview.Group, err = s.group.ListScheduledByGroups(ctx, nil, groupIDs(memberships)); err != nil {
			return nil, internalError(err, "failed to load group lessons")
		}
	case models.OwnerTeacher:
		if overview.Individual, err = s.individual.ListByTeacher(ctx, id); err != nil {
			return nil, internalError(err, "failed to load individual lessons")
		}
		if overview.Group, err = s.group.ListByTeacher(ctx, id); err != nil {
			return nil, internalError(err, "failed to load group lessons")
		}
	}
	if overview.Individual == nil {
		overview.Individual = []models.IndividualLessonDetail{}
	}
	if overview.Group == nil {
		overview.Group = []models.GroupLessonDetail{}
	}
	return overview, nil
}

// ListLessons returns the scheduled slots touching a student or teacher.
func (s *CalendarService) ListLessons(ctx context.Context, kind models.OwnerKind, id string) (*models.LessonOverview, error) {
	if _, err := s.entityName(ctx, kind, id); err != nil {
		return nil, err
	}
	return s.lessons(ctx, kind, id)
}

// ExportWeeklyCalendar renders the weekly view as csv or pdf.
func (s *CalendarService) ExportWeeklyCalendar(ctx context.Context, kind models.OwnerKind, id string, weekStart *time.Time, format string) (*ExportFile, error) {
	renderer, ok := s.renderers[strings.ToLower(strings.TrimSpace(format))]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	calendar, err := s.weekly(ctx, kind, id, weekStart)
	if err != nil {
		return nil, err
	}
	body, err := renderer.Render(CalendarTable(calendar))
	if err != nil {
		return nil, internalError(err, "failed to render calendar")
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("calendar-%s-%s-%s.%s", kindSegment(kind), id, calendar.WeekStart.Format(timeslot.DateLayout), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Body:        body,
	}, nil
}

// BuildWeeklyCalendar lays out availability windows and lesson occurrences on the Monday-based week.
// Exception dates are flagged isCancelled, or dropped when hideCancelled is set.
func BuildWeeklyCalendar(weekStart time.Time, windows []models.AvailabilityWindow, individual []models.IndividualLessonDetail, group []models.GroupLessonDetail, hideCancelled bool) *models.WeeklyCalendar {
	weekStart = timeslot.WeekStart(weekStart)
	calendar := &models.WeeklyCalendar{
		WeekStart: weekStart,
		WeekEnd:   weekStart.AddDate(0, 0, 6),
		Days:      make([]models.CalendarDay, 7),
	}
	for i := range calendar.Days {
		date := weekStart.AddDate(0, 0, i)
		calendar.Days[i] = models.CalendarDay{Date: date, DayOfWeek: int(date.Weekday()), Slots: []models.CalendarSlot{}}
	}
	dayIndex := func(weekday int) int {
		return (weekday - int(time.Monday) + 7) % 7
	}

	for _, w := range windows {
		if !w.IsActive() || !timeslot.ValidWeekday(w.DayOfWeek) {
			continue
		}
		day := &calendar.Days[dayIndex(w.DayOfWeek)]
		day.Slots = append(day.Slots, models.CalendarSlot{
			Type:             models.CalendarSlotAvailability,
			SourceID:         w.ID,
			Title:            availabilityTitle(w.Kind),
			StartTime:        w.StartTime,
			EndTime:          w.EndTime,
			Color:            availabilityColors[w.Kind],
			Clickable:        w.Kind == models.AvailabilityAvailable,
			AvailabilityKind: w.Kind,
			Notes:            deref(w.Notes),
		})
	}

	for _, l := range individual {
		if !timeslot.ValidWeekday(l.DayOfWeek) {
			continue
		}
		day := &calendar.Days[dayIndex(l.DayOfWeek)]
		slot, ok := lessonOccurrence(l.LessonSlot, day.Date, hideCancelled)
		if !ok {
			continue
		}
		slot.Type = models.CalendarSlotIndividualLesson
		slot.Title = fmt.Sprintf("%s: %s with %s", l.CourseName, l.StudentName, l.TeacherName)
		slot.Color = individualLessonColor
		slot.CourseName = l.CourseName
		slot.TeacherName = l.TeacherName
		slot.StudentName = l.StudentName
		slot.ClassroomName = deref(l.ClassroomName)
		day.Slots = append(day.Slots, slot)
	}

	for _, l := range group {
		if !timeslot.ValidWeekday(l.DayOfWeek) {
			continue
		}
		day := &calendar.Days[dayIndex(l.DayOfWeek)]
		slot, ok := lessonOccurrence(l.LessonSlot, day.Date, hideCancelled)
		if !ok {
			continue
		}
		slot.Type = models.CalendarSlotGroupLesson
		slot.Title = fmt.Sprintf("%s: %s with %s", l.CourseName, l.GroupName, l.TeacherName)
		slot.Color = groupLessonColor
		slot.CourseName = l.CourseName
		slot.TeacherName = l.TeacherName
		slot.GroupName = l.GroupName
		slot.ClassroomName = deref(l.ClassroomName)
		day.Slots = append(day.Slots, slot)
	}

	for i := range calendar.Days {
		slots := calendar.Days[i].Slots
		sort.SliceStable(slots, func(a, b int) bool {
			if slots[a].StartTime != slots[b].StartTime {
				return slots[a].StartTime < slots[b].StartTime
			}
			return slots[a].EndTime < slots[b].EndTime
		})
	}
	return calendar
}

func lessonOccurrence(l models.LessonSlot, date time.Time, hideCancelled bool) (models.CalendarSlot, bool) {
	if !l.IsActive() || !l.OccursOn(date) {
		return models.CalendarSlot{}, false
	}
	cancelled := l.IsCancelledOn(date)
	if cancelled && hideCancelled {
		return models.CalendarSlot{}, false
	}
	return models.CalendarSlot{
		SourceID:    l.ID,
		StartTime:   l.StartTime,
		EndTime:     l.EndTime,
		IsCancelled: cancelled,
		Notes:       deref(l.Notes),
	}, true
}

func availabilityTitle(kind models.AvailabilityKind) string {
	lower := strings.ToLower(string(kind))
	if lower == "" {
		return ""
	}
	return strings.ToUpper(lower[:1]) + lower[1:]
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// CalendarTable flattens a weekly calendar into export rows.
func CalendarTable(calendar *models.WeeklyCalendar) export.Table {
	table := export.Table{
		Title:   fmt.Sprintf("Weekly calendar %s (%s to %s)", calendar.EntityName, calendar.WeekStart.Format(timeslot.DateLayout), calendar.WeekEnd.Format(timeslot.DateLayout)),
		Columns: []string{"Date", "Day", "Start", "End", "Type", "Title", "Classroom", "Status"},
	}
	for _, day := range calendar.Days {
		for _, slot := range day.Slots {
			status := ""
			if slot.Type != models.CalendarSlotAvailability {
				status = "scheduled"
				if slot.IsCancelled {
					status = "cancelled"
				}
			}
			table.AddRow(
				day.Date.Format(timeslot.DateLayout),
				day.Date.Weekday().String(),
				slot.StartTime.String(),
				slot.EndTime.String(),
				string(slot.Type),
				slot.Title,
				slot.ClassroomName,
				status,
			)
		}
	}
	return table
}
