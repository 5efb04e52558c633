package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-lesson-scheduler/internal/dto"
	"github.com/noah-isme/sma-lesson-scheduler/internal/models"
	appErrors "github.com/noah-isme/sma-lesson-scheduler/pkg/errors"
	"github.com/noah-isme/sma-lesson-scheduler/pkg/timeslot"
)

type groupLessonStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, lesson *models.GroupLesson) error
	FindByID(ctx context.Context, id string) (*models.GroupLessonDetail, error)
	SetStatus(ctx context.Context, id string, status models.LessonStatus) error
	AddCancelledDate(ctx context.Context, id string, day time.Time) error
}

type groupRosterReader interface {
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Group, error)
	ListActiveMembers(ctx context.Context, exec sqlx.ExtContext, groupID string) ([]models.GroupMember, error)
}

// GroupLessonService schedules and cancels lessons for group rosters.
type GroupLessonService struct {
	lessons   groupLessonStore
	groups    groupRosterReader
	checker   *ConflictChecker
	directory directoryReader
	reserver  reservationRunner
	cache     *CacheService
	notifier  lessonNotifier
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// GroupLessonServiceParams groups constructor dependencies.
type GroupLessonServiceParams struct {
	Lessons   groupLessonStore
	Groups    groupRosterReader
	Checker   *ConflictChecker
	Directory directoryReader
	Reserver  reservationRunner
	Cache     *CacheService
	Notifier  lessonNotifier
	Metrics   *MetricsService
	Validator *validator.Validate
	Logger    *zap.Logger
}

// NewGroupLessonService constructs a GroupLessonService.
func NewGroupLessonService(p GroupLessonServiceParams) *GroupLessonService {
	if p.Validator == nil {
		p.Validator = validator.New()
	}
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	if p.Reserver == nil {
		p.Reserver = directReservation{}
	}
	if p.Notifier == nil {
		p.Notifier = nopNotifier{}
	}
	return &GroupLessonService{
		lessons:   p.Lessons,
		groups:    p.Groups,
		checker:   p.Checker,
		directory: p.Directory,
		reserver:  p.Reserver,
		cache:     p.Cache,
		notifier:  p.Notifier,
		metrics:   p.Metrics,
		validator: p.Validator,
		logger:    p.Logger,
		now:       utcNow,
	}
}

// activeGroup loads a group that can receive lessons.
func (s *GroupLessonService) activeGroup(ctx context.Context, exec sqlx.ExtContext, groupID string) (*models.Group, error) {
	group, err := s.groups.FindByID(ctx, exec, groupID)
	if err != nil {
		return nil, lookupError(err, "group")
	}
	if !group.IsActive {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "group is inactive")
	}
	return group, nil
}

func (s *GroupLessonService) checkError(err error) error {
	if errors.Is(err, errEmptyRoster) {
		return badRequest(nil, "cannot schedule a lesson for a group without active members")
	}
	return internalError(err, "failed to check group lesson conflicts")
}

// CheckGroupLessonConflicts accumulates every teacher and member conflict for a prospective group slot.
func (s *GroupLessonService) CheckGroupLessonConflicts(ctx context.Context, req dto.CheckGroupLessonRequest) (*models.ConflictReport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, badRequest(err, "invalid group lesson payload")
	}
	pattern, err := normalizedPattern(req.SlotInput, s.now())
	if err != nil {
		return nil, err
	}
	if _, err := s.activeGroup(ctx, nil, req.GroupID); err != nil {
		return nil, err
	}
	who, err := resolveParticipants(ctx, s.directory, "", req.TeacherID, "", nil)
	if err != nil {
		return nil, err
	}
	report, err := s.checker.CheckGroup(ctx, nil, req.GroupID, who.teacher, pattern)
	if err != nil {
		return nil, s.checkError(err)
	}
	if report.HasConflict {
		s.metrics.ConflictsDetected(models.LessonKindGroup, report)
	}
	return report, nil
}

// CreateGroupLesson persists a Scheduled group slot, rejecting with every accumulated conflict otherwise.
func (s *GroupLessonService) CreateGroupLesson(ctx context.Context, req dto.CreateGroupLessonRequest) (*models.GroupLessonDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, badRequest(err, "invalid group lesson payload")
	}
	pattern, err := normalizedPattern(req.SlotInput, s.now())
	if err != nil {
		return nil, err
	}
	group, err := s.activeGroup(ctx, nil, req.GroupID)
	if err != nil {
		return nil, err
	}
	who, err := resolveParticipants(ctx, s.directory, "", req.TeacherID, req.CourseID, req.ClassroomID)
	if err != nil {
		return nil, err
	}
	roster, err := s.groups.ListActiveMembers(ctx, nil, req.GroupID)
	if err != nil {
		return nil, internalError(err, "failed to load group members")
	}
	if len(roster) == 0 {
		return nil, s.checkError(errEmptyRoster)
	}

	lesson := &models.GroupLesson{
		GroupID: req.GroupID,
		LessonSlot: models.LessonSlot{
			TeacherID:     req.TeacherID,
			CourseID:      req.CourseID,
			DayOfWeek:     pattern.DayOfWeek,
			StartTime:     pattern.StartTime,
			EndTime:       pattern.EndTime,
			EffectiveFrom: pattern.EffectiveFrom,
			EffectiveTo:   pattern.EffectiveTo,
			ClassroomID:   req.ClassroomID,
			Status:        models.LessonStatusScheduled,
			IsRecurring:   true,
			Notes:         req.Notes,
		},
	}

	keys := []string{lockKey("teacher", req.TeacherID), lockKey("group", req.GroupID)}
	for _, m := range roster {
		keys = append(keys, lockKey("student", m.StudentID))
	}
	var report *models.ConflictReport
	err = s.reserver.Reserve(ctx, keys, func(ctx context.Context, exec sqlx.ExtContext) error {
		if _, activeErr := s.activeGroup(ctx, exec, req.GroupID); activeErr != nil {
			return activeErr
		}
		var checkErr error
		report, checkErr = s.checker.CheckGroup(ctx, exec, req.GroupID, who.teacher, pattern)
		if checkErr != nil {
			return s.checkError(checkErr)
		}
		if report.HasConflict {
			return conflictError(report, summarizeConflicts(report))
		}
		return s.lessons.Create(ctx, exec, lesson)
	})
	if err != nil {
		if appErrors.IsCode(err, appErrors.ErrConflict.Code) {
			s.metrics.ConflictsDetected(models.LessonKindGroup, report)
			return nil, err
		}
		if errors.Is(err, models.ErrReservationOverlap) {
			s.logger.Warn("group lesson rejected by overlap constraint", zap.Error(err))
			fresh, checkErr := s.checker.CheckGroup(ctx, nil, req.GroupID, who.teacher, pattern)
			if checkErr != nil || !fresh.HasConflict {
				fresh = &models.ConflictReport{HasConflict: true, Conflicts: []models.ConflictDetail{}}
			}
			s.metrics.ConflictsDetected(models.LessonKindGroup, fresh)
			return nil, conflictError(fresh, "group lesson overlaps a lesson committed concurrently")
		}
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, internalError(err, "failed to create group lesson")
	}

	s.metrics.LessonCreated(models.LessonKindGroup)
	s.invalidate(ctx, req.TeacherID, roster)
	detail := &models.GroupLessonDetail{
		GroupLesson:   *lesson,
		GroupName:     group.Name,
		TeacherName:   who.teacher.FullName,
		CourseName:    who.course.Name,
		ClassroomName: who.classroomName(),
	}
	s.notifyRoster(ctx, detail, roster, models.RelatedEntity{
		Kind:  string(models.LessonKindGroup),
		ID:    lesson.ID,
		Event: models.NotificationGroupLessonScheduled,
	}, "Group lesson scheduled", fmt.Sprintf("%s for %s every %s at %s-%s starting %s",
		detail.CourseName, group.Name, time.Weekday(lesson.DayOfWeek), lesson.StartTime, lesson.EndTime,
		lesson.EffectiveFrom.Format(timeslot.DateLayout)))

	s.logger.Info("group lesson scheduled",
		zap.String("lesson_id", lesson.ID),
		zap.String("group_id", lesson.GroupID),
		zap.String("teacher_id", lesson.TeacherID),
		zap.Int("members", len(roster)),
	)
	return detail, nil
}

// GetGroupLesson returns a group slot with display names.
func (s *GroupLessonService) GetGroupLesson(ctx context.Context, id string) (*models.GroupLessonDetail, error) {
	lesson, err := s.lessons.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "group lesson")
	}
	return lesson, nil
}

// CancelGroupLesson ends every future occurrence or skips a single date.
func (s *GroupLessonService) CancelGroupLesson(ctx context.Context, id string, req dto.CancelLessonRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return badRequest(err, "invalid cancellation payload")
	}
	cancelAll, day, err := req.Resolve()
	if err != nil {
		return badRequest(err, "invalid cancellation payload")
	}
	lesson, err := s.lessons.FindByID(ctx, id)
	if err != nil {
		return lookupError(err, "group lesson")
	}

	related := models.RelatedEntity{Kind: string(models.LessonKindGroup), ID: lesson.ID}
	var title, message string
	if cancelAll {
		if err := s.lessons.SetStatus(ctx, id, models.LessonStatusCancelled); err != nil {
			return lookupError(err, "group lesson")
		}
		s.metrics.LessonCancelled(models.LessonKindGroup, "all")
		related.Event = models.NotificationLessonCancelled
		title = "Group lesson cancelled"
		message = fmt.Sprintf("%s for %s on %s at %s has been cancelled", lesson.CourseName, lesson.GroupName, time.Weekday(lesson.DayOfWeek), lesson.StartTime)
	} else {
		if !lesson.OccursOn(*day) {
			return badRequest(nil, fmt.Sprintf("%s is not an occurrence of this group lesson", day.Format(timeslot.DateLayout)))
		}
		if err := s.lessons.AddCancelledDate(ctx, id, *day); err != nil {
			return lookupError(err, "group lesson")
		}
		s.metrics.LessonCancelled(models.LessonKindGroup, "date")
		related.Event = models.NotificationOccurrenceCancelled
		title = "Group lesson occurrence cancelled"
		message = fmt.Sprintf("%s for %s on %s at %s will not take place", lesson.CourseName, lesson.GroupName, day.Format(timeslot.DateLayout), lesson.StartTime)
	}

	roster, err := s.groups.ListActiveMembers(ctx, nil, lesson.GroupID)
	if err != nil {
		s.logger.Warn("failed to load roster for cancellation notice", zap.String("group_id", lesson.GroupID), zap.Error(err))
	}
	s.invalidate(ctx, lesson.TeacherID, roster)
	s.notifyRoster(ctx, lesson, roster, related, title, message)
	return nil
}

func (s *GroupLessonService) notifyRoster(ctx context.Context, lesson *models.GroupLessonDetail, roster []models.GroupMember, related models.RelatedEntity, title, message string) {
	s.notifier.Send(ctx, lesson.TeacherID, title, message, related)
	for _, m := range roster {
		s.notifier.Send(ctx, m.StudentID, title, message, related)
	}
}

func (s *GroupLessonService) invalidate(ctx context.Context, teacherID string, roster []models.GroupMember) {
	patterns := []string{calendarPattern(models.OwnerTeacher, teacherID)}
	for _, m := range roster {
		patterns = append(patterns, calendarPattern(models.OwnerStudent, m.StudentID))
	}
	_ = s.cache.Invalidate(ctx, patterns...)
}
