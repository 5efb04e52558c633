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

type individualLessonStore interface {
	Create(ctx context.Context, exec sqlx.ExtContext, lesson *models.IndividualLesson) error
	FindByID(ctx context.Context, id string) (*models.IndividualLessonDetail, error)
	SetStatus(ctx context.Context, id string, status models.LessonStatus) error
	AddCancelledDate(ctx context.Context, id string, day time.Time) error
}

// LessonService schedules and cancels individual lessons.
type LessonService struct {
	lessons   individualLessonStore
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

// LessonServiceParams groups constructor dependencies.
type LessonServiceParams struct {
	Lessons   individualLessonStore
	Checker   *ConflictChecker
	Directory directoryReader
	Reserver  reservationRunner
	Cache     *CacheService
	Notifier  lessonNotifier
	Metrics   *MetricsService
	Validator *validator.Validate
	Logger    *zap.Logger
}

// NewLessonService constructs a LessonService with defaults for optional collaborators.
func NewLessonService(p LessonServiceParams) *LessonService {
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
	return &LessonService{
		lessons:   p.Lessons,
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

// normalizedPattern validates the slot input and anchors effectiveFrom on a real occurrence.
func normalizedPattern(in dto.SlotInput, today time.Time) (models.LessonPattern, error) {
	p, err := in.Pattern()
	if err != nil {
		return p, badRequest(err, "invalid lesson slot")
	}
	p.EffectiveFrom = timeslot.NormalizeAnchor(p.EffectiveFrom, today, time.Weekday(p.DayOfWeek))
	if p.EffectiveTo != nil && p.EffectiveTo.Before(p.EffectiveFrom) {
		return p, badRequest(nil, fmt.Sprintf("no occurrence between %s and %s",
			p.EffectiveFrom.Format(timeslot.DateLayout), p.EffectiveTo.Format(timeslot.DateLayout)))
	}
	return p, nil
}

// CheckIndividualLessonConflicts reports conflicts for a prospective lesson without persisting it.
func (s *LessonService) CheckIndividualLessonConflicts(ctx context.Context, req dto.CreateIndividualLessonRequest) (*models.ConflictReport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, badRequest(err, "invalid lesson payload")
	}
	pattern, err := normalizedPattern(req.SlotInput, s.now())
	if err != nil {
		return nil, err
	}
	who, err := resolveParticipants(ctx, s.directory, req.StudentID, req.TeacherID, "", nil)
	if err != nil {
		return nil, err
	}
	report, err := s.checker.CheckIndividual(ctx, nil, who.teacher, who.student, pattern)
	if err != nil {
		return nil, internalError(err, "failed to check lesson conflicts")
	}
	return report, nil
}

// CreateIndividualLesson persists a Scheduled slot when no committed slot collides with it.
func (s *LessonService) CreateIndividualLesson(ctx context.Context, req dto.CreateIndividualLessonRequest) (*models.IndividualLessonDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, badRequest(err, "invalid lesson payload")
	}
	pattern, err := normalizedPattern(req.SlotInput, s.now())
	if err != nil {
		return nil, err
	}
	who, err := resolveParticipants(ctx, s.directory, req.StudentID, req.TeacherID, req.CourseID, req.ClassroomID)
	if err != nil {
		return nil, err
	}

	lesson := &models.IndividualLesson{
		StudentID: req.StudentID,
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

	var report *models.ConflictReport
	keys := []string{lockKey("teacher", req.TeacherID), lockKey("student", req.StudentID)}
	err = s.reserver.Reserve(ctx, keys, func(ctx context.Context, exec sqlx.ExtContext) error {
		var checkErr error
		report, checkErr = s.checker.CheckIndividual(ctx, exec, who.teacher, who.student, pattern)
		if checkErr != nil {
			return internalError(checkErr, "failed to check lesson conflicts")
		}
		if report.HasConflict {
			return conflictError(report, summarizeConflicts(report))
		}
		return s.lessons.Create(ctx, exec, lesson)
	})
	if err != nil {
		return nil, s.reservationFailure(ctx, err, who, pattern, report)
	}

	s.metrics.LessonCreated(models.LessonKindIndividual)
	s.invalidate(ctx, req.StudentID, req.TeacherID)
	s.logger.Info("individual lesson scheduled",
		zap.String("lesson_id", lesson.ID),
		zap.String("teacher_id", lesson.TeacherID),
		zap.String("student_id", lesson.StudentID),
		zap.Int("day_of_week", lesson.DayOfWeek),
		zap.Stringer("start", lesson.StartTime),
	)

	return &models.IndividualLessonDetail{
		IndividualLesson: *lesson,
		StudentName:      who.student.FullName,
		TeacherName:      who.teacher.FullName,
		CourseName:       who.course.Name,
		ClassroomName:    who.classroomName(),
	}, nil
}

// reservationFailure maps reservation errors; a backstop rejection is reported as a conflict with fresh details.
func (s *LessonService) reservationFailure(ctx context.Context, err error, who participants, pattern models.LessonPattern, report *models.ConflictReport) error {
	if appErrors.IsCode(err, appErrors.ErrConflict.Code) {
		s.metrics.ConflictsDetected(models.LessonKindIndividual, report)
		return err
	}
	if errors.Is(err, models.ErrReservationOverlap) {
		s.logger.Warn("lesson rejected by overlap constraint", zap.Error(err))
		fresh, checkErr := s.checker.CheckIndividual(ctx, nil, who.teacher, who.student, pattern)
		if checkErr != nil || !fresh.HasConflict {
			fresh = &models.ConflictReport{HasConflict: true, Conflicts: []models.ConflictDetail{}}
		}
		s.metrics.ConflictsDetected(models.LessonKindIndividual, fresh)
		return conflictError(fresh, "lesson overlaps a lesson committed concurrently")
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	return internalError(err, "failed to create lesson")
}

// GetIndividualLesson returns a lesson with display names.
func (s *LessonService) GetIndividualLesson(ctx context.Context, id string) (*models.IndividualLessonDetail, error) {
	lesson, err := s.lessons.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "lesson")
	}
	return lesson, nil
}

// CancelLesson ends every future occurrence or skips a single date.
func (s *LessonService) CancelLesson(ctx context.Context, id string, req dto.CancelLessonRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return badRequest(err, "invalid cancellation payload")
	}
	cancelAll, day, err := req.Resolve()
	if err != nil {
		return badRequest(err, "invalid cancellation payload")
	}
	lesson, err := s.lessons.FindByID(ctx, id)
	if err != nil {
		return lookupError(err, "lesson")
	}

	related := models.RelatedEntity{Kind: string(models.LessonKindIndividual), ID: lesson.ID}
	var title, message string
	if cancelAll {
		if err := s.lessons.SetStatus(ctx, id, models.LessonStatusCancelled); err != nil {
			return lookupError(err, "lesson")
		}
		s.metrics.LessonCancelled(models.LessonKindIndividual, "all")
		related.Event = models.NotificationLessonCancelled
		title = "Lesson cancelled"
		message = fmt.Sprintf("%s on %s at %s has been cancelled", lesson.CourseName, time.Weekday(lesson.DayOfWeek), lesson.StartTime)
	} else {
		if !lesson.OccursOn(*day) {
			return badRequest(nil, fmt.Sprintf("%s is not an occurrence of this lesson", day.Format(timeslot.DateLayout)))
		}
		if err := s.lessons.AddCancelledDate(ctx, id, *day); err != nil {
			return lookupError(err, "lesson")
		}
		s.metrics.LessonCancelled(models.LessonKindIndividual, "date")
		related.Event = models.NotificationOccurrenceCancelled
		title = "Lesson occurrence cancelled"
		message = fmt.Sprintf("%s on %s at %s will not take place", lesson.CourseName, day.Format(timeslot.DateLayout), lesson.StartTime)
	}

	s.invalidate(ctx, lesson.StudentID, lesson.TeacherID)
	s.notifier.Send(ctx, lesson.TeacherID, title, message, related)
	s.notifier.Send(ctx, lesson.StudentID, title, message, related)
	return nil
}

func (s *LessonService) invalidate(ctx context.Context, studentID, teacherID string) {
	_ = s.cache.Invalidate(ctx, calendarPattern(models.OwnerStudent, studentID), calendarPattern(models.OwnerTeacher, teacherID))
}
