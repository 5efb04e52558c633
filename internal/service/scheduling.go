package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-lesson-scheduler/internal/models"
	appErrors "github.com/noah-isme/sma-lesson-scheduler/pkg/errors"
)

// reservationRunner executes a check-and-write under locks on the given keys.
type reservationRunner interface {
	Reserve(ctx context.Context, keys []string, fn func(ctx context.Context, exec sqlx.ExtContext) error) error
}

// directReservation runs reservations without a transaction. Used when no store-backed runner is wired.
type directReservation struct{}

func (directReservation) Reserve(ctx context.Context, _ []string, fn func(ctx context.Context, exec sqlx.ExtContext) error) error {
	return fn(ctx, nil)
}

type directoryReader interface {
	FindStudent(ctx context.Context, id string) (*models.Student, error)
	FindTeacher(ctx context.Context, id string) (*models.Teacher, error)
	FindCourse(ctx context.Context, id string) (*models.Course, error)
	FindClassroom(ctx context.Context, id string) (*models.Classroom, error)
}

// lessonNotifier is the fire-and-forget notification collaborator.
type lessonNotifier interface {
	Send(ctx context.Context, userID, title, message string, related models.RelatedEntity)
}

type nopNotifier struct{}

func (nopNotifier) Send(context.Context, string, string, string, models.RelatedEntity) {}

func utcNow() time.Time { return time.Now().UTC() }

func lockKey(kind, id string) string { return kind + ":" + id }

func badRequest(err error, message string) error {
	if err != nil {
		message = fmt.Sprintf("%s: %v", message, err)
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

func internalError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

// lookupError maps a missing row to NotFound and anything else to an infrastructure error.
func lookupError(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, what+" not found")
	}
	return internalError(err, "failed to load "+what)
}

func conflictError(report *models.ConflictReport, message string) error {
	return appErrors.WithDetails(appErrors.Clone(appErrors.ErrConflict, message), report)
}

// participants carries resolved display names for a lesson request.
type participants struct {
	student   *models.Student
	teacher   *models.Teacher
	course    *models.Course
	classroom *models.Classroom
}

func (p participants) classroomName() *string {
	if p.classroom == nil {
		return nil
	}
	name := p.classroom.Name
	return &name
}

// resolve loads every referenced entity; empty ids are skipped.
func resolveParticipants(ctx context.Context, dir directoryReader, studentID, teacherID, courseID string, classroomID *string) (participants, error) {
	var p participants
	var err error
	if studentID != "" {
		if p.student, err = dir.FindStudent(ctx, studentID); err != nil {
			return p, lookupError(err, "student")
		}
	}
	if teacherID != "" {
		if p.teacher, err = dir.FindTeacher(ctx, teacherID); err != nil {
			return p, lookupError(err, "teacher")
		}
	}
	if courseID != "" {
		if p.course, err = dir.FindCourse(ctx, courseID); err != nil {
			return p, lookupError(err, "course")
		}
	}
	if classroomID != nil && *classroomID != "" {
		if p.classroom, err = dir.FindClassroom(ctx, *classroomID); err != nil {
			return p, lookupError(err, "classroom")
		}
	}
	return p, nil
}

func calendarPattern(kind models.OwnerKind, id string) string {
	return fmt.Sprintf("%s:%s:%s:*", calendarCachePrefix, kindSegment(kind), id)
}
