package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-lesson-scheduler/internal/models"
)

const groupLessonSelect = `SELECT ` + lessonSlotColumns + `, l.group_id,
g.name AS group_name, t.full_name AS teacher_name, c.name AS course_name, r.name AS classroom_name
FROM group_lessons l
JOIN groups g ON g.id = l.group_id
JOIN teachers t ON t.id = l.teacher_id
JOIN courses c ON c.id = l.course_id
LEFT JOIN classrooms r ON r.id = l.classroom_id`

// GroupLessonRepository persists recurring group lessons.
type GroupLessonRepository struct {
	db *sqlx.DB
}

// NewGroupLessonRepository constructs the repository.
func NewGroupLessonRepository(db *sqlx.DB) *GroupLessonRepository {
	return &GroupLessonRepository{db: db}
}

// Create inserts a group lesson using exec when provided.
func (r *GroupLessonRepository) Create(ctx context.Context, exec sqlx.ExtContext, lesson *models.GroupLesson) error {
	if lesson == nil {
		return fmt.Errorf("group lesson payload is nil")
	}
	if lesson.ID == "" {
		lesson.ID = uuid.NewString()
	}
	prepareSlot(&lesson.LessonSlot, time.Now().UTC())

	const query = `
INSERT INTO group_lessons (id, group_id, teacher_id, course_id, day_of_week, start_minute, end_minute,
effective_from, effective_to, classroom_id, status, is_recurring, cancelled_dates, notes, created_at, updated_at)
VALUES (:id, :group_id, :teacher_id, :course_id, :day_of_week, :start_minute, :end_minute,
:effective_from, :effective_to, :classroom_id, :status, :is_recurring, :cancelled_dates, :notes, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, execOr(r.db, exec), query, lesson); err != nil {
		return fmt.Errorf("insert group lesson: %w", err)
	}
	return nil
}

// FindByID returns a non-deleted group lesson with display names.
func (r *GroupLessonRepository) FindByID(ctx context.Context, id string) (*models.GroupLessonDetail, error) {
	var lesson models.GroupLessonDetail
	if err := r.db.GetContext(ctx, &lesson, groupLessonSelect+` WHERE l.id = $1 AND l.deleted_at IS NULL`, id); err != nil {
		return nil, err
	}
	return &lesson, nil
}

// ListConflictCandidates returns scheduled group lessons on day taught by teacherID or held for any of groupIDs.
func (r *GroupLessonRepository) ListConflictCandidates(ctx context.Context, exec sqlx.ExtContext, teacherID string, groupIDs []string, day int) ([]models.GroupLessonDetail, error) {
	if groupIDs == nil {
		groupIDs = []string{}
	}
	query := groupLessonSelect + `
WHERE l.deleted_at IS NULL AND l.status = 'SCHEDULED' AND l.day_of_week = $1
AND (l.teacher_id = $2 OR l.group_id = ANY($3))
ORDER BY l.start_minute, l.id`
	var lessons []models.GroupLessonDetail
	if err := sqlx.SelectContext(ctx, execOr(r.db, exec), &lessons, query, day, teacherID, pq.Array(groupIDs)); err != nil {
		return nil, fmt.Errorf("list group lesson conflict candidates: %w", err)
	}
	return lessons, nil
}

// ListByGroup returns every non-deleted slot of a group regardless of status.
func (r *GroupLessonRepository) ListByGroup(ctx context.Context, groupID string) ([]models.GroupLesson, error) {
	const query = `SELECT ` + lessonSlotColumns + `, l.group_id
FROM group_lessons l WHERE l.group_id = $1 AND l.deleted_at IS NULL ORDER BY l.effective_from`
	var lessons []models.GroupLesson
	if err := r.db.SelectContext(ctx, &lessons, query, groupID); err != nil {
		return nil, fmt.Errorf("list group lessons: %w", err)
	}
	return lessons, nil
}

// ListScheduledByGroups returns scheduled slots of the given groups using exec when provided.
func (r *GroupLessonRepository) ListScheduledByGroups(ctx context.Context, exec sqlx.ExtContext, groupIDs []string) ([]models.GroupLessonDetail, error) {
	if len(groupIDs) == 0 {
		return []models.GroupLessonDetail{}, nil
	}
	query := groupLessonSelect + `
WHERE l.group_id = ANY($1) AND l.deleted_at IS NULL AND l.status = 'SCHEDULED'
ORDER BY l.day_of_week, l.start_minute`
	var lessons []models.GroupLessonDetail
	if err := sqlx.SelectContext(ctx, execOr(r.db, exec), &lessons, query, pq.Array(groupIDs)); err != nil {
		return nil, fmt.Errorf("list group lessons by groups: %w", err)
	}
	return lessons, nil
}

// ListByTeacher returns scheduled group lessons taught by a teacher.
func (r *GroupLessonRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.GroupLessonDetail, error) {
	query := groupLessonSelect + `
WHERE l.teacher_id = $1 AND l.deleted_at IS NULL AND l.status = 'SCHEDULED'
ORDER BY l.day_of_week, l.start_minute`
	var lessons []models.GroupLessonDetail
	if err := r.db.SelectContext(ctx, &lessons, query, teacherID); err != nil {
		return nil, fmt.Errorf("list teacher group lessons: %w", err)
	}
	return lessons, nil
}

// SetStatus updates the group lesson status.
func (r *GroupLessonRepository) SetStatus(ctx context.Context, id string, status models.LessonStatus) error {
	return setLessonStatus(ctx, r.db, "group_lessons", id, status)
}

// AddCancelledDate records an exception date.
func (r *GroupLessonRepository) AddCancelledDate(ctx context.Context, id string, day time.Time) error {
	return addCancelledDate(ctx, r.db, "group_lessons", id, day)
}
