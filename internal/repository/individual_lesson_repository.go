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

const individualLessonSelect = `SELECT ` + lessonSlotColumns + `, l.student_id,
s.full_name AS student_name, t.full_name AS teacher_name, c.name AS course_name, r.name AS classroom_name
FROM individual_lessons l
JOIN students s ON s.id = l.student_id
JOIN teachers t ON t.id = l.teacher_id
JOIN courses c ON c.id = l.course_id
LEFT JOIN classrooms r ON r.id = l.classroom_id`

// IndividualLessonRepository persists one-to-one recurring lessons.
type IndividualLessonRepository struct {
	db *sqlx.DB
}

// NewIndividualLessonRepository constructs the repository.
func NewIndividualLessonRepository(db *sqlx.DB) *IndividualLessonRepository {
	return &IndividualLessonRepository{db: db}
}

// Create inserts a lesson using exec when provided.
func (r *IndividualLessonRepository) Create(ctx context.Context, exec sqlx.ExtContext, lesson *models.IndividualLesson) error {
	if lesson == nil {
		return fmt.Errorf("lesson payload is nil")
	}
	if lesson.ID == "" {
		lesson.ID = uuid.NewString()
	}
	prepareSlot(&lesson.LessonSlot, time.Now().UTC())

	const query = `
INSERT INTO individual_lessons (id, student_id, teacher_id, course_id, day_of_week, start_minute, end_minute,
effective_from, effective_to, classroom_id, status, is_recurring, cancelled_dates, notes, created_at, updated_at)
VALUES (:id, :student_id, :teacher_id, :course_id, :day_of_week, :start_minute, :end_minute,
:effective_from, :effective_to, :classroom_id, :status, :is_recurring, :cancelled_dates, :notes, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, execOr(r.db, exec), query, lesson); err != nil {
		return fmt.Errorf("insert individual lesson: %w", err)
	}
	return nil
}

// FindByID returns a non-deleted lesson with display names.
func (r *IndividualLessonRepository) FindByID(ctx context.Context, id string) (*models.IndividualLessonDetail, error) {
	var lesson models.IndividualLessonDetail
	if err := r.db.GetContext(ctx, &lesson, individualLessonSelect+` WHERE l.id = $1 AND l.deleted_at IS NULL`, id); err != nil {
		return nil, err
	}
	return &lesson, nil
}

// ListConflictCandidates returns scheduled lessons on day that involve the teacher or any of the students.
func (r *IndividualLessonRepository) ListConflictCandidates(ctx context.Context, exec sqlx.ExtContext, teacherID string, studentIDs []string, day int) ([]models.IndividualLessonDetail, error) {
	if studentIDs == nil {
		studentIDs = []string{}
	}
	query := individualLessonSelect + `
WHERE l.deleted_at IS NULL AND l.status = 'SCHEDULED' AND l.day_of_week = $1
AND (l.teacher_id = $2 OR l.student_id = ANY($3))
ORDER BY l.start_minute, l.id`
	var lessons []models.IndividualLessonDetail
	if err := sqlx.SelectContext(ctx, execOr(r.db, exec), &lessons, query, day, teacherID, pq.Array(studentIDs)); err != nil {
		return nil, fmt.Errorf("list individual lesson conflict candidates: %w", err)
	}
	return lessons, nil
}

// ListByStudent returns scheduled lessons of a student.
func (r *IndividualLessonRepository) ListByStudent(ctx context.Context, studentID string) ([]models.IndividualLessonDetail, error) {
	return r.list(ctx, `l.student_id = $1`, studentID)
}

// ListByTeacher returns scheduled lessons of a teacher.
func (r *IndividualLessonRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.IndividualLessonDetail, error) {
	return r.list(ctx, `l.teacher_id = $1`, teacherID)
}

func (r *IndividualLessonRepository) list(ctx context.Context, condition, id string) ([]models.IndividualLessonDetail, error) {
	query := individualLessonSelect + `
WHERE ` + condition + ` AND l.deleted_at IS NULL AND l.status = 'SCHEDULED'
ORDER BY l.day_of_week, l.start_minute`
	var lessons []models.IndividualLessonDetail
	if err := r.db.SelectContext(ctx, &lessons, query, id); err != nil {
		return nil, fmt.Errorf("list individual lessons: %w", err)
	}
	return lessons, nil
}

// SetStatus updates the lesson status.
func (r *IndividualLessonRepository) SetStatus(ctx context.Context, id string, status models.LessonStatus) error {
	return setLessonStatus(ctx, r.db, "individual_lessons", id, status)
}

// AddCancelledDate records an exception date.
func (r *IndividualLessonRepository) AddCancelledDate(ctx context.Context, id string, day time.Time) error {
	return addCancelledDate(ctx, r.db, "individual_lessons", id, day)
}
