package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-lesson-scheduler/internal/models"
)

const lessonSlotColumns = `l.id, l.teacher_id, l.course_id, l.day_of_week, l.start_minute, l.end_minute,
l.effective_from, l.effective_to, l.classroom_id, l.status, l.is_recurring, l.cancelled_dates, l.notes,
l.created_at, l.updated_at, l.deleted_at`

func execOr(db *sqlx.DB, exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return db
}

func prepareSlot(slot *models.LessonSlot, now time.Time) {
	if slot.Status == "" {
		slot.Status = models.LessonStatusScheduled
	}
	if slot.CancelledDates == nil {
		slot.CancelledDates = models.DateSet{}
	}
	if slot.CreatedAt.IsZero() {
		slot.CreatedAt = now
	}
	slot.UpdatedAt = now
}

// setLessonStatus transitions a non-deleted slot. Re-applying the same status is a no-op success.
func setLessonStatus(ctx context.Context, exec sqlx.ExtContext, table, id string, status models.LessonStatus) error {
	query := fmt.Sprintf(`UPDATE %s SET status = $2, updated_at = $3 WHERE id = $1 AND deleted_at IS NULL`, table)
	res, err := exec.ExecContext(ctx, query, id, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update %s status: %w", table, err)
	}
	return requireAffected(res)
}

// addCancelledDate merges day into the slot's exception set atomically, keeping it sorted and unique.
func addCancelledDate(ctx context.Context, exec sqlx.ExtContext, table, id string, day time.Time) error {
	query := fmt.Sprintf(`UPDATE %s SET cancelled_dates = ARRAY(SELECT DISTINCT d FROM unnest(array_append(cancelled_dates, $2::date)) AS d ORDER BY d), updated_at = $3 WHERE id = $1 AND deleted_at IS NULL`, table)
	res, err := exec.ExecContext(ctx, query, id, day.Format("2006-01-02"), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("append %s cancelled date: %w", table, err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
