package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-lesson-scheduler/internal/models"
)

const availabilityColumns = `id, owner_kind, student_id, teacher_id, day_of_week, start_minute, end_minute, kind, is_recurring, notes, created_at, deleted_at`

// AvailabilityRepository persists weekly availability windows.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository constructs the repository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// Create inserts a window.
func (r *AvailabilityRepository) Create(ctx context.Context, window *models.AvailabilityWindow) error {
	if window == nil {
		return fmt.Errorf("availability payload is nil")
	}
	if window.ID == "" {
		window.ID = uuid.NewString()
	}
	if window.CreatedAt.IsZero() {
		window.CreatedAt = time.Now().UTC()
	}
	const query = `
INSERT INTO availability_windows (id, owner_kind, student_id, teacher_id, day_of_week, start_minute, end_minute, kind, is_recurring, notes, created_at)
VALUES (:id, :owner_kind, :student_id, :teacher_id, :day_of_week, :start_minute, :end_minute, :kind, :is_recurring, :notes, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, window); err != nil {
		return fmt.Errorf("insert availability window: %w", err)
	}
	return nil
}

// FindByID returns a non-deleted window.
func (r *AvailabilityRepository) FindByID(ctx context.Context, id string) (*models.AvailabilityWindow, error) {
	var window models.AvailabilityWindow
	query := `SELECT ` + availabilityColumns + ` FROM availability_windows WHERE id = $1 AND deleted_at IS NULL`
	if err := r.db.GetContext(ctx, &window, query, id); err != nil {
		return nil, err
	}
	return &window, nil
}

// List returns non-deleted windows for an owner ordered by weekday and start.
func (r *AvailabilityRepository) List(ctx context.Context, filter models.AvailabilityFilter) ([]models.AvailabilityWindow, error) {
	conditions := []string{"deleted_at IS NULL"}
	var args []interface{}

	switch filter.OwnerKind {
	case models.OwnerStudent:
		args = append(args, filter.OwnerID)
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)))
	case models.OwnerTeacher:
		args = append(args, filter.OwnerID)
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)))
	default:
		return nil, fmt.Errorf("unknown owner kind %q", filter.OwnerKind)
	}
	if filter.DayOfWeek != nil {
		args = append(args, *filter.DayOfWeek)
		conditions = append(conditions, fmt.Sprintf("day_of_week = $%d", len(args)))
	}
	if filter.Kind != "" {
		args = append(args, filter.Kind)
		conditions = append(conditions, fmt.Sprintf("kind = $%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM availability_windows WHERE %s ORDER BY day_of_week, start_minute, id`,
		availabilityColumns, strings.Join(conditions, " AND "))
	var windows []models.AvailabilityWindow
	if err := r.db.SelectContext(ctx, &windows, query, args...); err != nil {
		return nil, fmt.Errorf("list availability windows: %w", err)
	}
	return windows, nil
}

// SoftDelete marks a window deleted. Returns sql.ErrNoRows when nothing matched.
func (r *AvailabilityRepository) SoftDelete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE availability_windows SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("soft delete availability window: %w", err)
	}
	return requireAffected(res)
}
