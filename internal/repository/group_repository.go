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

const groupColumns = `id, name, max_capacity, is_active, created_at, updated_at, deleted_at`

const memberSelect = `SELECT m.id, m.group_id, m.student_id, s.full_name AS student_name, m.joined_at, m.left_at, m.is_active
FROM group_members m JOIN students s ON s.id = m.student_id`

// GroupRepository persists groups and their temporal memberships.
type GroupRepository struct {
	db *sqlx.DB
}

// NewGroupRepository constructs the repository.
func NewGroupRepository(db *sqlx.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// Create inserts a group.
func (r *GroupRepository) Create(ctx context.Context, group *models.Group) error {
	if group == nil {
		return fmt.Errorf("group payload is nil")
	}
	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if group.CreatedAt.IsZero() {
		group.CreatedAt = now
	}
	group.UpdatedAt = now
	const query = `
INSERT INTO groups (id, name, max_capacity, is_active, created_at, updated_at)
VALUES (:id, :name, :max_capacity, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, group); err != nil {
		return fmt.Errorf("insert group: %w", err)
	}
	return nil
}

// FindByID returns a non-deleted group.
func (r *GroupRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Group, error) {
	var group models.Group
	if err := sqlx.GetContext(ctx, execOr(r.db, exec), &group, `SELECT `+groupColumns+` FROM groups WHERE id = $1 AND deleted_at IS NULL`, id); err != nil {
		return nil, err
	}
	return &group, nil
}

// ListActive returns active, non-deleted groups.
func (r *GroupRepository) ListActive(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	if err := r.db.SelectContext(ctx, &groups, `SELECT `+groupColumns+` FROM groups WHERE is_active AND deleted_at IS NULL ORDER BY created_at, id`); err != nil {
		return nil, fmt.Errorf("list active groups: %w", err)
	}
	return groups, nil
}

// Deactivate flips an active group to inactive and reports whether it changed.
func (r *GroupRepository) Deactivate(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE groups SET is_active = FALSE, updated_at = $2 WHERE id = $1 AND is_active AND deleted_at IS NULL`, id, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("deactivate group: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ListActiveMembers returns the current roster.
func (r *GroupRepository) ListActiveMembers(ctx context.Context, exec sqlx.ExtContext, groupID string) ([]models.GroupMember, error) {
	var members []models.GroupMember
	query := memberSelect + ` WHERE m.group_id = $1 AND m.is_active AND s.deleted_at IS NULL ORDER BY s.full_name, m.student_id`
	if err := sqlx.SelectContext(ctx, execOr(r.db, exec), &members, query, groupID); err != nil {
		return nil, fmt.Errorf("list group members: %w", err)
	}
	return members, nil
}

// ListActiveMemberships returns active memberships of the given students in active groups.
func (r *GroupRepository) ListActiveMemberships(ctx context.Context, exec sqlx.ExtContext, studentIDs []string) ([]models.GroupMember, error) {
	if len(studentIDs) == 0 {
		return []models.GroupMember{}, nil
	}
	query := memberSelect + `
JOIN groups g ON g.id = m.group_id
WHERE m.student_id = ANY($1) AND m.is_active AND g.is_active AND g.deleted_at IS NULL
ORDER BY m.student_id, m.group_id`
	var members []models.GroupMember
	if err := sqlx.SelectContext(ctx, execOr(r.db, exec), &members, query, pq.Array(studentIDs)); err != nil {
		return nil, fmt.Errorf("list student memberships: %w", err)
	}
	return members, nil
}

// CountActiveMembers counts the current roster.
func (r *GroupRepository) CountActiveMembers(ctx context.Context, exec sqlx.ExtContext, groupID string) (int, error) {
	var count int
	if err := sqlx.GetContext(ctx, execOr(r.db, exec), &count, `SELECT COUNT(*) FROM group_members WHERE group_id = $1 AND is_active`, groupID); err != nil {
		return 0, fmt.Errorf("count group members: %w", err)
	}
	return count, nil
}

// FindActiveMember returns the active membership of a student, sql.ErrNoRows when absent.
func (r *GroupRepository) FindActiveMember(ctx context.Context, exec sqlx.ExtContext, groupID, studentID string) (*models.GroupMember, error) {
	var member models.GroupMember
	query := memberSelect + ` WHERE m.group_id = $1 AND m.student_id = $2 AND m.is_active`
	if err := sqlx.GetContext(ctx, execOr(r.db, exec), &member, query, groupID, studentID); err != nil {
		return nil, err
	}
	return &member, nil
}

// AddMember inserts a new membership row.
func (r *GroupRepository) AddMember(ctx context.Context, exec sqlx.ExtContext, member *models.GroupMember) error {
	if member == nil {
		return fmt.Errorf("member payload is nil")
	}
	if member.ID == "" {
		member.ID = uuid.NewString()
	}
	member.IsActive = true
	const query = `
INSERT INTO group_members (id, group_id, student_id, joined_at, left_at, is_active)
VALUES (:id, :group_id, :student_id, :joined_at, :left_at, :is_active)`
	if _, err := sqlx.NamedExecContext(ctx, execOr(r.db, exec), query, member); err != nil {
		return fmt.Errorf("insert group member: %w", err)
	}
	return nil
}

// EndMembership closes the active membership. Returns sql.ErrNoRows when none is active.
func (r *GroupRepository) EndMembership(ctx context.Context, groupID, studentID string, leftAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE group_members SET is_active = FALSE, left_at = $3 WHERE group_id = $1 AND student_id = $2 AND is_active`,
		groupID, studentID, leftAt.Format("2006-01-02"))
	if err != nil {
		return fmt.Errorf("end group membership: %w", err)
	}
	return requireAffected(res)
}
