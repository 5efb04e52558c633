package models

import "time"

// Group is a persistent roster of students taught together.
type Group struct {
	ID          string     `db:"id" json:"id"`
	Name        string     `db:"name" json:"name"`
	MaxCapacity *int       `db:"max_capacity" json:"max_capacity,omitempty"`
	IsActive    bool       `db:"is_active" json:"is_active"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt   *time.Time `db:"deleted_at" json:"-"`
}

// IsDeleted reports a soft-deleted group.
func (g Group) IsDeleted() bool {
	return g.DeletedAt != nil
}

// GroupMember is one temporal membership of a student in a group.
type GroupMember struct {
	ID          string     `db:"id" json:"id"`
	GroupID     string     `db:"group_id" json:"group_id"`
	StudentID   string     `db:"student_id" json:"student_id"`
	StudentName string     `db:"student_name" json:"student_name"`
	JoinedAt    time.Time  `db:"joined_at" json:"joined_at"`
	LeftAt      *time.Time `db:"left_at" json:"left_at,omitempty"`
	IsActive    bool       `db:"is_active" json:"is_active"`
}

// GroupDetail bundles a group with its active roster.
type GroupDetail struct {
	Group
	Members []GroupMember `json:"members"`
}

// ExpiryResult reports the outcome of a deactivation sweep.
type ExpiryResult struct {
	Checked     int       `json:"checked"`
	Deactivated []string  `json:"deactivated"`
	RanAt       time.Time `json:"ran_at"`
}
