package dto

// CreateGroupRequest opens a new roster.
type CreateGroupRequest struct {
	Name        string `json:"name" validate:"required,max=120"`
	MaxCapacity *int   `json:"max_capacity" validate:"omitempty,min=1"`
}

// AddGroupMemberRequest enrols a student into a group.
type AddGroupMemberRequest struct {
	StudentID string `json:"student_id" validate:"required"`
}
