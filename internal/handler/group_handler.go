package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-lesson-scheduler/internal/dto"
	"github.com/noah-isme/sma-lesson-scheduler/internal/models"
	"github.com/noah-isme/sma-lesson-scheduler/pkg/response"
)

type groupService interface {
	CreateGroup(ctx context.Context, req dto.CreateGroupRequest) (*models.GroupDetail, error)
	GetGroup(ctx context.Context, id string) (*models.GroupDetail, error)
	AddGroupMember(ctx context.Context, groupID string, req dto.AddGroupMemberRequest) (*models.GroupMember, error)
	RemoveGroupMember(ctx context.Context, groupID, studentID string) error
}

type groupExpiryService interface {
	DeactivateExpiredGroups(ctx context.Context) (*models.ExpiryResult, error)
}

// GroupHandler exposes roster management endpoints.
type GroupHandler struct {
	groups groupService
	expiry groupExpiryService
}

// NewGroupHandler constructs the handler.
func NewGroupHandler(groups groupService, expiry groupExpiryService) *GroupHandler {
	return &GroupHandler{groups: groups, expiry: expiry}
}

// Create godoc
// @Summary Create a group
// @Tags Groups
// @Accept json
// @Produce json
// @Param payload body dto.CreateGroupRequest true "Group payload"
// @Success 201 {object} response.Envelope
// @Router /groups [post]
func (h *GroupHandler) Create(c *gin.Context) {
	var req dto.CreateGroupRequest
	if !bindJSON(c, &req, "group") {
		return
	}
	group, err := h.groups.CreateGroup(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, group)
}

// Get godoc
// @Summary Get a group with its active members
// @Tags Groups
// @Produce json
// @Param id path string true "Group ID"
// @Success 200 {object} response.Envelope
// @Router /groups/{id} [get]
func (h *GroupHandler) Get(c *gin.Context) {
	group, err := h.groups.GetGroup(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, group)
}

// AddMember godoc
// @Summary Add a student to a group
// @Tags Groups
// @Accept json
// @Produce json
// @Param id path string true "Group ID"
// @Param payload body dto.AddGroupMemberRequest true "Member payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /groups/{id}/members [post]
func (h *GroupHandler) AddMember(c *gin.Context) {
	var req dto.AddGroupMemberRequest
	if !bindJSON(c, &req, "member") {
		return
	}
	member, err := h.groups.AddGroupMember(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, member)
}

// RemoveMember godoc
// @Summary End a student's membership
// @Tags Groups
// @Param id path string true "Group ID"
// @Param studentId path string true "Student ID"
// @Success 204
// @Router /groups/{id}/members/{studentId} [delete]
func (h *GroupHandler) RemoveMember(c *gin.Context) {
	if err := h.groups.RemoveGroupMember(c.Request.Context(), c.Param("id"), c.Param("studentId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DeactivateExpired godoc
// @Summary Deactivate groups whose lessons have all ended
// @Tags Groups
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /groups/deactivate-expired [post]
func (h *GroupHandler) DeactivateExpired(c *gin.Context) {
	result, err := h.expiry.DeactivateExpiredGroups(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}
