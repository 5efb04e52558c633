package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-lesson-scheduler/internal/dto"
	"github.com/noah-isme/sma-lesson-scheduler/internal/models"
	"github.com/noah-isme/sma-lesson-scheduler/pkg/response"
)

type groupLessonService interface {
	CheckGroupLessonConflicts(ctx context.Context, req dto.CheckGroupLessonRequest) (*models.ConflictReport, error)
	CreateGroupLesson(ctx context.Context, req dto.CreateGroupLessonRequest) (*models.GroupLessonDetail, error)
	GetGroupLesson(ctx context.Context, id string) (*models.GroupLessonDetail, error)
	CancelGroupLesson(ctx context.Context, id string, req dto.CancelLessonRequest) error
}

// GroupLessonHandler exposes group lesson endpoints.
type GroupLessonHandler struct {
	service groupLessonService
}

// NewGroupLessonHandler constructs the handler.
func NewGroupLessonHandler(service groupLessonService) *GroupLessonHandler {
	return &GroupLessonHandler{service: service}
}

// CheckConflicts godoc
// @Summary Check a group lesson pattern against the teacher and every member
// @Tags Group Lessons
// @Accept json
// @Produce json
// @Param id path string true "Group ID"
// @Param payload body dto.CheckGroupLessonRequest true "Pattern"
// @Success 200 {object} response.Envelope
// @Router /groups/{id}/lessons/conflicts [post]
func (h *GroupLessonHandler) CheckConflicts(c *gin.Context) {
	var req dto.CheckGroupLessonRequest
	if !bindJSON(c, &req, "group lesson") {
		return
	}
	req.GroupID = c.Param("id")
	report, err := h.service.CheckGroupLessonConflicts(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, report)
}

// Create godoc
// @Summary Schedule a recurring group lesson
// @Tags Group Lessons
// @Accept json
// @Produce json
// @Param id path string true "Group ID"
// @Param payload body dto.CreateGroupLessonRequest true "Lesson payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /groups/{id}/lessons [post]
func (h *GroupLessonHandler) Create(c *gin.Context) {
	var req dto.CreateGroupLessonRequest
	if !bindJSON(c, &req, "group lesson") {
		return
	}
	req.GroupID = c.Param("id")
	lesson, err := h.service.CreateGroupLesson(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, lesson)
}

// Get godoc
// @Summary Get a group lesson
// @Tags Group Lessons
// @Produce json
// @Param id path string true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Router /lessons/group/{id} [get]
func (h *GroupLessonHandler) Get(c *gin.Context) {
	lesson, err := h.service.GetGroupLesson(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, lesson)
}

// Cancel godoc
// @Summary Cancel a group lesson or one of its occurrences
// @Tags Group Lessons
// @Accept json
// @Param id path string true "Lesson ID"
// @Param payload body dto.CancelLessonRequest true "Cancellation"
// @Success 204
// @Router /lessons/group/{id}/cancel [post]
func (h *GroupLessonHandler) Cancel(c *gin.Context) {
	var req dto.CancelLessonRequest
	if !bindJSON(c, &req, "cancellation") {
		return
	}
	if err := h.service.CancelGroupLesson(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
