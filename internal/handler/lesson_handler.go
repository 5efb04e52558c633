package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-lesson-scheduler/internal/dto"
	"github.com/noah-isme/sma-lesson-scheduler/internal/models"
	"github.com/noah-isme/sma-lesson-scheduler/pkg/response"
)

type individualLessonService interface {
	CheckIndividualLessonConflicts(ctx context.Context, req dto.CreateIndividualLessonRequest) (*models.ConflictReport, error)
	CreateIndividualLesson(ctx context.Context, req dto.CreateIndividualLessonRequest) (*models.IndividualLessonDetail, error)
	GetIndividualLesson(ctx context.Context, id string) (*models.IndividualLessonDetail, error)
	CancelLesson(ctx context.Context, id string, req dto.CancelLessonRequest) error
}

// LessonHandler exposes individual lesson endpoints.
type LessonHandler struct {
	service individualLessonService
}

// NewLessonHandler constructs the handler.
func NewLessonHandler(service individualLessonService) *LessonHandler {
	return &LessonHandler{service: service}
}

// CheckConflicts godoc
// @Summary Check an individual lesson pattern for conflicts
// @Tags Lessons
// @Accept json
// @Produce json
// @Param payload body dto.CreateIndividualLessonRequest true "Lesson payload"
// @Success 200 {object} response.Envelope
// @Router /lessons/individual/conflicts [post]
func (h *LessonHandler) CheckConflicts(c *gin.Context) {
	var req dto.CreateIndividualLessonRequest
	if !bindJSON(c, &req, "lesson") {
		return
	}
	report, err := h.service.CheckIndividualLessonConflicts(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, report)
}

// Create godoc
// @Summary Schedule a recurring individual lesson
// @Tags Lessons
// @Accept json
// @Produce json
// @Param payload body dto.CreateIndividualLessonRequest true "Lesson payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /lessons/individual [post]
func (h *LessonHandler) Create(c *gin.Context) {
	var req dto.CreateIndividualLessonRequest
	if !bindJSON(c, &req, "lesson") {
		return
	}
	lesson, err := h.service.CreateIndividualLesson(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, lesson)
}

// Get godoc
// @Summary Get an individual lesson
// @Tags Lessons
// @Produce json
// @Param id path string true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Router /lessons/individual/{id} [get]
func (h *LessonHandler) Get(c *gin.Context) {
	lesson, err := h.service.GetIndividualLesson(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, lesson)
}

// Cancel godoc
// @Summary Cancel an individual lesson or one of its occurrences
// @Tags Lessons
// @Accept json
// @Param id path string true "Lesson ID"
// @Param payload body dto.CancelLessonRequest true "Cancellation"
// @Success 204
// @Router /lessons/individual/{id}/cancel [post]
func (h *LessonHandler) Cancel(c *gin.Context) {
	var req dto.CancelLessonRequest
	if !bindJSON(c, &req, "cancellation") {
		return
	}
	if err := h.service.CancelLesson(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
