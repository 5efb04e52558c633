package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-lesson-scheduler/internal/dto"
	"github.com/noah-isme/sma-lesson-scheduler/internal/models"
	appErrors "github.com/noah-isme/sma-lesson-scheduler/pkg/errors"
	"github.com/noah-isme/sma-lesson-scheduler/pkg/response"
)

type availabilityService interface {
	Create(ctx context.Context, req dto.CreateAvailabilityRequest) (*models.AvailabilityWindow, error)
	List(ctx context.Context, query dto.AvailabilityQuery) ([]models.AvailabilityWindow, error)
	Delete(ctx context.Context, id string) error
}

type matcherService interface {
	FindMatchingSlots(ctx context.Context, query dto.MatchQuery) (*models.MatchResult, error)
}

// AvailabilityHandler exposes availability windows and slot matching.
type AvailabilityHandler struct {
	windows availabilityService
	matcher matcherService
}

// NewAvailabilityHandler constructs the handler.
func NewAvailabilityHandler(windows availabilityService, matcher matcherService) *AvailabilityHandler {
	return &AvailabilityHandler{windows: windows, matcher: matcher}
}

// Create godoc
// @Summary Declare a weekly availability window
// @Tags Availability
// @Accept json
// @Produce json
// @Param payload body dto.CreateAvailabilityRequest true "Window payload"
// @Success 201 {object} response.Envelope
// @Router /availability [post]
func (h *AvailabilityHandler) Create(c *gin.Context) {
	var req dto.CreateAvailabilityRequest
	if !bindJSON(c, &req, "availability") {
		return
	}
	window, err := h.windows.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, window)
}

// List godoc
// @Summary List an owner's availability windows
// @Tags Availability
// @Produce json
// @Param ownerKind query string true "STUDENT or TEACHER"
// @Param ownerId query string true "Owner ID"
// @Param dayOfWeek query int false "0 (Sunday) to 6 (Saturday)"
// @Param kind query string false "Window kind"
// @Success 200 {object} response.Envelope
// @Router /availability [get]
func (h *AvailabilityHandler) List(c *gin.Context) {
	var query dto.AvailabilityQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid availability query"))
		return
	}
	windows, err := h.windows.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, windows)
}

// Delete godoc
// @Summary Remove an availability window
// @Tags Availability
// @Param id path string true "Window ID"
// @Success 204
// @Router /availability/{id} [delete]
func (h *AvailabilityHandler) Delete(c *gin.Context) {
	if err := h.windows.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Matches godoc
// @Summary Find overlapping availability between a student and a teacher
// @Tags Availability
// @Produce json
// @Param studentId query string true "Student ID"
// @Param teacherId query string true "Teacher ID"
// @Param dayOfWeek query int false "0 (Sunday) to 6 (Saturday)"
// @Success 200 {object} response.Envelope
// @Router /matches [get]
func (h *AvailabilityHandler) Matches(c *gin.Context) {
	var query dto.MatchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid match query"))
		return
	}
	result, err := h.matcher.FindMatchingSlots(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}
