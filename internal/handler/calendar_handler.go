package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-lesson-scheduler/internal/middleware"
	"github.com/noah-isme/sma-lesson-scheduler/internal/models"
	"github.com/noah-isme/sma-lesson-scheduler/internal/service"
	"github.com/noah-isme/sma-lesson-scheduler/pkg/response"
)

type calendarService interface {
	GetStudentWeeklyCalendar(ctx context.Context, studentID string, weekStart *time.Time) (*models.WeeklyCalendar, error)
	GetTeacherWeeklyCalendar(ctx context.Context, teacherID string, weekStart *time.Time) (*models.WeeklyCalendar, error)
	ExportWeeklyCalendar(ctx context.Context, kind models.OwnerKind, id string, weekStart *time.Time, format string) (*service.ExportFile, error)
	ListLessons(ctx context.Context, kind models.OwnerKind, id string) (*models.LessonOverview, error)
}

// CalendarHandler exposes weekly calendars and lesson listings for students and teachers.
type CalendarHandler struct {
	service calendarService
}

// NewCalendarHandler constructs the handler.
func NewCalendarHandler(service calendarService) *CalendarHandler {
	return &CalendarHandler{service: service}
}

// StudentCalendar godoc
// @Summary Weekly calendar for a student
// @Tags Calendar
// @Produce json
// @Param id path string true "Student ID"
// @Param weekStart query string false "Any date in the week (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/calendar [get]
func (h *CalendarHandler) StudentCalendar(c *gin.Context) {
	weekStart, ok := weekStartQuery(c)
	if !ok {
		return
	}
	cal, err := h.service.GetStudentWeeklyCalendar(c.Request.Context(), c.Param("id"), weekStart)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respondCalendar(c, cal)
}

// TeacherCalendar godoc
// @Summary Weekly calendar for a teacher
// @Tags Calendar
// @Produce json
// @Param id path string true "Teacher ID"
// @Param weekStart query string false "Any date in the week (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/calendar [get]
func (h *CalendarHandler) TeacherCalendar(c *gin.Context) {
	weekStart, ok := weekStartQuery(c)
	if !ok {
		return
	}
	cal, err := h.service.GetTeacherWeeklyCalendar(c.Request.Context(), c.Param("id"), weekStart)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respondCalendar(c, cal)
}

func (h *CalendarHandler) respondCalendar(c *gin.Context, cal *models.WeeklyCalendar) {
	middleware.MarkCacheHit(c, cal.CacheHit)
	response.OK(c, cal, middleware.Meta(c))
}

// StudentExport godoc
// @Summary Download a student's weekly calendar
// @Tags Calendar
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Student ID"
// @Param weekStart query string false "Any date in the week (YYYY-MM-DD)"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /students/{id}/calendar/export [get]
func (h *CalendarHandler) StudentExport(c *gin.Context) {
	h.export(c, models.OwnerStudent)
}

// TeacherExport godoc
// @Summary Download a teacher's weekly calendar
// @Tags Calendar
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Teacher ID"
// @Param weekStart query string false "Any date in the week (YYYY-MM-DD)"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /teachers/{id}/calendar/export [get]
func (h *CalendarHandler) TeacherExport(c *gin.Context) {
	h.export(c, models.OwnerTeacher)
}

func (h *CalendarHandler) export(c *gin.Context, kind models.OwnerKind) {
	weekStart, ok := weekStartQuery(c)
	if !ok {
		return
	}
	format := c.DefaultQuery("format", "csv")
	file, err := h.service.ExportWeeklyCalendar(c.Request.Context(), kind, c.Param("id"), weekStart, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

// StudentLessons godoc
// @Summary Scheduled lessons of a student
// @Tags Calendar
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/lessons [get]
func (h *CalendarHandler) StudentLessons(c *gin.Context) {
	h.lessons(c, models.OwnerStudent)
}

// TeacherLessons godoc
// @Summary Scheduled lessons of a teacher
// @Tags Calendar
// @Produce json
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/lessons [get]
func (h *CalendarHandler) TeacherLessons(c *gin.Context) {
	h.lessons(c, models.OwnerTeacher)
}

func (h *CalendarHandler) lessons(c *gin.Context, kind models.OwnerKind) {
	overview, err := h.service.ListLessons(c.Request.Context(), kind, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, overview)
}
