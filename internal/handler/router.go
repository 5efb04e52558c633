package handler

import "github.com/gin-gonic/gin"

// Handlers groups every HTTP handler mounted under the API prefix.
type Handlers struct {
	Availability *AvailabilityHandler
	Lessons      *LessonHandler
	GroupLessons *GroupLessonHandler
	Groups       *GroupHandler
	Calendar     *CalendarHandler
}

// RegisterRoutes mounts the scheduling API on api.
func RegisterRoutes(api gin.IRouter, h Handlers) {
	availability := api.Group("/availability")
	availability.POST("", h.Availability.Create)
	availability.GET("", h.Availability.List)
	availability.DELETE("/:id", h.Availability.Delete)
	api.GET("/matches", h.Availability.Matches)

	individual := api.Group("/lessons/individual")
	individual.POST("/conflicts", h.Lessons.CheckConflicts)
	individual.POST("", h.Lessons.Create)
	individual.GET("/:id", h.Lessons.Get)
	individual.POST("/:id/cancel", h.Lessons.Cancel)

	group := api.Group("/lessons/group")
	group.GET("/:id", h.GroupLessons.Get)
	group.POST("/:id/cancel", h.GroupLessons.Cancel)

	groups := api.Group("/groups")
	groups.POST("", h.Groups.Create)
	groups.POST("/deactivate-expired", h.Groups.DeactivateExpired)
	groups.GET("/:id", h.Groups.Get)
	groups.POST("/:id/members", h.Groups.AddMember)
	groups.DELETE("/:id/members/:studentId", h.Groups.RemoveMember)
	groups.POST("/:id/lessons/conflicts", h.GroupLessons.CheckConflicts)
	groups.POST("/:id/lessons", h.GroupLessons.Create)

	students := api.Group("/students/:id")
	students.GET("/calendar", h.Calendar.StudentCalendar)
	students.GET("/calendar/export", h.Calendar.StudentExport)
	students.GET("/lessons", h.Calendar.StudentLessons)

	teachers := api.Group("/teachers/:id")
	teachers.GET("/calendar", h.Calendar.TeacherCalendar)
	teachers.GET("/calendar/export", h.Calendar.TeacherExport)
	teachers.GET("/lessons", h.Calendar.TeacherLessons)
}

// RegisterOps mounts health, readiness and metrics endpoints at the root.
func RegisterOps(r gin.IRouter, h *MetricsHandler, metricsEnabled bool) {
	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)
	if metricsEnabled {
		r.GET("/metrics", h.Prometheus)
	}
}
