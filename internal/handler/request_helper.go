package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/sma-lesson-scheduler/pkg/errors"
	"github.com/noah-isme/sma-lesson-scheduler/pkg/response"
	"github.com/noah-isme/sma-lesson-scheduler/pkg/timeslot"
)

// bindJSON decodes the body into dst and writes a 400 on failure.
func bindJSON(c *gin.Context, dst interface{}, what string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid "+what+" payload"))
		return false
	}
	return true
}

func pickQuery(c *gin.Context, keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(c.Query(key)); v != "" {
			return v
		}
	}
	return ""
}

// weekStartQuery reads weekStart as YYYY-MM-DD. Absent means the current week.
func weekStartQuery(c *gin.Context) (*time.Time, bool) {
	raw := pickQuery(c, "weekStart", "week_start")
	if raw == "" {
		return nil, true
	}
	d, err := timeslot.ParseDate(raw)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "weekStart must be formatted as YYYY-MM-DD"))
		return nil, false
	}
	return &d, true
}
