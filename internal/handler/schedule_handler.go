package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smkharapan/guru-ganti-api/internal/service"
	"github.com/smkharapan/guru-ganti-api/pkg/response"
)

// ScheduleHandler serves the merged day schedule view.
type ScheduleHandler struct {
	schedules *service.ScheduleService
}

// NewScheduleHandler constructs a new ScheduleHandler.
func NewScheduleHandler(schedules *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules}
}

// Day godoc
// @Summary Day schedule with absence and replacement overlay
// @Description Returns the date's lessons grouped by time slot, each entry
// flagged with the owning teacher's absence and replacement status. Friday
// and Saturday return an empty schedule.
// @Tags Schedule
// @Produce json
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /schedule/day [get]
func (h *ScheduleHandler) Day(c *gin.Context) {
	date, err := parseDate(c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}

	view, err := h.schedules.DayView(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}
