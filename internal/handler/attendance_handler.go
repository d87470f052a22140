package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smkharapan/guru-ganti-api/internal/service"
	appErrors "github.com/smkharapan/guru-ganti-api/pkg/errors"
	"github.com/smkharapan/guru-ganti-api/pkg/response"
)

// AttendanceHandler wires the attendance ledger to HTTP routes.
type AttendanceHandler struct {
	attendance *service.AttendanceService
}

// NewAttendanceHandler constructs a new AttendanceHandler.
func NewAttendanceHandler(attendance *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

type attendanceRecordPayload struct {
	TeacherID string `json:"teacher_id"`
	Date      string `json:"date"`
	Present   bool   `json:"present"`
}

type attendanceBulkPayload struct {
	Records []attendanceRecordPayload `json:"records"`
}

// List godoc
// @Summary List attendance for a date
// @Tags Attendance
// @Produce json
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /attendance [get]
func (h *AttendanceHandler) List(c *gin.Context) {
	date, err := parseDate(c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}

	records, err := h.attendance.ListByDate(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// Record godoc
// @Summary Record one teacher's attendance
// @Description Upserts the (teacher, date) presence value. Marking a
// previously absent teacher present removes that teacher's replacements
// for the date.
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body attendanceRecordPayload true "Attendance payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /attendance [put]
func (h *AttendanceHandler) Record(c *gin.Context) {
	var payload attendanceRecordPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid attendance payload"))
		return
	}
	date, err := parseDate(payload.Date)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.attendance.Record(c.Request.Context(), service.RecordAttendanceRequest{
		TeacherID: payload.TeacherID,
		Date:      date,
		Present:   payload.Present,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	var meta map[string]interface{}
	if result.ReplacementsRemoved > 0 {
		meta = map[string]interface{}{
			"message": fmt.Sprintf("Attendance updated and %d replacement(s) removed", result.ReplacementsRemoved),
		}
	}
	response.JSON(c, http.StatusOK, result, nil, meta)
}

// RecordBulk godoc
// @Summary Record attendance for many teachers
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body attendanceBulkPayload true "Attendance batch"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /attendance/bulk [post]
func (h *AttendanceHandler) RecordBulk(c *gin.Context) {
	var payload attendanceBulkPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid attendance payload"))
		return
	}

	reqs := make([]service.RecordAttendanceRequest, 0, len(payload.Records))
	for _, record := range payload.Records {
		date, err := parseDate(record.Date)
		if err != nil {
			response.Error(c, err)
			return
		}
		reqs = append(reqs, service.RecordAttendanceRequest{
			TeacherID: record.TeacherID,
			Date:      date,
			Present:   record.Present,
		})
	}

	result, err := h.attendance.RecordBulk(c.Request.Context(), reqs)
	if err != nil {
		response.Error(c, err)
		return
	}

	var meta map[string]interface{}
	if result.ReplacementsRemoved > 0 {
		meta = map[string]interface{}{
			"message": fmt.Sprintf("Attendance updated and %d replacement(s) removed", result.ReplacementsRemoved),
		}
	}
	response.JSON(c, http.StatusOK, result, nil, meta)
}
