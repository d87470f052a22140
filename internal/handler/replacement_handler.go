package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smkharapan/guru-ganti-api/internal/models"
	"github.com/smkharapan/guru-ganti-api/internal/service"
	appErrors "github.com/smkharapan/guru-ganti-api/pkg/errors"
	"github.com/smkharapan/guru-ganti-api/pkg/response"
)

// ReplacementHandler wires the substitute assignment ledger to HTTP routes.
type ReplacementHandler struct {
	replacements *service.ReplacementService
}

// NewReplacementHandler constructs a new ReplacementHandler.
func NewReplacementHandler(replacements *service.ReplacementService) *ReplacementHandler {
	return &ReplacementHandler{replacements: replacements}
}

type replacementPayload struct {
	LessonID             string `json:"lesson_id"`
	OriginalTeacherID    string `json:"original_teacher_id"`
	ReplacementTeacherID string `json:"replacement_teacher_id"`
	Date                 string `json:"date"`
}

type replacementBulkPayload struct {
	Assignments []replacementPayload `json:"assignments"`
}

// List godoc
// @Summary List replacement assignments
// @Tags Replacements
// @Produce json
// @Param date query string false "Scope to one date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /replacements [get]
func (h *ReplacementHandler) List(c *gin.Context) {
	date, err := parseOptionalDate(c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}

	details, err := h.replacements.List(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, details, nil)
}

// Create godoc
// @Summary Assign a substitute to one lesson
// @Tags Replacements
// @Accept json
// @Produce json
// @Param payload body replacementPayload true "Replacement payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /replacements [post]
func (h *ReplacementHandler) Create(c *gin.Context) {
	var payload replacementPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid replacement payload"))
		return
	}
	date, err := parseDate(payload.Date)
	if err != nil {
		response.Error(c, err)
		return
	}

	detail, err := h.replacements.Create(c.Request.Context(), service.CreateReplacementRequest{
		LessonID:             payload.LessonID,
		OriginalTeacherID:    payload.OriginalTeacherID,
		ReplacementTeacherID: payload.ReplacementTeacherID,
		Date:                 date,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, detail)
}

// CreateBulk godoc
// @Summary Assign substitutes in one all-or-nothing batch
// @Tags Replacements
// @Accept json
// @Produce json
// @Param payload body replacementBulkPayload true "Replacement batch"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /replacements/bulk [post]
func (h *ReplacementHandler) CreateBulk(c *gin.Context) {
	var payload replacementBulkPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid replacement payload"))
		return
	}

	inputs := make([]models.AssignmentInput, 0, len(payload.Assignments))
	for _, a := range payload.Assignments {
		date, err := parseDate(a.Date)
		if err != nil {
			response.Error(c, err)
			return
		}
		inputs = append(inputs, models.AssignmentInput{
			LessonID:             a.LessonID,
			OriginalTeacherID:    a.OriginalTeacherID,
			ReplacementTeacherID: a.ReplacementTeacherID,
			Date:                 date,
		})
	}

	count, err := h.replacements.CreateBulk(c.Request.Context(), inputs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, gin.H{"created": count}, nil)
}

// Delete godoc
// @Summary Delete replacement assignments by filter
// @Description Removes assignments matching the query filter. At least one
// of teacher_id, lesson_id or date must be given.
// @Tags Replacements
// @Produce json
// @Param teacher_id query string false "Original teacher"
// @Param lesson_id query string false "Lesson"
// @Param date query string false "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /replacements [delete]
func (h *ReplacementHandler) Delete(c *gin.Context) {
	date, err := parseOptionalDate(c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	filter := models.ReplacementFilter{
		OriginalTeacherID: c.Query("teacher_id"),
		LessonID:          c.Query("lesson_id"),
		Date:              date,
	}

	count, err := h.replacements.Delete(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"removed": count}, nil)
}

// AutoAssign godoc
// @Summary Auto-assign substitutes for a date's absences
// @Description Picks the best available substitute for every uncovered
// lesson of every absent teacher on the date. Lessons with no available
// candidate are reported as skipped.
// @Tags Replacements
// @Produce json
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /replacements/auto-assign [post]
func (h *ReplacementHandler) AutoAssign(c *gin.Context) {
	date, err := parseDate(c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.replacements.AutoAssign(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Export godoc
// @Summary Export the date's substitution plan
// @Tags Replacements
// @Produce text/csv
// @Produce application/pdf
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /replacements/export [get]
func (h *ReplacementHandler) Export(c *gin.Context) {
	date, err := parseDate(c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}

	payload, contentType, filename, err := h.replacements.ExportPlan(c.Request.Context(), date, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, payload)
}
