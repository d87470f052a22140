package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestScheduleHandlerDayRequiresDate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewScheduleHandler(nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/schedule/day", nil)
	c.Request = req

	handler.Day(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScheduleHandlerDayRejectsMalformedDate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewScheduleHandler(nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/schedule/day?date=07-09-2026", nil)
	c.Request = req

	handler.Day(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAttendanceHandlerRecordRejectsMalformedDate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAttendanceHandler(nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body := strings.NewReader(`{"teacher_id":"t-1","date":"next monday","present":false}`)
	req, _ := http.NewRequest(http.MethodPut, "/attendance", body)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Record(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReplacementHandlerAutoAssignRequiresDate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewReplacementHandler(nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/replacements/auto-assign", nil)
	c.Request = req

	handler.AutoAssign(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReplacementHandlerCreateRejectsInvalidJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewReplacementHandler(nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/replacements", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
