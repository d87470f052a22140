package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smkharapan/guru-ganti-api/internal/models"
)

type scheduleLessonRepoStub struct {
	lessons []models.LessonDetail
}

func (s *scheduleLessonRepoStub) ListForDay(ctx context.Context, day models.DayOfWeek) ([]models.LessonDetail, error) {
	return s.lessons, nil
}

type scheduleAttendanceRepoStub struct {
	records []models.TeacherAttendance
}

func (s *scheduleAttendanceRepoStub) ListByDate(ctx context.Context, date time.Time) ([]models.TeacherAttendance, error) {
	return s.records, nil
}

type scheduleReplacementRepoStub struct {
	replaced map[string]struct{}
}

func (s *scheduleReplacementRepoStub) ListLessonIDs(ctx context.Context, date time.Time) (map[string]struct{}, error) {
	if s.replaced == nil {
		return map[string]struct{}{}, nil
	}
	return s.replaced, nil
}

type scheduleTeacherRepoStub struct {
	stats []models.TeacherStat
}

func (s *scheduleTeacherRepoStub) ListStats(ctx context.Context) ([]models.TeacherStat, error) {
	return s.stats, nil
}

func slotLesson(id, teacherID, teacherName, start, end string) models.LessonDetail {
	return models.LessonDetail{
		Lesson: models.Lesson{
			ID:        id,
			TeacherID: teacherID,
			StartTime: start,
			EndTime:   end,
		},
		TeacherName: teacherName,
	}
}

func TestScheduleDayViewOutsideWorkWeekIsEmpty(t *testing.T) {
	svc := NewScheduleService(&scheduleLessonRepoStub{}, &scheduleAttendanceRepoStub{}, &scheduleReplacementRepoStub{}, &scheduleTeacherRepoStub{}, nil, nil)

	// 2026-09-05 is a Saturday.
	view, err := svc.DayView(context.Background(), time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, view.Slots)
}

func TestScheduleDayViewGroupsLessonsBySlot(t *testing.T) {
	lessons := &scheduleLessonRepoStub{lessons: []models.LessonDetail{
		slotLesson("l-1", "t-1", "Anita", "08:00", "09:00"),
		slotLesson("l-2", "t-2", "Budi", "08:00", "09:00"),
		slotLesson("l-3", "t-1", "Anita", "10:00", "11:00"),
	}}
	svc := NewScheduleService(lessons, &scheduleAttendanceRepoStub{}, &scheduleReplacementRepoStub{}, &scheduleTeacherRepoStub{}, nil, nil)

	view, err := svc.DayView(context.Background(), time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, models.DayMonday, view.Day)
	require.Len(t, view.Slots, 2)
	assert.Equal(t, "08:00", view.Slots[0].StartTime)
	assert.Len(t, view.Slots[0].Lessons, 2)
	assert.Equal(t, "10:00", view.Slots[1].StartTime)
	assert.Len(t, view.Slots[1].Lessons, 1)
}

func TestScheduleDayViewFlagsAbsenceAndReplacement(t *testing.T) {
	lessons := &scheduleLessonRepoStub{lessons: []models.LessonDetail{
		slotLesson("l-1", "t-absent", "Anita", "08:00", "09:00"),
		slotLesson("l-2", "t-covered", "Budi", "08:00", "09:00"),
		slotLesson("l-3", "t-unknown", "Citra", "08:00", "09:00"),
	}}
	attendance := &scheduleAttendanceRepoStub{records: []models.TeacherAttendance{
		{TeacherID: "t-absent", Present: false},
		{TeacherID: "t-covered", Present: false},
	}}
	replacements := &scheduleReplacementRepoStub{replaced: map[string]struct{}{"l-2": {}}}
	teachers := &scheduleTeacherRepoStub{stats: []models.TeacherStat{
		{ID: "t-absent", WeeklyLessons: 12},
	}}
	svc := NewScheduleService(lessons, attendance, replacements, teachers, nil, nil)

	view, err := svc.DayView(context.Background(), time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, view.Slots, 1)
	entries := view.Slots[0].Lessons
	require.Len(t, entries, 3)

	assert.True(t, entries[0].IsAbsent)
	assert.False(t, entries[0].HasReplacement)
	assert.Equal(t, 12, entries[0].WeeklyLessons)

	assert.True(t, entries[1].IsAbsent)
	assert.True(t, entries[1].HasReplacement)

	// No record on file means not absent.
	assert.False(t, entries[2].IsAbsent)
}
