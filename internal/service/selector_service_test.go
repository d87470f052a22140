package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smkharapan/guru-ganti-api/internal/models"
	"github.com/smkharapan/guru-ganti-api/pkg/config"
)

func newSelector(cfg config.SelectorConfig) *SelectorService {
	return NewSelectorService(cfg, nil)
}

func TestSelectorScoreWeighsLoadAndAbsence(t *testing.T) {
	selector := newSelector(config.SelectorConfig{LoadWeight: 0.6, AbsenceWeight: 0.4})

	// 10 weekly lessons, 8/10 present: 0.6*10 + 0.4*(1-0.8) = 6.08
	score := selector.Score(models.TeacherStat{WeeklyLessons: 10, PresentCount: 8, AttendanceCount: 10})
	assert.InDelta(t, 6.08, score, 1e-9)

	// No history counts as fully reliable: 0.6*5 + 0.4*0 = 3.0
	score = selector.Score(models.TeacherStat{WeeklyLessons: 5})
	assert.InDelta(t, 3.0, score, 1e-9)
}

func TestSelectorPicksLowestScore(t *testing.T) {
	selector := newSelector(config.SelectorConfig{})
	snap := SelectorSnapshot{
		Stats: []models.TeacherStat{
			{ID: "t-busy", Name: "Busy", WeeklyLessons: 20, PresentCount: 20, AttendanceCount: 20},
			{ID: "t-light", Name: "Light", WeeklyLessons: 2, PresentCount: 10, AttendanceCount: 10},
			{ID: "t-mid", Name: "Mid", WeeklyLessons: 8, PresentCount: 9, AttendanceCount: 10},
		},
		Attendance:     map[string]bool{},
		BusyStartTimes: map[string][]string{},
	}

	best := selector.Pick("t-absent", "08:00", snap)
	require.NotNil(t, best)
	assert.Equal(t, "t-light", best.ID)
}

func TestSelectorNeverPicksOriginalTeacher(t *testing.T) {
	selector := newSelector(config.SelectorConfig{})
	snap := SelectorSnapshot{
		Stats: []models.TeacherStat{
			{ID: "t-absent", Name: "Original", WeeklyLessons: 1},
			{ID: "t-other", Name: "Other", WeeklyLessons: 30},
		},
	}

	best := selector.Pick("t-absent", "08:00", snap)
	require.NotNil(t, best)
	assert.Equal(t, "t-other", best.ID)
}

func TestSelectorSkipsAbsentAndBusyCandidates(t *testing.T) {
	selector := newSelector(config.SelectorConfig{})
	snap := SelectorSnapshot{
		Stats: []models.TeacherStat{
			{ID: "t-absent-too", Name: "AbsentToo", WeeklyLessons: 1},
			{ID: "t-booked", Name: "Booked", WeeklyLessons: 2},
			{ID: "t-free", Name: "Free", WeeklyLessons: 15},
		},
		Attendance: map[string]bool{"t-absent-too": false},
		BusyStartTimes: map[string][]string{
			"t-booked": {"08:00", "10:00"},
		},
	}

	best := selector.Pick("t-orig", "08:00", snap)
	require.NotNil(t, best)
	assert.Equal(t, "t-free", best.ID)

	// A different slot frees the booked teacher, who scores lower.
	best = selector.Pick("t-orig", "09:00", snap)
	require.NotNil(t, best)
	assert.Equal(t, "t-booked", best.ID)
}

func TestSelectorUnrecordedAttendanceIsAvailable(t *testing.T) {
	selector := newSelector(config.SelectorConfig{})
	snap := SelectorSnapshot{
		Stats:      []models.TeacherStat{{ID: "t-unknown", Name: "Unknown", WeeklyLessons: 3}},
		Attendance: map[string]bool{},
	}

	best := selector.Pick("t-orig", "08:00", snap)
	require.NotNil(t, best)
	assert.Equal(t, "t-unknown", best.ID)
}

func TestSelectorStrictModeRequiresPresenceRecord(t *testing.T) {
	selector := newSelector(config.SelectorConfig{LoadWeight: 0.6, AbsenceWeight: 0.4, StrictAttendance: true})
	snap := SelectorSnapshot{
		Stats: []models.TeacherStat{
			{ID: "t-unknown", Name: "Unknown", WeeklyLessons: 1},
			{ID: "t-present", Name: "Present", WeeklyLessons: 10},
		},
		Attendance: map[string]bool{"t-present": true},
	}

	best := selector.Pick("t-orig", "08:00", snap)
	require.NotNil(t, best)
	assert.Equal(t, "t-present", best.ID)
}

func TestSelectorNilWhenNoCandidateSurvives(t *testing.T) {
	selector := newSelector(config.SelectorConfig{})
	snap := SelectorSnapshot{
		Stats:          []models.TeacherStat{{ID: "t-booked", Name: "Booked"}},
		BusyStartTimes: map[string][]string{"t-booked": {"08:00"}},
	}

	assert.Nil(t, selector.Pick("t-orig", "08:00", snap))
}

func TestSelectorTieBreaksByName(t *testing.T) {
	selector := newSelector(config.SelectorConfig{})
	snap := SelectorSnapshot{
		Stats: []models.TeacherStat{
			{ID: "t-b", Name: "Bram", WeeklyLessons: 4},
			{ID: "t-a", Name: "Anita", WeeklyLessons: 4},
		},
	}

	best := selector.Pick("t-orig", "08:00", snap)
	require.NotNil(t, best)
	assert.Equal(t, "t-a", best.ID)
}
