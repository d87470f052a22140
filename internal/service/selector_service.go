package service

import (
	"go.uber.org/zap"

	"github.com/smkharapan/guru-ganti-api/internal/models"
	"github.com/smkharapan/guru-ganti-api/pkg/config"
)

// SelectorSnapshot is the day-scoped state the selector ranks over. It is
// assembled once per request so selection itself stays a pure function.
type SelectorSnapshot struct {
	// Stats covers every active teacher with workload and history signals.
	Stats []models.TeacherStat
	// Attendance holds the explicit records for the target date. A teacher
	// missing from the map has no record for the day.
	Attendance map[string]bool
	// BusyStartTimes maps teacher id to the lesson start times they already
	// teach on the target day of week.
	BusyStartTimes map[string][]string
}

// SelectorService picks the best substitute for one absent teacher's lesson.
// Lower score wins: teachers with fewer weekly lessons and better historical
// attendance have more slack and are more reliable.
type SelectorService struct {
	cfg    config.SelectorConfig
	logger *zap.Logger
}

// NewSelectorService constructs a SelectorService.
func NewSelectorService(cfg config.SelectorConfig, logger *zap.Logger) *SelectorService {
	if cfg.LoadWeight == 0 && cfg.AbsenceWeight == 0 {
		cfg.LoadWeight = 0.6
		cfg.AbsenceWeight = 0.4
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SelectorService{cfg: cfg, logger: logger}
}

// Score computes the priority value used to rank candidates.
func (s *SelectorService) Score(stat models.TeacherStat) float64 {
	return s.cfg.LoadWeight*float64(stat.WeeklyLessons) + s.cfg.AbsenceWeight*(1-stat.AttendanceRate())
}

// Pick returns the best available substitute for the lesson starting at
// startTime, or nil when no candidate survives filtering. A nil result is a
// valid outcome, not an error.
func (s *SelectorService) Pick(originalTeacherID, startTime string, snap SelectorSnapshot) *models.TeacherStat {
	var best *models.TeacherStat
	var bestScore float64

	for i := range snap.Stats {
		stat := snap.Stats[i]
		if stat.ID == originalTeacherID {
			continue
		}

		present, recorded := snap.Attendance[stat.ID]
		if recorded && !present {
			continue
		}
		// Unrecorded attendance does not disqualify: unknown is treated as
		// available unless strict mode is on.
		if !recorded && s.cfg.StrictAttendance {
			continue
		}

		if hasLessonAt(snap.BusyStartTimes[stat.ID], startTime) {
			continue
		}

		score := s.Score(stat)
		if best == nil || score < bestScore || (score == bestScore && stat.DisplayName() < best.DisplayName()) {
			candidate := stat
			best = &candidate
			bestScore = score
		}
	}

	if best == nil {
		s.logger.Debug("no substitute candidate",
			zap.String("original_teacher_id", originalTeacherID),
			zap.String("start_time", startTime))
	}
	return best
}

func hasLessonAt(startTimes []string, startTime string) bool {
	for _, t := range startTimes {
		if t == startTime {
			return true
		}
	}
	return false
}
