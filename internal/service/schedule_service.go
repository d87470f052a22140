package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/smkharapan/guru-ganti-api/internal/models"
	appErrors "github.com/smkharapan/guru-ganti-api/pkg/errors"
)

type scheduleLessonRepository interface {
	ListForDay(ctx context.Context, day models.DayOfWeek) ([]models.LessonDetail, error)
}

type scheduleAttendanceRepository interface {
	ListByDate(ctx context.Context, date time.Time) ([]models.TeacherAttendance, error)
}

type scheduleReplacementRepository interface {
	ListLessonIDs(ctx context.Context, date time.Time) (map[string]struct{}, error)
}

type scheduleTeacherRepository interface {
	ListStats(ctx context.Context) ([]models.TeacherStat, error)
}

// ScheduleService projects the weekly lesson table onto one calendar date:
// lessons grouped by time slot, tagged with workload and absence signals.
// It is a pure read; the optional Redis cache holds the assembled view.
type ScheduleService struct {
	lessons      scheduleLessonRepository
	attendance   scheduleAttendanceRepository
	replacements scheduleReplacementRepository
	teachers     scheduleTeacherRepository
	cache        *CacheService
	logger       *zap.Logger
}

// NewScheduleService constructs a ScheduleService.
func NewScheduleService(
	lessons scheduleLessonRepository,
	attendance scheduleAttendanceRepository,
	replacements scheduleReplacementRepository,
	teachers scheduleTeacherRepository,
	cache *CacheService,
	logger *zap.Logger,
) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{
		lessons:      lessons,
		attendance:   attendance,
		replacements: replacements,
		teachers:     teachers,
		cache:        cache,
		logger:       logger,
	}
}

// DayView returns the full schedule for one calendar date. Friday and
// Saturday fall outside the school week and yield an empty view.
func (s *ScheduleService) DayView(ctx context.Context, date time.Time) (*models.DaySchedule, error) {
	day, ok := models.DayOfWeekForDate(date)
	if !ok {
		return &models.DaySchedule{Date: date, Slots: []models.ScheduleSlot{}}, nil
	}

	if s.cache.Enabled() {
		var cached models.DaySchedule
		hit, err := s.cache.Get(ctx, DayScheduleKey(date), &cached)
		if err == nil && hit {
			return &cached, nil
		}
	}

	lessons, err := s.lessons.ListForDay(ctx, day)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lessons for day")
	}

	attendance, err := s.attendance.ListByDate(ctx, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	presentByTeacher := make(map[string]bool, len(attendance))
	for _, record := range attendance {
		presentByTeacher[record.TeacherID] = record.Present
	}

	replaced, err := s.replacements.ListLessonIDs(ctx, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load replacements")
	}

	stats, err := s.teachers.ListStats(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher stats")
	}
	weeklyByTeacher := make(map[string]int, len(stats))
	for _, stat := range stats {
		weeklyByTeacher[stat.ID] = stat.WeeklyLessons
	}

	view := &models.DaySchedule{Date: date, Day: day, Slots: buildSlots(lessons, presentByTeacher, replaced, weeklyByTeacher)}

	if s.cache.Enabled() {
		s.cache.Set(ctx, DayScheduleKey(date), view)
	}
	return view, nil
}

// buildSlots groups day lessons by their [start, end) slot. The repository
// already orders lessons by start time then teacher name, so grouping keeps
// the view deterministic.
func buildSlots(lessons []models.LessonDetail, present map[string]bool, replaced map[string]struct{}, weekly map[string]int) []models.ScheduleSlot {
	slots := []models.ScheduleSlot{}
	index := map[string]int{}

	for _, lesson := range lessons {
		key := lesson.SlotKey()
		pos, ok := index[key]
		if !ok {
			pos = len(slots)
			index[key] = pos
			slots = append(slots, models.ScheduleSlot{StartTime: lesson.StartTime, EndTime: lesson.EndTime})
		}

		presence, recorded := present[lesson.TeacherID]
		_, hasReplacement := replaced[lesson.ID]
		slots[pos].Lessons = append(slots[pos].Lessons, models.ScheduledLesson{
			LessonID:       lesson.ID,
			TeacherID:      lesson.TeacherID,
			TeacherName:    lesson.TeacherName,
			SubjectName:    lesson.SubjectName,
			ClassName:      lesson.ClassName,
			WeeklyLessons:  weekly[lesson.TeacherID],
			IsAbsent:       recorded && !presence,
			HasReplacement: hasReplacement,
		})
	}

	return slots
}
