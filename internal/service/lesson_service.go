package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smkharapan/guru-ganti-api/internal/models"
	appErrors "github.com/smkharapan/guru-ganti-api/pkg/errors"
)

type lessonRepository interface {
	List(ctx context.Context, filter models.LessonFilter) ([]models.LessonDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.LessonDetail, error)
	ExistsOverlap(ctx context.Context, teacherID string, day models.DayOfWeek, startMinute, endMinute int, excludeID string) (bool, error)
	Create(ctx context.Context, lesson *models.Lesson) error
	Update(ctx context.Context, lesson *models.Lesson) error
	Delete(ctx context.Context, id string) error
}

// CreateLessonRequest carries the fields for scheduling a weekly lesson.
type CreateLessonRequest struct {
	Name      string `json:"name" validate:"required,min=2,max=150"`
	TeacherID string `json:"teacher_id" validate:"required"`
	SubjectID string `json:"subject_id" validate:"required"`
	ClassID   string `json:"class_id" validate:"required"`
	Day       string `json:"day_of_week" validate:"required"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
}

// UpdateLessonRequest carries partial updates; nil fields are untouched.
type UpdateLessonRequest struct {
	Name      *string `json:"name,omitempty" validate:"omitempty,min=2,max=150"`
	TeacherID *string `json:"teacher_id,omitempty"`
	SubjectID *string `json:"subject_id,omitempty"`
	ClassID   *string `json:"class_id,omitempty"`
	Day       *string `json:"day_of_week,omitempty"`
	StartTime *string `json:"start_time,omitempty"`
	EndTime   *string `json:"end_time,omitempty"`
}

// LessonService manages the weekly lesson grid. Writes enforce that a
// teacher never holds two overlapping slots on the same day.
type LessonService struct {
	repo      lessonRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLessonService constructs a LessonService.
func NewLessonService(repo lessonRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *LessonService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LessonService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns lessons matching the filter plus the unpaged total.
func (s *LessonService) List(ctx context.Context, filter models.LessonFilter) ([]models.LessonDetail, int, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	lessons, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lessons")
	}
	return lessons, total, nil
}

// Get returns one lesson with joined display fields.
func (s *LessonService) Get(ctx context.Context, id string) (*models.LessonDetail, error) {
	lesson, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}
	return lesson, nil
}

// Create schedules a new weekly lesson after checking the teacher's slot is
// free.
func (s *LessonService) Create(ctx context.Context, req CreateLessonRequest) (*models.LessonDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload")
	}

	day := models.DayOfWeek(req.Day)
	if !day.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "day_of_week must be SUNDAY through THURSDAY")
	}
	startMinute, endMinute, err := slotMinutes(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	if err := s.ensureSlotFree(ctx, req.TeacherID, day, startMinute, endMinute, ""); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	lesson := &models.Lesson{
		ID:        uuid.NewString(),
		Name:      req.Name,
		TeacherID: req.TeacherID,
		SubjectID: req.SubjectID,
		ClassID:   req.ClassID,
		Day:       day,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, lesson); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lesson")
	}

	s.cache.InvalidateAllSchedules(ctx)
	s.logger.Info("lesson created",
		zap.String("lesson_id", lesson.ID),
		zap.String("teacher_id", lesson.TeacherID),
		zap.String("day", string(lesson.Day)))
	return s.Get(ctx, lesson.ID)
}

// Update applies a partial update, rechecking the slot when the teacher,
// day or times change.
func (s *LessonService) Update(ctx context.Context, id string, req UpdateLessonRequest) (*models.LessonDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload")
	}

	detail, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	lesson := detail.Lesson

	slotChanged := false
	if req.Name != nil {
		lesson.Name = *req.Name
	}
	if req.TeacherID != nil && *req.TeacherID != lesson.TeacherID {
		lesson.TeacherID = *req.TeacherID
		slotChanged = true
	}
	if req.SubjectID != nil {
		lesson.SubjectID = *req.SubjectID
	}
	if req.ClassID != nil {
		lesson.ClassID = *req.ClassID
	}
	if req.Day != nil {
		day := models.DayOfWeek(*req.Day)
		if !day.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "day_of_week must be SUNDAY through THURSDAY")
		}
		if day != lesson.Day {
			lesson.Day = day
			slotChanged = true
		}
	}
	if req.StartTime != nil && *req.StartTime != lesson.StartTime {
		lesson.StartTime = *req.StartTime
		slotChanged = true
	}
	if req.EndTime != nil && *req.EndTime != lesson.EndTime {
		lesson.EndTime = *req.EndTime
		slotChanged = true
	}

	startMinute, endMinute, err := slotMinutes(lesson.StartTime, lesson.EndTime)
	if err != nil {
		return nil, err
	}
	if slotChanged {
		if err := s.ensureSlotFree(ctx, lesson.TeacherID, lesson.Day, startMinute, endMinute, lesson.ID); err != nil {
			return nil, err
		}
	}
	lesson.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, &lesson); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lesson")
	}

	s.cache.InvalidateAllSchedules(ctx)
	return s.Get(ctx, id)
}

// Delete removes a lesson from the weekly grid.
func (s *LessonService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete lesson")
	}
	s.cache.InvalidateAllSchedules(ctx)
	s.logger.Info("lesson deleted", zap.String("lesson_id", id))
	return nil
}

func (s *LessonService) ensureSlotFree(ctx context.Context, teacherID string, day models.DayOfWeek, startMinute, endMinute int, excludeID string) error {
	taken, err := s.repo.ExistsOverlap(ctx, teacherID, day, startMinute, endMinute, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check slot availability")
	}
	if taken {
		return appErrors.Clone(appErrors.ErrScheduleOverlap, "teacher already has a lesson overlapping this slot")
	}
	return nil
}

func slotMinutes(start, end string) (int, int, error) {
	startMinute, err := models.MinuteOfDay(start)
	if err != nil {
		return 0, 0, appErrors.Clone(appErrors.ErrValidation, "start_time must be HH:MM")
	}
	endMinute, err := models.MinuteOfDay(end)
	if err != nil {
		return 0, 0, appErrors.Clone(appErrors.ErrValidation, "end_time must be HH:MM")
	}
	if endMinute <= startMinute {
		return 0, 0, appErrors.Clone(appErrors.ErrValidation, "end_time must be after start_time")
	}
	return startMinute, endMinute, nil
}
