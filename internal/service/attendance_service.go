package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/smkharapan/guru-ganti-api/internal/models"
	appErrors "github.com/smkharapan/guru-ganti-api/pkg/errors"
)

type attendanceRepository interface {
	ListByDate(ctx context.Context, date time.Time) ([]models.TeacherAttendance, error)
	Upsert(ctx context.Context, teacherID string, date time.Time, present bool) (*models.AttendanceWriteResult, error)
}

// RecordAttendanceRequest is one presence write for a (teacher, date) pair.
type RecordAttendanceRequest struct {
	TeacherID string    `json:"teacher_id" validate:"required"`
	Date      time.Time `json:"-"`
	Present   bool      `json:"present"`
}

// AttendanceService owns the attendance ledger and the consistency rule
// attached to it: flipping a teacher from absent to present removes that
// teacher's replacements for the date. The removal happens inside the
// storage transaction; the result carries the count so callers can report
// "attendance updated and N replacement(s) removed".
type AttendanceService struct {
	repo      attendanceRepository
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs an AttendanceService.
func NewAttendanceService(repo attendanceRepository, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{repo: repo, cache: cache, metrics: metrics, validator: validate, logger: logger}
}

// ListByDate returns the ledger for one calendar date.
func (s *AttendanceService) ListByDate(ctx context.Context, date time.Time) ([]models.TeacherAttendance, error) {
	records, err := s.repo.ListByDate(ctx, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return records, nil
}

// Record upserts one attendance value and reconciles replacements.
func (s *AttendanceService) Record(ctx context.Context, req RecordAttendanceRequest) (*models.AttendanceWriteResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	if req.Date.IsZero() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date is required")
	}

	result, err := s.repo.Upsert(ctx, req.TeacherID, req.Date, req.Present)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save attendance")
	}

	if result.ReplacementsRemoved > 0 {
		s.metrics.RecordReplacementsRemoved(result.ReplacementsRemoved)
		s.logger.Info("removed replacements for present teacher",
			zap.String("teacher_id", req.TeacherID),
			zap.String("date", req.Date.Format("2006-01-02")),
			zap.Int("removed", result.ReplacementsRemoved))
	}
	s.cache.InvalidateDaySchedule(ctx, req.Date)

	return result, nil
}

// RecordBulk applies a batch of attendance writes. The consistency rule
// runs per record; removed counts accumulate. A failing record is reported
// in its slot without aborting the rest, matching the ledger's
// per-teacher granularity.
func (s *AttendanceService) RecordBulk(ctx context.Context, reqs []RecordAttendanceRequest) (*models.AttendanceBulkResult, error) {
	if len(reqs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "attendance batch is empty")
	}
	for _, req := range reqs {
		if req.TeacherID == "" || req.Date.IsZero() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "every record needs teacherId and date")
		}
	}

	result := &models.AttendanceBulkResult{}
	for _, req := range reqs {
		item := models.AttendanceBulkItem{TeacherID: req.TeacherID}
		written, err := s.repo.Upsert(ctx, req.TeacherID, req.Date, req.Present)
		if err != nil {
			s.logger.Error("bulk attendance record failed",
				zap.String("teacher_id", req.TeacherID),
				zap.Error(err))
			item.Error = appErrors.FromError(err).Message
		} else {
			item.Action = written.Action
			item.ReplacementsRemoved = written.ReplacementsRemoved
			result.ReplacementsRemoved += written.ReplacementsRemoved
		}
		result.Results = append(result.Results, item)

		s.cache.InvalidateDaySchedule(ctx, req.Date)
	}

	if result.ReplacementsRemoved > 0 {
		s.metrics.RecordReplacementsRemoved(result.ReplacementsRemoved)
	}
	return result, nil
}
