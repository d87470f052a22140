package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/smkharapan/guru-ganti-api/internal/models"
	appErrors "github.com/smkharapan/guru-ganti-api/pkg/errors"
	"github.com/smkharapan/guru-ganti-api/pkg/export"
)

type replacementRepository interface {
	Create(ctx context.Context, input models.AssignmentInput) (*models.Replacement, error)
	CreateBulk(ctx context.Context, inputs []models.AssignmentInput) (int, error)
	Delete(ctx context.Context, filter models.ReplacementFilter) (int, error)
	List(ctx context.Context, date *time.Time) ([]models.ReplacementDetail, error)
	FindDetail(ctx context.Context, id string) (*models.ReplacementDetail, error)
	ListLessonIDs(ctx context.Context, date time.Time) (map[string]struct{}, error)
}

type replacementLessonRepository interface {
	ListForDay(ctx context.Context, day models.DayOfWeek) ([]models.LessonDetail, error)
	ListStartTimes(ctx context.Context, day models.DayOfWeek) (map[string][]string, error)
}

type replacementAttendanceRepository interface {
	ListByDate(ctx context.Context, date time.Time) ([]models.TeacherAttendance, error)
}

type replacementTeacherRepository interface {
	ListStats(ctx context.Context) ([]models.TeacherStat, error)
}

// CreateReplacementRequest assigns one substitute to one lesson instance.
type CreateReplacementRequest struct {
	LessonID             string    `json:"lesson_id" validate:"required"`
	OriginalTeacherID    string    `json:"original_teacher_id" validate:"required"`
	ReplacementTeacherID string    `json:"replacement_teacher_id" validate:"required"`
	Date                 time.Time `json:"-"`
}

// SkippedLesson reports a lesson auto-assign could not fill.
type SkippedLesson struct {
	LessonID  string `json:"lesson_id"`
	TeacherID string `json:"teacher_id"`
	Reason    string `json:"reason"`
}

// AutoAssignResult summarises one auto-assign pass. NoOp is true when no
// lesson needed a replacement at all, which is distinct from a pass that
// found gaps but no candidates.
type AutoAssignResult struct {
	Created int             `json:"created"`
	Skipped []SkippedLesson `json:"skipped,omitempty"`
	NoOp    bool            `json:"no_op"`
}

// ReplacementService owns the substitute assignment ledger and the
// admin-triggered auto-assign pass over a day's absences.
type ReplacementService struct {
	repo       replacementRepository
	lessons    replacementLessonRepository
	attendance replacementAttendanceRepository
	teachers   replacementTeacherRepository
	selector   *SelectorService
	cache      *CacheService
	metrics    *MetricsService
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewReplacementService constructs a ReplacementService.
func NewReplacementService(
	repo replacementRepository,
	lessons replacementLessonRepository,
	attendance replacementAttendanceRepository,
	teachers replacementTeacherRepository,
	selector *SelectorService,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *ReplacementService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReplacementService{
		repo:       repo,
		lessons:    lessons,
		attendance: attendance,
		teachers:   teachers,
		selector:   selector,
		cache:      cache,
		metrics:    metrics,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		validator:  validate,
		logger:     logger,
	}
}

// Create persists one assignment and returns it with joined display data.
func (s *ReplacementService) Create(ctx context.Context, req CreateReplacementRequest) (*models.ReplacementDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid replacement payload")
	}
	if req.Date.IsZero() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date is required")
	}
	if req.ReplacementTeacherID == req.OriginalTeacherID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "a teacher cannot replace themselves")
	}

	replacement, err := s.repo.Create(ctx, models.AssignmentInput{
		LessonID:             req.LessonID,
		OriginalTeacherID:    req.OriginalTeacherID,
		ReplacementTeacherID: req.ReplacementTeacherID,
		Date:                 req.Date,
	})
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign replacement")
	}

	s.metrics.RecordReplacementsCreated(1)
	s.cache.InvalidateDaySchedule(ctx, req.Date)

	detail, err := s.repo.FindDetail(ctx, replacement.ID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "replacement not found after create")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load replacement")
	}
	return detail, nil
}

// CreateBulk persists a batch of assignments all-or-nothing. Every tuple is
// validated before anything is written; a single conflicting (date, lesson)
// pair rejects the whole batch.
func (s *ReplacementService) CreateBulk(ctx context.Context, inputs []models.AssignmentInput) (int, error) {
	if len(inputs) == 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "assignments batch is empty")
	}
	for _, input := range inputs {
		if !input.Complete() {
			return 0, appErrors.Clone(appErrors.ErrValidation, "missing required fields in assignment")
		}
		if input.ReplacementTeacherID == input.OriginalTeacherID {
			return 0, appErrors.Clone(appErrors.ErrValidation, "a teacher cannot replace themselves")
		}
	}

	count, err := s.repo.CreateBulk(ctx, inputs)
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return 0, err
		}
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign replacements")
	}

	s.metrics.RecordReplacementsCreated(count)
	for _, input := range inputs {
		s.cache.InvalidateDaySchedule(ctx, input.Date)
	}
	return count, nil
}

// Delete removes assignments by filter and returns the count removed.
func (s *ReplacementService) Delete(ctx context.Context, filter models.ReplacementFilter) (int, error) {
	count, err := s.repo.Delete(ctx, filter)
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return 0, err
		}
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete replacements")
	}

	s.metrics.RecordReplacementsRemoved(count)
	if filter.Date != nil {
		s.cache.InvalidateDaySchedule(ctx, *filter.Date)
	} else {
		s.cache.InvalidateAllSchedules(ctx)
	}
	return count, nil
}

// List returns assignments with joined display data, optionally scoped to
// one date, newest first.
func (s *ReplacementService) List(ctx context.Context, date *time.Time) ([]models.ReplacementDetail, error) {
	details, err := s.repo.List(ctx, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list replacements")
	}
	return details, nil
}

// AutoAssign fills every uncovered lesson of absent teachers on the given
// date. Picks are batched through CreateBulk, so a race with a concurrent
// manual assignment fails the whole pass with a conflict and the caller
// retries.
func (s *ReplacementService) AutoAssign(ctx context.Context, date time.Time) (*AutoAssignResult, error) {
	day, ok := models.DayOfWeekForDate(date)
	if !ok {
		s.metrics.RecordAutoAssignRun("noop")
		return &AutoAssignResult{NoOp: true}, nil
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

	replaced, err := s.repo.ListLessonIDs(ctx, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load existing replacements")
	}

	stats, err := s.teachers.ListStats(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher stats")
	}

	busy, err := s.lessons.ListStartTimes(ctx, day)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher bookings")
	}

	snapshot := SelectorSnapshot{Stats: stats, Attendance: presentByTeacher, BusyStartTimes: busy}

	result := &AutoAssignResult{}
	var picks []models.AssignmentInput
	needed := 0
	for _, lesson := range lessons {
		presence, recorded := presentByTeacher[lesson.TeacherID]
		if !recorded || presence {
			continue
		}
		if _, done := replaced[lesson.ID]; done {
			continue
		}
		needed++

		best := s.selector.Pick(lesson.TeacherID, lesson.StartTime, snapshot)
		if best == nil {
			result.Skipped = append(result.Skipped, SkippedLesson{
				LessonID:  lesson.ID,
				TeacherID: lesson.TeacherID,
				Reason:    "no candidate available",
			})
			continue
		}
		picks = append(picks, models.AssignmentInput{
			LessonID:             lesson.ID,
			OriginalTeacherID:    lesson.TeacherID,
			ReplacementTeacherID: best.ID,
			Date:                 date,
		})
		// The pick now occupies this slot for the rest of the pass.
		snapshot.BusyStartTimes[best.ID] = append(snapshot.BusyStartTimes[best.ID], lesson.StartTime)
	}

	if needed == 0 {
		s.metrics.RecordAutoAssignRun("noop")
		result.NoOp = true
		return result, nil
	}

	if len(picks) > 0 {
		count, err := s.CreateBulk(ctx, picks)
		if err != nil {
			s.metrics.RecordAutoAssignRun("conflict")
			return nil, err
		}
		result.Created = count
	}

	s.metrics.RecordAutoAssignRun("created")
	s.logger.Info("auto-assign pass finished",
		zap.String("date", date.Format("2006-01-02")),
		zap.Int("created", result.Created),
		zap.Int("skipped", len(result.Skipped)))
	return result, nil
}

// ExportPlan renders the date's substitution plan as CSV or PDF.
func (s *ReplacementService) ExportPlan(ctx context.Context, date time.Time, format string) ([]byte, string, string, error) {
	details, err := s.List(ctx, &date)
	if err != nil {
		return nil, "", "", err
	}

	dataset := export.Dataset{
		Headers: []string{"Time", "Subject", "Class", "Absent Teacher", "Substitute"},
	}
	for _, d := range details {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Time":           fmt.Sprintf("%s - %s", d.StartTime, d.EndTime),
			"Subject":        d.SubjectName,
			"Class":          d.ClassName,
			"Absent Teacher": d.OriginalTeacherName,
			"Substitute":     d.ReplacementTeacherName,
		})
	}

	stamp := date.Format("2006-01-02")
	switch format {
	case "pdf":
		payload, err := s.pdf.Render(dataset, "Substitution Plan", stamp)
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return payload, "application/pdf", fmt.Sprintf("substitution-plan-%s.pdf", stamp), nil
	case "", "csv":
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return payload, "text/csv", fmt.Sprintf("substitution-plan-%s.csv", stamp), nil
	default:
		return nil, "", "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}
