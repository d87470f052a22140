package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smkharapan/guru-ganti-api/internal/models"
	appErrors "github.com/smkharapan/guru-ganti-api/pkg/errors"
	"github.com/smkharapan/guru-ganti-api/pkg/config"
)

type replacementRepoStub struct {
	created   []models.AssignmentInput
	existing  map[string]struct{}
	details   []models.ReplacementDetail
	createErr error
	bulkErr   error
	deleted   int
}

func (s *replacementRepoStub) Create(ctx context.Context, input models.AssignmentInput) (*models.Replacement, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.created = append(s.created, input)
	return &models.Replacement{ID: "r-1", LessonID: input.LessonID}, nil
}

func (s *replacementRepoStub) CreateBulk(ctx context.Context, inputs []models.AssignmentInput) (int, error) {
	if s.bulkErr != nil {
		return 0, s.bulkErr
	}
	s.created = append(s.created, inputs...)
	return len(inputs), nil
}

func (s *replacementRepoStub) Delete(ctx context.Context, filter models.ReplacementFilter) (int, error) {
	return s.deleted, nil
}

func (s *replacementRepoStub) List(ctx context.Context, date *time.Time) ([]models.ReplacementDetail, error) {
	return s.details, nil
}

func (s *replacementRepoStub) FindDetail(ctx context.Context, id string) (*models.ReplacementDetail, error) {
	return &models.ReplacementDetail{Replacement: models.Replacement{ID: id}}, nil
}

func (s *replacementRepoStub) ListLessonIDs(ctx context.Context, date time.Time) (map[string]struct{}, error) {
	if s.existing == nil {
		return map[string]struct{}{}, nil
	}
	return s.existing, nil
}

type replacementLessonRepoStub struct {
	lessons    []models.LessonDetail
	startTimes map[string][]string
}

func (s *replacementLessonRepoStub) ListForDay(ctx context.Context, day models.DayOfWeek) ([]models.LessonDetail, error) {
	return s.lessons, nil
}

func (s *replacementLessonRepoStub) ListStartTimes(ctx context.Context, day models.DayOfWeek) (map[string][]string, error) {
	if s.startTimes == nil {
		return map[string][]string{}, nil
	}
	return s.startTimes, nil
}

type replacementAttendanceRepoStub struct {
	records []models.TeacherAttendance
}

func (s *replacementAttendanceRepoStub) ListByDate(ctx context.Context, date time.Time) ([]models.TeacherAttendance, error) {
	return s.records, nil
}

type replacementTeacherRepoStub struct {
	stats []models.TeacherStat
}

func (s *replacementTeacherRepoStub) ListStats(ctx context.Context) ([]models.TeacherStat, error) {
	return s.stats, nil
}

func dayLesson(id, teacherID, start, end string) models.LessonDetail {
	return models.LessonDetail{
		Lesson: models.Lesson{
			ID:        id,
			TeacherID: teacherID,
			Day:       models.DayMonday,
			StartTime: start,
			EndTime:   end,
		},
	}
}

func newReplacementService(
	repo *replacementRepoStub,
	lessons *replacementLessonRepoStub,
	attendance *replacementAttendanceRepoStub,
	teachers *replacementTeacherRepoStub,
) *ReplacementService {
	selector := NewSelectorService(config.SelectorConfig{}, nil)
	return NewReplacementService(repo, lessons, attendance, teachers, selector, nil, NewMetricsService(), validator.New(), nil)
}

func TestReplacementCreateRejectsSelfReplacement(t *testing.T) {
	svc := newReplacementService(&replacementRepoStub{}, &replacementLessonRepoStub{}, &replacementAttendanceRepoStub{}, &replacementTeacherRepoStub{})

	_, err := svc.Create(context.Background(), CreateReplacementRequest{
		LessonID:             "l-1",
		OriginalTeacherID:    "t-1",
		ReplacementTeacherID: "t-1",
		Date:                 time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestReplacementCreatePropagatesConflict(t *testing.T) {
	repo := &replacementRepoStub{createErr: appErrors.Clone(appErrors.ErrReplacementExists, "lesson already covered")}
	svc := newReplacementService(repo, &replacementLessonRepoStub{}, &replacementAttendanceRepoStub{}, &replacementTeacherRepoStub{})

	_, err := svc.Create(context.Background(), CreateReplacementRequest{
		LessonID:             "l-1",
		OriginalTeacherID:    "t-1",
		ReplacementTeacherID: "t-2",
		Date:                 time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrReplacementExists.Code, appErrors.FromError(err).Code)
}

func TestReplacementCreateBulkValidatesEveryTuple(t *testing.T) {
	repo := &replacementRepoStub{}
	svc := newReplacementService(repo, &replacementLessonRepoStub{}, &replacementAttendanceRepoStub{}, &replacementTeacherRepoStub{})

	date := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	_, err := svc.CreateBulk(context.Background(), []models.AssignmentInput{
		{LessonID: "l-1", OriginalTeacherID: "t-1", ReplacementTeacherID: "t-2", Date: date},
		{LessonID: "l-2", OriginalTeacherID: "t-1", ReplacementTeacherID: "", Date: date},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.created)
}

func TestAutoAssignOutsideWorkWeekIsNoOp(t *testing.T) {
	repo := &replacementRepoStub{}
	svc := newReplacementService(repo, &replacementLessonRepoStub{}, &replacementAttendanceRepoStub{}, &replacementTeacherRepoStub{})

	// 2026-09-04 is a Friday.
	result, err := svc.AutoAssign(context.Background(), time.Date(2026, 9, 4, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, result.NoOp)
	assert.Zero(t, result.Created)
	assert.Empty(t, repo.created)
}

func TestAutoAssignNoAbsencesIsNoOp(t *testing.T) {
	repo := &replacementRepoStub{}
	lessons := &replacementLessonRepoStub{lessons: []models.LessonDetail{dayLesson("l-1", "t-1", "08:00", "09:00")}}
	attendance := &replacementAttendanceRepoStub{records: []models.TeacherAttendance{{TeacherID: "t-1", Present: true}}}
	svc := newReplacementService(repo, lessons, attendance, &replacementTeacherRepoStub{})

	result, err := svc.AutoAssign(context.Background(), time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, result.NoOp)
	assert.Empty(t, repo.created)
}

func TestAutoAssignFillsAbsentLessonsWithBestCandidate(t *testing.T) {
	repo := &replacementRepoStub{}
	lessons := &replacementLessonRepoStub{
		lessons: []models.LessonDetail{
			dayLesson("l-1", "t-absent", "08:00", "09:00"),
			dayLesson("l-2", "t-absent", "10:00", "11:00"),
		},
	}
	attendance := &replacementAttendanceRepoStub{records: []models.TeacherAttendance{{TeacherID: "t-absent", Present: false}}}
	teachers := &replacementTeacherRepoStub{stats: []models.TeacherStat{
		{ID: "t-absent", Name: "Absent", WeeklyLessons: 5},
		{ID: "t-light", Name: "Light", WeeklyLessons: 2, PresentCount: 10, AttendanceCount: 10},
		{ID: "t-heavy", Name: "Heavy", WeeklyLessons: 20},
	}}
	svc := newReplacementService(repo, lessons, attendance, teachers)

	result, err := svc.AutoAssign(context.Background(), time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, result.NoOp)
	assert.Equal(t, 2, result.Created)
	require.Len(t, repo.created, 2)
	assert.Equal(t, "t-light", repo.created[0].ReplacementTeacherID)
	assert.Equal(t, "t-light", repo.created[1].ReplacementTeacherID)
	assert.Equal(t, "t-absent", repo.created[0].OriginalTeacherID)
}

func TestAutoAssignSkipsAlreadyReplacedLessons(t *testing.T) {
	repo := &replacementRepoStub{existing: map[string]struct{}{"l-1": {}}}
	lessons := &replacementLessonRepoStub{lessons: []models.LessonDetail{dayLesson("l-1", "t-absent", "08:00", "09:00")}}
	attendance := &replacementAttendanceRepoStub{records: []models.TeacherAttendance{{TeacherID: "t-absent", Present: false}}}
	teachers := &replacementTeacherRepoStub{stats: []models.TeacherStat{
		{ID: "t-absent", Name: "Absent"},
		{ID: "t-free", Name: "Free"},
	}}
	svc := newReplacementService(repo, lessons, attendance, teachers)

	result, err := svc.AutoAssign(context.Background(), time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	// Nothing needed replacing, so the pass is a no-op, not a skip.
	assert.True(t, result.NoOp)
	assert.Empty(t, repo.created)
}

func TestAutoAssignReportsUnfillableLessons(t *testing.T) {
	repo := &replacementRepoStub{}
	lessons := &replacementLessonRepoStub{
		lessons:    []models.LessonDetail{dayLesson("l-1", "t-absent", "08:00", "09:00")},
		startTimes: map[string][]string{"t-busy": {"08:00"}},
	}
	attendance := &replacementAttendanceRepoStub{records: []models.TeacherAttendance{{TeacherID: "t-absent", Present: false}}}
	teachers := &replacementTeacherRepoStub{stats: []models.TeacherStat{
		{ID: "t-absent", Name: "Absent"},
		{ID: "t-busy", Name: "Busy"},
	}}
	svc := newReplacementService(repo, lessons, attendance, teachers)

	result, err := svc.AutoAssign(context.Background(), time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, result.NoOp)
	assert.Zero(t, result.Created)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "l-1", result.Skipped[0].LessonID)
}

func TestAutoAssignNeverDoubleBooksWithinPass(t *testing.T) {
	repo := &replacementRepoStub{}
	// Two absent teachers hold lessons in the same slot; one substitute
	// cannot cover both.
	lessons := &replacementLessonRepoStub{
		lessons: []models.LessonDetail{
			dayLesson("l-1", "t-a1", "08:00", "09:00"),
			dayLesson("l-2", "t-a2", "08:00", "09:00"),
		},
	}
	attendance := &replacementAttendanceRepoStub{records: []models.TeacherAttendance{
		{TeacherID: "t-a1", Present: false},
		{TeacherID: "t-a2", Present: false},
	}}
	teachers := &replacementTeacherRepoStub{stats: []models.TeacherStat{
		{ID: "t-a1", Name: "AbsentOne"},
		{ID: "t-a2", Name: "AbsentTwo"},
		{ID: "t-s1", Name: "SubLight", WeeklyLessons: 1},
		{ID: "t-s2", Name: "SubHeavy", WeeklyLessons: 9},
	}}
	svc := newReplacementService(repo, lessons, attendance, teachers)

	result, err := svc.AutoAssign(context.Background(), time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)
	require.Len(t, repo.created, 2)
	assert.Equal(t, "t-s1", repo.created[0].ReplacementTeacherID)
	assert.Equal(t, "t-s2", repo.created[1].ReplacementTeacherID)
}

func TestReplacementExportPlanRejectsUnknownFormat(t *testing.T) {
	svc := newReplacementService(&replacementRepoStub{}, &replacementLessonRepoStub{}, &replacementAttendanceRepoStub{}, &replacementTeacherRepoStub{})

	_, _, _, err := svc.ExportPlan(context.Background(), time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC), "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestReplacementExportPlanCSV(t *testing.T) {
	repo := &replacementRepoStub{details: []models.ReplacementDetail{
		{
			Replacement:            models.Replacement{ID: "r-1", LessonID: "l-1"},
			OriginalTeacherName:    "Siti Rahma",
			ReplacementTeacherName: "Budi Santoso",
			SubjectName:            "Matematika",
			ClassName:              "X-1",
			StartTime:              "08:00",
			EndTime:                "09:00",
		},
	}}
	svc := newReplacementService(repo, &replacementLessonRepoStub{}, &replacementAttendanceRepoStub{}, &replacementTeacherRepoStub{})

	payload, contentType, filename, err := svc.ExportPlan(context.Background(), time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC), "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
	assert.Equal(t, "substitution-plan-2026-09-07.csv", filename)
	assert.Contains(t, string(payload), "Budi Santoso")
	assert.Contains(t, string(payload), "08:00 - 09:00")
}
