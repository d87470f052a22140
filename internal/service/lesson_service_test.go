package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smkharapan/guru-ganti-api/internal/models"
	appErrors "github.com/smkharapan/guru-ganti-api/pkg/errors"
)

type lessonRepoStub struct {
	lessons map[string]models.LessonDetail
	overlap bool
	created []models.Lesson
}

func (s *lessonRepoStub) List(ctx context.Context, filter models.LessonFilter) ([]models.LessonDetail, int, error) {
	var out []models.LessonDetail
	for _, l := range s.lessons {
		out = append(out, l)
	}
	return out, len(out), nil
}

func (s *lessonRepoStub) FindByID(ctx context.Context, id string) (*models.LessonDetail, error) {
	if lesson, ok := s.lessons[id]; ok {
		return &lesson, nil
	}
	return nil, sql.ErrNoRows
}

func (s *lessonRepoStub) ExistsOverlap(ctx context.Context, teacherID string, day models.DayOfWeek, startMinute, endMinute int, excludeID string) (bool, error) {
	return s.overlap, nil
}

func (s *lessonRepoStub) Create(ctx context.Context, lesson *models.Lesson) error {
	s.created = append(s.created, *lesson)
	if s.lessons == nil {
		s.lessons = map[string]models.LessonDetail{}
	}
	s.lessons[lesson.ID] = models.LessonDetail{Lesson: *lesson}
	return nil
}

func (s *lessonRepoStub) Update(ctx context.Context, lesson *models.Lesson) error {
	s.lessons[lesson.ID] = models.LessonDetail{Lesson: *lesson}
	return nil
}

func (s *lessonRepoStub) Delete(ctx context.Context, id string) error {
	delete(s.lessons, id)
	return nil
}

func validLessonRequest() CreateLessonRequest {
	return CreateLessonRequest{
		Name:      "Matematika X-1",
		TeacherID: "t-1",
		SubjectID: "s-1",
		ClassID:   "c-1",
		Day:       "MONDAY",
		StartTime: "08:00",
		EndTime:   "09:00",
	}
}

func TestLessonCreateRejectsOverlappingSlot(t *testing.T) {
	repo := &lessonRepoStub{overlap: true}
	svc := NewLessonService(repo, nil, validator.New(), nil)

	_, err := svc.Create(context.Background(), validLessonRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrScheduleOverlap.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.created)
}

func TestLessonCreateRejectsInvalidDayAndTimes(t *testing.T) {
	svc := NewLessonService(&lessonRepoStub{}, nil, validator.New(), nil)

	req := validLessonRequest()
	req.Day = "FRIDAY"
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	req = validLessonRequest()
	req.EndTime = "08:00"
	_, err = svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestLessonCreateStoresFreeSlot(t *testing.T) {
	repo := &lessonRepoStub{}
	svc := NewLessonService(repo, nil, validator.New(), nil)

	lesson, err := svc.Create(context.Background(), validLessonRequest())
	require.NoError(t, err)
	assert.Equal(t, models.DayMonday, lesson.Day)
	assert.Len(t, repo.created, 1)
}

func TestLessonUpdateRechecksSlotOnTimeChange(t *testing.T) {
	repo := &lessonRepoStub{lessons: map[string]models.LessonDetail{
		"l-1": {Lesson: models.Lesson{
			ID: "l-1", Name: "Matematika X-1", TeacherID: "t-1", SubjectID: "s-1", ClassID: "c-1",
			Day: models.DayMonday, StartTime: "08:00", EndTime: "09:00",
		}},
	}}
	svc := NewLessonService(repo, nil, validator.New(), nil)

	repo.overlap = true
	start := "10:00"
	end := "11:00"
	_, err := svc.Update(context.Background(), "l-1", UpdateLessonRequest{StartTime: &start, EndTime: &end})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrScheduleOverlap.Code, appErrors.FromError(err).Code)

	// A rename alone skips the slot check.
	repo.overlap = true
	name := "Matematika X-1 (ganjil)"
	updated, err := svc.Update(context.Background(), "l-1", UpdateLessonRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
}

func TestLessonGetUnknownIsNotFound(t *testing.T) {
	svc := NewLessonService(&lessonRepoStub{}, nil, validator.New(), nil)

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
