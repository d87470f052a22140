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

type teacherRepository interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	ExistsByEmail(ctx context.Context, email string, excludeID string) (bool, error)
	Create(ctx context.Context, teacher *models.Teacher) error
	Update(ctx context.Context, teacher *models.Teacher) error
	Deactivate(ctx context.Context, id string) error
	ListStats(ctx context.Context) ([]models.TeacherStat, error)
}

// CreateTeacherRequest carries the fields for registering a teacher.
type CreateTeacherRequest struct {
	Name    string  `json:"name" validate:"required,min=2,max=100"`
	Surname string  `json:"surname" validate:"max=100"`
	Email   string  `json:"email" validate:"required,email"`
	Phone   *string `json:"phone,omitempty"`
}

// UpdateTeacherRequest carries partial updates; nil fields are untouched.
type UpdateTeacherRequest struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Surname *string `json:"surname,omitempty" validate:"omitempty,max=100"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone   *string `json:"phone,omitempty"`
	Active  *bool   `json:"active,omitempty"`
}

// TeacherService manages the teacher roster.
type TeacherService struct {
	repo      teacherRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService constructs a TeacherService.
func NewTeacherService(repo teacherRepository, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, validator: validate, logger: logger}
}

// List returns teachers matching the filter plus the unpaged total.
func (s *TeacherService) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	teachers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	return teachers, total, nil
}

// Get returns one teacher by id.
func (s *TeacherService) Get(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return teacher, nil
}

// Create registers a new active teacher.
func (s *TeacherService) Create(ctx context.Context, req CreateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}

	taken, err := s.repo.ExistsByEmail(ctx, req.Email, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check teacher email")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a teacher with this email already exists")
	}

	now := time.Now().UTC()
	teacher := &models.Teacher{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Surname:   req.Surname,
		Email:     req.Email,
		Phone:     req.Phone,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher")
	}

	s.logger.Info("teacher created", zap.String("teacher_id", teacher.ID))
	return teacher, nil
}

// Update applies a partial update to a teacher.
func (s *TeacherService) Update(ctx context.Context, id string, req UpdateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}

	teacher, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil && *req.Email != teacher.Email {
		taken, err := s.repo.ExistsByEmail(ctx, *req.Email, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check teacher email")
		}
		if taken {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a teacher with this email already exists")
		}
		teacher.Email = *req.Email
	}
	if req.Name != nil {
		teacher.Name = *req.Name
	}
	if req.Surname != nil {
		teacher.Surname = *req.Surname
	}
	if req.Phone != nil {
		teacher.Phone = req.Phone
	}
	if req.Active != nil {
		teacher.Active = *req.Active
	}
	teacher.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update teacher")
	}
	return teacher, nil
}

// Deactivate soft-removes a teacher from the roster. Historical attendance
// and replacement rows keep referencing the record.
func (s *TeacherService) Deactivate(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate teacher")
	}
	s.logger.Info("teacher deactivated", zap.String("teacher_id", id))
	return nil
}

// ListStats returns per-teacher workload and reliability aggregates.
func (s *TeacherService) ListStats(ctx context.Context) ([]models.TeacherStat, error) {
	stats, err := s.repo.ListStats(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher stats")
	}
	return stats, nil
}
