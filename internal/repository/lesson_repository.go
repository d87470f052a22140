package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/smkharapan/guru-ganti-api/internal/models"
)

const lessonDetailColumns = `l.id, l.name, l.teacher_id, l.subject_id, l.class_id, l.day_of_week,
	to_char(l.start_time, 'HH24:MI') AS start_time,
	to_char(l.end_time, 'HH24:MI') AS end_time,
	l.created_at, l.updated_at,
	t.name || ' ' || t.surname AS teacher_name,
	s.name AS subject_name,
	c.name AS class_name`

const lessonDetailJoins = `FROM lessons l
	JOIN teachers t ON t.id = l.teacher_id
	JOIN subjects s ON s.id = l.subject_id
	JOIN classes c ON c.id = l.class_id`

// LessonRepository manages persistence for weekly recurring lessons.
type LessonRepository struct {
	db *sqlx.DB
}

// NewLessonRepository constructs a LessonRepository.
func NewLessonRepository(db *sqlx.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

// List returns lesson detail rows matching filters along with total count.
func (r *LessonRepository) List(ctx context.Context, filter models.LessonFilter) ([]models.LessonDetail, int, error) {
	base := lessonDetailJoins + " WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("l.teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.SubjectID != "" {
		conditions = append(conditions, fmt.Sprintf("l.subject_id = $%d", len(args)+1))
		args = append(args, filter.SubjectID)
	}
	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("l.class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.Day != "" {
		conditions = append(conditions, fmt.Sprintf("l.day_of_week = $%d", len(args)+1))
		args = append(args, filter.Day)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY l.day_of_week %s, l.start_time %s LIMIT %d OFFSET %d", lessonDetailColumns, base, order, order, size, offset)
	var lessons []models.LessonDetail
	if err := r.db.SelectContext(ctx, &lessons, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list lessons: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count lessons: %w", err)
	}

	return lessons, total, nil
}

// FindByID fetches a lesson detail row by ID.
func (r *LessonRepository) FindByID(ctx context.Context, id string) (*models.LessonDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE l.id = $1", lessonDetailColumns, lessonDetailJoins)
	var lesson models.LessonDetail
	if err := r.db.GetContext(ctx, &lesson, query, id); err != nil {
		return nil, err
	}
	return &lesson, nil
}

// ListForDay returns every lesson scheduled on the given work day, ordered
// by start time then teacher name so the day view is deterministic.
func (r *LessonRepository) ListForDay(ctx context.Context, day models.DayOfWeek) ([]models.LessonDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE l.day_of_week = $1 ORDER BY l.start_time, t.name, t.surname", lessonDetailColumns, lessonDetailJoins)
	var lessons []models.LessonDetail
	if err := r.db.SelectContext(ctx, &lessons, query, day); err != nil {
		return nil, fmt.Errorf("list lessons for day: %w", err)
	}
	return lessons, nil
}

// ListStartTimes returns the lesson start times each teacher is booked for
// on the given day, keyed by teacher id. The selector uses it to rule out
// double-booking.
func (r *LessonRepository) ListStartTimes(ctx context.Context, day models.DayOfWeek) (map[string][]string, error) {
	const query = `SELECT teacher_id, to_char(start_time, 'HH24:MI') FROM lessons WHERE day_of_week = $1`
	rows, err := r.db.QueryxContext(ctx, query, day)
	if err != nil {
		return nil, fmt.Errorf("list lesson start times: %w", err)
	}
	defer rows.Close()

	busy := make(map[string][]string)
	for rows.Next() {
		var teacherID, start string
		if err := rows.Scan(&teacherID, &start); err != nil {
			return nil, fmt.Errorf("scan lesson start time: %w", err)
		}
		busy[teacherID] = append(busy[teacherID], start)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lesson start times: %w", err)
	}
	return busy, nil
}

// ExistsOverlap reports whether the teacher already owns a lesson on the
// given day whose [start, end) range intersects the provided one.
func (r *LessonRepository) ExistsOverlap(ctx context.Context, teacherID string, day models.DayOfWeek, startMinute, endMinute int, excludeID string) (bool, error) {
	query := `SELECT 1 FROM lessons
		WHERE teacher_id = $1 AND day_of_week = $2
		AND (EXTRACT(HOUR FROM start_time) * 60 + EXTRACT(MINUTE FROM start_time)) < $4
		AND (EXTRACT(HOUR FROM end_time) * 60 + EXTRACT(MINUTE FROM end_time)) > $3`
	args := []interface{}{teacherID, day, startMinute, endMinute}
	if excludeID != "" {
		query += " AND id <> $5"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check lesson overlap: %w", err)
	}
	return true, nil
}

// Create inserts a new lesson record.
func (r *LessonRepository) Create(ctx context.Context, lesson *models.Lesson) error {
	if lesson.ID == "" {
		lesson.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if lesson.CreatedAt.IsZero() {
		lesson.CreatedAt = now
	}
	lesson.UpdatedAt = now

	const query = `INSERT INTO lessons (id, name, teacher_id, subject_id, class_id, day_of_week, start_time, end_time, created_at, updated_at)
		VALUES (:id, :name, :teacher_id, :subject_id, :class_id, :day_of_week, :start_time, :end_time, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, lesson); err != nil {
		return fmt.Errorf("create lesson: %w", err)
	}
	return nil
}

// Update modifies an existing lesson record.
func (r *LessonRepository) Update(ctx context.Context, lesson *models.Lesson) error {
	lesson.UpdatedAt = time.Now().UTC()
	const query = `UPDATE lessons SET name = :name, teacher_id = :teacher_id, subject_id = :subject_id, class_id = :class_id, day_of_week = :day_of_week, start_time = :start_time, end_time = :end_time, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, lesson); err != nil {
		return fmt.Errorf("update lesson: %w", err)
	}
	return nil
}

// Delete removes a lesson record.
func (r *LessonRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM lessons WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete lesson: %w", err)
	}
	return nil
}
