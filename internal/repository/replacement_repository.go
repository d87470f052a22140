package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/smkharapan/guru-ganti-api/internal/models"
	appErrors "github.com/smkharapan/guru-ganti-api/pkg/errors"
)

const pqUniqueViolation = "23505"

const replacementDetailColumns = `r.id, r.date, r.lesson_id, r.original_teacher_id, r.replacement_teacher_id, r.created_at,
	ot.name || ' ' || ot.surname AS original_teacher_name,
	rt.name || ' ' || rt.surname AS replacement_teacher_name,
	s.name AS subject_name,
	c.name AS class_name,
	to_char(l.start_time, 'HH24:MI') AS start_time,
	to_char(l.end_time, 'HH24:MI') AS end_time`

const replacementDetailJoins = `FROM teacher_replacements r
	JOIN teachers ot ON ot.id = r.original_teacher_id
	JOIN teachers rt ON rt.id = r.replacement_teacher_id
	JOIN lessons l ON l.id = r.lesson_id
	JOIN subjects s ON s.id = l.subject_id
	JOIN classes c ON c.id = l.class_id`

// ReplacementRepository manages the day-scoped substitute assignment ledger.
// Uniqueness of (date, lesson_id) is enforced by a database unique index so
// concurrent create attempts race safely: exactly one wins, the loser sees
// a conflict.
type ReplacementRepository struct {
	db *sqlx.DB
}

// NewReplacementRepository constructs a ReplacementRepository.
func NewReplacementRepository(db *sqlx.DB) *ReplacementRepository {
	return &ReplacementRepository{db: db}
}

// Create inserts one assignment. A unique violation on (date, lesson_id)
// maps to a conflict error rather than an internal failure.
func (r *ReplacementRepository) Create(ctx context.Context, input models.AssignmentInput) (*models.Replacement, error) {
	replacement := models.Replacement{
		ID:                   uuid.NewString(),
		Date:                 input.Date,
		LessonID:             input.LessonID,
		OriginalTeacherID:    input.OriginalTeacherID,
		ReplacementTeacherID: input.ReplacementTeacherID,
		CreatedAt:            time.Now().UTC(),
	}

	const query = `INSERT INTO teacher_replacements (id, date, lesson_id, original_teacher_id, replacement_teacher_id, created_at)
		VALUES (:id, :date, :lesson_id, :original_teacher_id, :replacement_teacher_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, replacement); err != nil {
		if isUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrReplacementExists, "")
		}
		return nil, fmt.Errorf("create replacement: %w", err)
	}
	return &replacement, nil
}

// CreateBulk inserts a batch of assignments in a single transaction. The
// whole batch is rejected when any tuple's (date, lesson_id) already has an
// assignment; nothing is persisted in that case.
func (r *ReplacementRepository) CreateBulk(ctx context.Context, inputs []models.AssignmentInput) (int, error) {
	if len(inputs) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin bulk replacement insert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	// Aggregate conflict check in one query over every (date, lesson_id) pair.
	var pairs []string
	var args []interface{}
	for _, input := range inputs {
		pairs = append(pairs, fmt.Sprintf("(date = $%d AND lesson_id = $%d)", len(args)+1, len(args)+2))
		args = append(args, input.Date, input.LessonID)
	}
	checkQuery := "SELECT COUNT(*) FROM teacher_replacements WHERE " + strings.Join(pairs, " OR ")
	var existing int
	if err := tx.GetContext(ctx, &existing, checkQuery, args...); err != nil {
		return 0, fmt.Errorf("check existing replacements: %w", err)
	}
	if existing > 0 {
		return 0, appErrors.Clone(appErrors.ErrReplacementExists, "some replacements already exist")
	}

	now := time.Now().UTC()
	const insertQuery = `INSERT INTO teacher_replacements (id, date, lesson_id, original_teacher_id, replacement_teacher_id, created_at)
		VALUES (:id, :date, :lesson_id, :original_teacher_id, :replacement_teacher_id, :created_at)`
	for _, input := range inputs {
		replacement := models.Replacement{
			ID:                   uuid.NewString(),
			Date:                 input.Date,
			LessonID:             input.LessonID,
			OriginalTeacherID:    input.OriginalTeacherID,
			ReplacementTeacherID: input.ReplacementTeacherID,
			CreatedAt:            now,
		}
		if _, err := tx.NamedExecContext(ctx, insertQuery, replacement); err != nil {
			if isUniqueViolation(err) {
				return 0, appErrors.Clone(appErrors.ErrReplacementExists, "some replacements already exist")
			}
			return 0, fmt.Errorf("insert replacement: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit bulk replacement insert: %w", err)
	}
	return len(inputs), nil
}

// Delete removes every assignment matching the filter and returns the count.
// An empty filter is refused to avoid wiping the ledger.
func (r *ReplacementRepository) Delete(ctx context.Context, filter models.ReplacementFilter) (int, error) {
	if filter.Empty() {
		return 0, appErrors.Clone(appErrors.ErrValidation, "at least one of teacherId, date or lessonId is required")
	}

	query := "DELETE FROM teacher_replacements WHERE 1=1"
	var args []interface{}

	if filter.OriginalTeacherID != "" {
		query += fmt.Sprintf(" AND original_teacher_id = $%d", len(args)+1)
		args = append(args, filter.OriginalTeacherID)
	}
	if filter.Date != nil {
		query += fmt.Sprintf(" AND date = $%d", len(args)+1)
		args = append(args, *filter.Date)
	}
	if filter.LessonID != "" {
		query += fmt.Sprintf(" AND lesson_id = $%d", len(args)+1)
		args = append(args, filter.LessonID)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete replacements: %w", err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted replacements: %w", err)
	}
	return int(count), nil
}

// List returns assignment detail rows, optionally scoped to one date,
// newest first.
func (r *ReplacementRepository) List(ctx context.Context, date *time.Time) ([]models.ReplacementDetail, error) {
	query := fmt.Sprintf("SELECT %s %s", replacementDetailColumns, replacementDetailJoins)
	var args []interface{}
	if date != nil {
		query += " WHERE r.date = $1"
		args = append(args, *date)
	}
	query += " ORDER BY r.date DESC, r.created_at DESC"

	var details []models.ReplacementDetail
	if err := r.db.SelectContext(ctx, &details, query, args...); err != nil {
		return nil, fmt.Errorf("list replacements: %w", err)
	}
	return details, nil
}

// FindDetail fetches one assignment with joined display data.
func (r *ReplacementRepository) FindDetail(ctx context.Context, id string) (*models.ReplacementDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE r.id = $1", replacementDetailColumns, replacementDetailJoins)
	var detail models.ReplacementDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListLessonIDs returns the set of lessons that already have an assignment
// on the given date. Auto-assign uses it to skip filled gaps.
func (r *ReplacementRepository) ListLessonIDs(ctx context.Context, date time.Time) (map[string]struct{}, error) {
	const query = `SELECT lesson_id FROM teacher_replacements WHERE date = $1`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, date); err != nil {
		return nil, fmt.Errorf("list replaced lessons: %w", err)
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqUniqueViolation
	}
	return false
}
