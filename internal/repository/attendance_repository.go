package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/smkharapan/guru-ganti-api/internal/models"
)

// AttendanceRepository manages per-teacher, per-day presence records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs an AttendanceRepository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// ListByDate returns the attendance ledger for one calendar date.
func (r *AttendanceRepository) ListByDate(ctx context.Context, date time.Time) ([]models.TeacherAttendance, error) {
	const query = `SELECT id, teacher_id, date, present, created_at, updated_at
		FROM teacher_attendance WHERE date = $1 ORDER BY teacher_id`
	var records []models.TeacherAttendance
	if err := r.db.SelectContext(ctx, &records, query, date); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return records, nil
}

// FindByTeacherAndDate fetches the single record for a (teacher, date) pair.
func (r *AttendanceRepository) FindByTeacherAndDate(ctx context.Context, teacherID string, date time.Time) (*models.TeacherAttendance, error) {
	const query = `SELECT id, teacher_id, date, present, created_at, updated_at
		FROM teacher_attendance WHERE teacher_id = $1 AND date = $2`
	var record models.TeacherAttendance
	if err := r.db.GetContext(ctx, &record, query, teacherID, date); err != nil {
		return nil, err
	}
	return &record, nil
}

// Upsert writes the presence value for a (teacher, date) pair, keeping at
// most one row per pair. When the stored value flips from absent to present
// it also removes every replacement tied to that teacher on that date, in
// the same transaction, so a failed cleanup fails the attendance write.
// The result reports the action taken, the previous value and the number of
// replacements removed.
func (r *AttendanceRepository) Upsert(ctx context.Context, teacherID string, date time.Time, present bool) (*models.AttendanceWriteResult, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin attendance upsert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var existing models.TeacherAttendance
	err = tx.GetContext(ctx, &existing, `SELECT id, teacher_id, date, present, created_at, updated_at
		FROM teacher_attendance WHERE teacher_id = $1 AND date = $2 FOR UPDATE`, teacherID, date)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("lookup attendance: %w", err)
	}

	now := time.Now().UTC()
	result := &models.AttendanceWriteResult{}

	if err == sql.ErrNoRows {
		record := models.TeacherAttendance{
			ID:        uuid.NewString(),
			TeacherID: teacherID,
			Date:      date,
			Present:   present,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if _, err := tx.NamedExecContext(ctx, `INSERT INTO teacher_attendance (id, teacher_id, date, present, created_at, updated_at)
			VALUES (:id, :teacher_id, :date, :present, :created_at, :updated_at)`, record); err != nil {
			return nil, fmt.Errorf("insert attendance: %w", err)
		}
		result.Action = models.AttendanceCreated
		result.Record = &record
	} else {
		previous := existing.Present
		result.PreviousPresent = &previous

		if _, err := tx.ExecContext(ctx, `UPDATE teacher_attendance SET present = $2, updated_at = $3 WHERE id = $1`,
			existing.ID, present, now); err != nil {
			return nil, fmt.Errorf("update attendance: %w", err)
		}
		existing.Present = present
		existing.UpdatedAt = now
		result.Action = models.AttendanceUpdated
		result.Record = &existing

		if !previous && present {
			res, err := tx.ExecContext(ctx, `DELETE FROM teacher_replacements WHERE original_teacher_id = $1 AND date = $2`,
				teacherID, date)
			if err != nil {
				return nil, fmt.Errorf("remove replacements for present teacher: %w", err)
			}
			removed, err := res.RowsAffected()
			if err != nil {
				return nil, fmt.Errorf("count removed replacements: %w", err)
			}
			result.ReplacementsRemoved = int(removed)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit attendance upsert: %w", err)
	}
	return result, nil
}
