package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smkharapan/guru-ganti-api/internal/models"
)

func newAttendanceRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAttendanceRepositoryListByDate(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	date := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "teacher_id", "date", "present", "created_at", "updated_at"}).
		AddRow("a1", "t1", date, false, time.Now(), time.Now())
	mock.ExpectQuery("SELECT id, teacher_id, date, present, created_at, updated_at").
		WithArgs(date).
		WillReturnRows(rows)

	records, err := repo.ListByDate(context.Background(), date)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.False(t, records[0].Present)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryUpsertCreates(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	date := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, teacher_id, date, present, created_at, updated_at").
		WithArgs("t1", date).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec("INSERT INTO teacher_attendance").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	result, err := repo.Upsert(context.Background(), "t1", date, false)
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceCreated, result.Action)
	assert.Nil(t, result.PreviousPresent)
	assert.Zero(t, result.ReplacementsRemoved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryUpsertAbsentToPresentRemovesReplacements(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	date := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, teacher_id, date, present, created_at, updated_at").
		WithArgs("t1", date).
		WillReturnRows(sqlmock.NewRows([]string{"id", "teacher_id", "date", "present", "created_at", "updated_at"}).
			AddRow("a1", "t1", date, false, time.Now(), time.Now()))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE teacher_attendance SET present = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("a1", true, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM teacher_replacements WHERE original_teacher_id = $1 AND date = $2")).
		WithArgs("t1", date).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	result, err := repo.Upsert(context.Background(), "t1", date, true)
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceUpdated, result.Action)
	require.NotNil(t, result.PreviousPresent)
	assert.False(t, *result.PreviousPresent)
	assert.Equal(t, 2, result.ReplacementsRemoved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryUpsertPresentToAbsentKeepsReplacements(t *testing.T) {
	db, mock, cleanup := newAttendanceRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	date := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, teacher_id, date, present, created_at, updated_at").
		WithArgs("t1", date).
		WillReturnRows(sqlmock.NewRows([]string{"id", "teacher_id", "date", "present", "created_at", "updated_at"}).
			AddRow("a1", "t1", date, true, time.Now(), time.Now()))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE teacher_attendance SET present = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("a1", false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := repo.Upsert(context.Background(), "t1", date, false)
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceUpdated, result.Action)
	assert.Zero(t, result.ReplacementsRemoved)
	assert.NoError(t, mock.ExpectationsWereMet())
}
