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

func newTeacherRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestTeacherRepositoryList(t *testing.T) {
	db, mock, cleanup := newTeacherRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "surname", "email", "phone", "active", "created_at", "updated_at"}).
		AddRow("t1", "Anita", "Sari", "anita@example.com", nil, true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, surname, email, phone, active, created_at, updated_at FROM teachers WHERE 1=1 ORDER BY name ASC LIMIT 20 OFFSET 0")).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM teachers WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	teachers, total, err := repo.List(context.Background(), models.TeacherFilter{})
	require.NoError(t, err)
	assert.Len(t, teachers, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Anita Sari", teachers[0].DisplayName())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryCreateAndDeactivate(t *testing.T) {
	db, mock, cleanup := newTeacherRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectExec("INSERT INTO teachers").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Create(context.Background(), &models.Teacher{Name: "Anita", Surname: "Sari", Email: "anita@example.com", Active: true})
	require.NoError(t, err)

	mock.ExpectExec("UPDATE teachers SET active = FALSE").
		WithArgs("t1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Deactivate(context.Background(), "t1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryExistsByEmail(t *testing.T) {
	db, mock, cleanup := newTeacherRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM teachers WHERE LOWER(email) = LOWER($1) LIMIT 1")).
		WithArgs("anita@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	exists, err := repo.ExistsByEmail(context.Background(), "anita@example.com", "")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryListStats(t *testing.T) {
	db, mock, cleanup := newTeacherRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "surname", "weekly_lessons", "present_count", "attendance_count"}).
		AddRow("t1", "Anita", "Sari", 12, 9, 10).
		AddRow("t2", "Budi", "Santoso", 4, 0, 0)
	mock.ExpectQuery("SELECT t.id, t.name, t.surname").
		WillReturnRows(rows)

	stats, err := repo.ListStats(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.InDelta(t, 0.9, stats[0].AttendanceRate(), 1e-9)
	// No history counts as fully reliable.
	assert.InDelta(t, 1.0, stats[1].AttendanceRate(), 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}
