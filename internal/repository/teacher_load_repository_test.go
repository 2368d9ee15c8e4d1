package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arka-edu/timetable-api/internal/models"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := sqlx.NewDb(mockDB, "sqlmock")
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestTeacherLoadRepositoryList(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTeacherLoadRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT teacher_id, teacher_name, working_days, periods_per_week, assigned_periods
FROM teacher_loads WHERE active = true ORDER BY teacher_name ASC`)).
		WillReturnRows(sqlmock.NewRows([]string{"teacher_id", "teacher_name", "working_days", "periods_per_week", "assigned_periods"}).
			AddRow("t-anita", "Anita Rao", pq.StringArray{"MONDAY", "TUESDAY", "BADDAY"}, 24, 20).
			AddRow("t-bimal", "Bimal Sen", pq.StringArray{"SATURDAY"}, 12, 12))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT teacher_id, batch_id, batch_name, subject_id
FROM teacher_allowed_batches WHERE teacher_id = ANY($1) ORDER BY batch_name ASC`)).
		WithArgs(pq.Array([]string{"t-anita", "t-bimal"})).
		WillReturnRows(sqlmock.NewRows([]string{"teacher_id", "batch_id", "batch_name", "subject_id"}).
			AddRow("t-anita", "b-10a", "Grade 10-A", "s-phy").
			AddRow("t-anita", "b-10b", "Grade 10-B", "s-phy"))

	loads, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, loads, 2)

	assert.Equal(t, "t-anita", loads[0].TeacherID)
	// Unknown day strings are dropped, not surfaced as errors.
	assert.Equal(t, []models.Day{models.Monday, models.Tuesday}, loads[0].WorkingDays)
	assert.Len(t, loads[0].AllowedBatches, 2)
	assert.True(t, loads[0].TeachesSubject("s-phy"))

	assert.Equal(t, "t-bimal", loads[1].TeacherID)
	assert.Empty(t, loads[1].AllowedBatches)
	assert.True(t, loads[1].WorksOn(models.Saturday))
	assert.False(t, loads[1].WorksOn(models.Monday))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherLoadRepositoryListEmpty(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTeacherLoadRepository(db)

	mock.ExpectQuery("SELECT teacher_id, teacher_name").
		WillReturnRows(sqlmock.NewRows([]string{"teacher_id", "teacher_name", "working_days", "periods_per_week", "assigned_periods"}))

	loads, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, loads)
	// No batch lookup is issued for an empty roster.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherLoadRepositoryFindByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTeacherLoadRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM teacher_loads WHERE teacher_id = $1`)).
		WithArgs("t-anita").
		WillReturnRows(sqlmock.NewRows([]string{"teacher_id", "teacher_name", "working_days", "periods_per_week", "assigned_periods"}).
			AddRow("t-anita", "Anita Rao", pq.StringArray{"MONDAY"}, 24, 20))

	mock.ExpectQuery("FROM teacher_allowed_batches").
		WithArgs(pq.Array([]string{"t-anita"})).
		WillReturnRows(sqlmock.NewRows([]string{"teacher_id", "batch_id", "batch_name", "subject_id"}).
			AddRow("t-anita", "b-10a", "Grade 10-A", "s-phy"))

	load, err := repo.FindByID(context.Background(), "t-anita")
	require.NoError(t, err)
	assert.Equal(t, "Anita Rao", load.TeacherName)
	assert.Equal(t, 24, load.PeriodsPerWeek)
	require.Len(t, load.AllowedBatches, 1)
	assert.Equal(t, "b-10a", load.AllowedBatches[0].BatchID)

	assert.NoError(t, mock.ExpectationsWereMet())
}
