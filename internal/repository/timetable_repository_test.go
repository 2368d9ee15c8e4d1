package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arka-edu/timetable-api/internal/models"
)

func TestTimetableRepositoryListWeek(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTimetableRepository(db)

	mock.ExpectQuery("FROM timetable_entries WHERE batch_id = ").
		WithArgs("b-10a").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "batch_id", "teacher_id", "subject_id", "facility_id",
			"day_of_week", "period", "is_substituted", "substitute_teacher_id",
		}).
			AddRow("e1", "b-10a", "t-anita", "s-phy", "lab-1", "MONDAY", 3, false, nil).
			AddRow("e2", "b-10a", nil, nil, nil, "TUESDAY", 1, false, nil))

	entries, err := repo.ListWeek(context.Background(), "b-10a")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, models.Slot{Day: models.Monday, Period: 3}, entries[0].Slot)
	assert.Equal(t, "t-anita", entries[0].TeacherID)
	// NULL reference columns come back as empty strings, the unassigned
	// marker the entry store understands.
	assert.Empty(t, entries[1].TeacherID)
	assert.Empty(t, entries[1].FacilityID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositorySaveWeek(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTimetableRepository(db)
	committedAt := time.Date(2026, 3, 2, 17, 0, 0, 0, time.UTC)

	entries := []models.TimetableEntry{
		{
			ID:        "e1",
			BatchID:   "b-10a",
			TeacherID: "t-anita",
			SubjectID: "s-phy",
			Slot:      models.Slot{Day: models.Monday, Period: 3},
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM timetable_entries WHERE batch_id = ").
		WithArgs("b-10a").
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec("INSERT INTO timetable_entries").
		WithArgs("e1", "b-10a", "t-anita", "s-phy", "", "MONDAY", 3, false, "", committedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.SaveWeek(context.Background(), "b-10a", entries, committedAt)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositorySaveWeekRollsBackOnInsertError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTimetableRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM timetable_entries").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO timetable_entries").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.SaveWeek(context.Background(), "", []models.TimetableEntry{
		{ID: "e1", BatchID: "b-10a", Slot: models.Slot{Day: models.Monday, Period: 1}},
	}, time.Now())
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
