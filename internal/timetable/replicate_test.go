package timetable

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arka-edu/timetable-api/internal/models"
)

func sourceWeek(t *testing.T) []models.TimetableEntry {
	t.Helper()
	store := NewEntryStore(8)
	seeds := []models.TimetableEntry{
		entry("T1", "B1", "physics", models.Monday, 1),
		entry("T2", "B1", "maths", models.Tuesday, 2),
		entry("T3", "B1", "chemistry", models.Wednesday, 3),
		entry("T1", "B1", "physics", models.Thursday, 1),
		entry("T2", "B1", "maths", models.Friday, 2),
	}
	for _, e := range seeds {
		_, err := store.Add(e)
		require.NoError(t, err)
	}
	return store.Entries()
}

func TestCopyWeekSkipsHolidayDates(t *testing.T) {
	source := sourceWeek(t)

	// Two target weeks; the second week's Wednesday is a holiday and
	// matches the chemistry entry's day, so 5 + 4 = 9 copies land.
	week1 := date("2024-01-08")
	week2 := date("2024-01-15")
	holiday := date("2024-01-17") // Wednesday of week 2

	targets := []TargetWeek{
		{WeekStart: week1, Store: NewEntryStore(8)},
		{WeekStart: week2, Store: NewEntryStore(8)},
	}

	copied, err := CopyWeek(source, targets, CopyOptions{
		SkipHolidays: true,
		IsHoliday:    func(d time.Time) bool { return d.Equal(holiday) },
	})
	require.NoError(t, err)
	assert.Equal(t, 9, copied)
	assert.Equal(t, 5, targets[0].Store.Len())
	assert.Equal(t, 4, targets[1].Store.Len())
	assert.Empty(t, targets[1].Store.Query(models.EntryFilter{Day: models.Wednesday}).Collect())
}

func TestCopyWeekClonesGetFreshIDs(t *testing.T) {
	source := sourceWeek(t)
	target := TargetWeek{WeekStart: date("2024-01-08"), Store: NewEntryStore(8)}

	copied, err := CopyWeek(source, []TargetWeek{target}, CopyOptions{})
	require.NoError(t, err)
	require.Equal(t, 5, copied)

	seen := map[string]bool{}
	for _, e := range source {
		seen[e.ID] = true
	}
	for _, e := range target.Store.Entries() {
		assert.False(t, seen[e.ID], "clone %s reused a source id", e.ID)
	}
}

func TestCopyWeekPerEntryConflictsDoNotAbort(t *testing.T) {
	source := sourceWeek(t)

	occupied := NewEntryStore(8)
	_, err := occupied.Add(entry("T9", "B1", "history", models.Monday, 1))
	require.NoError(t, err)

	copied, err := CopyWeek(source, []TargetWeek{{WeekStart: date("2024-01-08"), Store: occupied}}, CopyOptions{})
	require.NoError(t, err, "a clashing clone is skipped, never raised")
	assert.Equal(t, 4, copied, "count reflects entries actually added")
	assert.Equal(t, 5, occupied.Len())
}

func TestCopyWeekStripsSubstitutionOverrides(t *testing.T) {
	source := []models.TimetableEntry{{
		ID:                  "src-1",
		TeacherID:           "T1",
		BatchID:             "B1",
		SubjectID:           "physics",
		Slot:                models.Slot{Day: models.Monday, Period: 1},
		IsSubstituted:       true,
		SubstituteTeacherID: "T2",
	}}
	target := TargetWeek{WeekStart: date("2024-01-08"), Store: NewEntryStore(8)}

	copied, err := CopyWeek(source, []TargetWeek{target}, CopyOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, copied)

	clone := target.Store.Entries()[0]
	assert.False(t, clone.IsSubstituted, "date-bound overrides do not travel to other weeks")
	assert.Empty(t, clone.SubstituteTeacherID)
	assert.Equal(t, "T1", clone.TeacherID)
}
