package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arka-edu/timetable-api/internal/models"
)

func TestDetectConflictsCollapsesOverlappingEntries(t *testing.T) {
	// Three entries for the same teacher on one slot must yield a single
	// teacher conflict listing all three ids, not C(3,2) pairs.
	slot := models.Slot{Day: models.Monday, Period: 3}
	entries := []models.TimetableEntry{
		{ID: "e1", TeacherID: "T1", BatchID: "B1", Slot: slot},
		{ID: "e2", TeacherID: "T1", BatchID: "B2", Slot: slot},
		{ID: "e3", TeacherID: "T1", BatchID: "B3", Slot: slot},
	}

	conflicts := DetectConflicts(entries, DetectOptions{})
	require.Len(t, conflicts, 1)
	assert.Equal(t, models.TeacherClash, conflicts[0].Type)
	assert.Equal(t, "T1", conflicts[0].Identity)
	assert.ElementsMatch(t, []string{"e1", "e2", "e3"}, conflicts[0].EntryIDs)
}

func TestDetectConflictsSeparatesDimensions(t *testing.T) {
	slot := models.Slot{Day: models.Tuesday, Period: 1}
	entries := []models.TimetableEntry{
		{ID: "e1", TeacherID: "T1", BatchID: "B1", FacilityID: "lab", Slot: slot},
		{ID: "e2", TeacherID: "T1", BatchID: "B1", FacilityID: "lab", Slot: slot},
	}

	conflicts := DetectConflicts(entries, DetectOptions{})
	types := make([]models.ConflictType, 0, len(conflicts))
	for _, c := range conflicts {
		types = append(types, c.Type)
	}
	assert.ElementsMatch(t, []models.ConflictType{models.TeacherClash, models.BatchClash, models.FacilityClash}, types)
}

func TestDetectConflictsIgnoresEmptyTeacherAndFacility(t *testing.T) {
	slot := models.Slot{Day: models.Friday, Period: 7}
	entries := []models.TimetableEntry{
		{ID: "e1", TeacherID: "", BatchID: "B1", Slot: slot},
		{ID: "e2", TeacherID: "", BatchID: "B2", Slot: slot},
	}

	assert.Empty(t, DetectConflicts(entries, DetectOptions{}))
}

func TestDetectConflictsWeeklyOverloadIsAdvisory(t *testing.T) {
	entries := []models.TimetableEntry{
		{ID: "e1", TeacherID: "T1", BatchID: "B1", Slot: models.Slot{Day: models.Monday, Period: 1}},
		{ID: "e2", TeacherID: "T1", BatchID: "B1", Slot: models.Slot{Day: models.Tuesday, Period: 1}},
		{ID: "e3", TeacherID: "T1", BatchID: "B1", Slot: models.Slot{Day: models.Wednesday, Period: 1}},
	}
	loads := []models.TeacherLoad{{TeacherID: "T1", PeriodsPerWeek: 2}}

	conflicts := DetectConflicts(entries, DetectOptions{Loads: loads, WorkingDayDivisor: 6})
	require.NotEmpty(t, conflicts)
	weekly := conflicts[0]
	assert.Equal(t, models.OverloadConflict, weekly.Type)
	assert.Equal(t, "T1", weekly.Identity)
	assert.False(t, weekly.Blocking)
}

func TestDetectConflictsDailyOverloadUsesDivisor(t *testing.T) {
	// 12 periods/week over a 6-day divisor estimates 2 per day; three
	// Monday periods trip the daily advisory without tripping the weekly.
	entries := []models.TimetableEntry{
		{ID: "e1", TeacherID: "T1", BatchID: "B1", Slot: models.Slot{Day: models.Monday, Period: 1}},
		{ID: "e2", TeacherID: "T1", BatchID: "B1", Slot: models.Slot{Day: models.Monday, Period: 2}},
		{ID: "e3", TeacherID: "T1", BatchID: "B1", Slot: models.Slot{Day: models.Monday, Period: 3}},
	}
	loads := []models.TeacherLoad{{TeacherID: "T1", PeriodsPerWeek: 12}}

	conflicts := DetectConflicts(entries, DetectOptions{Loads: loads, WorkingDayDivisor: 6})
	require.Len(t, conflicts, 1)
	assert.Equal(t, models.OverloadConflict, conflicts[0].Type)
	assert.Equal(t, models.Monday, conflicts[0].Slot.Day)
	assert.False(t, conflicts[0].Blocking)

	// A 3-day week estimates 4 per day and stays quiet.
	conflicts = DetectConflicts(entries, DetectOptions{Loads: loads, WorkingDayDivisor: 3})
	assert.Empty(t, conflicts)
}
