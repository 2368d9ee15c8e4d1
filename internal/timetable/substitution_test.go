package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arka-edu/timetable-api/internal/models"
)

// mondayStore seeds T1 with three Monday periods and T2 with one.
func mondayStore(t *testing.T) *EntryStore {
	t.Helper()
	store := NewEntryStore(8)
	seeds := []models.TimetableEntry{
		entry("T1", "B1", "physics", models.Monday, 5),
		entry("T1", "B2", "physics", models.Monday, 1),
		entry("T1", "B1", "physics", models.Monday, 3),
		entry("T2", "B2", "maths", models.Monday, 3),
	}
	for _, e := range seeds {
		_, err := store.Add(e)
		require.NoError(t, err)
	}
	return store
}

func TestResolverAffectedEntriesFullDay(t *testing.T) {
	store := mondayStore(t)
	resolver := NewResolver()

	// 2024-01-08 is a Monday.
	absence := resolver.MarkAbsent(models.TeacherAbsence{
		TeacherID:   "T1",
		Date:        date("2024-01-08"),
		AbsenceType: models.AbsenceFullDay,
	})

	affected := resolver.AffectedEntries(store, absence)
	require.Len(t, affected, 3)
	assert.Equal(t, []int{1, 3, 5}, []int{affected[0].Slot.Period, affected[1].Slot.Period, affected[2].Slot.Period},
		"affected entries sorted by period ascending")
	for _, e := range affected {
		assert.Equal(t, "T1", e.TeacherID)
	}
}

func TestResolverAffectedEntriesPartial(t *testing.T) {
	store := mondayStore(t)
	resolver := NewResolver()

	absence := resolver.MarkAbsent(models.TeacherAbsence{
		TeacherID:   "T1",
		Date:        date("2024-01-08"),
		AbsenceType: models.AbsencePartial,
		Periods:     []int{3, 5},
	})

	affected := resolver.AffectedEntries(store, absence)
	require.Len(t, affected, 2)
	assert.Equal(t, 3, affected[0].Slot.Period)
	assert.Equal(t, 5, affected[1].Slot.Period)
}

func TestResolverEligibleSubstitutes(t *testing.T) {
	store := mondayStore(t)
	resolver := NewResolver()

	loads := []models.TeacherLoad{
		{TeacherID: "T1", WorkingDays: models.WeekDays},
		{TeacherID: "T2", WorkingDays: models.WeekDays, AllowedBatches: []models.AllowedBatch{{BatchID: "B2", SubjectID: "maths"}}},
		{TeacherID: "T3", WorkingDays: models.WeekDays, AllowedBatches: []models.AllowedBatch{{BatchID: "B1", SubjectID: "physics"}}},
		{TeacherID: "T4", WorkingDays: []models.Day{models.Tuesday}},
	}

	// Period 3 on Monday: T1 excluded, T2 busy, T4 does not work Mondays.
	candidates := resolver.EligibleSubstitutes(store, loads, models.Monday, 3, "T1", "physics")
	require.Len(t, candidates, 1)
	assert.Equal(t, "T3", candidates[0].TeacherID)
	assert.True(t, candidates[0].SameSubject)

	// Every candidate is genuinely free and working that day.
	for _, c := range candidates {
		assert.Empty(t, store.Query(models.EntryFilter{TeacherID: c.TeacherID, Day: models.Monday, Period: 3}).Collect())
		assert.True(t, c.WorksOn(models.Monday))
	}

	// Period 1: both T2 and T3 are free; subject flag annotates, not filters.
	candidates = resolver.EligibleSubstitutes(store, loads, models.Monday, 1, "T1", "physics")
	require.Len(t, candidates, 2)
	byID := map[string]models.SubstituteCandidate{}
	for _, c := range candidates {
		byID[c.TeacherID] = c
	}
	assert.False(t, byID["T2"].SameSubject)
	assert.True(t, byID["T3"].SameSubject)
}

func TestResolverAssignUpserts(t *testing.T) {
	resolver := NewResolver()
	absence := resolver.MarkAbsent(models.TeacherAbsence{
		TeacherID:   "T1",
		Date:        date("2024-01-08"),
		AbsenceType: models.AbsenceFullDay,
	})

	first, err := resolver.Assign(absence.ID, 3, "T2", "B1")
	require.NoError(t, err)

	second, err := resolver.Assign(absence.ID, 3, "T3", "B1")
	require.NoError(t, err)

	assignments := resolver.Assignments(absence.ID)
	require.Len(t, assignments, 1, "re-assigning the same period replaces, never duplicates")
	assert.Equal(t, "T3", assignments[0].SubstituteTeacherID)
	assert.Equal(t, first.ID, second.ID, "the assignment keeps its identity across overwrites")
}

func TestResolverAssignValidatesPeriodAndAbsence(t *testing.T) {
	resolver := NewResolver()
	absence := resolver.MarkAbsent(models.TeacherAbsence{
		TeacherID:   "T1",
		Date:        date("2024-01-08"),
		AbsenceType: models.AbsencePartial,
		Periods:     []int{2},
	})

	_, err := resolver.Assign(absence.ID, 5, "T2", "B1")
	require.Error(t, err, "period outside a partial absence is rejected")

	var notFound *AbsenceNotFoundError
	_, err = resolver.Assign("missing", 2, "T2", "B1")
	require.ErrorAs(t, err, &notFound)
}

func TestResolverCancelCascades(t *testing.T) {
	resolver := NewResolver()
	a1 := resolver.MarkAbsent(models.TeacherAbsence{TeacherID: "T1", Date: date("2024-01-08")})
	a2 := resolver.MarkAbsent(models.TeacherAbsence{TeacherID: "T2", Date: date("2024-01-08")})

	_, err := resolver.Assign(a1.ID, 1, "T3", "B1")
	require.NoError(t, err)
	_, err = resolver.Assign(a1.ID, 2, "T4", "B1")
	require.NoError(t, err)
	_, err = resolver.Assign(a2.ID, 1, "T5", "B2")
	require.NoError(t, err)

	require.NoError(t, resolver.CancelAbsence(a1.ID))

	_, ok := resolver.Absence(a1.ID)
	assert.False(t, ok)
	assert.Empty(t, resolver.Assignments(a1.ID), "cascade removes every assignment of the cancelled absence")
	assert.Len(t, resolver.Assignments(a2.ID), 1, "and no others")

	var notFound *AbsenceNotFoundError
	require.ErrorAs(t, resolver.CancelAbsence(a1.ID), &notFound)
}

func TestResolverCoverageStateMachine(t *testing.T) {
	store := mondayStore(t)
	resolver := NewResolver()
	absence := resolver.MarkAbsent(models.TeacherAbsence{
		TeacherID:   "T1",
		Date:        date("2024-01-08"),
		AbsenceType: models.AbsenceFullDay,
	})

	status, err := resolver.Coverage(store, absence.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CoverageNone, status)

	_, err = resolver.Assign(absence.ID, 1, "T2", "B2")
	require.NoError(t, err)
	status, _ = resolver.Coverage(store, absence.ID)
	assert.Equal(t, models.CoveragePartial, status)

	_, err = resolver.Assign(absence.ID, 3, "T3", "B1")
	require.NoError(t, err)
	_, err = resolver.Assign(absence.ID, 5, "T3", "B1")
	require.NoError(t, err)
	status, _ = resolver.Coverage(store, absence.ID)
	assert.Equal(t, models.CoverageFull, status)
}
