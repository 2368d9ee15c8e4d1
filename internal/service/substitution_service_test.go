package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arka-edu/timetable-api/internal/models"
	appErrors "github.com/arka-edu/timetable-api/pkg/errors"
)

type stubTeacherLoads struct {
	loads []models.TeacherLoad
}

func (s *stubTeacherLoads) List(_ context.Context) ([]models.TeacherLoad, error) {
	return s.loads, nil
}

func (s *stubTeacherLoads) FindByID(_ context.Context, teacherID string) (*models.TeacherLoad, error) {
	for _, load := range s.loads {
		if load.TeacherID == teacherID {
			l := load
			return &l, nil
		}
	}
	return nil, appErrors.ErrNotFound
}

type stubHolidays struct {
	holidays []models.Holiday
}

func (s *stubHolidays) List(_ context.Context) ([]models.Holiday, error) {
	return s.holidays, nil
}

type stubExamBlocks struct {
	blocks []models.ExamBlock
}

func (s *stubExamBlocks) ListActive(_ context.Context, _ time.Time) ([]models.ExamBlock, error) {
	return s.blocks, nil
}

func testRefs(loads []models.TeacherLoad) *ReferenceService {
	return NewReferenceService(&stubTeacherLoads{loads: loads}, &stubHolidays{}, &stubExamBlocks{}, nil, 0, nil)
}

// 2026-03-02 is a Monday.
const mondayDate = "2026-03-02"

func setupSubstitution(t *testing.T) (*SubstitutionService, *SessionService, string) {
	t.Helper()
	loads := []models.TeacherLoad{
		{
			TeacherID:      "t-anita",
			TeacherName:    "Anita Rao",
			WorkingDays:    []models.Day{models.Monday, models.Tuesday},
			PeriodsPerWeek: 24,
		},
		{
			TeacherID:      "t-bimal",
			TeacherName:    "Bimal Sen",
			WorkingDays:    []models.Day{models.Monday},
			PeriodsPerWeek: 20,
			AllowedBatches: []models.AllowedBatch{{BatchID: "b-10a", SubjectID: "s-phy"}},
		},
		{
			TeacherID:   "t-chitra",
			TeacherName: "Chitra Das",
			WorkingDays: []models.Day{models.Tuesday},
		},
	}

	sessions := newTestSessionService(&stubTimetableStore{})
	subs := NewSubstitutionService(sessions, testRefs(loads), nil, nil)

	info, err := sessions.Open(context.Background(), "")
	require.NoError(t, err)

	// Anita teaches physics P1 and P3 on Monday; Bimal is free both periods.
	for _, period := range []int{1, 3} {
		_, err := sessions.AddEntry(info.ID, AddEntryRequest{
			Day: "MONDAY", Period: period, BatchID: "b-10a", TeacherID: "t-anita", SubjectID: "s-phy",
		})
		require.NoError(t, err)
	}
	return subs, sessions, info.ID
}

func TestMarkAbsentReportsAffectedSchedule(t *testing.T) {
	subs, _, sessionID := setupSubstitution(t)

	report, err := subs.MarkAbsent(context.Background(), sessionID, MarkAbsentRequest{
		TeacherID: "t-anita",
		Date:      mondayDate,
	})
	require.NoError(t, err)
	assert.Equal(t, models.CoverageNone, report.Status)
	assert.Equal(t, models.AbsenceFullDay, report.Absence.AbsenceType)

	affected, err := subs.AffectedEntries(sessionID, report.Absence.ID)
	require.NoError(t, err)
	require.Len(t, affected, 2)
	assert.Equal(t, 1, affected[0].Slot.Period)
	assert.Equal(t, 3, affected[1].Slot.Period)
}

func TestMarkAbsentRejectsUnknownTeacher(t *testing.T) {
	subs, _, sessionID := setupSubstitution(t)

	_, err := subs.MarkAbsent(context.Background(), sessionID, MarkAbsentRequest{
		TeacherID: "t-ghost",
		Date:      mondayDate,
	})
	require.Error(t, err)
}

func TestEligibleSubstitutesExcludesBusyAndOffDay(t *testing.T) {
	subs, sessions, sessionID := setupSubstitution(t)

	// Bimal is busy P1 with another batch.
	_, err := sessions.AddEntry(sessionID, AddEntryRequest{
		Day: "MONDAY", Period: 1, BatchID: "b-10b", TeacherID: "t-bimal",
	})
	require.NoError(t, err)

	report, err := subs.MarkAbsent(context.Background(), sessionID, MarkAbsentRequest{
		TeacherID: "t-anita", Date: mondayDate,
	})
	require.NoError(t, err)

	// P1: Bimal busy, Chitra off on Mondays, nobody left.
	candidates, err := subs.EligibleSubstitutes(context.Background(), sessionID, report.Absence.ID, 1)
	require.NoError(t, err)
	assert.Empty(t, candidates)

	// P3: Bimal free, and he teaches physics.
	candidates, err = subs.EligibleSubstitutes(context.Background(), sessionID, report.Absence.ID, 3)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "t-bimal", candidates[0].TeacherID)
	assert.True(t, candidates[0].SameSubject)
}

func TestAssignMarksEntrySubstitutedAndUpserts(t *testing.T) {
	subs, sessions, sessionID := setupSubstitution(t)

	report, err := subs.MarkAbsent(context.Background(), sessionID, MarkAbsentRequest{
		TeacherID: "t-anita", Date: mondayDate,
	})
	require.NoError(t, err)

	first, err := subs.Assign(sessionID, report.Absence.ID, AssignSubstituteRequest{
		Period: 3, SubstituteTeacherID: "t-bimal",
	})
	require.NoError(t, err)
	assert.Equal(t, "b-10a", first.BatchID)
	assert.Equal(t, "t-anita", first.OriginalTeacherID)

	entries, err := sessions.Entries(sessionID, models.EntryFilter{Day: models.Monday, Period: 3})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].IsSubstituted)
	assert.Equal(t, "t-bimal", entries[0].SubstituteTeacherID)

	// Re-assigning the period replaces the substitute, same assignment id.
	second, err := subs.Assign(sessionID, report.Absence.ID, AssignSubstituteRequest{
		Period: 3, SubstituteTeacherID: "t-chitra",
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "t-chitra", second.SubstituteTeacherID)

	status, err := subs.Report(sessionID, report.Absence.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CoveragePartial, status.Status)

	_, err = subs.Assign(sessionID, report.Absence.ID, AssignSubstituteRequest{
		Period: 1, SubstituteTeacherID: "t-bimal",
	})
	require.NoError(t, err)

	status, err = subs.Report(sessionID, report.Absence.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CoverageFull, status.Status)
}

func TestCancelAbsenceClearsAssignmentsAndMarks(t *testing.T) {
	subs, sessions, sessionID := setupSubstitution(t)

	report, err := subs.MarkAbsent(context.Background(), sessionID, MarkAbsentRequest{
		TeacherID: "t-anita", Date: mondayDate,
	})
	require.NoError(t, err)

	_, err = subs.Assign(sessionID, report.Absence.ID, AssignSubstituteRequest{
		Period: 3, SubstituteTeacherID: "t-bimal",
	})
	require.NoError(t, err)

	require.NoError(t, subs.CancelAbsence(sessionID, report.Absence.ID))

	entries, err := sessions.Entries(sessionID, models.EntryFilter{Day: models.Monday, Period: 3})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].IsSubstituted)
	assert.Empty(t, entries[0].SubstituteTeacherID)

	_, err = subs.Report(sessionID, report.Absence.ID)
	require.Error(t, err)

	// Cancelling twice is a not-found error, not a cascade on empty state.
	require.Error(t, subs.CancelAbsence(sessionID, report.Absence.ID))
}
