package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arka-edu/timetable-api/internal/models"
)

func newTestBlackout(holidays []models.Holiday) *BlackoutService {
	refs := NewReferenceService(&stubTeacherLoads{}, &stubHolidays{holidays: holidays}, &stubExamBlocks{}, nil, 0, nil)
	return NewBlackoutService(refs, testTimetableConfig(), nil)
}

func TestCopyWeekSkipsHolidaysAndReportsCount(t *testing.T) {
	// Tuesday of the target week is a holiday.
	holiday := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	sessions := newTestSessionService(&stubTimetableStore{})
	replication := NewReplicationService(sessions, newTestBlackout([]models.Holiday{{Date: holiday, Name: "Founders Day"}}), nil, nil)

	source, err := sessions.Open(context.Background(), "")
	require.NoError(t, err)
	target, err := sessions.Open(context.Background(), "")
	require.NoError(t, err)

	days := []string{"MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY"}
	for _, day := range days {
		_, err := sessions.AddEntry(source.ID, AddEntryRequest{
			Day: day, Period: 1, BatchID: "b-10a", TeacherID: "t-anita",
		})
		require.NoError(t, err)
	}

	result, err := replication.CopyWeek(context.Background(), source.ID, CopyWeekRequest{
		Targets:      []CopyTarget{{SessionID: target.ID, WeekStart: "2026-03-09"}},
		SkipHolidays: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, result.Requested)
	assert.Equal(t, 4, result.Copied)

	entries, err := sessions.Entries(target.ID, models.EntryFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 4)
	for _, entry := range entries {
		assert.NotEqual(t, models.Tuesday, entry.Slot.Day)
		assert.False(t, entry.IsSubstituted)
	}
}

func TestCopyWeekSkipsClashingEntries(t *testing.T) {
	sessions := newTestSessionService(&stubTimetableStore{})
	replication := NewReplicationService(sessions, newTestBlackout(nil), nil, nil)

	source, err := sessions.Open(context.Background(), "")
	require.NoError(t, err)
	target, err := sessions.Open(context.Background(), "")
	require.NoError(t, err)

	_, err = sessions.AddEntry(source.ID, AddEntryRequest{
		Day: "MONDAY", Period: 1, BatchID: "b-10a", TeacherID: "t-anita",
	})
	require.NoError(t, err)
	_, err = sessions.AddEntry(source.ID, AddEntryRequest{
		Day: "MONDAY", Period: 2, BatchID: "b-10a", TeacherID: "t-anita",
	})
	require.NoError(t, err)

	// Target already occupies Monday P1 for the batch.
	_, err = sessions.AddEntry(target.ID, AddEntryRequest{
		Day: "MONDAY", Period: 1, BatchID: "b-10a", TeacherID: "t-bimal",
	})
	require.NoError(t, err)

	result, err := replication.CopyWeek(context.Background(), source.ID, CopyWeekRequest{
		Targets: []CopyTarget{{SessionID: target.ID, WeekStart: "2026-03-09"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Requested)
	assert.Equal(t, 1, result.Copied)
}

func TestCopyWeekRejectsSelfTarget(t *testing.T) {
	sessions := newTestSessionService(&stubTimetableStore{})
	replication := NewReplicationService(sessions, newTestBlackout(nil), nil, nil)

	source, err := sessions.Open(context.Background(), "")
	require.NoError(t, err)

	_, err = replication.CopyWeek(context.Background(), source.ID, CopyWeekRequest{
		Targets: []CopyTarget{{SessionID: source.ID, WeekStart: "2026-03-09"}},
	})
	require.Error(t, err)
}
