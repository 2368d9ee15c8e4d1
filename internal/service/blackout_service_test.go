package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arka-edu/timetable-api/internal/models"
)

func TestCheckSlotHolidayWinsOverExamBlock(t *testing.T) {
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	refs := NewReferenceService(
		&stubTeacherLoads{},
		&stubHolidays{holidays: []models.Holiday{{Date: date, Name: "Founders Day"}}},
		&stubExamBlocks{blocks: []models.ExamBlock{{
			ID:        "x1",
			Name:      "Midterms",
			ScopeType: models.ScopeInstitution,
			DateType:  models.DateSingleDay,
			Dates:     []time.Time{date},
			TimeType:  models.TimeFullDay,
		}}},
		nil, 0, nil,
	)
	blackout := NewBlackoutService(refs, testTimetableConfig(), nil)

	block, err := blackout.CheckSlot(context.Background(), date, 1, models.BatchScope{})
	require.NoError(t, err)
	assert.True(t, block.Blocked)
	assert.Equal(t, "Founders Day", block.Holiday)
	assert.Empty(t, block.ExamTypeID)
}

func TestCheckDayCoversEveryPeriod(t *testing.T) {
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	refs := NewReferenceService(
		&stubTeacherLoads{},
		&stubHolidays{},
		&stubExamBlocks{blocks: []models.ExamBlock{{
			ID:        "x1",
			Name:      "Physics Practical",
			ScopeType: models.ScopeBatch,
			ScopeID:   "b-10a",
			DateType:  models.DateSingleDay,
			Dates:     []time.Time{date},
			TimeType:  models.TimePeriods,
			Periods:   []int{2, 3},
		}}},
		nil, 0, nil,
	)
	blackout := NewBlackoutService(refs, testTimetableConfig(), nil)

	day, err := blackout.CheckDay(context.Background(), date, models.BatchScope{BatchID: "b-10a"})
	require.NoError(t, err)
	assert.Len(t, day.Periods, 8)
	assert.False(t, day.Periods[1].Blocked)
	assert.True(t, day.Periods[2].Blocked)
	assert.True(t, day.Periods[3].Blocked)
	assert.False(t, day.Periods[4].Blocked)

	// Different batch, same date: the block does not apply.
	other, err := blackout.CheckDay(context.Background(), date, models.BatchScope{BatchID: "b-11b"})
	require.NoError(t, err)
	assert.False(t, other.Periods[2].Blocked)
}
