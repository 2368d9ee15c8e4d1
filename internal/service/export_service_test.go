package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arka-edu/timetable-api/internal/models"
	"github.com/arka-edu/timetable-api/pkg/config"
)

func TestExportWeekGridCSV(t *testing.T) {
	sessions := newTestSessionService(&stubTimetableStore{})
	exports := NewExportService(sessions, config.ExportConfig{InstituteName: "Arka Institute"}, nil)

	info, err := sessions.Open(context.Background(), "b-10a")
	require.NoError(t, err)

	_, err = sessions.AddEntry(info.ID, AddEntryRequest{
		Day: "MONDAY", Period: 1, BatchID: "b-10a", TeacherID: "t-anita", SubjectID: "s-phy", FacilityID: "lab-1",
	})
	require.NoError(t, err)

	result, err := exports.WeekGrid(info.ID, "", FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.Equal(t, "timetable-week.csv", result.Filename)

	body := string(result.Content)
	assert.Contains(t, body, "MONDAY")
	assert.Contains(t, body, "s-phy / t-anita / lab-1")
}

func TestExportWeekGridPDFNonEmpty(t *testing.T) {
	sessions := newTestSessionService(&stubTimetableStore{})
	exports := NewExportService(sessions, config.ExportConfig{InstituteName: "Arka Institute"}, nil)

	info, err := sessions.Open(context.Background(), "b-10a")
	require.NoError(t, err)

	result, err := exports.WeekGrid(info.ID, "b-10a", FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.Equal(t, "timetable-b-10a.pdf", result.Filename)
	assert.True(t, strings.HasPrefix(string(result.Content), "%PDF"))
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	sessions := newTestSessionService(&stubTimetableStore{})
	exports := NewExportService(sessions, config.ExportConfig{}, nil)

	info, err := sessions.Open(context.Background(), "")
	require.NoError(t, err)

	_, err = exports.WeekGrid(info.ID, "", ExportFormat("xlsx"))
	require.Error(t, err)
}

func TestBuildWeekGridStacksSharedSlots(t *testing.T) {
	entries := []models.TimetableEntry{
		{BatchID: "b-10a", SubjectID: "s-phy", TeacherID: "t-anita", Slot: models.Slot{Day: models.Monday, Period: 1}},
		{BatchID: "b-10b", SubjectID: "s-chem", TeacherID: "t-bimal", Slot: models.Slot{Day: models.Monday, Period: 1}},
	}
	grid := buildWeekGrid("Arka", "", entries, 4)

	assert.Len(t, grid.Periods, 4)
	assert.Len(t, grid.Days, len(models.WeekDays))
	cell := grid.Cell(0, 0)
	assert.Contains(t, cell, "s-phy / t-anita")
	assert.Contains(t, cell, "s-chem / t-bimal")

	// Substituted entries show the replacement teacher.
	sub := cellText(models.TimetableEntry{
		SubjectID: "s-phy", TeacherID: "t-anita",
		IsSubstituted: true, SubstituteTeacherID: "t-bimal",
	})
	assert.Equal(t, "s-phy / t-bimal*", sub)
}
