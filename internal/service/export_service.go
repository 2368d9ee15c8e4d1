package service

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/arka-edu/timetable-api/internal/models"
	"github.com/arka-edu/timetable-api/pkg/config"
	"github.com/arka-edu/timetable-api/pkg/export"
	appErrors "github.com/arka-edu/timetable-api/pkg/errors"
)

// ExportFormat selects the grid export encoding.
type ExportFormat string

const (
	FormatCSV ExportFormat = "csv"
	FormatPDF ExportFormat = "pdf"
)

// ExportResult carries the rendered bytes with download metadata.
type ExportResult struct {
	Content     []byte
	Filename    string
	ContentType string
}

// ExportService renders a session's weekly grid as CSV or PDF.
type ExportService struct {
	sessions *SessionService
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	cfg      config.ExportConfig
	logger   *zap.Logger
}

// NewExportService constructs the export service.
func NewExportService(sessions *SessionService, cfg config.ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		sessions: sessions,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		cfg:      cfg,
		logger:   logger,
	}
}

// WeekGrid renders the session's current grid in the requested format,
// optionally narrowed to one batch.
func (s *ExportService) WeekGrid(sessionID, batchID string, format ExportFormat) (ExportResult, error) {
	var (
		entries       []models.TimetableEntry
		periodsPerDay int
	)
	err := s.sessions.with(sessionID, func(sess *editingSession) error {
		entries = sess.store.Query(models.EntryFilter{BatchID: batchID}).Collect()
		periodsPerDay = sess.store.PeriodsPerDay()
		return nil
	})
	if err != nil {
		return ExportResult{}, err
	}

	grid := buildWeekGrid(s.cfg.InstituteName, batchID, entries, periodsPerDay)

	switch format {
	case FormatCSV:
		content, err := s.csv.Render(grid)
		if err != nil {
			return ExportResult{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "csv export failed")
		}
		return ExportResult{Content: content, Filename: exportFilename(batchID, "csv"), ContentType: "text/csv"}, nil
	case FormatPDF:
		content, err := s.pdf.Render(grid)
		if err != nil {
			return ExportResult{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "pdf export failed")
		}
		return ExportResult{Content: content, Filename: exportFilename(batchID, "pdf"), ContentType: "application/pdf"}, nil
	default:
		return ExportResult{}, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

// buildWeekGrid lays entries out period-by-day. Slots holding multiple
// entries (institute-wide exports) stack them in one cell.
func buildWeekGrid(instituteName, batchID string, entries []models.TimetableEntry, periodsPerDay int) export.WeekGrid {
	title := instituteName + " weekly timetable"
	if batchID != "" {
		title = fmt.Sprintf("%s weekly timetable - %s", instituteName, batchID)
	}

	days := make([]string, len(models.WeekDays))
	dayIndex := make(map[models.Day]int, len(models.WeekDays))
	for i, day := range models.WeekDays {
		days[i] = string(day)
		dayIndex[day] = i
	}

	periods := make([]string, periodsPerDay)
	cells := make([][]string, periodsPerDay)
	for p := 0; p < periodsPerDay; p++ {
		periods[p] = fmt.Sprintf("P%d", p+1)
		cells[p] = make([]string, len(days))
	}

	for _, entry := range entries {
		row := entry.Slot.Period - 1
		col, ok := dayIndex[entry.Slot.Day]
		if !ok || row < 0 || row >= periodsPerDay {
			continue
		}
		text := cellText(entry)
		if cells[row][col] != "" {
			text = cells[row][col] + "\n" + text
		}
		cells[row][col] = text
	}

	return export.WeekGrid{Title: title, Days: days, Periods: periods, Cells: cells}
}

func cellText(entry models.TimetableEntry) string {
	parts := make([]string, 0, 3)
	if entry.SubjectID != "" {
		parts = append(parts, entry.SubjectID)
	}
	teacher := entry.TeacherID
	if entry.IsSubstituted && entry.SubstituteTeacherID != "" {
		teacher = entry.SubstituteTeacherID + "*"
	}
	if teacher != "" {
		parts = append(parts, teacher)
	}
	if entry.FacilityID != "" {
		parts = append(parts, entry.FacilityID)
	}
	if len(parts) == 0 {
		return entry.BatchID
	}
	return strings.Join(parts, " / ")
}

func exportFilename(batchID, ext string) string {
	if batchID == "" {
		return "timetable-week." + ext
	}
	return fmt.Sprintf("timetable-%s.%s", batchID, ext)
}
