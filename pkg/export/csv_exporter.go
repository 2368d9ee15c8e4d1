package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// CSVExporter renders a WeekGrid into CSV bytes.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes for the grid, one row per period with
// the period label in the first column.
func (e *CSVExporter) Render(grid WeekGrid) ([]byte, error) {
	if len(grid.Days) == 0 {
		return nil, fmt.Errorf("csv grid requires at least one day column")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)

	header := append([]string{"Period"}, grid.Days...)
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for row, period := range grid.Periods {
		record := make([]string, 0, len(grid.Days)+1)
		record = append(record, period)
		for col := range grid.Days {
			record = append(record, grid.Cell(row, col))
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
