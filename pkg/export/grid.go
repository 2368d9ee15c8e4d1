package export

// WeekGrid is a period-by-day rendering of one timetable week.
// Cells are pre-formatted display strings ("Physics / T1 / Lab-2"),
// empty when the slot is free, keyed by [period-1][day index].
type WeekGrid struct {
	Title   string
	Days    []string
	Periods []string
	Cells   [][]string
}

// Cell returns the display text at (row, col), tolerating ragged input.
func (g WeekGrid) Cell(row, col int) string {
	if row < 0 || row >= len(g.Cells) {
		return ""
	}
	if col < 0 || col >= len(g.Cells[row]) {
		return ""
	}
	return g.Cells[row][col]
}
