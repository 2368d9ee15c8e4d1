package timetable

import (
	"time"

	"github.com/arka-edu/timetable-api/internal/models"
)

const dateKeyLayout = "2006-01-02"

// OverlayOptions maps period numbers onto clock times for time-range exam
// blocks. FirstPeriodStart is "HH:MM"; period n starts at
// FirstPeriodStart + (n-1) × PeriodLength.
type OverlayOptions struct {
	FirstPeriodStart string
	PeriodLength     time.Duration
}

// Overlay answers whether a dated slot falls inside a blackout window.
// It reads holidays and exam blocks supplied at construction and never
// touches the entry store: a blocked slot may still hold entries (they
// resurface in non-blackout weeks). Enforcing the block on writes is the
// caller's policy, not the overlay's.
type Overlay struct {
	holidays     map[string]models.Holiday
	blocks       []models.ExamBlock
	firstStart   int
	periodLength int
}

// NewOverlay indexes the reference data for slot probes.
func NewOverlay(holidays []models.Holiday, blocks []models.ExamBlock, opts OverlayOptions) *Overlay {
	o := &Overlay{
		holidays:     make(map[string]models.Holiday, len(holidays)),
		blocks:       blocks,
		firstStart:   8 * 60,
		periodLength: 45,
	}
	for _, h := range holidays {
		o.holidays[h.Date.Format(dateKeyLayout)] = h
	}
	if m, ok := parseClock(opts.FirstPeriodStart); ok {
		o.firstStart = m
	}
	if opts.PeriodLength > 0 {
		o.periodLength = int(opts.PeriodLength.Minutes())
	}
	return o
}

// Holiday returns the holiday label for a date when one exists.
func (o *Overlay) Holiday(date time.Time) (string, bool) {
	h, ok := o.holidays[date.Format(dateKeyLayout)]
	if !ok {
		return "", false
	}
	return h.Name, true
}

// IsSlotBlocked evaluates the blackout rules for one dated slot. Holidays
// win outright; otherwise the first exam block whose scope, date, and time
// criteria all match decides. Simultaneous blocks do not blend.
func (o *Overlay) IsSlotBlocked(date time.Time, period int, scope models.BatchScope) models.SlotBlock {
	if name, ok := o.Holiday(date); ok {
		return models.SlotBlock{Blocked: true, BlockName: name, Holiday: name}
	}
	for _, block := range o.blocks {
		if !scopeMatches(block, scope) {
			continue
		}
		if !o.dateMatches(block, date) {
			continue
		}
		if !o.timeMatches(block, period) {
			continue
		}
		return models.SlotBlock{Blocked: true, BlockName: block.Name, ExamTypeID: block.ExamTypeID}
	}
	return models.SlotBlock{}
}

func scopeMatches(block models.ExamBlock, scope models.BatchScope) bool {
	switch block.ScopeType {
	case models.ScopeInstitution:
		return true
	case models.ScopeCourse:
		return block.ScopeID != "" && block.ScopeID == scope.CourseID
	case models.ScopeClass:
		return block.ScopeID != "" && block.ScopeID == scope.ClassID
	case models.ScopeBatch:
		return block.ScopeID != "" && block.ScopeID == scope.BatchID
	default:
		return false
	}
}

func (o *Overlay) dateMatches(block models.ExamBlock, date time.Time) bool {
	switch block.DateType {
	case models.DateSingleDay, models.DateMultiDay:
		key := date.Format(dateKeyLayout)
		for _, d := range block.Dates {
			if d.Format(dateKeyLayout) == key {
				return true
			}
		}
		return false
	case models.DateRecurring:
		if block.Recurring == nil {
			return false
		}
		day, ok := models.DayOf(date)
		if !ok || day != block.Recurring.DayOfWeek {
			return false
		}
		return !dateBefore(date, block.Recurring.StartDate) && !dateBefore(block.Recurring.EndDate, date)
	default:
		return false
	}
}

func (o *Overlay) timeMatches(block models.ExamBlock, period int) bool {
	switch block.TimeType {
	case models.TimeFullDay:
		return true
	case models.TimePeriods:
		for _, p := range block.Periods {
			if p == period {
				return true
			}
		}
		return false
	case models.TimeTimeRange:
		start, okStart := parseClock(block.StartTime)
		end, okEnd := parseClock(block.EndTime)
		if !okStart || !okEnd {
			return false
		}
		periodStart := o.firstStart + (period-1)*o.periodLength
		return periodStart >= start && periodStart < end
	default:
		return false
	}
}

// parseClock converts "HH:MM" into minutes since midnight.
func parseClock(raw string) (int, bool) {
	t, err := time.Parse("15:04", raw)
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}

// dateBefore compares calendar dates ignoring the time-of-day component.
func dateBefore(a, b time.Time) bool {
	return a.Format(dateKeyLayout) < b.Format(dateKeyLayout)
}
