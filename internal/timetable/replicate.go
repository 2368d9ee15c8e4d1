package timetable

import (
	"errors"
	"time"

	"github.com/arka-edu/timetable-api/internal/models"
)

// TargetWeek pairs a destination store with the Monday its week starts on.
type TargetWeek struct {
	WeekStart time.Time
	Store     *EntryStore
}

// CopyOptions tunes week replication. IsHoliday is only consulted when
// SkipHolidays is set.
type CopyOptions struct {
	SkipHolidays bool
	IsHoliday    func(date time.Time) bool
}

// CopyWeek clones the source entries into each target week. Every clone
// gets a fresh id and goes through the target store's normal Add, so a
// clone that would clash is silently skipped rather than aborting the
// whole copy; likewise entries landing on holidays when SkipHolidays is
// set. Returns the number of entries actually added, which may be less
// than source × targets. Invalid-slot failures do abort: they indicate a
// grid mismatch between source and target, not a per-entry collision.
func CopyWeek(source []models.TimetableEntry, targets []TargetWeek, opts CopyOptions) (int, error) {
	copied := 0
	for _, target := range targets {
		for _, entry := range source {
			if opts.SkipHolidays && opts.IsHoliday != nil {
				date := target.WeekStart.AddDate(0, 0, entry.Slot.Day.Offset())
				if opts.IsHoliday(date) {
					continue
				}
			}
			clone := entry
			clone.ID = ""
			clone.IsSubstituted = false
			clone.SubstituteTeacherID = ""
			if _, err := target.Store.Add(clone); err != nil {
				var conflict *models.ConflictError
				if errors.As(err, &conflict) {
					continue
				}
				return copied, err
			}
			copied++
		}
	}
	return copied, nil
}
