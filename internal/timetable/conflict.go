package timetable

import (
	"fmt"
	"sort"

	"github.com/arka-edu/timetable-api/internal/models"
)

// DetectOptions tunes conflict detection. Loads enables overload reporting;
// WorkingDayDivisor converts a weekly quota into the per-day estimate the
// load display uses (the legacy UI hardcoded 6).
type DetectOptions struct {
	Loads             []models.TeacherLoad
	WorkingDayDivisor int
}

// DetectConflicts computes every clash in the entry set. Pairwise over
// stored order, O(n²); n is bounded by days × periods × batches so this
// stays in the hundreds. Conflicts are deduplicated by canonical
// (type, identity, day, period) key: k entries piled onto one slot report
// one conflict listing all k entry ids, not C(k,2) pairs. Overload
// conflicts are advisory and never block mutations.
func DetectConflicts(entries []models.TimetableEntry, opts DetectOptions) []models.Conflict {
	found := make(map[string]*models.Conflict)
	var order []string

	record := func(c models.Conflict, ids ...string) {
		key := c.Key()
		existing, ok := found[key]
		if !ok {
			c.EntryIDs = append([]string{}, ids...)
			found[key] = &c
			order = append(order, key)
			return
		}
		for _, id := range ids {
			if !containsString(existing.EntryIDs, id) {
				existing.EntryIDs = append(existing.EntryIDs, id)
			}
		}
	}

	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			a, b := entries[i], entries[j]
			if a.Slot != b.Slot {
				continue
			}
			if a.TeacherID != "" && a.TeacherID == b.TeacherID {
				record(models.Conflict{
					Type:     models.TeacherClash,
					Identity: a.TeacherID,
					Slot:     a.Slot,
					Message:  fmt.Sprintf("teacher %s double-booked on %s P%d", a.TeacherID, a.Slot.Day, a.Slot.Period),
					Blocking: true,
				}, a.ID, b.ID)
			}
			if a.BatchID == b.BatchID {
				record(models.Conflict{
					Type:     models.BatchClash,
					Identity: a.BatchID,
					Slot:     a.Slot,
					Message:  fmt.Sprintf("batch %s double-booked on %s P%d", a.BatchID, a.Slot.Day, a.Slot.Period),
					Blocking: true,
				}, a.ID, b.ID)
			}
			if a.FacilityID != "" && a.FacilityID == b.FacilityID {
				record(models.Conflict{
					Type:     models.FacilityClash,
					Identity: a.FacilityID,
					Slot:     a.Slot,
					Message:  fmt.Sprintf("facility %s double-booked on %s P%d", a.FacilityID, a.Slot.Day, a.Slot.Period),
					Blocking: true,
				}, a.ID, b.ID)
			}
		}
	}

	for _, c := range overloads(entries, opts) {
		record(c, c.EntryIDs...)
	}

	out := make([]models.Conflict, 0, len(order))
	for _, key := range order {
		out = append(out, *found[key])
	}
	return out
}

// overloads reports teachers whose assigned periods exceed their weekly
// quota, plus days where the count exceeds the estimated daily quota.
func overloads(entries []models.TimetableEntry, opts DetectOptions) []models.Conflict {
	if len(opts.Loads) == 0 {
		return nil
	}
	divisor := opts.WorkingDayDivisor
	if divisor < 1 {
		divisor = 6
	}

	weekly := make(map[string]int)
	daily := make(map[string]map[models.Day]int)
	for _, e := range entries {
		if e.TeacherID == "" {
			continue
		}
		weekly[e.TeacherID]++
		if daily[e.TeacherID] == nil {
			daily[e.TeacherID] = make(map[models.Day]int)
		}
		daily[e.TeacherID][e.Slot.Day]++
	}

	var out []models.Conflict
	for _, load := range opts.Loads {
		assigned := weekly[load.TeacherID]
		if load.PeriodsPerWeek > 0 && assigned > load.PeriodsPerWeek {
			out = append(out, models.Conflict{
				Type:     models.OverloadConflict,
				Identity: load.TeacherID,
				Message:  fmt.Sprintf("teacher %s assigned %d periods, quota %d per week", load.TeacherID, assigned, load.PeriodsPerWeek),
				Blocking: false,
			})
		}
		if load.PeriodsPerWeek <= 0 {
			continue
		}
		quota := (load.PeriodsPerWeek + divisor - 1) / divisor
		days := make([]models.Day, 0, len(daily[load.TeacherID]))
		for day := range daily[load.TeacherID] {
			days = append(days, day)
		}
		sort.Slice(days, func(i, j int) bool { return days[i].Offset() < days[j].Offset() })
		for _, day := range days {
			if count := daily[load.TeacherID][day]; count > quota {
				out = append(out, models.Conflict{
					Type:     models.OverloadConflict,
					Identity: load.TeacherID,
					Slot:     models.Slot{Day: day},
					Message:  fmt.Sprintf("teacher %s has %d periods on %s, estimated daily quota %d", load.TeacherID, count, day, quota),
					Blocking: false,
				})
			}
		}
	}
	return out
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
