// Package timetable implements the scheduling core of the institute admin
// API: the authoritative entry store for one editing week, conflict
// detection, the undo/redo mutation log, the absence and substitution
// resolver, the exam/holiday blackout overlay, and week replication.
//
// Everything here is pure in-memory computation with single-writer
// semantics; callers that expose a store over the network must serialise
// writes externally (the session service holds one mutex per store).
package timetable

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/arka-edu/timetable-api/internal/models"
)

// NotFoundError is returned for operations on an unknown entry id.
type NotFoundError struct {
	ID string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("entry %s not found", e.ID)
}

// InvalidSlotError is returned when a slot lies outside the configured grid.
type InvalidSlotError struct {
	Slot          models.Slot
	PeriodsPerDay int
}

// Error implements the error interface.
func (e *InvalidSlotError) Error() string {
	return fmt.Sprintf("slot %s P%d outside grid of %d periods", e.Slot.Day, e.Slot.Period, e.PeriodsPerDay)
}

// EntryStore owns the canonical entry set for one editing week. Mutations
// validate against the conflict rules before committing, so a store's own
// writes can never leave it in a state DetectConflicts would flag.
type EntryStore struct {
	periodsPerDay int
	entries       []models.TimetableEntry
	index         map[string]int
}

// NewEntryStore builds an empty store for a grid with the given period count.
func NewEntryStore(periodsPerDay int) *EntryStore {
	return &EntryStore{
		periodsPerDay: periodsPerDay,
		index:         make(map[string]int),
	}
}

// Len reports how many entries the store holds.
func (s *EntryStore) Len() int {
	return len(s.entries)
}

// PeriodsPerDay exposes the configured grid height.
func (s *EntryStore) PeriodsPerDay() int {
	return s.periodsPerDay
}

// Get returns a copy of the entry with the given id.
func (s *EntryStore) Get(id string) (models.TimetableEntry, bool) {
	i, ok := s.index[id]
	if !ok {
		return models.TimetableEntry{}, false
	}
	return s.entries[i], true
}

// Add validates the entry against the grid and the clash rules and commits
// it. The entry's id is preserved when set and generated otherwise; the
// assigned id is returned. On any error the store is unchanged.
func (s *EntryStore) Add(entry models.TimetableEntry) (string, error) {
	if !entry.Slot.Valid(s.periodsPerDay) {
		return "", &InvalidSlotError{Slot: entry.Slot, PeriodsPerDay: s.periodsPerDay}
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	} else if _, exists := s.index[entry.ID]; exists {
		return "", fmt.Errorf("duplicate entry id %s", entry.ID)
	}
	if err := s.clashWith(entry, ""); err != nil {
		return "", err
	}
	s.index[entry.ID] = len(s.entries)
	s.entries = append(s.entries, entry)
	return entry.ID, nil
}

// Remove deletes the entry with the given id. Substitution cascades are the
// resolver's responsibility, not the store's.
func (s *EntryStore) Remove(id string) error {
	i, ok := s.index[id]
	if !ok {
		return &NotFoundError{ID: id}
	}
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	delete(s.index, id)
	for j := i; j < len(s.entries); j++ {
		s.index[s.entries[j].ID] = j
	}
	return nil
}

// Move relocates an entry to a new slot under the same validation rules as
// Add, checked against every entry except the one being moved.
func (s *EntryStore) Move(id string, newSlot models.Slot) error {
	i, ok := s.index[id]
	if !ok {
		return &NotFoundError{ID: id}
	}
	if !newSlot.Valid(s.periodsPerDay) {
		return &InvalidSlotError{Slot: newSlot, PeriodsPerDay: s.periodsPerDay}
	}
	candidate := s.entries[i]
	candidate.Slot = newSlot
	if err := s.clashWith(candidate, id); err != nil {
		return err
	}
	s.entries[i].Slot = newSlot
	return nil
}

// SetSubstitute marks or clears the substitution override on an entry. An
// empty substitute id clears the mark. The override is display state, not a
// scheduled mutation: it bypasses clash checks and is never recorded in
// history.
func (s *EntryStore) SetSubstitute(id, substituteTeacherID string) error {
	i, ok := s.index[id]
	if !ok {
		return &NotFoundError{ID: id}
	}
	s.entries[i].SubstituteTeacherID = substituteTeacherID
	s.entries[i].IsSubstituted = substituteTeacherID != ""
	return nil
}

// Query returns a restartable iterator over entries matching the filter.
func (s *EntryStore) Query(filter models.EntryFilter) *EntryIterator {
	return &EntryIterator{store: s, filter: filter}
}

// Entries returns a copy of the full entry set in stored order.
func (s *EntryStore) Entries() []models.TimetableEntry {
	out := make([]models.TimetableEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// EntriesAt returns the entries occupying (day, period) sorted by batch.
func (s *EntryStore) EntriesAt(day models.Day, period int) []models.TimetableEntry {
	var out []models.TimetableEntry
	for _, e := range s.entries {
		if e.Slot.Day == day && e.Slot.Period == period {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BatchID < out[j].BatchID })
	return out
}

// CanPlace reports whether an entry could legally land on the slot without
// committing anything. Used by the drag-and-drop legality probe.
func (s *EntryStore) CanPlace(entry models.TimetableEntry, ignoreID string) error {
	if !entry.Slot.Valid(s.periodsPerDay) {
		return &InvalidSlotError{Slot: entry.Slot, PeriodsPerDay: s.periodsPerDay}
	}
	return s.clashWith(entry, ignoreID)
}

// clashWith checks the candidate against every stored entry except ignoreID.
// Empty teacher ids (library, sports periods) skip the teacher rule; empty
// facility ids skip the facility rule; the batch rule always applies.
func (s *EntryStore) clashWith(candidate models.TimetableEntry, ignoreID string) error {
	for _, existing := range s.entries {
		if existing.ID == ignoreID {
			continue
		}
		if existing.Slot != candidate.Slot {
			continue
		}
		if candidate.TeacherID != "" && existing.TeacherID == candidate.TeacherID {
			return conflictErr(models.TeacherClash, candidate.TeacherID, candidate.Slot, existing.ID,
				fmt.Sprintf("teacher %s already occupies %s P%d", candidate.TeacherID, candidate.Slot.Day, candidate.Slot.Period))
		}
		if existing.BatchID == candidate.BatchID {
			return conflictErr(models.BatchClash, candidate.BatchID, candidate.Slot, existing.ID,
				fmt.Sprintf("batch %s already occupies %s P%d", candidate.BatchID, candidate.Slot.Day, candidate.Slot.Period))
		}
		if candidate.FacilityID != "" && existing.FacilityID == candidate.FacilityID {
			return conflictErr(models.FacilityClash, candidate.FacilityID, candidate.Slot, existing.ID,
				fmt.Sprintf("facility %s already booked for %s P%d", candidate.FacilityID, candidate.Slot.Day, candidate.Slot.Period))
		}
	}
	return nil
}

func conflictErr(t models.ConflictType, identity string, slot models.Slot, entryID, message string) error {
	return &models.ConflictError{Conflict: models.Conflict{
		Type:     t,
		Identity: identity,
		Slot:     slot,
		EntryIDs: []string{entryID},
		Message:  message,
		Blocking: true,
	}}
}

// EntryIterator walks store entries matching a filter. It is lazy over the
// store's current slice, restartable via Reset, and finite.
type EntryIterator struct {
	store  *EntryStore
	filter models.EntryFilter
	pos    int
}

// Next returns the next matching entry; ok is false once exhausted.
func (it *EntryIterator) Next() (models.TimetableEntry, bool) {
	for it.pos < len(it.store.entries) {
		entry := it.store.entries[it.pos]
		it.pos++
		if it.filter.Matches(entry) {
			return entry, true
		}
	}
	return models.TimetableEntry{}, false
}

// Reset rewinds the iterator to the beginning.
func (it *EntryIterator) Reset() {
	it.pos = 0
}

// Collect drains the iterator into a slice.
func (it *EntryIterator) Collect() []models.TimetableEntry {
	var out []models.TimetableEntry
	for {
		entry, ok := it.Next()
		if !ok {
			return out
		}
		out = append(out, entry)
	}
}
