package models

import "fmt"

// ConflictType identifies the dimension on which two entries clash.
type ConflictType string

const (
	TeacherClash     ConflictType = "TEACHER"
	BatchClash       ConflictType = "BATCH"
	FacilityClash    ConflictType = "FACILITY"
	OverloadConflict ConflictType = "OVERLOAD"
)

// Conflict reports one clash per (type, identity, slot). Multiple entries
// piling onto the same slot collapse into a single conflict rather than
// one per pair.
type Conflict struct {
	Type     ConflictType `json:"type"`
	Identity string       `json:"identity"`
	Slot     Slot         `json:"slot,omitempty"`
	EntryIDs []string     `json:"entry_ids,omitempty"`
	Message  string       `json:"message"`
	// Blocking is false for advisory conflicts such as teacher overload.
	Blocking bool `json:"blocking"`
}

// Key is the canonical deduplication key for a conflict.
func (c Conflict) Key() string {
	return fmt.Sprintf("%s|%s|%s|%d", c.Type, c.Identity, c.Slot.Day, c.Slot.Period)
}

// ConflictError is returned when a mutation would double-book an identity.
type ConflictError struct {
	Conflict Conflict `json:"conflict"`
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Conflict.Message
}
