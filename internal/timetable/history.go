package timetable

import (
	"fmt"

	"github.com/arka-edu/timetable-api/internal/models"
)

// CommandKind names a history-tracked mutation.
type CommandKind string

const (
	CommandAdd    CommandKind = "ADD"
	CommandRemove CommandKind = "REMOVE"
	CommandMove   CommandKind = "MOVE"
)

// Command captures one applied mutation with enough state to invert it.
// Entry is a snapshot copy, never an alias into the store, so replaying
// inverses across several undo steps cannot observe later edits.
type Command struct {
	Kind        CommandKind           `json:"kind"`
	Entry       models.TimetableEntry `json:"entry"`
	From        models.Slot           `json:"from,omitempty"`
	To          models.Slot           `json:"to,omitempty"`
	Description string                `json:"description"`
}

// History is a linear undo/redo log over one store's mutations. All forward
// mutations must flow through it; applying one after an undo clears the redo
// stack. Undo and redo on an empty stack are no-ops, never errors.
type History struct {
	store *EntryStore
	undo  []Command
	redo  []Command
}

// NewHistory wraps a store with an empty mutation log.
func NewHistory(store *EntryStore) *History {
	return &History{store: store}
}

// Add commits a new entry through the store and logs it.
func (h *History) Add(entry models.TimetableEntry) (string, error) {
	id, err := h.store.Add(entry)
	if err != nil {
		return "", err
	}
	committed, _ := h.store.Get(id)
	h.push(Command{
		Kind:        CommandAdd,
		Entry:       committed,
		Description: fmt.Sprintf("Added %s to %s P%d", describeSubject(committed), committed.Slot.Day, committed.Slot.Period),
	})
	return id, nil
}

// Remove deletes an entry through the store and logs the captured snapshot.
func (h *History) Remove(id string) error {
	snapshot, ok := h.store.Get(id)
	if !ok {
		return &NotFoundError{ID: id}
	}
	if err := h.store.Remove(id); err != nil {
		return err
	}
	h.push(Command{
		Kind:        CommandRemove,
		Entry:       snapshot,
		Description: fmt.Sprintf("Removed %s from %s P%d", describeSubject(snapshot), snapshot.Slot.Day, snapshot.Slot.Period),
	})
	return nil
}

// Move relocates an entry through the store and logs both slots.
func (h *History) Move(id string, newSlot models.Slot) error {
	before, ok := h.store.Get(id)
	if !ok {
		return &NotFoundError{ID: id}
	}
	if err := h.store.Move(id, newSlot); err != nil {
		return err
	}
	after, _ := h.store.Get(id)
	h.push(Command{
		Kind:        CommandMove,
		Entry:       after,
		From:        before.Slot,
		To:          newSlot,
		Description: fmt.Sprintf("Moved %s from %s P%d to %s P%d", describeSubject(after), before.Slot.Day, before.Slot.Period, newSlot.Day, newSlot.Period),
	})
	return nil
}

// Undo reverts the most recent mutation. Returns false when there is
// nothing to undo.
func (h *History) Undo() bool {
	if len(h.undo) == 0 {
		return false
	}
	cmd := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.invert(cmd)
	h.redo = append(h.redo, cmd)
	return true
}

// Redo re-applies the most recently undone mutation. Returns false when
// the redo stack is empty.
func (h *History) Redo() bool {
	if len(h.redo) == 0 {
		return false
	}
	cmd := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.reapply(cmd)
	h.undo = append(h.undo, cmd)
	return true
}

// CanUndo reports whether the undo stack is non-empty.
func (h *History) CanUndo() bool { return len(h.undo) > 0 }

// CanRedo reports whether the redo stack is non-empty.
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// LastAction describes the mutation Undo would revert, empty when none.
func (h *History) LastAction() string {
	if len(h.undo) == 0 {
		return ""
	}
	return h.undo[len(h.undo)-1].Description
}

// NextAction describes the mutation Redo would re-apply, empty when none.
func (h *History) NextAction() string {
	if len(h.redo) == 0 {
		return ""
	}
	return h.redo[len(h.redo)-1].Description
}

// Log returns the undo stack oldest-first for UI display.
func (h *History) Log() []Command {
	out := make([]Command, len(h.undo))
	copy(out, h.undo)
	return out
}

func (h *History) push(cmd Command) {
	h.undo = append(h.undo, cmd)
	// Standard linear history: a forward mutation invalidates stale redo.
	h.redo = nil
}

// invert applies a command's inverse. Inverses always succeed because the
// store is in exactly the post-command state when they run.
func (h *History) invert(cmd Command) {
	switch cmd.Kind {
	case CommandAdd:
		_ = h.store.Remove(cmd.Entry.ID)
	case CommandRemove:
		_, _ = h.store.Add(cmd.Entry)
	case CommandMove:
		_ = h.store.Move(cmd.Entry.ID, cmd.From)
	}
}

func (h *History) reapply(cmd Command) {
	switch cmd.Kind {
	case CommandAdd:
		_, _ = h.store.Add(cmd.Entry)
	case CommandRemove:
		_ = h.store.Remove(cmd.Entry.ID)
	case CommandMove:
		_ = h.store.Move(cmd.Entry.ID, cmd.To)
	}
}

func describeSubject(entry models.TimetableEntry) string {
	if entry.SubjectID != "" {
		return entry.SubjectID
	}
	if entry.TeacherID == "" {
		return "free period"
	}
	return entry.TeacherID
}
