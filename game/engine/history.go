package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/wricardo/farmday/game/storage"
)

// MaxHistoryDepth bounds the undo stack. The oldest snapshot is dropped when
// an action would push past it.
const MaxHistoryDepth = 100

// History owns the undo and redo stacks for one farm and writes the
// autosave slot after every recorded change.
type History struct {
	undo   []GameState
	redo   []GameState
	store  storage.SlotStore
	logger *slog.Logger
}

// NewHistory creates empty stacks. A nil store keeps slots in memory.
func NewHistory(store storage.SlotStore, logger *slog.Logger) *History {
	if store == nil {
		store = storage.NewMemoryStore()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &History{store: store, logger: logger}
}

func (h *History) CanUndo() bool { return len(h.undo) > 0 }
func (h *History) CanRedo() bool { return len(h.redo) > 0 }
func (h *History) UndoDepth() int { return len(h.undo) }
func (h *History) RedoDepth() int { return len(h.redo) }

// Clear drops both stacks
func (h *History) Clear() {
	h.undo = nil
	h.redo = nil
}

// PerformAction records a snapshot and runs action against f.
//
// A budgeted action is refused with ErrNoActionsRemaining before anything is
// recorded. The redo stack is cleared whether or not the action succeeds. A
// failed action is rolled back to the recorded snapshot and its snapshot is
// discarded; a successful budgeted action costs one action.
func (h *History) PerformAction(f *Farm, budgeted bool, action func() error) error {
	if budgeted && f.ActionsRemaining <= 0 {
		return ErrNoActionsRemaining
	}

	h.undo = append(h.undo, f.Snapshot())
	err := action()
	h.redo = nil

	if err != nil {
		prev := h.pop(&h.undo)
		if rerr := f.Restore(prev); rerr != nil {
			h.logger.Error("failed to roll back action", "error", rerr)
		}
	} else {
		h.undo = newest(h.undo)
		if budgeted {
			f.ActionsRemaining = max(0, f.ActionsRemaining-1)
		}
	}

	h.autosave(f)
	return err
}

// Undo restores the state before the last recorded action
func (h *History) Undo(f *Farm) error {
	if len(h.undo) == 0 {
		h.logger.Info("undo unavailable")
		return ErrNothingToUndo
	}
	return h.swap(f, &h.undo, &h.redo)
}

// Redo re-applies the last undone action
func (h *History) Redo(f *Farm) error {
	if len(h.redo) == 0 {
		h.logger.Info("redo unavailable")
		return ErrNothingToRedo
	}
	return h.swap(f, &h.redo, &h.undo)
}

func (h *History) swap(f *Farm, from, to *[]GameState) error {
	next := (*from)[len(*from)-1]
	if err := f.CheckState(next); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptSave, err)
	}
	*to = append(*to, f.Snapshot())
	h.pop(from)
	if err := f.Restore(next); err != nil {
		return err
	}
	h.autosave(f)
	return nil
}

func (h *History) pop(stack *[]GameState) GameState {
	s := *stack
	top := s[len(s)-1]
	*stack = s[:len(s)-1]
	return top
}

// SaveData captures the farm and both stacks
func (h *History) SaveData(f *Farm) *SaveData {
	return &SaveData{
		CurrentState: f.Snapshot(),
		UndoStack:    cloneStates(h.undo),
		RedoStack:    cloneStates(h.redo),
	}
}

// Apply replaces the farm and both stacks with data. Every state is checked
// first, so a save that does not fit this farm leaves everything untouched.
func (h *History) Apply(f *Farm, data *SaveData) error {
	if data == nil {
		return fmt.Errorf("%w: empty save", ErrCorruptSave)
	}
	if err := f.CheckState(data.CurrentState); err != nil {
		return fmt.Errorf("%w: current state: %v", ErrCorruptSave, err)
	}
	for i, s := range data.UndoStack {
		if err := f.CheckState(s); err != nil {
			return fmt.Errorf("%w: undo[%d]: %v", ErrCorruptSave, i, err)
		}
	}
	for i, s := range data.RedoStack {
		if err := f.CheckState(s); err != nil {
			return fmt.Errorf("%w: redo[%d]: %v", ErrCorruptSave, i, err)
		}
	}
	if err := f.Restore(data.CurrentState); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptSave, err)
	}
	h.undo = cloneStates(newest(data.UndoStack))
	h.redo = cloneStates(newest(data.RedoStack))
	return nil
}

// newest keeps the top MaxHistoryDepth entries of a stack
func newest(stack []GameState) []GameState {
	if len(stack) > MaxHistoryDepth {
		return stack[len(stack)-MaxHistoryDepth:]
	}
	return stack
}

// SaveToSlot writes the farm and both stacks to a manual slot
func (h *History) SaveToSlot(f *Farm, slot string) error {
	return h.write(f, SlotKey(slot))
}

// LoadFromSlot replaces the farm and stacks from a manual slot
func (h *History) LoadFromSlot(f *Farm, slot string) error {
	if err := h.read(f, SlotKey(slot)); err != nil {
		return err
	}
	h.autosave(f)
	return nil
}

// LoadAutosave restores the autosave slot, if one exists
func (h *History) LoadAutosave(f *Farm) error {
	return h.read(f, AutosaveSlot)
}

// HasSlot reports whether a manual slot holds a save
func (h *History) HasSlot(slot string) bool {
	return h.store.Exists(SlotKey(slot))
}

func (h *History) write(f *Farm, key string) error {
	payload, err := h.SaveData(f).Encode()
	if err != nil {
		return fmt.Errorf("encode save: %w", err)
	}
	if err := h.store.Save(key, payload); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (h *History) read(f *Farm, key string) error {
	payload, err := h.store.Load(key)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNoSaveData, key)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}
	data, err := DecodeSaveData(payload)
	if err != nil {
		return err
	}
	return h.Apply(f, data)
}

func (h *History) autosave(f *Farm) {
	if err := h.write(f, AutosaveSlot); err != nil {
		h.logger.Warn("autosave failed", "error", err)
	}
}

func cloneStates(states []GameState) []GameState {
	out := make([]GameState, len(states))
	for i, s := range states {
		out[i] = s.Clone()
	}
	return out
}
