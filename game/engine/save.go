package engine

import (
	"encoding/json"
	"fmt"
)

// SaveData is the persisted form of a farm and its history
type SaveData struct {
	CurrentState GameState   `json:"currentState"`
	UndoStack    []GameState `json:"undoStack"`
	RedoStack    []GameState `json:"redoStack"`
}

// Encode serializes the save as JSON
func (s *SaveData) Encode() ([]byte, error) {
	if s.UndoStack == nil {
		s.UndoStack = []GameState{}
	}
	if s.RedoStack == nil {
		s.RedoStack = []GameState{}
	}
	return json.Marshal(s)
}

// DecodeSaveData parses a save payload. Any parse or shape problem is reported as ErrCorruptSave.
func DecodeSaveData(data []byte) (*SaveData, error) {
	var s SaveData
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSave, err)
	}
	if len(s.CurrentState.GridData) == 0 {
		return nil, fmt.Errorf("%w: missing grid data", ErrCorruptSave)
	}
	if len(s.CurrentState.GridData)%FieldsPerCell != 0 {
		return nil, fmt.Errorf("%w: grid data length %d is not a multiple of %d", ErrCorruptSave, len(s.CurrentState.GridData), FieldsPerCell)
	}
	return &s, nil
}

// SlotKey returns the store key for a manual save slot
func SlotKey(slot string) string {
	return SlotKeyPrefix + slot
}
