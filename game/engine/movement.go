package engine

import (
	"fmt"
	"strings"
	"time"
)

// Directions lists the accepted move directions
var Directions = []string{"up", "down", "left", "right"}

func directionDelta(direction string) (dx, dy int, err error) {
	switch strings.ToLower(direction) {
	case "up":
		return 0, -1, nil
	case "down":
		return 0, 1, nil
	case "left":
		return -1, 0, nil
	case "right":
		return 1, 0, nil
	}
	return 0, 0, fmt.Errorf("%w: %q", ErrUnknownDirection, direction)
}

// MovePlayer steps the player one tile. Moving is free and is not recorded
// in the undo history.
func (f *Farm) MovePlayer(direction string) error {
	dx, dy, err := directionDelta(direction)
	if err != nil {
		return err
	}
	x, y := f.Player.X+dx, f.Player.Y+dy
	if !f.Grid.InBounds(y, x) {
		return ErrBlocked
	}
	f.Player = Position{X: x, Y: y}
	return nil
}

// CanMovePlayer reports whether a step in direction stays on the grid
func (f *Farm) CanMovePlayer(direction string) bool {
	dx, dy, err := directionDelta(direction)
	if err != nil {
		return false
	}
	return f.Grid.InBounds(f.Player.Y+dy, f.Player.X+dx)
}

// LocalView returns the eight tiles around the player, clockwise from north.
// Positions off the grid are omitted.
func (f *Farm) LocalView() []Tile {
	px, py := f.Player.X, f.Player.Y
	directions := []struct{ dx, dy int }{
		{0, -1},  // North
		{1, -1},  // North-East
		{1, 0},   // East
		{1, 1},   // South-East
		{0, 1},   // South
		{-1, 1},  // South-West
		{-1, 0},  // West
		{-1, -1}, // North-West
	}

	view := make([]Tile, 0, len(directions))
	for _, dir := range directions {
		x, y := px+dir.dx, py+dir.dy
		if f.Grid.InBounds(y, x) {
			view = append(view, f.Grid.Tile(y, x))
		}
	}
	return view
}

// ActionLogEntry records one attempted action
type ActionLogEntry struct {
	Number    int    `json:"number"`
	Action    string `json:"action"`
	Detail    string `json:"detail,omitempty"`
	Day       int    `json:"day"`
	Success   bool   `json:"success"`
	Reason    string `json:"reason,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// ActionLog is the running list of attempted actions. Unlike the farm it is
// never rolled back by undo or load.
type ActionLog struct {
	entries []ActionLogEntry
	limit   int
}

func NewActionLog(limit int) *ActionLog {
	return &ActionLog{limit: limit}
}

// Add appends an entry, dropping the oldest when over the limit
func (l *ActionLog) Add(action, detail string, day int, err error) ActionLogEntry {
	number := 1
	if n := len(l.entries); n > 0 {
		number = l.entries[n-1].Number + 1
	}
	entry := ActionLogEntry{
		Number:    number,
		Action:    action,
		Detail:    detail,
		Day:       day,
		Success:   err == nil,
		Reason:    ReasonCode(err),
		Timestamp: time.Now().Unix(),
	}
	l.entries = append(l.entries, entry)
	if l.limit > 0 && len(l.entries) > l.limit {
		l.entries = l.entries[len(l.entries)-l.limit:]
	}
	return entry
}

// Entries returns a copy of the log, oldest first
func (l *ActionLog) Entries() []ActionLogEntry {
	return append([]ActionLogEntry{}, l.entries...)
}

// Last returns the most recent entry, or nil
func (l *ActionLog) Last() *ActionLogEntry {
	if len(l.entries) == 0 {
		return nil
	}
	e := l.entries[len(l.entries)-1]
	return &e
}
