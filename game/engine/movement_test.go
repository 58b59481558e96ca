package engine

import (
	"errors"
	"testing"
)

func TestMovePlayer_BasicMovement(t *testing.T) {
	f := uniformFarm(3, 3, 50, 50)
	f.Player = Position{X: 1, Y: 1}

	tests := []struct {
		direction string
		want      Position
	}{
		{"up", Position{X: 1, Y: 0}},
		{"down", Position{X: 1, Y: 1}},
		{"left", Position{X: 0, Y: 1}},
		{"RIGHT", Position{X: 1, Y: 1}},
	}
	for _, tt := range tests {
		if err := f.MovePlayer(tt.direction); err != nil {
			t.Fatalf("MovePlayer(%q) failed: %v", tt.direction, err)
		}
		if f.Player != tt.want {
			t.Errorf("After %q expected %+v, got %+v", tt.direction, tt.want, f.Player)
		}
	}
}

func TestMovePlayer_GridEdge(t *testing.T) {
	f := uniformFarm(2, 2, 50, 50)
	f.Player = Position{X: 0, Y: 0}

	if err := f.MovePlayer("up"); !errors.Is(err, ErrBlocked) {
		t.Errorf("Expected ErrBlocked, got %v", err)
	}
	if err := f.MovePlayer("left"); !errors.Is(err, ErrBlocked) {
		t.Errorf("Expected ErrBlocked, got %v", err)
	}
	if f.Player != (Position{X: 0, Y: 0}) {
		t.Errorf("Expected a blocked move to leave the player, got %+v", f.Player)
	}
}

func TestMovePlayer_InvalidDirection(t *testing.T) {
	f := uniformFarm(2, 2, 50, 50)

	err := f.MovePlayer("north")
	if !errors.Is(err, ErrUnknownDirection) {
		t.Errorf("Expected ErrUnknownDirection, got %v", err)
	}
	if ReasonCode(err) != "unknown_direction" {
		t.Errorf("Expected reason unknown_direction, got %s", ReasonCode(err))
	}
}

func TestMovePlayer_DoesNotSpendActions(t *testing.T) {
	f := uniformFarm(3, 3, 50, 50)
	f.Player = Position{X: 1, Y: 1}
	before := f.ActionsRemaining

	if err := f.MovePlayer("down"); err != nil {
		t.Fatalf("MovePlayer failed: %v", err)
	}
	if f.ActionsRemaining != before {
		t.Errorf("Expected moving to be free, actions went from %d to %d", before, f.ActionsRemaining)
	}
}

func TestCanMovePlayer(t *testing.T) {
	f := uniformFarm(2, 3, 50, 50)
	f.Player = Position{X: 2, Y: 1}

	if f.CanMovePlayer("right") || f.CanMovePlayer("down") {
		t.Error("Expected moves off the grid to be refused")
	}
	if !f.CanMovePlayer("left") || !f.CanMovePlayer("up") {
		t.Error("Expected moves onto the grid to be allowed")
	}
	if f.CanMovePlayer("sideways") {
		t.Error("Expected an unknown direction to be refused")
	}
}

func TestLocalView(t *testing.T) {
	f := uniformFarm(3, 3, 50, 50)
	f.Grid.Set(FieldPlantType, 0, 1, uint8(Potato))
	f.Grid.Set(FieldPlantLevel, 0, 1, 2)

	f.Player = Position{X: 1, Y: 1}
	view := f.LocalView()
	if len(view) != 8 {
		t.Fatalf("Expected 8 tiles around the centre, got %d", len(view))
	}
	if view[0].Row != 0 || view[0].Col != 1 || view[0].Plant != Potato {
		t.Errorf("Expected the north tile first, got %+v", view[0])
	}

	f.Player = Position{X: 0, Y: 0}
	if got := len(f.LocalView()); got != 3 {
		t.Errorf("Expected 3 tiles around a corner, got %d", got)
	}
}

func TestActionLog(t *testing.T) {
	log := NewActionLog(2)
	if log.Last() != nil {
		t.Error("Expected an empty log to have no last entry")
	}

	log.Add("plant", "potato at (0,0)", 1, nil)
	log.Add("harvest", "(0,0)", 1, ErrNoPlant)
	log.Add("advance_day", "", 1, nil)

	entries := log.Entries()
	if len(entries) != 2 {
		t.Fatalf("Expected the log to keep 2 entries, got %d", len(entries))
	}
	if entries[0].Number != 2 || entries[1].Number != 3 {
		t.Errorf("Expected numbering to continue past dropped entries, got %d and %d", entries[0].Number, entries[1].Number)
	}
	if entries[0].Success || entries[0].Reason != ReasonCode(ErrNoPlant) {
		t.Errorf("Expected the failed harvest to carry its reason, got %+v", entries[0])
	}
	if last := log.Last(); last == nil || last.Action != "advance_day" || !last.Success {
		t.Errorf("Unexpected last entry %+v", last)
	}

	entries[0].Action = "changed"
	if log.Entries()[0].Action == "changed" {
		t.Error("Expected Entries to return a copy")
	}
}
