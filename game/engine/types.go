package engine

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PlantType identifies the crop growing on a tile. It is stored as one byte in the grid.
type PlantType uint8

const (
	None PlantType = iota
	Potato
	Carrot
	Cabbage
)

// Field selects one of the per-tile bytes in a Grid
type Field int

const (
	FieldSunlight Field = iota
	FieldWater
	FieldPlantType
	FieldPlantLevel

	// FieldsPerCell is the number of bytes each tile occupies in the grid buffer
	FieldsPerCell = 4
)

const (
	DefaultRows       = 10
	DefaultCols       = 10
	MinGridSize       = 1
	MaxGridSize       = 64
	DailyActionBudget = 10
	MaxSunlight       = 100
	MaxWater          = 100
	MaxDailyRain      = 30
	MaxPlantLevel     = 3

	// AutosaveSlot is the store key written after every recorded action
	AutosaveSlot = "autoSave"
	// SlotKeyPrefix prefixes manual save slot ids
	SlotKeyPrefix = "saveSlot"
)

// Crops lists the plantable crop kinds in display order
var Crops = []PlantType{Potato, Carrot, Cabbage}

// String returns the lower-case crop name used in documents and saves
func (p PlantType) String() string {
	switch p {
	case None:
		return "none"
	case Potato:
		return "potato"
	case Carrot:
		return "carrot"
	case Cabbage:
		return "cabbage"
	default:
		return fmt.Sprintf("plant(%d)", uint8(p))
	}
}

// IsCrop reports whether p is a plantable crop
func (p PlantType) IsCrop() bool {
	return p == Potato || p == Carrot || p == Cabbage
}

// ParsePlantType converts a crop name into a PlantType (case-insensitive)
func ParsePlantType(name string) (PlantType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "none", "":
		return None, nil
	case "potato":
		return Potato, nil
	case "carrot":
		return Carrot, nil
	case "cabbage":
		return Cabbage, nil
	}
	return None, fmt.Errorf("%w: %q", ErrUnknownCrop, name)
}

// MarshalText implements encoding.TextMarshaler
func (p PlantType) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (p *PlantType) UnmarshalText(text []byte) error {
	parsed, err := ParsePlantType(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Inventory tracks how many of each crop the player holds
type Inventory struct {
	Potato  int `json:"potato" yaml:"potato"`
	Carrot  int `json:"carrot" yaml:"carrot"`
	Cabbage int `json:"cabbage" yaml:"cabbage"`
}

// DefaultInventory is the starting inventory of a new farm
func DefaultInventory() Inventory {
	return Inventory{Potato: 1, Carrot: 1, Cabbage: 1}
}

// Count returns the number of units held for crop
func (inv Inventory) Count(crop PlantType) int {
	switch crop {
	case Potato:
		return inv.Potato
	case Carrot:
		return inv.Carrot
	case Cabbage:
		return inv.Cabbage
	}
	return 0
}

// Add adjusts the count for crop by n. Counts never drop below zero.
func (inv *Inventory) Add(crop PlantType, n int) {
	var slot *int
	switch crop {
	case Potato:
		slot = &inv.Potato
	case Carrot:
		slot = &inv.Carrot
	case Cabbage:
		slot = &inv.Cabbage
	default:
		return
	}
	*slot += n
	if *slot < 0 {
		*slot = 0
	}
}

// Position is a tile coordinate: X is the column, Y is the row
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Tile is a decoded, read-only view of one grid cell
type Tile struct {
	Row      int       `json:"row"`
	Col      int       `json:"col"`
	Sunlight int       `json:"sunlight"`
	Water    int       `json:"water"`
	Plant    PlantType `json:"plant"`
	Level    int       `json:"level"`
}

// GridData is a grid buffer that serializes as a plain array of integers
// rather than a base64 blob.
type GridData []byte

// MarshalJSON implements json.Marshaler
func (g GridData) MarshalJSON() ([]byte, error) {
	ints := make([]int, len(g))
	for i, b := range g {
		ints[i] = int(b)
	}
	return json.Marshal(ints)
}

// UnmarshalJSON implements json.Unmarshaler
func (g *GridData) UnmarshalJSON(data []byte) error {
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return err
	}
	buf := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return fmt.Errorf("grid value %d at index %d is not a byte", v, i)
		}
		buf[i] = byte(v)
	}
	*g = buf
	return nil
}

// GameState is a full snapshot of the live farm. Snapshots are what the undo
// and redo stacks hold and what save slots persist.
type GameState struct {
	DayCount         int       `json:"dayCount"`
	Inventory        Inventory `json:"inventory"`
	Achievements     []string  `json:"achievements"`
	GridData         GridData  `json:"gridData"`
	PlayerX          int       `json:"playerX"`
	PlayerY          int       `json:"playerY"`
	ActionsRemaining int       `json:"actionsRemaining"`
	Rows             int       `json:"rows,omitempty"`
	Cols             int       `json:"cols,omitempty"`
}

// Clone returns a deep copy of the snapshot
func (s GameState) Clone() GameState {
	out := s
	out.Achievements = append([]string{}, s.Achievements...)
	out.GridData = append(GridData{}, s.GridData...)
	return out
}

// StateView is the display snapshot handed to renderers and remote callers
type StateView struct {
	ConfigName       string    `json:"config_name"`
	Day              int       `json:"day"`
	Inventory        Inventory `json:"inventory"`
	Achievements     []string  `json:"achievements"`
	ActionsRemaining int       `json:"actions_remaining"`
	Player           Position  `json:"player"`
	Rows             int       `json:"rows"`
	Cols             int       `json:"cols"`
	Tiles            []Tile    `json:"tiles"`
	Message          string    `json:"message"`
	CanUndo          bool      `json:"can_undo"`
	CanRedo          bool      `json:"can_redo"`
	UndoDepth        int       `json:"undo_depth"`
	RedoDepth        int       `json:"redo_depth"`
}

// TileAt returns the tile at row, col from the view
func (v *StateView) TileAt(row, col int) (Tile, bool) {
	if row < 0 || row >= v.Rows || col < 0 || col >= v.Cols {
		return Tile{}, false
	}
	idx := row*v.Cols + col
	if idx >= len(v.Tiles) {
		return Tile{}, false
	}
	return v.Tiles[idx], true
}
