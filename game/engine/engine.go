package engine

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/wricardo/farmday/game/storage"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Actions
	Plant(row, col int, crop PlantType) bool
	PlantHere(crop PlantType) bool
	Harvest(row, col int) bool
	HarvestHere() bool
	AdvanceDay() bool
	Undo() bool
	Redo() bool

	// Movement operations
	Move(direction string) bool
	CanMove(direction string) bool
	GetPossibleMoves() []string
	GetLocalView() []Tile

	// Save slots
	SaveToSlot(slot string) error
	LoadFromSlot(slot string) error
	LoadAutosave() error

	// Tile accessors
	Sunlight(row, col int) int
	Water(row, col int) int
	PlantAt(row, col int) PlantType
	PlantLevel(row, col int) int
	Tile(row, col int) Tile
	InBounds(row, col int) bool

	// Farm accessors
	Inventory() Inventory
	Day() int
	Achievements() []string
	ActionsRemaining() int
	GetPlayerPosition() Position
	CanUndo() bool
	CanRedo() bool

	// State
	GetState() GameState
	View() *StateView
	SaveData() *SaveData
	ApplySaveData(data *SaveData) error
	Reset()

	// Results of the last call
	LastError() error
	Message() string
	LastOutcome() Outcome

	GetConfig() *GameConfig
	Rules() *RuleSet
	GetActionLog() []ActionLogEntry
}

// Outcome describes what the last action changed beyond the farm itself
type Outcome struct {
	Action   string         `json:"action"`
	Grown    []GrowthEvent  `json:"grown,omitempty"`
	Unlocked []string       `json:"unlocked,omitempty"`
	Harvest  *HarvestResult `json:"harvest,omitempty"`
}

// GameEngine implements the Engine interface
type GameEngine struct {
	config     *GameConfig
	farm       *Farm
	controller *Controller
	history    *History
	rules      *RuleSet
	messages   Messages
	rng        RandomSource
	store      storage.SlotStore
	logger     *slog.Logger
	log        *ActionLog

	lastErr     error
	message     string
	lastOutcome Outcome
}

// Option customizes a GameEngine
type Option func(*GameEngine)

// WithRandomSource replaces the seeded weather source
func WithRandomSource(rng RandomSource) Option {
	return func(e *GameEngine) { e.rng = rng }
}

// WithSlotStore sets where save slots and the autosave are written
func WithSlotStore(store storage.SlotStore) Option {
	return func(e *GameEngine) { e.store = store }
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *GameEngine) { e.logger = logger }
}

// WithRuleSet sets the base growth rules. Stages in the scene document are layered on top.
func WithRuleSet(rules *RuleSet) Option {
	return func(e *GameEngine) { e.rules = rules }
}

// WithMessages sets the base message catalog. Scene messages are layered on top.
func WithMessages(messages Messages) Option {
	return func(e *GameEngine) { e.messages = messages }
}

// actionLogLimit bounds the in-memory action log
const actionLogLimit = 500

// NewEngine creates a new game engine with the provided configuration
func NewEngine(config *GameConfig, opts ...Option) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	e := &GameEngine{config: config}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.rng == nil {
		e.rng = NewRandomSource(uint64(config.Seed))
	}
	if e.rules == nil {
		e.rules = DefaultRuleSet()
	}
	if len(config.Plants) > 0 {
		e.rules = RuleSetFromStages(e.rules, config.Plants, e.logger)
	}
	if e.messages == nil {
		e.messages = DefaultMessages()
	}
	e.messages = e.messages.Merge(config.Messages)

	e.controller = NewController(ControllerConfig{
		Rules:            e.rules,
		Random:           e.rng,
		DailyActions:     config.DailyActions,
		LegacyCarrotRule: config.LegacyCarrotRule,
		Logger:           e.logger,
	})
	e.history = NewHistory(e.store, e.logger)
	e.log = NewActionLog(actionLogLimit)
	e.farm = NewFarm(config, e.rng, e.logger)
	e.message = e.messages.Translate(MsgWelcome, map[string]any{"day": e.farm.Day})
	return e, nil
}

// NewEngineWithDefaults creates a new game engine with the built-in scene
func NewEngineWithDefaults(opts ...Option) *GameEngine {
	e, err := NewEngine(DefaultGameConfig(), opts...)
	if err != nil {
		// the built-in scene always validates
		panic(err)
	}
	return e
}

func (e *GameEngine) mustBeInBounds(row, col int) {
	if !e.farm.Grid.InBounds(row, col) {
		panic(&IndexError{Row: row, Col: col, Rows: e.farm.Grid.Rows(), Cols: e.farm.Grid.Cols()})
	}
}

// finish records the result of an action and sets the state message
func (e *GameEngine) finish(action, detail string, err error, okKey string, vars map[string]any) bool {
	e.lastErr = err
	e.log.Add(action, detail, e.farm.Day, err)
	if err != nil {
		key := messageKeyFor(err)
		if key == "" {
			e.message = err.Error()
		} else {
			e.message = e.messages.Translate(key, vars)
		}
		e.logger.Debug("action refused", "action", action, "detail", detail, "reason", ReasonCode(err))
		return false
	}
	e.message = e.messages.Translate(okKey, vars)
	return true
}

// Plant puts a crop on the tile at row, col. It panics with *IndexError
// when the tile is outside the grid.
func (e *GameEngine) Plant(row, col int, crop PlantType) bool {
	e.mustBeInBounds(row, col)
	e.lastOutcome = Outcome{Action: "plant"}
	err := e.history.PerformAction(e.farm, true, func() error {
		return e.controller.Plant(e.farm, row, col, crop)
	})
	vars := map[string]any{"crop": crop.String(), "row": row, "col": col}
	return e.finish("plant", fmt.Sprintf("%s at (%d,%d)", crop, row, col), err, MsgPlanted, vars)
}

// PlantHere plants on the player's tile
func (e *GameEngine) PlantHere(crop PlantType) bool {
	row, col, err := e.farm.ActiveTile()
	if err != nil {
		e.lastOutcome = Outcome{Action: "plant"}
		return e.finish("plant", crop.String(), err, MsgPlanted, nil)
	}
	return e.Plant(row, col, crop)
}

// Harvest collects the plant at row, col. It panics with *IndexError when
// the tile is outside the grid.
func (e *GameEngine) Harvest(row, col int) bool {
	e.mustBeInBounds(row, col)
	e.lastOutcome = Outcome{Action: "harvest"}
	var result HarvestResult
	err := e.history.PerformAction(e.farm, true, func() error {
		var herr error
		result, herr = e.controller.Harvest(e.farm, row, col)
		return herr
	})
	vars := map[string]any{"crop": result.Plant.String(), "row": row, "col": col, "yield": result.Yield}
	ok := e.finish("harvest", fmt.Sprintf("(%d,%d)", row, col), err, MsgHarvested, vars)
	if ok {
		e.lastOutcome.Harvest = &result
		e.lastOutcome.Unlocked = result.Unlocked
		for _, title := range result.Unlocked {
			e.message += ". " + e.messages.Translate(MsgAchievementUnlocked, map[string]any{"title": title})
		}
	}
	return ok
}

// HarvestHere harvests the player's tile
func (e *GameEngine) HarvestHere() bool {
	row, col, err := e.farm.ActiveTile()
	if err != nil {
		e.lastOutcome = Outcome{Action: "harvest"}
		return e.finish("harvest", "", err, MsgHarvested, nil)
	}
	return e.Harvest(row, col)
}

// AdvanceDay ends the day. It costs no action but can be undone.
func (e *GameEngine) AdvanceDay() bool {
	e.lastOutcome = Outcome{Action: "advance_day"}
	var result DayResult
	err := e.history.PerformAction(e.farm, false, func() error {
		result = e.controller.AdvanceDay(e.farm)
		return nil
	})
	e.lastOutcome.Grown = result.Grown
	return e.finish("advance_day", fmt.Sprintf("day %d", e.farm.Day), err, MsgDayAdvanced, map[string]any{"day": e.farm.Day})
}

// Move steps the player one tile in direction
func (e *GameEngine) Move(direction string) bool {
	e.lastOutcome = Outcome{Action: "move"}
	err := e.farm.MovePlayer(direction)
	if err == nil {
		e.history.autosave(e.farm)
	}
	vars := map[string]any{"direction": direction, "row": e.farm.Player.Y, "col": e.farm.Player.X}
	return e.finish("move", direction, err, MsgMoved, vars)
}

// CanMove checks if the player can move in the specified direction
func (e *GameEngine) CanMove(direction string) bool {
	return e.farm.CanMovePlayer(direction)
}

// GetPossibleMoves returns all valid directions the player can move
func (e *GameEngine) GetPossibleMoves() []string {
	var possible []string
	for _, dir := range Directions {
		if e.CanMove(dir) {
			possible = append(possible, dir)
		}
	}
	return possible
}

// GetLocalView returns the tiles around the player
func (e *GameEngine) GetLocalView() []Tile {
	return e.farm.LocalView()
}

func (e *GameEngine) Undo() bool {
	e.lastOutcome = Outcome{Action: "undo"}
	return e.finish("undo", "", e.history.Undo(e.farm), MsgUndo, nil)
}

func (e *GameEngine) Redo() bool {
	e.lastOutcome = Outcome{Action: "redo"}
	return e.finish("redo", "", e.history.Redo(e.farm), MsgRedo, nil)
}

// SaveToSlot writes the farm and its history to a named slot. Saving is free
// and is not recorded in history.
func (e *GameEngine) SaveToSlot(slot string) error {
	e.lastOutcome = Outcome{Action: "save"}
	err := e.history.SaveToSlot(e.farm, slot)
	e.finish("save", slot, err, MsgGameSaved, map[string]any{"slot": slot})
	return err
}

// LoadFromSlot replaces the farm and its history from a named slot. The farm
// is untouched when the slot is missing or corrupt.
func (e *GameEngine) LoadFromSlot(slot string) error {
	e.lastOutcome = Outcome{Action: "load"}
	err := e.history.LoadFromSlot(e.farm, slot)
	e.finish("load", slot, err, MsgGameLoaded, map[string]any{"slot": slot})
	return err
}

// LoadAutosave restores the autosave written by the last recorded change
func (e *GameEngine) LoadAutosave() error {
	err := e.history.LoadAutosave(e.farm)
	if err == nil {
		e.logger.Info("restored autosave", "day", e.farm.Day)
	}
	return err
}

// HasSlot reports whether a named slot holds a save
func (e *GameEngine) HasSlot(slot string) bool {
	return e.history.HasSlot(slot)
}

func (e *GameEngine) InBounds(row, col int) bool { return e.farm.Grid.InBounds(row, col) }
func (e *GameEngine) Rows() int { return e.farm.Grid.Rows() }
func (e *GameEngine) Cols() int { return e.farm.Grid.Cols() }

func (e *GameEngine) Sunlight(row, col int) int {
	return int(e.farm.Grid.Get(FieldSunlight, row, col))
}

func (e *GameEngine) Water(row, col int) int {
	return int(e.farm.Grid.Get(FieldWater, row, col))
}

func (e *GameEngine) PlantAt(row, col int) PlantType {
	return PlantType(e.farm.Grid.Get(FieldPlantType, row, col))
}

func (e *GameEngine) PlantLevel(row, col int) int {
	return int(e.farm.Grid.Get(FieldPlantLevel, row, col))
}

func (e *GameEngine) Tile(row, col int) Tile {
	return e.farm.Grid.Tile(row, col)
}

func (e *GameEngine) Inventory() Inventory { return e.farm.Inventory }
func (e *GameEngine) Day() int { return e.farm.Day }

func (e *GameEngine) Achievements() []string {
	return append([]string{}, e.farm.Achievements...)
}

func (e *GameEngine) ActionsRemaining() int { return e.farm.ActionsRemaining }

// GetPlayerPosition returns the current player position
func (e *GameEngine) GetPlayerPosition() Position { return e.farm.Player }

func (e *GameEngine) CanUndo() bool { return e.history.CanUndo() }
func (e *GameEngine) CanRedo() bool { return e.history.CanRedo() }

// GetState returns a snapshot of the farm
func (e *GameEngine) GetState() GameState {
	return e.farm.Snapshot()
}

// View returns the display snapshot of the farm
func (e *GameEngine) View() *StateView {
	return &StateView{
		ConfigName:       e.config.Name,
		Day:              e.farm.Day,
		Inventory:        e.farm.Inventory,
		Achievements:     e.Achievements(),
		ActionsRemaining: e.farm.ActionsRemaining,
		Player:           e.farm.Player,
		Rows:             e.farm.Grid.Rows(),
		Cols:             e.farm.Grid.Cols(),
		Tiles:            e.farm.Grid.Tiles(),
		Message:          e.message,
		CanUndo:          e.history.CanUndo(),
		CanRedo:          e.history.CanRedo(),
		UndoDepth:        e.history.UndoDepth(),
		RedoDepth:        e.history.RedoDepth(),
	}
}

// SaveData returns the farm and its history in persisted form
func (e *GameEngine) SaveData() *SaveData {
	return e.history.SaveData(e.farm)
}

// ApplySaveData replaces the farm and its history. Used when a session is
// reloaded from disk.
func (e *GameEngine) ApplySaveData(data *SaveData) error {
	return e.history.Apply(e.farm, data)
}

// Reset starts the scene over and clears history
func (e *GameEngine) Reset() {
	e.farm = NewFarm(e.config, e.rng, e.logger)
	e.history.Clear()
	e.history.autosave(e.farm)
	e.lastErr = nil
	e.lastOutcome = Outcome{Action: "reset"}
	e.message = e.messages.Translate(MsgWelcome, map[string]any{"day": e.farm.Day})
	e.log.Add("reset", e.config.Name, e.farm.Day, nil)
}

func (e *GameEngine) LastError() error { return e.lastErr }
func (e *GameEngine) Message() string { return e.message }
func (e *GameEngine) LastOutcome() Outcome { return e.lastOutcome }
func (e *GameEngine) GetConfig() *GameConfig { return e.config }
func (e *GameEngine) Rules() *RuleSet { return e.rules }
func (e *GameEngine) Messages() Messages { return e.messages }

// GetActionLog returns every attempted action, oldest first
func (e *GameEngine) GetActionLog() []ActionLogEntry {
	return e.log.Entries()
}

// DescribeTile renders a one-line summary of a tile for text clients
func DescribeTile(t Tile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "(%d,%d) sunlight %d, water %d", t.Row, t.Col, t.Sunlight, t.Water)
	if t.Plant == None {
		b.WriteString(", empty")
	} else {
		fmt.Fprintf(&b, ", %s level %d", t.Plant, t.Level)
	}
	return b.String()
}
