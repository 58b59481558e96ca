package engine

import (
	"fmt"
	"log/slog"
)

// Farm is the live, mutable game state
type Farm struct {
	Day              int
	Inventory        Inventory
	Achievements     []string
	Grid             *Grid
	Player           Position
	ActionsRemaining int
}

// Snapshot captures the farm as an independent GameState
func (f *Farm) Snapshot() GameState {
	return GameState{
		DayCount:         f.Day,
		Inventory:        f.Inventory,
		Achievements:     append([]string{}, f.Achievements...),
		GridData:         GridData(f.Grid.Clone()),
		PlayerX:          f.Player.X,
		PlayerY:          f.Player.Y,
		ActionsRemaining: f.ActionsRemaining,
		Rows:             f.Grid.Rows(),
		Cols:             f.Grid.Cols(),
	}
}

// CheckState reports whether s can be restored onto this farm
func (f *Farm) CheckState(s GameState) error {
	if s.Rows != 0 && (s.Rows != f.Grid.Rows() || s.Cols != f.Grid.Cols()) {
		return fmt.Errorf("%w: state is %dx%d, farm is %dx%d", ErrGridSize, s.Rows, s.Cols, f.Grid.Rows(), f.Grid.Cols())
	}
	if len(s.GridData) != f.Grid.Len() {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrGridSize, len(s.GridData), f.Grid.Len())
	}
	return CheckGridData(s.GridData)
}

// Restore replaces the farm with s. The farm is untouched when s does not fit.
func (f *Farm) Restore(s GameState) error {
	if err := f.CheckState(s); err != nil {
		return err
	}
	if err := f.Grid.Restore(s.GridData); err != nil {
		return err
	}
	f.Day = s.DayCount
	f.Inventory = s.Inventory
	f.Achievements = append([]string{}, s.Achievements...)
	f.Player = Position{X: s.PlayerX, Y: s.PlayerY}
	f.ActionsRemaining = s.ActionsRemaining
	return nil
}

// ActiveTile returns the tile under the player
func (f *Farm) ActiveTile() (row, col int, err error) {
	row, col = f.Player.Y, f.Player.X
	if !f.Grid.InBounds(row, col) {
		return 0, 0, ErrNoActiveTile
	}
	return row, col, nil
}

// HarvestResult describes a successful harvest
type HarvestResult struct {
	Plant    PlantType `json:"plant"`
	Level    int       `json:"level"`
	Yield    int       `json:"yield"`
	Unlocked []string  `json:"unlocked,omitempty"`
}

// DayResult describes a day advance
type DayResult struct {
	Day   int           `json:"day"`
	Grown []GrowthEvent `json:"grown,omitempty"`
}

// Controller validates and applies player actions to a Farm. It never
// touches history; callers wrap it in History.PerformAction.
type Controller struct {
	rules        *RuleSet
	growth       *GrowthEngine
	rng          RandomSource
	budget       int
	legacyCarrot bool
	logger       *slog.Logger
}

// ControllerConfig carries the Controller's collaborators
type ControllerConfig struct {
	Rules            *RuleSet
	Random           RandomSource
	DailyActions     int
	LegacyCarrotRule bool
	Logger           *slog.Logger
}

func NewController(cfg ControllerConfig) *Controller {
	if cfg.Rules == nil {
		cfg.Rules = DefaultRuleSet()
	}
	if cfg.Random == nil {
		cfg.Random = NewRandomSource(0)
	}
	if cfg.DailyActions <= 0 {
		cfg.DailyActions = DailyActionBudget
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Controller{
		rules:        cfg.Rules,
		growth:       NewGrowthEngine(cfg.Rules, cfg.Logger),
		rng:          cfg.Random,
		budget:       cfg.DailyActions,
		legacyCarrot: cfg.LegacyCarrotRule,
		logger:       cfg.Logger,
	}
}

// Budget is the number of actions granted each day
func (c *Controller) Budget() int { return c.budget }

// CanPlant runs every planting check without mutating the farm
func (c *Controller) CanPlant(f *Farm, row, col int, crop PlantType) error {
	if !crop.IsCrop() {
		return fmt.Errorf("%w: %d", ErrUnknownCrop, crop)
	}
	t := f.Grid.Tile(row, col)
	if t.Plant != None {
		return ErrTileOccupied
	}
	if t.Water < PlantingWater(crop) {
		return ErrInsufficientWater
	}
	if cond, ok := c.rules.Lookup(crop, 1); ok && cond.HasNeighbors() && !cond.NeighborsMet(f.Grid, row, col) {
		return ErrNeighborsUnmet
	}
	if c.legacyCarrot && crop == Carrot && !f.Grid.OrthogonalHas(row, col, Potato, Cabbage) {
		return ErrNeighborsUnmet
	}
	if f.Inventory.Count(crop) <= 0 {
		return ErrNoInventory
	}
	return nil
}

// Plant puts a level 1 crop on the tile, spending water and one seed
func (c *Controller) Plant(f *Farm, row, col int, crop PlantType) error {
	if err := c.CanPlant(f, row, col, crop); err != nil {
		return err
	}
	water := int(f.Grid.Get(FieldWater, row, col)) - PlantingWater(crop)
	f.Grid.Set(FieldWater, row, col, uint8(water))
	f.Grid.Set(FieldPlantType, row, col, uint8(crop))
	f.Grid.Set(FieldPlantLevel, row, col, 1)
	f.Inventory.Add(crop, -1)
	return nil
}

// Harvest removes the plant on the tile and adds its yield to the inventory
func (c *Controller) Harvest(f *Farm, row, col int) (HarvestResult, error) {
	t := f.Grid.Tile(row, col)
	if t.Plant == None {
		return HarvestResult{}, ErrNoPlant
	}
	if t.Level < 1 || t.Level > MaxPlantLevel {
		return HarvestResult{}, ErrInvalidLevel
	}
	yield := HarvestYield(t.Level)
	f.Inventory.Add(t.Plant, yield)
	f.Grid.ClearTile(row, col)

	var unlocked []string
	f.Achievements, unlocked = CheckAchievements(f.Achievements, t.Plant, f.Inventory.Count(t.Plant))
	for _, title := range unlocked {
		c.logger.Info("achievement unlocked", "title", title)
	}
	return HarvestResult{Plant: t.Plant, Level: t.Level, Yield: yield, Unlocked: unlocked}, nil
}

// AdvanceDay starts the next day: the budget is refilled, plants grow, then
// the weather changes.
func (c *Controller) AdvanceDay(f *Farm) DayResult {
	f.Day++
	f.ActionsRemaining = c.budget
	grown := c.growth.Grow(f.Grid, f.Day)
	ApplyWeather(f.Grid, c.rng)
	c.logger.Debug("day advanced", "day", f.Day, "grown", len(grown))
	return DayResult{Day: f.Day, Grown: grown}
}
