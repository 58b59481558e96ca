package engine

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// GameConfig is a scene document: grid size, starting state, per-tile
// overrides, growth rules and message overrides.
type GameConfig struct {
	Name             string                   `yaml:"name" json:"name"`
	Description      string                   `yaml:"description" json:"description"`
	Rows             int                      `yaml:"rows" json:"rows"`
	Cols             int                      `yaml:"cols" json:"cols"`
	DailyActions     int                      `yaml:"daily_actions" json:"daily_actions"`
	Seed             int64                    `yaml:"seed,omitempty" json:"seed,omitempty"`
	LegacyCarrotRule bool                     `yaml:"legacy_carrot_rule,omitempty" json:"legacy_carrot_rule,omitempty"`
	Initial          InitialState             `yaml:"initial,omitempty" json:"initial,omitempty"`
	GridOverrides    []TileOverride           `yaml:"grid_overrides,omitempty" json:"grid_overrides,omitempty"`
	Plants           map[string][]StageConfig `yaml:"plants,omitempty" json:"plants,omitempty"`
	Messages         map[string]string        `yaml:"messages,omitempty" json:"messages,omitempty"`
}

// InitialState overrides the starting values of a new farm. Nil fields keep the defaults.
type InitialState struct {
	DayCount         *int            `yaml:"day_count,omitempty" json:"day_count,omitempty"`
	Inventory        *InventoryPatch `yaml:"inventory,omitempty" json:"inventory,omitempty"`
	ActionsRemaining *int            `yaml:"actions_remaining,omitempty" json:"actions_remaining,omitempty"`
	Achievements     []string        `yaml:"achievements,omitempty" json:"achievements,omitempty"`
}

// InventoryPatch overrides individual inventory counts
type InventoryPatch struct {
	Potato  *int `yaml:"potato,omitempty" json:"potato,omitempty"`
	Carrot  *int `yaml:"carrot,omitempty" json:"carrot,omitempty"`
	Cabbage *int `yaml:"cabbage,omitempty" json:"cabbage,omitempty"`
}

// TileOverride sets fields of one tile after the random initial fill
type TileOverride struct {
	Row        int    `yaml:"row" json:"row"`
	Col        int    `yaml:"col" json:"col"`
	Sunlight   *int   `yaml:"sunlight,omitempty" json:"sunlight,omitempty"`
	Water      *int   `yaml:"water,omitempty" json:"water,omitempty"`
	PlantType  string `yaml:"plant_type,omitempty" json:"plant_type,omitempty"`
	PlantLevel *int   `yaml:"plant_level,omitempty" json:"plant_level,omitempty"`
}

// StageConfig is one growth stage entry of a plant document
type StageConfig struct {
	Level     int             `yaml:"level" json:"level"`
	Sunlight  int             `yaml:"sunlight" json:"sunlight"`
	Water     int             `yaml:"water" json:"water"`
	Neighbors *NeighborConfig `yaml:"neighbors,omitempty" json:"neighbors,omitempty"`
	When      string          `yaml:"when,omitempty" json:"when,omitempty"`
}

// NeighborConfig lists how many of each crop must surround the plant
type NeighborConfig struct {
	RequiredNeighbors map[string]int `yaml:"requiredNeighbors" json:"requiredNeighbors"`
}

// PlantDocument is the top level of a plants.yaml file
type PlantDocument struct {
	Plants map[string][]StageConfig `yaml:"plants" json:"plants"`
}

// DefaultGameConfig returns the built-in scene
func DefaultGameConfig() *GameConfig {
	return &GameConfig{
		Name:         "classic",
		Description:  "A 10x10 field with random sunlight and water",
		Rows:         DefaultRows,
		Cols:         DefaultCols,
		DailyActions: DailyActionBudget,
	}
}

// ValidateGameConfig checks that a scene can be played
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}
	if config.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidConfig)
	}
	if config.Rows < MinGridSize || config.Rows > MaxGridSize {
		return fmt.Errorf("%w: rows must be between %d and %d, got %d", ErrInvalidConfig, MinGridSize, MaxGridSize, config.Rows)
	}
	if config.Cols < MinGridSize || config.Cols > MaxGridSize {
		return fmt.Errorf("%w: cols must be between %d and %d, got %d", ErrInvalidConfig, MinGridSize, MaxGridSize, config.Cols)
	}
	if config.DailyActions < 0 {
		return fmt.Errorf("%w: daily_actions must not be negative, got %d", ErrInvalidConfig, config.DailyActions)
	}
	if in := config.Initial; in.DayCount != nil && *in.DayCount < 1 {
		return fmt.Errorf("%w: initial.day_count must be at least 1, got %d", ErrInvalidConfig, *in.DayCount)
	}
	if in := config.Initial; in.ActionsRemaining != nil && *in.ActionsRemaining < 0 {
		return fmt.Errorf("%w: initial.actions_remaining must not be negative", ErrInvalidConfig)
	}
	if p := config.Initial.Inventory; p != nil {
		for name, v := range map[string]*int{"potato": p.Potato, "carrot": p.Carrot, "cabbage": p.Cabbage} {
			if v != nil && *v < 0 {
				return fmt.Errorf("%w: initial.inventory.%s must not be negative", ErrInvalidConfig, name)
			}
		}
	}
	for i, o := range config.GridOverrides {
		if o.PlantType != "" {
			if _, err := ParsePlantType(o.PlantType); err != nil {
				return fmt.Errorf("%w: grid_overrides[%d]: %v", ErrInvalidConfig, i, err)
			}
		}
		if o.Sunlight != nil && (*o.Sunlight < 0 || *o.Sunlight > MaxSunlight) {
			return fmt.Errorf("%w: grid_overrides[%d]: sunlight must be between 0 and %d", ErrInvalidConfig, i, MaxSunlight)
		}
		if o.Water != nil && (*o.Water < 0 || *o.Water > MaxWater) {
			return fmt.Errorf("%w: grid_overrides[%d]: water must be between 0 and %d", ErrInvalidConfig, i, MaxWater)
		}
		if o.PlantLevel != nil && (*o.PlantLevel < 0 || *o.PlantLevel > MaxPlantLevel) {
			return fmt.Errorf("%w: grid_overrides[%d]: plant_level must be between 0 and %d", ErrInvalidConfig, i, MaxPlantLevel)
		}
	}
	return nil
}

// CheckExpressions compiles every growth expression in plants and returns
// one error per expression that does not compile. The loaders only log
// these; the validate command reports them.
func CheckExpressions(plants map[string][]StageConfig) []error {
	var errs []error
	for crop, stages := range plants {
		for _, s := range stages {
			if s.When == "" {
				continue
			}
			if _, err := compileWhen(s.When); err != nil {
				errs = append(errs, fmt.Errorf("plants.%s level %d: %w", crop, s.Level, err))
			}
		}
	}
	return errs
}

// ParseGameConfig decodes and validates a scene document
func ParseGameConfig(data []byte) (*GameConfig, error) {
	config := DefaultGameConfig()
	config.Name = ""
	config.Description = ""
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadGameConfig reads a scene document from disk
func LoadGameConfig(filename string) (*GameConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return ParseGameConfig(data)
}

// ParsePlantDocument decodes a plants.yaml document into a RuleSet. Crops the
// document does not mention keep their built-in stages.
func ParsePlantDocument(data []byte, logger *slog.Logger) (*RuleSet, error) {
	var doc PlantDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse plant document: %w", err)
	}
	return plantStages(doc.Plants).rules(DefaultRuleSet(), logger), nil
}

// RuleSetFromStages layers plant stage definitions over base. Each crop that
// appears in plants has its stages replaced entirely.
func RuleSetFromStages(base *RuleSet, plants map[string][]StageConfig, logger *slog.Logger) *RuleSet {
	return plantStages(plants).rules(base, logger)
}

type plantStages map[string][]StageConfig

func (p plantStages) rules(base *RuleSet, logger *slog.Logger) *RuleSet {
	if logger == nil {
		logger = slog.Default()
	}
	defined := make(map[PlantType]bool)
	b := NewRuleBuilder()
	for crop, stages := range p {
		plant, err := ParsePlantType(crop)
		if err != nil || plant == None {
			logger.Warn("unknown plant type in plant document", "plant", crop)
			continue
		}
		defined[plant] = true
		for _, s := range stages {
			if s.Level < 1 || s.Level > MaxPlantLevel {
				logger.Warn("plant level out of range", "plant", crop, "level", s.Level)
				continue
			}
			b.GrowthStage(plant, s.Level, s.Sunlight, s.Water)
			if s.Neighbors != nil && s.Neighbors.RequiredNeighbors != nil {
				required := make(map[PlantType]int)
				for name, count := range s.Neighbors.RequiredNeighbors {
					np, err := ParsePlantType(name)
					if err != nil || np == None {
						logger.Warn("unknown plant type in neighbors", "plant", crop, "neighbor", name)
						continue
					}
					required[np] = count
				}
				b.NeighborsCondition(plant, s.Level, required)
			}
			if s.When != "" {
				if err := b.When(plant, s.Level, s.When); err != nil {
					logger.Warn("ignoring growth expression", "plant", crop, "level", s.Level, "error", err)
				}
			}
		}
	}
	for _, st := range base.Stages() {
		if defined[st.Plant] {
			continue
		}
		b.stages[stageKey{st.Plant, st.Level}] = st.Condition
	}
	return b.Build()
}

// ApplyInitial applies the scene's starting values on top of the farm defaults
func (c *GameConfig) ApplyInitial(f *Farm) {
	in := c.Initial
	if in.DayCount != nil {
		f.Day = *in.DayCount
	}
	if p := in.Inventory; p != nil {
		if p.Potato != nil {
			f.Inventory.Potato = *p.Potato
		}
		if p.Carrot != nil {
			f.Inventory.Carrot = *p.Carrot
		}
		if p.Cabbage != nil {
			f.Inventory.Cabbage = *p.Cabbage
		}
	}
	if in.ActionsRemaining != nil {
		f.ActionsRemaining = *in.ActionsRemaining
	}
	if in.Achievements != nil {
		f.Achievements = append([]string{}, in.Achievements...)
	}
}

// ApplyOverrides writes the scene's per-tile overrides. Overrides outside the grid are skipped.
func (c *GameConfig) ApplyOverrides(g *Grid, logger *slog.Logger) {
	for _, o := range c.GridOverrides {
		if !g.InBounds(o.Row, o.Col) {
			if logger != nil {
				logger.Warn("grid override out of range", "row", o.Row, "col", o.Col)
			}
			continue
		}
		if o.Sunlight != nil {
			g.Set(FieldSunlight, o.Row, o.Col, clampByte(*o.Sunlight, MaxSunlight))
		}
		if o.Water != nil {
			g.Set(FieldWater, o.Row, o.Col, clampByte(*o.Water, MaxWater))
		}
		if o.PlantType != "" {
			if plant, err := ParsePlantType(o.PlantType); err == nil {
				g.Set(FieldPlantType, o.Row, o.Col, uint8(plant))
			}
		}
		if o.PlantLevel != nil {
			g.Set(FieldPlantLevel, o.Row, o.Col, clampByte(*o.PlantLevel, MaxPlantLevel))
		}
	}
	g.normalize()
}

// NewFarm builds the starting farm for a scene: defaults, initial overrides,
// a random sunlight and water fill, then tile overrides. The player starts
// at the center of the grid.
func NewFarm(config *GameConfig, rng RandomSource, logger *slog.Logger) *Farm {
	if config == nil {
		config = DefaultGameConfig()
	}
	budget := config.DailyActions
	if budget == 0 {
		budget = DailyActionBudget
	}
	f := &Farm{
		Day:              1,
		Inventory:        DefaultInventory(),
		Achievements:     []string{},
		Grid:             NewGrid(config.Rows, config.Cols),
		ActionsRemaining: budget,
	}
	config.ApplyInitial(f)

	for row := 0; row < f.Grid.Rows(); row++ {
		for col := 0; col < f.Grid.Cols(); col++ {
			f.Grid.Set(FieldSunlight, row, col, uint8(rng.IntN(MaxSunlight+1)))
			f.Grid.Set(FieldWater, row, col, uint8(rng.IntN(MaxWater+1)))
		}
	}
	config.ApplyOverrides(f.Grid, logger)

	f.Player = Position{X: f.Grid.Cols() / 2, Y: f.Grid.Rows() / 2}
	return f
}

func clampByte(v, max int) uint8 {
	if v < 0 {
		return 0
	}
	if v > max {
		return uint8(max)
	}
	return uint8(v)
}
