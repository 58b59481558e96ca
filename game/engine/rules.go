package engine

import (
	"fmt"
	"sort"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// GrowthCondition is what a plant needs to reach a given level
type GrowthCondition struct {
	Sunlight  int               `json:"sunlight"`
	Water     int               `json:"water"`
	Neighbors map[PlantType]int `json:"neighbors,omitempty"`
	When      string            `json:"when,omitempty"`

	program *vm.Program // compiled When
}

// HasNeighbors reports whether the condition carries neighbor requirements
func (c GrowthCondition) HasNeighbors() bool { return len(c.Neighbors) > 0 }

// NeighborsMet checks every neighbor requirement against the grid
func (c GrowthCondition) NeighborsMet(g *Grid, row, col int) bool {
	for plant, need := range c.Neighbors {
		if g.NeighborCount(row, col, plant) < need {
			return false
		}
	}
	return true
}

// GrowthEnv is the environment When expressions are evaluated against
type GrowthEnv struct {
	Day      int `expr:"day"`
	Sunlight int `expr:"sunlight"`
	Water    int `expr:"water"`
	Level    int `expr:"level"`
	Row      int `expr:"row"`
	Col      int `expr:"col"`

	grid *Grid
}

// Neighbors counts surrounding tiles planted with the named crop
func (e GrowthEnv) Neighbors(crop string) int {
	plant, err := ParsePlantType(crop)
	if err != nil || e.grid == nil || plant == None {
		return 0
	}
	return e.grid.NeighborCount(e.Row, e.Col, plant)
}

// Eval runs the When expression. A condition without one always passes.
func (c GrowthCondition) Eval(env GrowthEnv) (bool, error) {
	if c.program == nil {
		return true, nil
	}
	out, err := vm.Run(c.program, env)
	if err != nil {
		return false, err
	}
	ok, _ := out.(bool)
	return ok, nil
}

func compileWhen(src string) (*vm.Program, error) {
	return expr.Compile(src, expr.Env(GrowthEnv{}), expr.AsBool())
}

type stageKey struct {
	plant PlantType
	level int
}

// RuleSet maps (plant, level) to the condition for reaching that level.
// A missing entry means the plant cannot grow past the previous level.
type RuleSet struct {
	stages map[stageKey]GrowthCondition
}

// Lookup returns the condition for plant to reach level
func (r *RuleSet) Lookup(plant PlantType, level int) (GrowthCondition, bool) {
	if r == nil {
		return GrowthCondition{}, false
	}
	c, ok := r.stages[stageKey{plant, level}]
	return c, ok
}

// Stage is one (plant, level) entry of a RuleSet
type Stage struct {
	Plant     PlantType       `json:"plant"`
	Level     int             `json:"level"`
	Condition GrowthCondition `json:"condition"`
}

// Stages lists every entry ordered by plant then level
func (r *RuleSet) Stages() []Stage {
	if r == nil {
		return nil
	}
	out := make([]Stage, 0, len(r.stages))
	for k, c := range r.stages {
		out = append(out, Stage{Plant: k.plant, Level: k.level, Condition: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Plant != out[j].Plant {
			return out[i].Plant < out[j].Plant
		}
		return out[i].Level < out[j].Level
	})
	return out
}

// RuleBuilder assembles a RuleSet
type RuleBuilder struct {
	stages map[stageKey]GrowthCondition
}

func NewRuleBuilder() *RuleBuilder {
	return &RuleBuilder{stages: make(map[stageKey]GrowthCondition)}
}

// GrowthStage sets the sunlight and water thresholds for plant to reach level.
// Neighbor requirements already registered for the stage are kept.
func (b *RuleBuilder) GrowthStage(plant PlantType, level, sunlight, water int) *RuleBuilder {
	k := stageKey{plant, level}
	c := b.stages[k]
	c.Sunlight = sunlight
	c.Water = water
	b.stages[k] = c
	return b
}

// NeighborsCondition sets the neighbor requirements for plant to reach level,
// creating the stage with zero thresholds when it does not exist yet.
func (b *RuleBuilder) NeighborsCondition(plant PlantType, level int, neighbors map[PlantType]int) *RuleBuilder {
	k := stageKey{plant, level}
	c := b.stages[k]
	c.Neighbors = make(map[PlantType]int, len(neighbors))
	for p, n := range neighbors {
		c.Neighbors[p] = n
	}
	b.stages[k] = c
	return b
}

// When attaches a boolean expression that must also hold for the stage.
// The stage is left unchanged if the expression does not compile.
func (b *RuleBuilder) When(plant PlantType, level int, src string) error {
	program, err := compileWhen(src)
	if err != nil {
		return fmt.Errorf("compile when for %s level %d: %w", plant, level, err)
	}
	k := stageKey{plant, level}
	c := b.stages[k]
	c.When = src
	c.program = program
	b.stages[k] = c
	return nil
}

// Build returns the assembled RuleSet. The builder may keep being used.
func (b *RuleBuilder) Build() *RuleSet {
	stages := make(map[stageKey]GrowthCondition, len(b.stages))
	for k, c := range b.stages {
		stages[k] = c
	}
	return &RuleSet{stages: stages}
}

// DefaultRuleSet returns the built-in growth rules
func DefaultRuleSet() *RuleSet {
	return NewRuleBuilder().
		GrowthStage(Potato, 2, 40, 10).
		GrowthStage(Potato, 3, 60, 15).
		GrowthStage(Carrot, 2, 30, 10).
		GrowthStage(Carrot, 3, 50, 20).
		NeighborsCondition(Carrot, 3, map[PlantType]int{Potato: 1}).
		GrowthStage(Cabbage, 2, 50, 20).
		GrowthStage(Cabbage, 3, 70, 30).
		NeighborsCondition(Cabbage, 3, map[PlantType]int{Carrot: 1}).
		Build()
}

// plantingWater is the water a tile needs, and loses, when a crop is planted on it
var plantingWater = map[PlantType]int{
	Potato:  20,
	Carrot:  20,
	Cabbage: 70,
}

// harvestYield is the inventory gained by harvesting a plant at each level
var harvestYield = map[int]int{1: 1, 2: 2, 3: 4}

// PlantingWater returns the water threshold (and cost) for planting crop
func PlantingWater(crop PlantType) int { return plantingWater[crop] }

// HarvestYield returns the inventory gained by harvesting at level
func HarvestYield(level int) int { return harvestYield[level] }
