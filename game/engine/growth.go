package engine

import (
	"log/slog"
	"math/rand/v2"
	"time"
)

// RandomSource supplies the weather and initial-fill randomness.
// IntN returns a value in [0, n).
type RandomSource interface {
	IntN(n int) int
}

// NewRandomSource returns a seeded source. A zero seed uses the current time.
func NewRandomSource(seed uint64) RandomSource {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// GrowthEvent records one plant advancing a level
type GrowthEvent struct {
	Row   int       `json:"row"`
	Col   int       `json:"col"`
	Plant PlantType `json:"plant"`
	Level int       `json:"level"`
}

// GrowthEngine advances every plant that meets the conditions for its next level
type GrowthEngine struct {
	rules  *RuleSet
	logger *slog.Logger
}

func NewGrowthEngine(rules *RuleSet, logger *slog.Logger) *GrowthEngine {
	if rules == nil {
		rules = DefaultRuleSet()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GrowthEngine{rules: rules, logger: logger}
}

// Grow runs one growth pass in row-major order. A tile that grows early in
// the pass is seen at its new level by neighbor checks later in the same pass.
func (e *GrowthEngine) Grow(g *Grid, day int) []GrowthEvent {
	var events []GrowthEvent
	for row := 0; row < g.Rows(); row++ {
		for col := 0; col < g.Cols(); col++ {
			if ev, ok := e.growTile(g, row, col, day); ok {
				events = append(events, ev)
			}
		}
	}
	return events
}

func (e *GrowthEngine) growTile(g *Grid, row, col, day int) (GrowthEvent, bool) {
	t := g.Tile(row, col)
	if t.Plant == None || t.Level < 1 || t.Level > MaxPlantLevel {
		return GrowthEvent{}, false
	}
	next := t.Level + 1
	cond, ok := e.rules.Lookup(t.Plant, next)
	if !ok {
		return GrowthEvent{}, false
	}
	if cond.HasNeighbors() && !cond.NeighborsMet(g, row, col) {
		return GrowthEvent{}, false
	}
	if cond.program != nil {
		pass, err := cond.Eval(GrowthEnv{
			Day:      day,
			Sunlight: t.Sunlight,
			Water:    t.Water,
			Level:    t.Level,
			Row:      row,
			Col:      col,
			grid:     g,
		})
		if err != nil {
			e.logger.Warn("growth expression failed", "plant", t.Plant.String(), "level", next, "row", row, "col", col, "error", err)
			return GrowthEvent{}, false
		}
		if !pass {
			return GrowthEvent{}, false
		}
	}
	if t.Sunlight < cond.Sunlight || t.Water < cond.Water {
		return GrowthEvent{}, false
	}
	g.Set(FieldWater, row, col, clampByte(t.Water-cond.Water, MaxWater))
	g.Set(FieldPlantLevel, row, col, uint8(next))
	return GrowthEvent{Row: row, Col: col, Plant: t.Plant, Level: next}, true
}

// ApplyWeather rolls new sunlight for every tile and adds rain to its water
func ApplyWeather(g *Grid, rng RandomSource) {
	for row := 0; row < g.Rows(); row++ {
		for col := 0; col < g.Cols(); col++ {
			g.Set(FieldSunlight, row, col, uint8(rng.IntN(MaxSunlight+1)))
			water := int(g.Get(FieldWater, row, col)) + rng.IntN(MaxDailyRain+1)
			if water > MaxWater {
				water = MaxWater
			}
			g.Set(FieldWater, row, col, uint8(water))
		}
	}
}
