package engine

import (
	"io"
	"log/slog"
)

// fixedRandom returns the same value for every draw, capped to the range
type fixedRandom struct {
	value int
}

func (r fixedRandom) IntN(n int) int {
	if r.value >= n {
		return n - 1
	}
	return r.value
}

// sequenceRandom replays values in order, wrapping around
type sequenceRandom struct {
	values []int
	next   int
}

func (r *sequenceRandom) IntN(n int) int {
	v := r.values[r.next%len(r.values)]
	r.next++
	return v % n
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// uniformFarm builds a farm where every tile has the same sunlight and water
func uniformFarm(rows, cols, sunlight, water int) *Farm {
	f := &Farm{
		Day:              1,
		Inventory:        DefaultInventory(),
		Achievements:     []string{},
		Grid:             NewGrid(rows, cols),
		ActionsRemaining: DailyActionBudget,
	}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			f.Grid.Set(FieldSunlight, r, c, uint8(sunlight))
			f.Grid.Set(FieldWater, r, c, uint8(water))
		}
	}
	return f
}

func newTestController(rng RandomSource) *Controller {
	return NewController(ControllerConfig{Random: rng, Logger: quietLogger()})
}

// newTestEngine returns an engine over the default scene with every tile at
// the given sunlight and water
func newTestEngine(sunlight, water int, opts ...Option) *GameEngine {
	opts = append([]Option{WithRandomSource(fixedRandom{value: 100}), WithLogger(quietLogger())}, opts...)
	e := NewEngineWithDefaults(opts...)
	for r := 0; r < e.Rows(); r++ {
		for c := 0; c < e.Cols(); c++ {
			e.farm.Grid.Set(FieldSunlight, r, c, uint8(sunlight))
			e.farm.Grid.Set(FieldWater, r, c, uint8(water))
		}
	}
	return e
}

// emptyTilesHaveNoLevel checks that no empty tile carries a level
func emptyTilesHaveNoLevel(g *Grid) bool {
	for _, t := range g.Tiles() {
		if t.Plant == None && t.Level != 0 {
			return false
		}
	}
	return true
}
