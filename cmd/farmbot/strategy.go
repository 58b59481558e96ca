package main

import (
	"sort"

	"github.com/wricardo/farmday/game/engine"
)

// Step is one planned action on a tile
type Step struct {
	Action string // "harvest" or "plant"
	Row    int
	Col    int
	Crop   engine.PlantType
}

// GreedyStrategy plans one day at a time. It harvests every mature plant,
// then fills the wettest empty tiles, preferring a crop whose companion
// already grows next to the tile.
type GreedyStrategy struct {
	// Companions maps a crop to the neighbor it needs to mature
	Companions map[engine.PlantType]engine.PlantType
	// Reserve is how many seeds of each crop are never planted
	Reserve int
}

// NewGreedyStrategy derives companions from rules, usually the server's
// built-in ones.
func NewGreedyStrategy(rules *engine.RuleSet) *GreedyStrategy {
	s := &GreedyStrategy{Companions: make(map[engine.PlantType]engine.PlantType)}
	for _, stage := range rules.Stages() {
		for _, other := range engine.Crops {
			if other != stage.Plant && stage.Condition.Neighbors[other] > 0 {
				s.Companions[stage.Plant] = other
			}
		}
	}
	return s
}

// planner tracks the farm as the planned steps would leave it
type planner struct {
	view      *engine.StateView
	plants    map[[2]int]engine.PlantType
	inventory engine.Inventory
	budget    int
	steps     []Step
}

func (p *planner) add(step Step) bool {
	if p.budget <= 0 {
		return false
	}
	p.budget--
	p.steps = append(p.steps, step)
	return true
}

func (p *planner) plantAt(row, col int) engine.PlantType {
	if plant, ok := p.plants[[2]int{row, col}]; ok {
		return plant
	}
	if t, ok := p.view.TileAt(row, col); ok {
		return t.Plant
	}
	return engine.None
}

// hasNeighbor checks the eight surrounding tiles
func (p *planner) hasNeighbor(row, col int, crop engine.PlantType) bool {
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if (dr != 0 || dc != 0) && p.plantAt(row+dr, col+dc) == crop {
				return true
			}
		}
	}
	return false
}

// Plan returns the steps for the current day, never more than the actions left
func (s *GreedyStrategy) Plan(view *engine.StateView) []Step {
	p := &planner{
		view:      view,
		plants:    make(map[[2]int]engine.PlantType),
		inventory: view.Inventory,
		budget:    view.ActionsRemaining,
	}

	for _, t := range view.Tiles {
		if t.Plant != engine.None && t.Level >= engine.MaxPlantLevel {
			if !p.add(Step{Action: "harvest", Row: t.Row, Col: t.Col}) {
				return p.steps
			}
			p.plants[[2]int{t.Row, t.Col}] = engine.None
			p.inventory.Add(t.Plant, engine.HarvestYield(t.Level))
		}
	}

	empty := make([]engine.Tile, 0, len(view.Tiles))
	for _, t := range view.Tiles {
		if t.Plant == engine.None {
			empty = append(empty, t)
		}
	}
	sort.SliceStable(empty, func(i, j int) bool { return empty[i].Water > empty[j].Water })

	for _, t := range empty {
		crop := s.pickCrop(p, t)
		if crop == engine.None {
			continue
		}
		if !p.add(Step{Action: "plant", Row: t.Row, Col: t.Col, Crop: crop}) {
			break
		}
		p.plants[[2]int{t.Row, t.Col}] = crop
		p.inventory.Add(crop, -1)
	}
	return p.steps
}

// pickCrop prefers crops whose companion is already next to the tile, then
// crops that need no companion.
func (s *GreedyStrategy) pickCrop(p *planner, t engine.Tile) engine.PlantType {
	var fallback engine.PlantType
	for i := len(engine.Crops) - 1; i >= 0; i-- {
		crop := engine.Crops[i]
		if p.inventory.Count(crop) <= s.Reserve || t.Water < engine.PlantingWater(crop) {
			continue
		}
		companion, needs := s.Companions[crop]
		if !needs {
			if fallback == engine.None {
				fallback = crop
			}
			continue
		}
		if p.hasNeighbor(t.Row, t.Col, companion) {
			return crop
		}
	}
	return fallback
}
