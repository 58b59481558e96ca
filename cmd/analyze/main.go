// Command analyze prints quick, human-readable heuristics about the scenes in
// the project's configs directory. It summarizes dimensions, budgets and
// starting seeds, lists the growth stages with the odds that a day's
// sunlight meets them, and runs a short seeded simulation of each crop to
// flag crops that never mature.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/wricardo/farmday/game/engine"
)

const (
	plantDocumentName = "plants.yaml"
	simulationDays    = 30
	simulationSeed    = 1
)

// CropStats summarizes one crop's simulated field
type CropStats struct {
	Crop      engine.PlantType
	Companion engine.PlantType
	Planted   int
	Matured   int
	MeanDays  float64
}

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func main() {
	configDir := "configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	base := loadBaseRules(configDir)

	files, err := filepath.Glob(filepath.Join(configDir, "*.yaml"))
	if err != nil {
		fmt.Printf("Error finding config files: %v\n", err)
		os.Exit(1)
	}
	sort.Strings(files)

	for _, file := range files {
		if filepath.Base(file) == plantDocumentName {
			continue
		}
		fmt.Printf("\n=== Analyzing %s ===\n", filepath.Base(file))
		if err := analyzeConfig(os.Stdout, file, base); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	}
}

// loadBaseRules reads plants.yaml from dir, falling back to the built-in rules
func loadBaseRules(dir string) *engine.RuleSet {
	data, err := os.ReadFile(filepath.Join(dir, plantDocumentName))
	if err != nil {
		return engine.DefaultRuleSet()
	}
	rules, err := engine.ParsePlantDocument(data, quiet)
	if err != nil {
		fmt.Printf("Error parsing %s: %v\n", plantDocumentName, err)
		return engine.DefaultRuleSet()
	}
	return rules
}

func analyzeConfig(w io.Writer, path string, base *engine.RuleSet) error {
	config, err := engine.LoadGameConfig(path)
	if err != nil {
		return err
	}
	rules := engine.RuleSetFromStages(base, config.Plants, quiet)
	farm := engine.NewFarm(config, engine.NewRandomSource(simulationSeed), quiet)

	fmt.Fprintf(w, "Name: %s\n", config.Name)
	fmt.Fprintf(w, "Grid Size: %d x %d\n", config.Rows, config.Cols)
	fmt.Fprintf(w, "Daily Actions: %d\n", farm.ActionsRemaining)
	fmt.Fprintf(w, "Starting Day: %d\n", farm.Day)
	fmt.Fprintf(w, "Seeds: potato %d, carrot %d, cabbage %d\n",
		farm.Inventory.Potato, farm.Inventory.Carrot, farm.Inventory.Cabbage)
	if config.LegacyCarrotRule {
		fmt.Fprintf(w, "Legacy carrot rule: carrots must be planted next to a potato or cabbage\n")
	}

	planted := 0
	for _, tile := range farm.Grid.Tiles() {
		if tile.Plant != engine.None {
			planted++
		}
	}
	fmt.Fprintf(w, "Tile Overrides: %d (%d planted)\n", len(config.GridOverrides), planted)

	// Tiles dry enough that a crop cannot be planted on day one
	for _, crop := range engine.Crops {
		dry := 0
		for _, tile := range farm.Grid.Tiles() {
			if tile.Plant == engine.None && tile.Water < engine.PlantingWater(crop) {
				dry++
			}
		}
		fmt.Fprintf(w, "Too dry for %s on day %d: %d/%d tiles\n", crop, farm.Day, dry, config.Rows*config.Cols)
	}

	fmt.Fprintf(w, "Growth Stages:\n")
	for _, stage := range rules.Stages() {
		cond := stage.Condition
		line := fmt.Sprintf("  %s L%d: sunlight >= %d, water >= %d", stage.Plant, stage.Level, cond.Sunlight, cond.Water)
		for _, crop := range engine.Crops {
			if n := cond.Neighbors[crop]; n > 0 {
				line += fmt.Sprintf(", %d %s", n, crop)
			}
		}
		if cond.When != "" {
			line += fmt.Sprintf(", when %s", cond.When)
		}
		odds := sunlightOdds(cond.Sunlight)
		if odds == 0 {
			line += " (sunlight never high enough)"
		} else {
			line += fmt.Sprintf(" (sun odds %.0f%%, ~%.1f days)", odds*100, 1/odds)
		}
		fmt.Fprintln(w, line)
	}

	for _, crop := range engine.Crops {
		stats := simulateCrop(config, rules, crop, simulationDays)
		label := crop.String()
		if stats.Companion != engine.None {
			label += fmt.Sprintf(" (with %s)", stats.Companion)
		}
		if stats.Matured == 0 {
			fmt.Fprintf(w, "⚠️  WARNING: %s never matured within %d days\n", label, simulationDays)
			continue
		}
		fmt.Fprintf(w, "✅ %s: %d/%d matured, average %.1f days\n", label, stats.Matured, stats.Planted, stats.MeanDays)
	}

	return nil
}

// sunlightOdds is the chance that a day's sunlight, drawn from 0-100, meets threshold
func sunlightOdds(threshold int) float64 {
	switch {
	case threshold <= 0:
		return 1
	case threshold > engine.MaxSunlight:
		return 0
	}
	return float64(engine.MaxSunlight+1-threshold) / float64(engine.MaxSunlight+1)
}

// companionFor returns the first neighbor crop any stage of crop requires
func companionFor(rules *engine.RuleSet, crop engine.PlantType) engine.PlantType {
	for _, stage := range rules.Stages() {
		if stage.Plant != crop {
			continue
		}
		for _, other := range engine.Crops {
			if stage.Condition.Neighbors[other] > 0 && other != crop {
				return other
			}
		}
	}
	return engine.None
}

// simulateCrop fills the scene's grid with level 1 plants of crop and
// advances days until every plant matures or days run out. When the crop
// needs a companion, odd columns hold the companion instead and are not
// counted.
func simulateCrop(config *engine.GameConfig, rules *engine.RuleSet, crop engine.PlantType, days int) CropStats {
	rng := engine.NewRandomSource(simulationSeed)
	farm := engine.NewFarm(config, rng, quiet)
	controller := engine.NewController(engine.ControllerConfig{
		Rules:        rules,
		Random:       rng,
		DailyActions: config.DailyActions,
		Logger:       quiet,
	})

	stats := CropStats{Crop: crop, Companion: companionFor(rules, crop)}
	grid := farm.Grid
	tracked := make(map[[2]int]bool)
	for row := 0; row < grid.Rows(); row++ {
		for col := 0; col < grid.Cols(); col++ {
			plant := crop
			if stats.Companion != engine.None && col%2 == 1 {
				plant = stats.Companion
			} else {
				tracked[[2]int{row, col}] = true
			}
			grid.Set(engine.FieldPlantType, row, col, uint8(plant))
			grid.Set(engine.FieldPlantLevel, row, col, 1)
		}
	}
	stats.Planted = len(tracked)

	totalDays := 0
	for day := 1; day <= days && len(tracked) > 0; day++ {
		controller.AdvanceDay(farm)
		for key := range tracked {
			if grid.Tile(key[0], key[1]).Level == engine.MaxPlantLevel {
				delete(tracked, key)
				stats.Matured++
				totalDays += day
			}
		}
	}
	if stats.Matured > 0 {
		stats.MeanDays = float64(totalDays) / float64(stats.Matured)
	}
	return stats
}
