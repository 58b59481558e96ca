// Command validate checks the Farm Day YAML documents in a configs directory
// (../configs by default, or the first argument). For scenes it checks:
//   - YAML structure and the engine's own scene validation
//   - Grid overrides that fall off the grid or repeat a tile
//   - Growth stages: known crops, levels in range, known neighbor crops
//   - Growth expressions ("when") that do not compile
//   - Message keys the game never looks up
//   - Growth chains: stages that need a neighbor crop the farm can never get
//
// plants.yaml is checked as a plant document with the same stage rules.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/farmday/game/engine"
	"gopkg.in/yaml.v3"
)

const plantDocumentName = "plants.yaml"

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) info(format string, args ...any) {
	r.Errors = append(r.Errors, "✓ "+fmt.Sprintf(format, args...))
}

func newResult(filePath string) ValidationResult {
	return ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}
}

// validateFile dispatches on the file name
func validateFile(filePath string) ValidationResult {
	if filepath.Base(filePath) == plantDocumentName {
		return validatePlantDocument(filePath)
	}
	return validateScene(filePath)
}

// validateScene loads and validates a single scene document
func validateScene(filePath string) ValidationResult {
	result := newResult(filePath)

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	config, err := engine.ParseGameConfig(data)
	if err != nil {
		result.fail("Invalid scene: %v", err)
		return result
	}
	result.info("Grid: %dx%d, %d actions/day", config.Rows, config.Cols, config.DailyActions)

	validateOverrides(config, &result)
	checkStages(config.Plants, &result)
	checkMessages(config.Messages, &result)

	chain := validateGrowthChain(config)
	result.Errors = append(result.Errors, chain.Errors...)
	if !chain.Valid {
		result.Valid = false
	}

	return result
}

// validatePlantDocument validates a plants.yaml rule document
func validatePlantDocument(filePath string) ValidationResult {
	result := newResult(filePath)

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var doc engine.PlantDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		result.fail("Failed to parse YAML: %v", err)
		return result
	}
	if len(doc.Plants) == 0 {
		result.fail("Missing plants section")
		return result
	}

	checkStages(doc.Plants, &result)
	return result
}

func validateOverrides(config *engine.GameConfig, result *ValidationResult) {
	seen := make(map[[2]int]int)
	for i, o := range config.GridOverrides {
		if o.Row < 0 || o.Row >= config.Rows || o.Col < 0 || o.Col >= config.Cols {
			result.fail("grid_overrides[%d]: tile (%d,%d) is off the %dx%d grid", i, o.Row, o.Col, config.Rows, config.Cols)
			continue
		}
		key := [2]int{o.Row, o.Col}
		if prev, ok := seen[key]; ok {
			result.fail("grid_overrides[%d]: tile (%d,%d) already set by grid_overrides[%d]", i, o.Row, o.Col, prev)
			continue
		}
		seen[key] = i
	}
	if len(config.GridOverrides) > 0 {
		result.info("Overrides: %d tiles", len(config.GridOverrides))
	}
}

func checkStages(plants map[string][]engine.StageConfig, result *ValidationResult) {
	if len(plants) == 0 {
		return
	}

	crops := make([]string, 0, len(plants))
	for crop := range plants {
		crops = append(crops, crop)
	}
	sort.Strings(crops)

	stages := 0
	for _, crop := range crops {
		plant, err := engine.ParsePlantType(crop)
		if err != nil || plant == engine.None {
			result.fail("plants.%s: unknown crop", crop)
			continue
		}
		levels := make(map[int]bool)
		for _, s := range plants[crop] {
			if s.Level < 1 || s.Level > engine.MaxPlantLevel {
				result.fail("plants.%s: level %d is outside 1-%d", crop, s.Level, engine.MaxPlantLevel)
				continue
			}
			if levels[s.Level] {
				result.fail("plants.%s: level %d is defined twice", crop, s.Level)
			}
			levels[s.Level] = true
			if s.Sunlight < 0 || s.Sunlight > engine.MaxSunlight || s.Water < 0 || s.Water > engine.MaxWater {
				result.fail("plants.%s level %d: thresholds must be between 0 and 100", crop, s.Level)
			}
			if s.Neighbors != nil {
				for name, count := range s.Neighbors.RequiredNeighbors {
					np, err := engine.ParsePlantType(name)
					if err != nil || np == engine.None {
						result.fail("plants.%s level %d: unknown neighbor crop %q", crop, s.Level, name)
					}
					if count < 0 || count > 8 {
						result.fail("plants.%s level %d: %d %s neighbors can never be met", crop, s.Level, count, name)
					}
				}
			}
			stages++
		}
	}

	for _, err := range engine.CheckExpressions(plants) {
		result.fail("Growth expression: %v", err)
	}

	result.info("Rules: %d stages for %d crops", stages, len(crops))
}

func checkMessages(messages map[string]string, result *ValidationResult) {
	if len(messages) == 0 {
		return
	}
	known := engine.DefaultMessages()
	keys := make([]string, 0, len(messages))
	for key := range messages {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if _, ok := known[key]; !ok {
			result.fail("messages.%s: unknown message key", key)
		}
	}
}

// validateGrowthChain reports stages whose neighbor requirement names a crop
// the farm can never hold: none in the starting inventory and none planted
// by an override.
func validateGrowthChain(config *engine.GameConfig) ValidationResult {
	result := ValidationResult{Valid: true, Errors: []string{}}

	farm := engine.NewFarm(config, engine.NewRandomSource(1), nil)
	available := make(map[engine.PlantType]bool)
	for _, crop := range engine.Crops {
		if farm.Inventory.Count(crop) > 0 {
			available[crop] = true
		}
	}
	for _, o := range config.GridOverrides {
		if plant, err := engine.ParsePlantType(o.PlantType); err == nil && plant != engine.None {
			available[plant] = true
		}
	}

	if len(available) == 0 {
		result.fail("Growth chain: nothing can ever be planted")
		return result
	}

	rules := engine.RuleSetFromStages(engine.DefaultRuleSet(), config.Plants, nil)
	var blocked []string
	for _, stage := range rules.Stages() {
		if !available[stage.Plant] {
			continue
		}
		for need := range stage.Condition.Neighbors {
			if !available[need] {
				blocked = append(blocked, fmt.Sprintf("%s level %d needs %s", stage.Plant, stage.Level, need))
			}
		}
	}
	if config.LegacyCarrotRule && available[engine.Carrot] && !available[engine.Potato] && !available[engine.Cabbage] {
		blocked = append(blocked, "carrot planting needs a potato or cabbage")
	}
	sort.Strings(blocked)

	if len(blocked) > 0 {
		result.fail("Growth chain: %d stages can never be reached", len(blocked))
		for _, b := range blocked {
			result.Errors = append(result.Errors, "Unreachable: "+b)
		}
	} else {
		result.info("Growth chain: every stage of %d plantable crops is reachable", len(available))
	}

	return result
}

// main scans the configs directory for *.yaml files and validates each one,
// printing a concise report and exiting with non-zero status if any are invalid.
func main() {
	configDir := "../configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}
	files, err := filepath.Glob(filepath.Join(configDir, "*.yaml"))
	if err != nil {
		fmt.Printf("Error finding config files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No configuration files found in %s\n", configDir)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateFile(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All configurations are valid!")
	} else {
		fmt.Println("❌ Some configurations have errors")
		os.Exit(1)
	}
}
