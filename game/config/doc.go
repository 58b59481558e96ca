// Package config provides scene and growth rule management for the Farm Day game.
//
// The config package handles:
//   - Loading scene documents from YAML files
//   - Loading the shared plant document (plants.yaml) into a RuleSet
//   - Default scene selection with a built-in fallback
//   - Scene discovery and listing
//
// Configuration Format:
//
// Scenes are stored as YAML files in the configs directory. Each scene defines:
//   - Grid dimensions and the daily action budget
//   - An optional weather seed
//   - Starting day, inventory, budget and achievements
//   - Per-tile overrides applied after the random initial fill
//   - Inline plant stages that replace the shared ones for the crops they name
//   - Message overrides
//
// Available Configurations:
//   - classic: 10x10 field with the built-in rules
//   - companion: small garden where cabbages need carrot neighbors
//   - drought: potatoes finish growing only after day 7
//   - legacy: classic field with the old carrot placement rule
//
// Usage:
//
//	manager, err := config.NewManager("configs", logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	scene, err := manager.LoadConfig("companion")
//	rules := manager.Rules()
//
// A missing or malformed plant document is logged and the built-in rules are
// used. A directory with no valid scene falls back to engine.DefaultGameConfig.
package config
