// Package engine provides the core game logic for the Farm Day game.
//
// The engine package implements the game mechanics including:
//   - A flat byte grid holding sunlight, water, plant type and level per tile
//   - Declarative growth rules with optional neighbor and expression conditions
//   - Planting, harvesting and day advance under a daily action budget
//   - Undo/redo history with autosave and named save slots
//   - Scene configuration loading and validation
//
// Core Types:
//
// The Engine interface defines the main contract for game operations,
// implemented by GameEngine. A Farm is the live state; GameState is an
// immutable snapshot of it, and SaveData bundles a snapshot with both
// history stacks for persistence. GameConfig is a scene loaded from YAML.
//
// Usage:
//
//	config, err := engine.LoadGameConfig("configs/classic.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine, err := engine.NewEngine(config, engine.WithSlotStore(storage.NewMemoryStore()))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine.PlantHere(engine.Potato)
//	gameEngine.AdvanceDay()
//	view := gameEngine.View()
//
// Game Rules:
//
// Each day the player has a fixed number of actions. Planting needs water on
// the tile and a seed in the inventory; some crops also need neighbors.
// Ending the day grows every plant whose conditions are met, then rolls new
// sunlight and adds rain. Harvesting returns more seeds the older the plant,
// and holding enough of a crop unlocks achievements.
package engine
