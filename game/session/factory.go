package session

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/wricardo/farmday/game/engine"
	"github.com/wricardo/farmday/game/storage"
)

// EngineFactory builds the engine behind a session and releases what it
// leaves behind when the session is deleted.
type EngineFactory interface {
	NewEngine(id string, config *engine.GameConfig) (*engine.GameEngine, error)
	Discard(id string) error
}

// RuleSource provides the shared growth rules, usually config.Manager
type RuleSource interface {
	Rules() *engine.RuleSet
}

// StoreFactory builds engines whose save slots live in one shared store,
// each session under its own key prefix. A new engine restores its
// autosave when the store holds one.
type StoreFactory struct {
	store  storage.SlotStore
	rules  RuleSource
	logger *slog.Logger
}

// NewStoreFactory creates a factory. A nil store keeps slots in memory and
// nil rules use the built-in ones.
func NewStoreFactory(store storage.SlotStore, rules RuleSource, logger *slog.Logger) *StoreFactory {
	if store == nil {
		store = storage.NewMemoryStore()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StoreFactory{store: store, rules: rules, logger: logger}
}

func slotPrefix(id string) string {
	return "farm." + strings.ToLower(id) + "."
}

// NewEngine creates the engine for session id
func (f *StoreFactory) NewEngine(id string, config *engine.GameConfig) (*engine.GameEngine, error) {
	logger := f.logger.With("session", id)
	opts := []engine.Option{
		engine.WithSlotStore(storage.WithPrefix(f.store, slotPrefix(id))),
		engine.WithLogger(logger),
	}
	if f.rules != nil {
		opts = append(opts, engine.WithRuleSet(f.rules.Rules()))
	}

	eng, err := engine.NewEngine(config, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	if err := eng.LoadAutosave(); err != nil && !errors.Is(err, engine.ErrNoSaveData) {
		logger.Warn("ignoring unusable autosave", "error", err)
	}
	return eng, nil
}

// Discard removes every slot the session wrote
func (f *StoreFactory) Discard(id string) error {
	return storage.DeletePrefix(f.store, slotPrefix(id))
}
