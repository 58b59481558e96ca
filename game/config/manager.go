package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/wricardo/farmday/game/engine"
	"github.com/wricardo/farmday/game/service"
)

var (
	ErrConfigNotFound = service.ErrConfigNotFound
	ErrInvalidConfig  = engine.ErrInvalidConfig
)

// PlantsFile is the shared plant document inside the config directory
const PlantsFile = "plants.yaml"

// DefaultConfigID is the scene used when none is named
const DefaultConfigID = "classic"

var sceneExts = []string{".yaml", ".yml"}

// Manager handles scene loading and caching, and owns the growth rules
// read from the shared plant document.
type Manager struct {
	configDir     string
	defaultConfig *engine.GameConfig
	configs       map[string]*engine.GameConfig
	rules         *engine.RuleSet
	logger        *slog.Logger
	mu            sync.RWMutex
}

// NewManager creates a new configuration manager
func NewManager(configDir string, logger *slog.Logger) (*Manager, error) {
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("config directory does not exist: %s", configDir)
	}
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		configDir: configDir,
		configs:   make(map[string]*engine.GameConfig),
		logger:    logger,
	}

	m.rules = m.loadRules()
	m.defaultConfig = m.loadDefaultConfig()
	return m, nil
}

// configID strips a scene extension from name
func configID(name string) string {
	for _, ext := range sceneExts {
		if strings.HasSuffix(name, ext) {
			return strings.TrimSuffix(name, ext)
		}
	}
	return name
}

// LoadConfig loads a scene by name, with or without extension
func (m *Manager) LoadConfig(name string) (*engine.GameConfig, error) {
	id := configID(name)
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") || id == configID(PlantsFile) {
		return nil, fmt.Errorf("%w: %q", ErrConfigNotFound, name)
	}

	m.mu.RLock()
	if config, exists := m.configs[id]; exists {
		m.mu.RUnlock()
		return config, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if config, exists := m.configs[id]; exists {
		return config, nil
	}

	data, err := m.readScene(id)
	if err != nil {
		return nil, err
	}

	config, err := engine.ParseGameConfig(data)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", id, err)
	}
	for _, exprErr := range engine.CheckExpressions(config.Plants) {
		m.logger.Warn("scene has an invalid growth expression", "config", id, "error", exprErr)
	}

	m.configs[id] = config
	return config, nil
}

func (m *Manager) readScene(id string) ([]byte, error) {
	for _, ext := range sceneExts {
		data, err := os.ReadFile(filepath.Join(m.configDir, id+ext))
		if err == nil {
			return data, nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, id)
}

// ListConfigs returns information about every valid scene in the directory
func (m *Manager) ListConfigs() ([]*service.ConfigInfo, error) {
	entries, err := os.ReadDir(m.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	var configs []*service.ConfigInfo
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == PlantsFile || configID(name) == name {
			continue
		}

		id := configID(name)
		config, err := m.LoadConfig(id)
		if err != nil {
			m.logger.Debug("skipping invalid scene", "file", name, "error", err)
			continue
		}

		configs = append(configs, &service.ConfigInfo{
			Filename:     name,
			ConfigID:     id,
			Name:         config.Name,
			Description:  config.Description,
			Rows:         config.Rows,
			Cols:         config.Cols,
			DailyActions: config.DailyActions,
		})
	}

	sort.Slice(configs, func(i, j int) bool { return configs[i].ConfigID < configs[j].ConfigID })
	return configs, nil
}

// GetDefault returns the default scene
func (m *Manager) GetDefault() *engine.GameConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultConfig
}

// SetDefault sets the default scene by name
func (m *Manager) SetDefault(name string) error {
	config, err := m.LoadConfig(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultConfig = config
	return nil
}

// Rules returns the growth rules from the shared plant document
func (m *Manager) Rules() *engine.RuleSet {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rules
}

// ReloadConfig drops one scene from the cache and loads it again
func (m *Manager) ReloadConfig(name string) error {
	id := configID(name)
	m.mu.Lock()
	delete(m.configs, id)
	m.mu.Unlock()

	_, err := m.LoadConfig(id)
	return err
}

// RefreshCache reloads the plant document, the default scene, and clears cached scenes
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	m.configs = make(map[string]*engine.GameConfig)
	m.mu.Unlock()

	rules := m.loadRules()
	def := m.loadDefaultConfig()

	m.mu.Lock()
	m.rules = rules
	m.defaultConfig = def
	m.mu.Unlock()
}

// ValidateConfig checks a scene without saving it
func (m *Manager) ValidateConfig(config *engine.GameConfig) error {
	if config == nil {
		return fmt.Errorf("%w: nil config", ErrInvalidConfig)
	}
	if err := engine.ValidateGameConfig(config); err != nil {
		return err
	}
	if errs := engine.CheckExpressions(config.Plants); len(errs) > 0 {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// loadDefaultConfig prefers classic, then the first listed scene, then the built-in one
func (m *Manager) loadDefaultConfig() *engine.GameConfig {
	config, err := m.LoadConfig(DefaultConfigID)
	if err == nil {
		return config
	}
	m.logger.Debug("default scene unavailable", "config", DefaultConfigID, "error", err)

	configs, listErr := m.ListConfigs()
	if listErr == nil && len(configs) > 0 {
		if config, err := m.LoadConfig(configs[0].ConfigID); err == nil {
			return config
		}
	}

	m.logger.Warn("no usable scene found, using built-in defaults", "dir", m.configDir)
	return engine.DefaultGameConfig()
}

// loadRules reads the plant document, falling back to the built-in rules
func (m *Manager) loadRules() *engine.RuleSet {
	path := filepath.Join(m.configDir, PlantsFile)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		m.logger.Debug("no plant document, using built-in rules", "path", path)
		return engine.DefaultRuleSet()
	}
	if err != nil {
		m.logger.Warn("failed to read plant document, using built-in rules", "path", path, "error", err)
		return engine.DefaultRuleSet()
	}

	rules, err := engine.ParsePlantDocument(data, m.logger)
	if err != nil {
		m.logger.Warn("malformed plant document, using built-in rules", "path", path, "error", err)
		return engine.DefaultRuleSet()
	}
	return rules
}

// SaveConfig validates a scene and writes it as YAML
func (m *Manager) SaveConfig(name string, config *engine.GameConfig) error {
	if err := m.ValidateConfig(config); err != nil {
		return err
	}

	id := configID(name)
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") || id == configID(PlantsFile) {
		return fmt.Errorf("%w: bad scene name %q", ErrInvalidConfig, name)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filepath.Join(m.configDir, id+".yaml"), data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	m.mu.Lock()
	m.configs[id] = config
	m.mu.Unlock()
	return nil
}
