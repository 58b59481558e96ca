package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"github.com/wricardo/farmday/game/engine"
)

var slotPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,32}$`)

// gameServiceImpl implements the GameService interface. One mutex serializes
// every game operation in the process.
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	logger   *slog.Logger
	mu       sync.RWMutex
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager, logger *slog.Logger) GameService {
	if logger == nil {
		logger = slog.Default()
	}
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		logger:   logger,
	}
}

// getConfigID returns the config_id for a scene's display name
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

func sessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     sess.ConfigID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      sess.Engine.View(),
	}
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *engine.GameConfig
	configID := configName
	if configName != "" {
		var err error
		config, err = s.configs.LoadConfig(configName)
		if errors.Is(err, ErrConfigNotFound) {
			// Provide helpful error message with available options
			if available, listErr := s.configs.ListConfigs(); listErr == nil && len(available) > 0 {
				ids := make([]string, 0, len(available))
				for _, cfg := range available {
					ids = append(ids, cfg.ConfigID)
				}
				return nil, fmt.Errorf("%w: '%s'. Available configs: %v", ErrConfigNotFound, configName, ids)
			}
			return nil, fmt.Errorf("%w: '%s'. Use /api/configs to list available configurations", ErrConfigNotFound, configName)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
		configID = s.getConfigID(config.Name)
	}

	sess, err := s.sessions.Create("", configID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return sessionInfo(sess), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return sessionInfo(sess), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessions.Delete(sessionID)
}

func (s *gameServiceImpl) session(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	if err := s.sessions.UpdateLastAccessed(sessionID); err == nil {
		sess.LastAccessedAt = time.Now()
	}
	return sess, nil
}

// tile resolves request coordinates. Omitted coordinates mean the player's tile.
func tile(sess *Session, row, col *int) (r, c int, here bool, err error) {
	if row == nil || col == nil {
		return 0, 0, true, nil
	}
	if !sess.Engine.InBounds(*row, *col) {
		return 0, 0, false, fmt.Errorf("%w: (%d,%d) on a %dx%d grid", ErrOutOfBounds, *row, *col, sess.Engine.Rows(), sess.Engine.Cols())
	}
	return *row, *col, false, nil
}

// Plant puts a crop on a tile
func (s *gameServiceImpl) Plant(ctx context.Context, sessionID string, req PlantRequest) (*ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	row, col, here, err := tile(sess, req.Row, req.Col)
	if err != nil {
		return nil, err
	}

	crop, err := engine.ParsePlantType(req.Crop)
	if err != nil || !crop.IsCrop() {
		return &ActionResult{
			Action:    "plant",
			Success:   false,
			Reason:    engine.ReasonCode(engine.ErrUnknownCrop),
			Message:   sess.Engine.Messages().Translate(engine.MsgUnknownCrop, map[string]any{"crop": req.Crop}),
			GameState: sess.Engine.View(),
		}, nil
	}

	var ok bool
	if here {
		ok = sess.Engine.PlantHere(crop)
	} else {
		ok = sess.Engine.Plant(row, col, crop)
	}
	return s.finish(sess, ok), nil
}

// Harvest collects the plant on a tile
func (s *gameServiceImpl) Harvest(ctx context.Context, sessionID string, req TileRequest) (*ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	row, col, here, err := tile(sess, req.Row, req.Col)
	if err != nil {
		return nil, err
	}

	var ok bool
	if here {
		ok = sess.Engine.HarvestHere()
	} else {
		ok = sess.Engine.Harvest(row, col)
	}
	return s.finish(sess, ok), nil
}

// AdvanceDay ends the day for a session
func (s *gameServiceImpl) AdvanceDay(ctx context.Context, sessionID string) (*ActionResult, error) {
	return s.simple(sessionID, func(e *engine.GameEngine) bool { return e.AdvanceDay() })
}

// Move steps the player one tile
func (s *gameServiceImpl) Move(ctx context.Context, sessionID, direction string) (*ActionResult, error) {
	return s.simple(sessionID, func(e *engine.GameEngine) bool { return e.Move(direction) })
}

func (s *gameServiceImpl) Undo(ctx context.Context, sessionID string) (*ActionResult, error) {
	return s.simple(sessionID, func(e *engine.GameEngine) bool { return e.Undo() })
}

func (s *gameServiceImpl) Redo(ctx context.Context, sessionID string) (*ActionResult, error) {
	return s.simple(sessionID, func(e *engine.GameEngine) bool { return e.Redo() })
}

func (s *gameServiceImpl) simple(sessionID string, action func(*engine.GameEngine) bool) (*ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return s.finish(sess, action(sess.Engine)), nil
}

// SaveSlot writes the session's farm and history to a named slot
func (s *gameServiceImpl) SaveSlot(ctx context.Context, sessionID, slot string) (*ActionResult, error) {
	return s.slot(sessionID, slot, func(e *engine.GameEngine) error { return e.SaveToSlot(slot) })
}

// LoadSlot replaces the session's farm and history from a named slot
func (s *gameServiceImpl) LoadSlot(ctx context.Context, sessionID, slot string) (*ActionResult, error) {
	return s.slot(sessionID, slot, func(e *engine.GameEngine) error { return e.LoadFromSlot(slot) })
}

func (s *gameServiceImpl) slot(sessionID, slot string, action func(*engine.GameEngine) error) (*ActionResult, error) {
	if !slotPattern.MatchString(slot) {
		return nil, fmt.Errorf("%w: bad slot name %q", ErrInvalidRequest, slot)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	if err := action(sess.Engine); err != nil {
		return nil, fmt.Errorf("slot %s: %w", slot, err)
	}
	return s.finish(sess, true), nil
}

// Reset starts the session's scene over
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.StateView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	sess.Engine.Reset()
	s.persist(sess)
	return sess.Engine.View(), nil
}

// finish builds the result of the engine's last action and persists the session
func (s *gameServiceImpl) finish(sess *Session, ok bool) *ActionResult {
	eng := sess.Engine
	outcome := eng.LastOutcome()
	result := &ActionResult{
		Action:    outcome.Action,
		Success:   ok,
		Message:   eng.Message(),
		GameState: eng.View(),
		Harvest:   outcome.Harvest,
		Grown:     outcome.Grown,
	}
	if ok {
		result.Events = extractEvents(eng, outcome)
	} else {
		result.Reason = engine.ReasonCode(eng.LastError())
	}

	s.logger.Debug("action", "session", sess.ID, "action", outcome.Action, "success", ok, "reason", result.Reason)
	s.persist(sess)
	return result
}

func (s *gameServiceImpl) persist(sess *Session) {
	if err := s.sessions.Save(sess.ID); err != nil {
		s.logger.Warn("failed to persist session", "session", sess.ID, "error", err)
	}
}

// extractEvents generates events from a successful action
func extractEvents(eng *engine.GameEngine, outcome engine.Outcome) []GameEvent {
	now := time.Now()
	pos := eng.GetPlayerPosition()
	events := []GameEvent{}

	switch outcome.Action {
	case "plant":
		events = append(events, GameEvent{Type: "planted", Message: eng.Message(), Timestamp: now})
	case "harvest":
		events = append(events, GameEvent{Type: "harvested", Message: eng.Message(), Timestamp: now})
	case "advance_day":
		events = append(events, GameEvent{Type: "day_advanced", Message: eng.Message(), Timestamp: now})
		for _, g := range outcome.Grown {
			events = append(events, GameEvent{
				Type:      "grew",
				Message:   fmt.Sprintf("%s at (%d,%d) reached level %d", g.Plant, g.Row, g.Col, g.Level),
				Timestamp: now,
			})
		}
	case "move":
		events = append(events, GameEvent{Type: "moved", Message: eng.Message(), Timestamp: now, Position: &pos})
	case "undo", "redo":
		events = append(events, GameEvent{Type: outcome.Action, Message: eng.Message(), Timestamp: now})
	case "save":
		events = append(events, GameEvent{Type: "saved", Message: eng.Message(), Timestamp: now})
	case "load":
		events = append(events, GameEvent{Type: "loaded", Message: eng.Message(), Timestamp: now})
	}

	for _, title := range outcome.Unlocked {
		events = append(events, GameEvent{
			Type:      "achievement_unlocked",
			Message:   eng.Messages().Translate(engine.MsgAchievementUnlocked, map[string]any{"title": title}),
			Timestamp: now,
		})
	}
	return events
}

// GetGameState retrieves the current farm
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.StateView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Engine.View(), nil
}

// DescribeTile returns one tile with a readable summary and its next growth stage
func (s *gameServiceImpl) DescribeTile(ctx context.Context, sessionID string, row, col int) (*TileInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	if _, _, _, err := tile(sess, &row, &col); err != nil {
		return nil, err
	}

	t := sess.Engine.Tile(row, col)
	info := &TileInfo{Tile: t, Description: engine.DescribeTile(t)}
	if t.Plant.IsCrop() && t.Level < engine.MaxPlantLevel {
		if next, ok := sess.Engine.Rules().Lookup(t.Plant, t.Level+1); ok {
			info.NextStage = &next
		}
	}
	return info, nil
}

// GetActionLog returns a page of the session's action log
func (s *gameServiceImpl) GetActionLog(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	log := sess.Engine.GetActionLog()
	total := len(log)

	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := min(start+opts.Limit, total)

	actions := []engine.ActionLogEntry{}
	if start < total {
		if opts.Order == "desc" {
			for i := total - 1 - start; i >= total-end; i-- {
				actions = append(actions, log[i])
			}
		} else {
			actions = append(actions, log[start:end]...)
		}
	}

	return &HistoryResponse{
		Actions:      actions,
		TotalActions: total,
		Page:         opts.Page,
		PageSize:     opts.Limit,
		TotalPages:   totalPages,
		HasNext:      opts.Page < totalPages,
		HasPrevious:  opts.Page > 1,
	}, nil
}

// ListConfigs returns available scenes
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific scene
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a scene to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}
