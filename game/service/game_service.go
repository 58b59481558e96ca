package service

import (
	"context"
	"errors"
	"time"

	"github.com/wricardo/farmday/game/engine"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrConfigNotFound  = errors.New("configuration not found")
	// ErrOutOfBounds is returned for coordinates outside the session's grid
	ErrOutOfBounds = errors.New("coordinates out of bounds")
	ErrInvalidRequest = errors.New("invalid request")
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, configName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	Plant(ctx context.Context, sessionID string, req PlantRequest) (*ActionResult, error)
	Harvest(ctx context.Context, sessionID string, req TileRequest) (*ActionResult, error)
	AdvanceDay(ctx context.Context, sessionID string) (*ActionResult, error)
	Move(ctx context.Context, sessionID, direction string) (*ActionResult, error)
	Undo(ctx context.Context, sessionID string) (*ActionResult, error)
	Redo(ctx context.Context, sessionID string) (*ActionResult, error)
	Reset(ctx context.Context, sessionID string) (*engine.StateView, error)

	// Save slots
	SaveSlot(ctx context.Context, sessionID, slot string) (*ActionResult, error)
	LoadSlot(ctx context.Context, sessionID, slot string) (*ActionResult, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.StateView, error)
	DescribeTile(ctx context.Context, sessionID string, row, col int) (*TileInfo, error)
	GetActionLog(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error
}

// SessionManager defines session storage operations. Get and List return
// copies, so LastAccessedAt can be read without the manager's lock.
type SessionManager interface {
	Create(id, configID string, config *engine.GameConfig) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// ConfigManager handles scene and plant document loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.GameConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.GameConfig
	SaveConfig(name string, config *engine.GameConfig) error
	Rules() *engine.RuleSet
}

// Session represents an active farm
type Session struct {
	ID             string
	ConfigID       string
	Engine         *engine.GameEngine
	Config         *engine.GameConfig
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
