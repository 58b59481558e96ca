package service

import (
	"time"

	"github.com/wricardo/farmday/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string            `json:"id"`
	ConfigName     string            `json:"config_name"`
	CreatedAt      time.Time         `json:"created_at"`
	LastAccessedAt time.Time         `json:"last_accessed_at"`
	GameState      *engine.StateView `json:"game_state"`
}

// PlantRequest plants a crop at Row, Col, or on the player's tile when
// either coordinate is omitted.
type PlantRequest struct {
	Row  *int   `json:"row,omitempty"`
	Col  *int   `json:"col,omitempty"`
	Crop string `json:"crop"`
}

// TileRequest addresses one tile; omitted coordinates mean the player's tile
type TileRequest struct {
	Row *int `json:"row,omitempty"`
	Col *int `json:"col,omitempty"`
}

// ActionResult contains the result of one game action
type ActionResult struct {
	Action    string                `json:"action"`
	Success   bool                  `json:"success"`
	Reason    string                `json:"reason,omitempty"` // Machine-friendly code, see engine.ReasonCode
	Message   string                `json:"message"`
	GameState *engine.StateView     `json:"game_state"`
	Events    []GameEvent           `json:"events,omitempty"`
	Harvest   *engine.HarvestResult `json:"harvest,omitempty"`
	Grown     []engine.GrowthEvent  `json:"grown,omitempty"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string           `json:"type"` // "planted", "harvested", "grew", "day_advanced", "achievement_unlocked", "moved", "undo", "redo", "saved", "loaded"
	Message   string           `json:"message"`
	Timestamp time.Time        `json:"timestamp"`
	Position  *engine.Position `json:"position,omitempty"`
}

// TileInfo is a tile plus a readable description of it
type TileInfo struct {
	engine.Tile
	Description string `json:"description"`
	// NextStage is the condition for the plant's next level, if it has one
	NextStage *engine.GrowthCondition `json:"next_stage,omitempty"`
}

// HistoryOptions configures action log retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains a page of the action log
type HistoryResponse struct {
	Actions      []engine.ActionLogEntry `json:"actions"`
	TotalActions int                     `json:"total_actions"`
	Page         int                     `json:"page"`
	PageSize     int                     `json:"page_size"`
	TotalPages   int                     `json:"total_pages"`
	HasNext      bool                    `json:"has_next"`
	HasPrevious  bool                    `json:"has_previous"`
}

// ConfigInfo provides information about a scene document
type ConfigInfo struct {
	Filename     string `json:"filename"`
	ConfigID     string `json:"config_id"` // The identifier to use for session creation
	Name         string `json:"name"`      // Display name
	Description  string `json:"description"`
	Rows         int    `json:"rows"`
	Cols         int    `json:"cols"`
	DailyActions int    `json:"daily_actions"`
}
