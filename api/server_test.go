package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/wricardo/farmday/game/config"
	"github.com/wricardo/farmday/game/engine"
	"github.com/wricardo/farmday/game/service"
	"github.com/wricardo/farmday/game/session"
	"github.com/wricardo/farmday/transport/websocket"
)

// MockGameService implements service.GameService for testing
type MockGameService struct {
	// Session Management
	CreateSessionFunc func(ctx context.Context, configName string) (*service.SessionInfo, error)
	GetSessionFunc    func(ctx context.Context, sessionID string) (*service.SessionInfo, error)
	ListSessionsFunc  func(ctx context.Context) ([]*service.SessionInfo, error)
	DeleteSessionFunc func(ctx context.Context, sessionID string) error

	// Farm Operations
	PlantFunc      func(ctx context.Context, sessionID string, req service.PlantRequest) (*service.ActionResult, error)
	HarvestFunc    func(ctx context.Context, sessionID string, req service.TileRequest) (*service.ActionResult, error)
	AdvanceDayFunc func(ctx context.Context, sessionID string) (*service.ActionResult, error)
	MoveFunc       func(ctx context.Context, sessionID, direction string) (*service.ActionResult, error)
	UndoFunc       func(ctx context.Context, sessionID string) (*service.ActionResult, error)
	RedoFunc       func(ctx context.Context, sessionID string) (*service.ActionResult, error)
	SaveSlotFunc   func(ctx context.Context, sessionID, slot string) (*service.ActionResult, error)
	LoadSlotFunc   func(ctx context.Context, sessionID, slot string) (*service.ActionResult, error)
	ResetFunc      func(ctx context.Context, sessionID string) (*engine.StateView, error)

	// Farm State
	GetGameStateFunc func(ctx context.Context, sessionID string) (*engine.StateView, error)
	DescribeTileFunc func(ctx context.Context, sessionID string, row, col int) (*service.TileInfo, error)
	GetActionLogFunc func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error)

	// Configuration
	ListConfigsFunc func(ctx context.Context) ([]*service.ConfigInfo, error)
	LoadConfigFunc  func(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfigFunc  func(ctx context.Context, configName string, config *engine.GameConfig) error
}

func okResult(action string) *service.ActionResult {
	return &service.ActionResult{Action: action, Success: true, GameState: &engine.StateView{Day: 1}}
}

func (m *MockGameService) CreateSession(ctx context.Context, configName string) (*service.SessionInfo, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, configName)
	}
	return &service.SessionInfo{ID: "test-session", ConfigName: configName, CreatedAt: time.Now()}, nil
}

func (m *MockGameService) GetSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	return &service.SessionInfo{ID: sessionID, ConfigName: "test-config", CreatedAt: time.Now()}, nil
}

func (m *MockGameService) ListSessions(ctx context.Context) ([]*service.SessionInfo, error) {
	if m.ListSessionsFunc != nil {
		return m.ListSessionsFunc(ctx)
	}
	return []*service.SessionInfo{}, nil
}

func (m *MockGameService) DeleteSession(ctx context.Context, sessionID string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, sessionID)
	}
	return nil
}

func (m *MockGameService) Plant(ctx context.Context, sessionID string, req service.PlantRequest) (*service.ActionResult, error) {
	if m.PlantFunc != nil {
		return m.PlantFunc(ctx, sessionID, req)
	}
	return okResult("plant"), nil
}

func (m *MockGameService) Harvest(ctx context.Context, sessionID string, req service.TileRequest) (*service.ActionResult, error) {
	if m.HarvestFunc != nil {
		return m.HarvestFunc(ctx, sessionID, req)
	}
	return okResult("harvest"), nil
}

func (m *MockGameService) AdvanceDay(ctx context.Context, sessionID string) (*service.ActionResult, error) {
	if m.AdvanceDayFunc != nil {
		return m.AdvanceDayFunc(ctx, sessionID)
	}
	return okResult("advance_day"), nil
}

func (m *MockGameService) Move(ctx context.Context, sessionID, direction string) (*service.ActionResult, error) {
	if m.MoveFunc != nil {
		return m.MoveFunc(ctx, sessionID, direction)
	}
	return okResult("move"), nil
}

func (m *MockGameService) Undo(ctx context.Context, sessionID string) (*service.ActionResult, error) {
	if m.UndoFunc != nil {
		return m.UndoFunc(ctx, sessionID)
	}
	return okResult("undo"), nil
}

func (m *MockGameService) Redo(ctx context.Context, sessionID string) (*service.ActionResult, error) {
	if m.RedoFunc != nil {
		return m.RedoFunc(ctx, sessionID)
	}
	return okResult("redo"), nil
}

func (m *MockGameService) SaveSlot(ctx context.Context, sessionID, slot string) (*service.ActionResult, error) {
	if m.SaveSlotFunc != nil {
		return m.SaveSlotFunc(ctx, sessionID, slot)
	}
	return okResult("save"), nil
}

func (m *MockGameService) LoadSlot(ctx context.Context, sessionID, slot string) (*service.ActionResult, error) {
	if m.LoadSlotFunc != nil {
		return m.LoadSlotFunc(ctx, sessionID, slot)
	}
	return okResult("load"), nil
}

func (m *MockGameService) Reset(ctx context.Context, sessionID string) (*engine.StateView, error) {
	if m.ResetFunc != nil {
		return m.ResetFunc(ctx, sessionID)
	}
	return &engine.StateView{Day: 1}, nil
}

func (m *MockGameService) GetGameState(ctx context.Context, sessionID string) (*engine.StateView, error) {
	if m.GetGameStateFunc != nil {
		return m.GetGameStateFunc(ctx, sessionID)
	}
	return &engine.StateView{Day: 1}, nil
}

func (m *MockGameService) DescribeTile(ctx context.Context, sessionID string, row, col int) (*service.TileInfo, error) {
	if m.DescribeTileFunc != nil {
		return m.DescribeTileFunc(ctx, sessionID, row, col)
	}
	return &service.TileInfo{Tile: engine.Tile{Row: row, Col: col}}, nil
}

func (m *MockGameService) GetActionLog(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
	if m.GetActionLogFunc != nil {
		return m.GetActionLogFunc(ctx, sessionID, opts)
	}
	return &service.HistoryResponse{
		Actions:    []engine.ActionLogEntry{},
		Page:       opts.Page,
		PageSize:   opts.Limit,
		TotalPages: 1,
	}, nil
}

func (m *MockGameService) ListConfigs(ctx context.Context) ([]*service.ConfigInfo, error) {
	if m.ListConfigsFunc != nil {
		return m.ListConfigsFunc(ctx)
	}
	return []*service.ConfigInfo{}, nil
}

func (m *MockGameService) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	if m.LoadConfigFunc != nil {
		return m.LoadConfigFunc(ctx, configName)
	}
	return &engine.GameConfig{Name: configName, Description: "Test config"}, nil
}

func (m *MockGameService) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	if m.SaveConfigFunc != nil {
		return m.SaveConfigFunc(ctx, configName, config)
	}
	return nil
}

// Test helpers
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestServer(t *testing.T, mockService service.GameService) (*Server, *websocket.Hub) {
	t.Helper()
	hub := websocket.NewHub(quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return NewServer(mockService, hub, quietLogger()), hub
}

func makeRequest(method, path string, body any) *http.Request {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), target); err != nil {
		t.Fatalf("Failed to parse response: %v (%s)", err, w.Body.String())
	}
}

func do(server *Server, method, path string, body any) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest(method, path, body))
	return w
}

// Session Management Tests

func TestCreateSession(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    map[string]string
		setupMock      func(*MockGameService)
		expectedStatus int
		validateResp   func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:        "Create session with default config",
			requestBody: nil,
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					if configName != "" {
						t.Errorf("Expected empty config name, got %s", configName)
					}
					return &service.SessionInfo{ID: "ab12", ConfigName: "classic", CreatedAt: time.Now()}, nil
				}
			},
			expectedStatus: http.StatusCreated,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.SessionInfo
				parseResponse(t, w, &resp)
				if resp.ID != "ab12" {
					t.Errorf("Expected session ID ab12, got %s", resp.ID)
				}
			},
		},
		{
			name:        "Create session with config_id",
			requestBody: map[string]string{"config_id": "drought"},
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					return &service.SessionInfo{ID: "cd34", ConfigName: configName}, nil
				}
			},
			expectedStatus: http.StatusCreated,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.SessionInfo
				parseResponse(t, w, &resp)
				if resp.ConfigName != "drought" {
					t.Errorf("Expected config drought, got %s", resp.ConfigName)
				}
			},
		},
		{
			name:        "Deprecated config_name",
			requestBody: map[string]string{"config_name": "companion"},
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					return &service.SessionInfo{ID: "ef56", ConfigName: configName}, nil
				}
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:        "Unknown config",
			requestBody: map[string]string{"config_id": "nope"},
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("%w: 'nope'", service.ErrConfigNotFound)
				}
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "Handle service error",
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("service error")
				}
			},
			expectedStatus: http.StatusInternalServerError,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp map[string]string
				parseResponse(t, w, &resp)
				if resp["error"] != "service error" {
					t.Errorf("Expected error message 'service error', got %s", resp["error"])
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}
			server, _ := setupTestServer(t, mockService)

			var body any
			if tt.requestBody != nil {
				body = tt.requestBody
			}
			w := do(server, "POST", "/api/sessions", body)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if tt.validateResp != nil {
				tt.validateResp(t, w)
			}
		})
	}
}

func TestListSessions(t *testing.T) {
	now := time.Now()
	mockService := &MockGameService{
		ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
			return []*service.SessionInfo{
				{ID: "old", CreatedAt: now.Add(-3 * time.Hour), LastAccessedAt: now.Add(-time.Minute)},
				{ID: "mid", CreatedAt: now.Add(-2 * time.Hour), LastAccessedAt: now.Add(-time.Hour)},
				{ID: "new", CreatedAt: now.Add(-time.Hour), LastAccessedAt: now.Add(-2 * time.Hour)},
			}, nil
		},
	}
	server, _ := setupTestServer(t, mockService)

	tests := []struct {
		name      string
		query     string
		wantFirst string
		wantCount int
	}{
		{name: "default sorts by last access", query: "", wantFirst: "old", wantCount: 3},
		{name: "created ascending", query: "?sort=created&order=asc", wantFirst: "old", wantCount: 3},
		{name: "created descending with limit", query: "?sort=created&limit=1", wantFirst: "new", wantCount: 1},
		{name: "accessed ascending", query: "?order=asc", wantFirst: "new", wantCount: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(server, "GET", "/api/sessions"+tt.query, nil)
			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", w.Code)
			}
			var resp struct {
				Count    int                    `json:"count"`
				Total    int                    `json:"total"`
				Sessions []*service.SessionInfo `json:"sessions"`
			}
			parseResponse(t, w, &resp)
			if resp.Count != tt.wantCount || len(resp.Sessions) != tt.wantCount {
				t.Errorf("Expected %d sessions, got %d", tt.wantCount, resp.Count)
			}
			if resp.Total != 3 {
				t.Errorf("Expected total 3, got %d", resp.Total)
			}
			if resp.Sessions[0].ID != tt.wantFirst {
				t.Errorf("Expected %s first, got %s", tt.wantFirst, resp.Sessions[0].ID)
			}
		})
	}
}

func TestGetAndDeleteSession(t *testing.T) {
	mockService := &MockGameService{
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			if sessionID != "ab12" {
				return nil, fmt.Errorf("session %s: %w", sessionID, service.ErrSessionNotFound)
			}
			return &service.SessionInfo{ID: sessionID}, nil
		},
		DeleteSessionFunc: func(ctx context.Context, sessionID string) error {
			if sessionID != "ab12" {
				return service.ErrSessionNotFound
			}
			return nil
		},
	}
	server, _ := setupTestServer(t, mockService)

	if w := do(server, "GET", "/api/sessions/ab12", nil); w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
	if w := do(server, "GET", "/api/sessions/zz99", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
	if w := do(server, "DELETE", "/api/sessions/ab12", nil); w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
	if w := do(server, "DELETE", "/api/sessions/zz99", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}

// Farm Operation Tests

func TestPlant(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		setupMock      func(*MockGameService)
		expectedStatus int
	}{
		{
			name: "plant on player tile",
			body: map[string]any{"crop": "potato"},
			setupMock: func(m *MockGameService) {
				m.PlantFunc = func(ctx context.Context, sessionID string, req service.PlantRequest) (*service.ActionResult, error) {
					if req.Row != nil || req.Col != nil {
						t.Error("Expected omitted coordinates")
					}
					if req.Crop != "potato" {
						t.Errorf("Expected potato, got %s", req.Crop)
					}
					return okResult("plant"), nil
				}
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "plant at coordinates",
			body: map[string]any{"row": 0, "col": 3, "crop": "carrot"},
			setupMock: func(m *MockGameService) {
				m.PlantFunc = func(ctx context.Context, sessionID string, req service.PlantRequest) (*service.ActionResult, error) {
					if req.Row == nil || *req.Row != 0 || req.Col == nil || *req.Col != 3 {
						t.Errorf("Expected (0,3), got %v,%v", req.Row, req.Col)
					}
					return okResult("plant"), nil
				}
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "refused action is still 200",
			body: map[string]any{"crop": "cabbage"},
			setupMock: func(m *MockGameService) {
				m.PlantFunc = func(ctx context.Context, sessionID string, req service.PlantRequest) (*service.ActionResult, error) {
					return &service.ActionResult{Action: "plant", Reason: "insufficient_water", GameState: &engine.StateView{}}, nil
				}
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "out of bounds",
			body: map[string]any{"row": 99, "col": 0, "crop": "potato"},
			setupMock: func(m *MockGameService) {
				m.PlantFunc = func(ctx context.Context, sessionID string, req service.PlantRequest) (*service.ActionResult, error) {
					return nil, fmt.Errorf("%w: (99,0)", service.ErrOutOfBounds)
				}
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing crop",
			body:           map[string]any{"row": 1, "col": 1},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "malformed body",
			body:           "not an object",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}
			server, _ := setupTestServer(t, mockService)

			w := do(server, "POST", "/api/sessions/ab12/plant", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestSimpleActions(t *testing.T) {
	server, _ := setupTestServer(t, &MockGameService{})

	for _, path := range []string{"harvest", "advance-day", "undo", "redo", "slots/1/save", "slots/1/load"} {
		t.Run(path, func(t *testing.T) {
			w := do(server, "POST", "/api/sessions/ab12/"+path, nil)
			if w.Code != http.StatusOK {
				t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
			}
			var resp service.ActionResult
			parseResponse(t, w, &resp)
			if !resp.Success {
				t.Error("Expected success")
			}
		})
	}

	t.Run("move requires a body", func(t *testing.T) {
		if w := do(server, "POST", "/api/sessions/ab12/move", nil); w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}
		if w := do(server, "POST", "/api/sessions/ab12/move", map[string]string{"direction": "up"}); w.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d", w.Code)
		}
	})
}

func TestSlotErrors(t *testing.T) {
	mockService := &MockGameService{
		LoadSlotFunc: func(ctx context.Context, sessionID, slot string) (*service.ActionResult, error) {
			switch slot {
			case "empty":
				return nil, fmt.Errorf("slot %s: %w", slot, engine.ErrNoSaveData)
			case "bad":
				return nil, fmt.Errorf("slot %s: %w", slot, engine.ErrCorruptSave)
			}
			return nil, fmt.Errorf("%w: bad slot name", service.ErrInvalidRequest)
		},
	}
	server, _ := setupTestServer(t, mockService)

	tests := []struct {
		slot string
		want int
	}{
		{"empty", http.StatusNotFound},
		{"bad", http.StatusUnprocessableEntity},
		{"x.y", http.StatusBadRequest},
	}
	for _, tt := range tests {
		if w := do(server, "POST", "/api/sessions/ab12/slots/"+tt.slot+"/load", nil); w.Code != tt.want {
			t.Errorf("slot %s: expected %d, got %d", tt.slot, tt.want, w.Code)
		}
	}
}

func TestDescribeTile(t *testing.T) {
	mockService := &MockGameService{
		DescribeTileFunc: func(ctx context.Context, sessionID string, row, col int) (*service.TileInfo, error) {
			if row > 9 {
				return nil, service.ErrOutOfBounds
			}
			return &service.TileInfo{
				Tile:        engine.Tile{Row: row, Col: col, Plant: engine.Potato, Level: 1},
				Description: "potato",
				NextStage:   &engine.GrowthCondition{Sunlight: 40, Water: 10},
			}, nil
		},
	}
	server, _ := setupTestServer(t, mockService)

	w := do(server, "GET", "/api/sessions/ab12/tiles/2/3", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var resp map[string]any
	parseResponse(t, w, &resp)
	if resp["plant"] != "potato" || resp["row"] != float64(2) || resp["col"] != float64(3) {
		t.Errorf("Unexpected tile response: %v", resp)
	}
	if resp["next_stage"] == nil {
		t.Error("Expected next_stage in response")
	}

	if w := do(server, "GET", "/api/sessions/ab12/tiles/12/0", nil); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for out of bounds, got %d", w.Code)
	}
	if w := do(server, "GET", "/api/sessions/ab12/tiles/a/0", nil); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for non-numeric row, got %d", w.Code)
	}
}

func TestGetHistory(t *testing.T) {
	var got service.HistoryOptions
	mockService := &MockGameService{
		GetActionLogFunc: func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
			got = opts
			return &service.HistoryResponse{Page: opts.Page, PageSize: opts.Limit}, nil
		},
	}
	server, _ := setupTestServer(t, mockService)

	do(server, "GET", "/api/sessions/ab12/history", nil)
	if got.Page != 1 || got.Limit != 20 || got.Order != "desc" {
		t.Errorf("Expected default options, got %+v", got)
	}

	do(server, "GET", "/api/sessions/ab12/history?page=2&limit=5&order=asc", nil)
	if got.Page != 2 || got.Limit != 5 || got.Order != "asc" {
		t.Errorf("Expected parsed options, got %+v", got)
	}

	do(server, "GET", "/api/sessions/ab12/history?page=-1&order=sideways", nil)
	if got.Page != 1 || got.Order != "desc" {
		t.Errorf("Expected invalid values to be ignored, got %+v", got)
	}
}

// Configuration Tests

func TestConfigs(t *testing.T) {
	var saved string
	mockService := &MockGameService{
		ListConfigsFunc: func(ctx context.Context) ([]*service.ConfigInfo, error) {
			return []*service.ConfigInfo{{ConfigID: "classic", Name: "classic", Rows: 10, Cols: 10}}, nil
		},
		LoadConfigFunc: func(ctx context.Context, configName string) (*engine.GameConfig, error) {
			if configName != "classic" {
				return nil, service.ErrConfigNotFound
			}
			return engine.DefaultGameConfig(), nil
		},
		SaveConfigFunc: func(ctx context.Context, configName string, config *engine.GameConfig) error {
			saved = configName
			return engine.ValidateGameConfig(config)
		},
	}
	server, _ := setupTestServer(t, mockService)

	w := do(server, "GET", "/api/configs", nil)
	var list []*service.ConfigInfo
	parseResponse(t, w, &list)
	if len(list) != 1 || list[0].ConfigID != "classic" {
		t.Errorf("Unexpected config list: %v", list)
	}

	if w := do(server, "GET", "/api/configs/classic.yaml", nil); w.Code != http.StatusOK {
		t.Errorf("Expected 200 with extension stripped, got %d", w.Code)
	}
	if w := do(server, "GET", "/api/configs/missing", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}

	scene := map[string]any{"config_id": "tiny", "name": "Tiny Farm", "rows": 3, "cols": 3, "daily_actions": 5}
	if w := do(server, "POST", "/api/configs", scene); w.Code != http.StatusCreated {
		t.Errorf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if saved != "tiny" {
		t.Errorf("Expected config saved as tiny, got %s", saved)
	}

	bad := map[string]any{"name": "Broken", "rows": 0, "cols": 3}
	if w := do(server, "POST", "/api/configs", bad); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for an invalid scene, got %d", w.Code)
	}
	if w := do(server, "POST", "/api/configs", map[string]any{"rows": 3}); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without a name, got %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	server, _ := setupTestServer(t, &MockGameService{})
	w := do(server, "GET", "/health", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "healthy") {
		t.Errorf("Unexpected health response: %d %s", w.Code, w.Body.String())
	}
}

func TestWebSocket(t *testing.T) {
	mockService := &MockGameService{
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			if sessionID != "ab12" {
				return nil, service.ErrSessionNotFound
			}
			return &service.SessionInfo{ID: sessionID}, nil
		},
		HarvestFunc: func(ctx context.Context, sessionID string, req service.TileRequest) (*service.ActionResult, error) {
			result := okResult("harvest")
			result.Events = []service.GameEvent{
				{Type: "harvested", Message: "Harvested potato"},
				{Type: "achievement_unlocked", Message: "Achievement unlocked: potato master"},
			}
			return result, nil
		},
	}
	server, _ := setupTestServer(t, mockService)
	ts := httptest.NewServer(server)
	defer ts.Close()

	t.Run("missing session parameter", func(t *testing.T) {
		if w := do(server, "GET", "/ws", nil); w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}
	})

	t.Run("unknown session", func(t *testing.T) {
		if w := do(server, "GET", "/ws?session=zz99", nil); w.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", w.Code)
		}
	})

	t.Run("receives updates after an action", func(t *testing.T) {
		wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?session=ab12"
		conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
		if err != nil {
			t.Fatalf("Failed to connect: %v", err)
		}
		defer conn.Close()

		// Registration happens asynchronously after the upgrade
		time.Sleep(50 * time.Millisecond)

		resp, err := http.Post(ts.URL+"/api/sessions/ab12/harvest", "application/json", nil)
		if err != nil {
			t.Fatalf("Harvest request failed: %v", err)
		}
		resp.Body.Close()

		events := map[string]bool{}
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		for !events[websocket.EventAchievementUnlocked] {
			_, data, err := conn.ReadMessage()
			if err != nil {
				t.Fatalf("Failed to read message: %v (got %v)", err, events)
			}
			for _, line := range bytes.Split(data, []byte{'\n'}) {
				var msg websocket.Message
				if err := json.Unmarshal(line, &msg); err != nil {
					t.Fatalf("Failed to unmarshal message: %v", err)
				}
				events[msg.Event] = true
			}
		}
		if !events[websocket.EventStateUpdate] {
			t.Error("Expected a state_update before the achievement")
		}
	})
}

func TestServerWithRealService(t *testing.T) {
	configs, err := config.NewManager("../configs", quietLogger())
	if err != nil {
		t.Fatalf("Failed to create config manager: %v", err)
	}
	sessions := session.NewManager(
		session.WithLogger(quietLogger()),
		session.WithEngineFactory(session.NewStoreFactory(nil, configs, quietLogger())),
	)
	server, _ := setupTestServer(t, service.NewGameService(sessions, configs, quietLogger()))

	w := do(server, "POST", "/api/sessions", map[string]string{"config_id": "companion"})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var info service.SessionInfo
	parseResponse(t, w, &info)
	base := "/api/sessions/" + info.ID

	w = do(server, "POST", base+"/move", map[string]string{"direction": "sideways"})
	var result service.ActionResult
	parseResponse(t, w, &result)
	if w.Code != http.StatusOK || result.Success || result.Reason != "unknown_direction" {
		t.Errorf("Expected a refused move, got %d %+v", w.Code, result)
	}

	w = do(server, "POST", base+"/plant", map[string]any{"row": 100, "col": 0, "crop": "potato"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for an off-grid tile, got %d", w.Code)
	}

	w = do(server, "POST", base+"/slots/never/load", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for an empty slot, got %d", w.Code)
	}

	w = do(server, "POST", base+"/advance-day", nil)
	parseResponse(t, w, &result)
	if !result.Success || result.GameState.Day != 2 {
		t.Errorf("Expected day 2, got %+v", result.GameState)
	}

	w = do(server, "GET", base+"/history?order=asc", nil)
	var history service.HistoryResponse
	parseResponse(t, w, &history)
	// The refused move and the failed load are logged too
	if history.TotalActions != 3 || history.Actions[2].Action != "advance_day" {
		t.Errorf("Unexpected history: %+v", history)
	}
}
