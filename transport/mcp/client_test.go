package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/wricardo/farmday/api"
	"github.com/wricardo/farmday/game/config"
	"github.com/wricardo/farmday/game/engine"
	"github.com/wricardo/farmday/game/service"
	"github.com/wricardo/farmday/game/session"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func toolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil {
		t.Fatal("Expected result, got nil")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatal("Expected text content in result")
	}
	return text.Text
}

func TestNewClient(t *testing.T) {
	baseURL := "http://localhost:8080"
	client := NewClient(baseURL+"/", nil)

	if client == nil {
		t.Fatal("Expected client to be created")
	}
	if client.baseURL != baseURL {
		t.Errorf("Expected baseURL %s, got %s", baseURL, client.baseURL)
	}
	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}
	if client.mcpServer == nil || client.GetMCPServer() != client.mcpServer {
		t.Error("Expected MCP server to be initialized")
	}
	if client.logger == nil {
		t.Error("Expected a default logger")
	}
}

func TestClient_apiCall(t *testing.T) {
	expectedResponse := map[string]interface{}{
		"id":          "ab12",
		"config_name": "classic",
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(expectedResponse)
	}))
	defer server.Close()

	client := NewClient(server.URL, quietLogger())

	var response map[string]interface{}
	err := client.apiCall(context.Background(), "GET", "/api/sessions/ab12", nil, &response)
	if err != nil {
		t.Fatalf("apiCall failed: %v", err)
	}
	if response["id"] != expectedResponse["id"] {
		t.Errorf("Expected id %v, got %v", expectedResponse["id"], response["id"])
	}
}

func TestClient_apiCall_Error(t *testing.T) {
	client := NewClient("http://invalid-url-that-does-not-exist:9999", quietLogger())

	err := client.apiCall(context.Background(), "GET", "/api", nil, nil)
	if err == nil {
		t.Error("Expected error for invalid URL")
	}
}

func TestClient_apiCall_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/sessions/nope":
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"session nope: session not found"}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("Internal Server Error"))
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, quietLogger())

	err := client.apiCall(context.Background(), "GET", "/api", nil, nil)
	if err == nil || err.Error() != "API error: 500" {
		t.Errorf("Expected 'API error: 500', got %v", err)
	}

	err = client.apiCall(context.Background(), "GET", "/api/sessions/nope", nil, nil)
	if err == nil || !strings.Contains(err.Error(), "session not found") {
		t.Errorf("Expected the API error message, got %v", err)
	}
}

func TestClient_createSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/api/sessions" {
			t.Errorf("Expected POST /api/sessions, got %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["config_id"] != "classic" {
			t.Errorf("Expected config_id classic, got %v", body)
		}

		resp := service.SessionInfo{
			ID:         "test-session-123",
			ConfigName: "classic",
			GameState:  &engine.StateView{Day: 1, Rows: 2, Cols: 2, ActionsRemaining: 10},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(server.URL, quietLogger())

	result, err := client.handleCreateSession(context.Background(),
		toolRequest("create_session", map[string]interface{}{"config_id": "classic"}))
	if err != nil {
		t.Fatalf("createSession failed: %v", err)
	}

	text := resultText(t, result)
	if !strings.Contains(text, "test-session-123") {
		t.Errorf("Expected session ID in result, got: %s", text)
	}
	if !strings.Contains(text, "Day 1 | Actions left: 10") {
		t.Errorf("Expected the farm header in result, got: %s", text)
	}
}

func TestClient_plantForwardsCoordinates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/sessions/ab12/plant" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		var req service.PlantRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Crop != "carrot" || req.Row == nil || *req.Row != 1 || req.Col == nil || *req.Col != 2 {
			t.Errorf("Unexpected plant request: %+v", req)
		}

		json.NewEncoder(w).Encode(service.ActionResult{
			Action:    "plant",
			Success:   false,
			Reason:    "tile_occupied",
			Message:   "This tile is already occupied",
			GameState: &engine.StateView{Day: 1, Rows: 1, Cols: 1},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, quietLogger())
	result, err := client.handlePlant(context.Background(), toolRequest("plant", map[string]interface{}{
		"session_id": "ab12",
		"crop":       "carrot",
		"row":        float64(1),
		"col":        float64(2),
	}))
	if err != nil {
		t.Fatalf("plant failed: %v", err)
	}
	if result.IsError {
		t.Fatal("A refused action should not be a tool error")
	}

	text := resultText(t, result)
	if !strings.Contains(text, "✗ plant refused (tile_occupied)") {
		t.Errorf("Expected the refusal in result, got: %s", text)
	}
}

func TestClient_plantRequiresCrop(t *testing.T) {
	client := NewClient("http://localhost:1", quietLogger())

	result, err := client.handlePlant(context.Background(), toolRequest("plant", map[string]interface{}{
		"session_id": "ab12",
	}))
	if err != nil {
		t.Fatalf("plant failed: %v", err)
	}
	if !result.IsError {
		t.Error("Expected a tool error without a crop")
	}
}

func TestClient_describeTileRequiresCoordinates(t *testing.T) {
	client := NewClient("http://localhost:1", quietLogger())

	result, err := client.handleDescribeTile(context.Background(), toolRequest("describe_tile", map[string]interface{}{
		"session_id": "ab12",
		"row":        float64(1),
	}))
	if err != nil {
		t.Fatalf("describe_tile failed: %v", err)
	}
	if !result.IsError {
		t.Error("Expected a tool error without col")
	}
}

func TestIntArg(t *testing.T) {
	args := map[string]interface{}{
		"float":  float64(3),
		"int":    4,
		"string": "5",
		"bad":    "x",
	}

	tests := []struct {
		key  string
		want int
		ok   bool
	}{
		{"float", 3, true},
		{"int", 4, true},
		{"string", 5, true},
		{"bad", 0, false},
		{"missing", 0, false},
	}
	for _, tt := range tests {
		got, ok := intArg(args, tt.key)
		if got != tt.want || ok != tt.ok {
			t.Errorf("intArg(%q) = %d, %v; want %d, %v", tt.key, got, ok, tt.want, tt.ok)
		}
	}
}

func TestFormatFarm(t *testing.T) {
	state := &engine.StateView{
		Day:              4,
		ActionsRemaining: 7,
		Rows:             2,
		Cols:             3,
		Player:           engine.Position{X: 2, Y: 1},
		Inventory:        engine.Inventory{Potato: 2, Carrot: 1},
		Achievements:     []string{"potato master"},
		Tiles: []engine.Tile{
			{Row: 0, Col: 0}, {Row: 0, Col: 1, Plant: engine.Potato, Level: 2}, {Row: 0, Col: 2},
			{Row: 1, Col: 0, Plant: engine.Cabbage, Level: 3}, {Row: 1, Col: 1}, {Row: 1, Col: 2, Plant: engine.Carrot, Level: 1},
		},
		UndoDepth: 2,
		Message:   "Day 4 begins",
	}

	result := formatFarm(state)

	expected := []string{
		"Day 4 | Actions left: 7 | Player: row 1, col 2",
		"Inventory: potato 2, carrot 1, cabbage 0",
		"Achievements: potato master",
		" .. p2 ..\n",
		" b3 ..@c1\n",
		"Undo: 2 | Redo: 0",
		"Message: Day 4 begins",
	}
	for _, want := range expected {
		if !strings.Contains(result, want) {
			t.Errorf("Expected %q in farm output, got:\n%s", want, result)
		}
	}

	if formatFarm(nil) != "No farm state available" {
		t.Error("Expected a placeholder for a nil state")
	}
}

func TestFormatActionResult(t *testing.T) {
	result := formatActionResult(&service.ActionResult{
		Action:  "harvest",
		Success: true,
		Message: "Harvested potato",
		Harvest: &engine.HarvestResult{Plant: engine.Potato, Level: 3, Yield: 4},
		Events: []service.GameEvent{
			{Type: "harvested", Message: "ignored"},
			{Type: "achievement_unlocked", Message: "Achievement unlocked: potato master"},
		},
		GameState: &engine.StateView{Day: 2, Rows: 1, Cols: 1},
	})

	if !strings.Contains(result, "✓ harvest: Harvested potato") {
		t.Errorf("Expected success line, got:\n%s", result)
	}
	if !strings.Contains(result, "Harvested potato at level 3 for 4") {
		t.Errorf("Expected harvest line, got:\n%s", result)
	}
	if !strings.Contains(result, "• Achievement unlocked: potato master") {
		t.Errorf("Expected achievement line, got:\n%s", result)
	}
	if strings.Contains(result, "ignored") {
		t.Error("Only growth and achievement events are listed")
	}
}

func TestFormatTileInfo(t *testing.T) {
	tile := engine.Tile{Row: 1, Col: 2, Sunlight: 30, Water: 40, Plant: engine.Carrot, Level: 1}
	info := &service.TileInfo{
		Tile:        tile,
		Description: engine.DescribeTile(tile),
		NextStage: &engine.GrowthCondition{
			Sunlight:  30,
			Water:     10,
			Neighbors: map[engine.PlantType]int{engine.Potato: 1},
		},
	}

	result := formatTileInfo(info)
	if !strings.Contains(result, "carrot level 1") {
		t.Errorf("Expected plant description, got:\n%s", result)
	}
	if !strings.Contains(result, "Next level needs sunlight >= 30, water >= 10, 1 potato neighbor(s)") {
		t.Errorf("Expected next stage, got:\n%s", result)
	}

	info.Level = 3
	info.NextStage = nil
	if !strings.Contains(formatTileInfo(info), "Fully grown") {
		t.Error("Expected a mature plant to be reported fully grown")
	}
}

func TestFormatHistory(t *testing.T) {
	result := formatHistory(&service.HistoryResponse{
		Actions: []engine.ActionLogEntry{
			{Number: 2, Action: "harvest", Day: 1, Success: false, Reason: "no_plant"},
			{Number: 1, Action: "plant", Detail: "potato at (0,0)", Day: 1, Success: true},
		},
		TotalActions: 2,
		Page:         1,
		PageSize:     20,
		TotalPages:   1,
	})

	expected := []string{
		"Action History (Page 1/1) - Total: 2",
		"2. [day 1] harvest ✗ (no_plant)",
		"1. [day 1] plant ✓ potato at (0,0)",
	}
	for _, want := range expected {
		if !strings.Contains(result, want) {
			t.Errorf("Expected %q in history, got:\n%s", want, result)
		}
	}
}

func TestClient_handleGameInstructions(t *testing.T) {
	client := NewClient("http://localhost:8080", quietLogger())

	result, err := client.handleGameInstructions(context.Background(), toolRequest("game_instructions", nil))
	if err != nil {
		t.Fatalf("handleGameInstructions failed: %v", err)
	}

	text := resultText(t, result)
	expectedContent := []string{
		"FARM DAY - RULES",
		"CROPS:",
		"GROWTH:",
		"WEATHER:",
		"HARVEST:",
		"ACTIONS:",
		"UNDO / REDO:",
		"SAVES:",
	}
	for _, content := range expectedContent {
		if !strings.Contains(text, content) {
			t.Errorf("Expected '%s' in instructions", content)
		}
	}
}

func TestClient_HTTPHandler(t *testing.T) {
	client := NewClient("http://localhost:8080", quietLogger())
	handler := client.HTTPHandler()

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/mcp", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405 for GET, got %d", w.Code)
	}

	body := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"test","version":"1.0"}}}`
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("POST", "/mcp", strings.NewReader(body)))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if w.Header().Get("Content-Type") != "application/json" {
		t.Errorf("Expected JSON content type, got %s", w.Header().Get("Content-Type"))
	}
	if !strings.Contains(w.Body.String(), ServerName) {
		t.Errorf("Expected server info in initialize response, got %s", w.Body.String())
	}
}

func TestClient_Integration(t *testing.T) {
	configs, err := config.NewManager("../../configs", quietLogger())
	if err != nil {
		t.Fatalf("Failed to create config manager: %v", err)
	}
	sessions := session.NewManager(
		session.WithLogger(quietLogger()),
		session.WithEngineFactory(session.NewStoreFactory(nil, configs, quietLogger())),
	)
	apiServer := api.NewServer(service.NewGameService(sessions, configs, quietLogger()), nil, quietLogger())
	server := httptest.NewServer(apiServer)
	defer server.Close()

	client := NewClient(server.URL, quietLogger())
	ctx := context.Background()

	result, err := client.handleCreateSession(ctx, toolRequest("create_session", map[string]interface{}{"config_id": "companion"}))
	if err != nil || result.IsError {
		t.Fatalf("create_session failed: %v %s", err, resultText(t, result))
	}
	list := sessions.List()
	if len(list) != 1 {
		t.Fatalf("Expected one session, got %d", len(list))
	}
	sessionID := list[0].ID

	result, _ = client.handlePlant(ctx, toolRequest("plant", map[string]interface{}{
		"session_id": sessionID,
		"crop":       "potato",
		"row":        float64(2),
		"col":        float64(3),
	}))
	if text := resultText(t, result); !strings.Contains(text, "✓ plant") {
		t.Errorf("Expected a successful plant, got:\n%s", text)
	}

	result, _ = client.handleAdvanceDay(ctx, toolRequest("advance_day", map[string]interface{}{"session_id": sessionID}))
	if text := resultText(t, result); !strings.Contains(text, "Day 2 |") {
		t.Errorf("Expected day 2, got:\n%s", text)
	}

	result, _ = client.handleActionHistory(ctx, toolRequest("action_history", map[string]interface{}{"session_id": sessionID}))
	if text := resultText(t, result); !strings.Contains(text, "Total: 2") {
		t.Errorf("Expected two logged actions, got:\n%s", text)
	}

	result, _ = client.handleFarmState(ctx, toolRequest("farm_state", map[string]interface{}{"session_id": "missing"}))
	if !result.IsError {
		t.Error("Expected a tool error for an unknown session")
	}
}
