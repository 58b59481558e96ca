package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/farmday/game/engine"
	"github.com/wricardo/farmday/game/service"
)

const (
	ServerName    = "Farm Day"
	ServerVersion = "1.0.0"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
	logger     *slog.Logger
}

// NewClient creates a new MCP client that calls the REST API at baseURL
func NewClient(baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithToolCapabilities(true),
		server.WithInstructions(`Farm Day - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Grow potatoes (p), carrots (c) and cabbages (b) on a grid farm and harvest
them to fill your inventory. Mature plants (level 3) yield the most.

AVAILABLE TOOLS:
- create_session / get_session / list_sessions: manage farms
- farm_state: the grid, inventory and day
- describe_tile: one tile and what its plant needs to grow next
- plant / harvest: act on a tile (defaults to the tile you stand on)
- advance_day: grow plants, then roll the weather
- move: walk one tile (up/down/left/right), free of charge
- undo / redo: step through your actions
- save_slot / load_slot: named save games
- reset_game, action_history, list_configs, game_instructions

Start with game_instructions if this is your first farm.`),
	)

	c.registerTools()
}

func sessionProp() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

func coordProps(props map[string]interface{}) map[string]interface{} {
	props["row"] = map[string]interface{}{
		"type":        "integer",
		"description": "Tile row (optional, defaults to the player's tile)",
	}
	props["col"] = map[string]interface{}{
		"type":        "integer",
		"description": "Tile column (optional, defaults to the player's tile)",
	}
	return props
}

// sessionTool registers a tool whose only argument is the session id
func (c *Client) sessionTool(name, description string, handler server.ToolHandlerFunc) {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        name,
		Description: description,
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
			},
			Required: []string{"session_id"},
		},
	}, handler)
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new farm, optionally from a named scene",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Scene to start from (optional, see list_configs)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active farms",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.sessionTool("get_session", "Get details of a specific session", c.handleGetSession)

	// Farm operations
	c.sessionTool("farm_state", "Get the current farm: grid, inventory, day and actions left", c.handleFarmState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_tile",
		Description: "Describe one tile: its sunlight, water, plant and what the plant needs to grow",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"row": map[string]interface{}{
					"type":        "integer",
					"description": "Tile row",
				},
				"col": map[string]interface{}{
					"type":        "integer",
					"description": "Tile column",
				},
			},
			Required: []string{"session_id", "row", "col"},
		},
	}, c.handleDescribeTile)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "plant",
		Description: "Plant a crop on an empty tile. Uses one seed from the inventory and one daily action",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: coordProps(map[string]interface{}{
				"session_id": sessionProp(),
				"crop": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"potato", "carrot", "cabbage"},
					"description": "Crop to plant",
				},
			}),
			Required: []string{"session_id", "crop"},
		},
	}, c.handlePlant)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "harvest",
		Description: "Harvest the plant on a tile. Uses one daily action",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: coordProps(map[string]interface{}{
				"session_id": sessionProp(),
			}),
			Required: []string{"session_id"},
		},
	}, c.handleHarvest)

	c.sessionTool("advance_day", "End the day: plants grow, then the weather changes and daily actions refill", c.handleAdvanceDay)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move",
		Description: "Move the player one tile",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"direction": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"up", "down", "left", "right"},
					"description": "Direction to move",
				},
			},
			Required: []string{"session_id", "direction"},
		},
	}, c.handleMove)

	c.sessionTool("undo", "Undo the last recorded action", c.handleUndo)
	c.sessionTool("redo", "Redo the last undone action", c.handleRedo)

	slotProps := map[string]interface{}{
		"session_id": sessionProp(),
		"slot": map[string]interface{}{
			"type":        "string",
			"description": "Save slot name (letters, digits, - and _)",
		},
	}
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "save_slot",
		Description: "Save the farm into a named slot",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: slotProps,
			Required:   []string{"session_id", "slot"},
		},
	}, c.handleSaveSlot)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "load_slot",
		Description: "Load the farm from a named slot",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: slotProps,
			Required:   []string{"session_id", "slot"},
		},
	}, c.handleLoadSlot)

	c.sessionTool("reset_game", "Reset the farm to its scene's starting state", c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "action_history",
		Description: "Page through the actions attempted on a farm, newest first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number (default 1)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Entries per page (default 20, max 100)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleActionHistory)

	// Configuration
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available farm scenes",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the rules of the game",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// HTTPHandler answers single JSON-RPC messages posted to it
func (c *Client) HTTPHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := c.mcpServer.HandleMessage(r.Context(), body)
		if response == nil {
			// notifications carry no response
			w.WriteHeader(http.StatusAccepted)
			return
		}

		responseData, err := json.Marshal(response)
		if err != nil {
			c.logger.Error("mcp response marshal failed", "error", err)
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(responseData)
	})
}

// ServeStdio serves the tools over stdin and stdout until the input closes
func (c *Client) ServeStdio() error {
	return server.ServeStdio(c.mcpServer)
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// intArg reads an integer argument. JSON numbers arrive as float64.
func intArg(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case string:
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			return n, true
		}
	}
	return 0, false
}

func tileArgs(args map[string]interface{}) service.TileRequest {
	var req service.TileRequest
	if row, ok := intArg(args, "row"); ok {
		req.Row = &row
	}
	if col, ok := intArg(args, "col"); ok {
		req.Col = &col
	}
	return req
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	configID, _ := args["config_id"].(string)

	body := map[string]string{}
	if configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	err := c.apiCall(ctx, "POST", "/api/sessions", body, &session)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nConfig: %s\n\n%s", session.ID, session.ConfigName, formatFarm(session.GameState))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		day := 0
		if s.GameState != nil {
			day = s.GameState.Day
		}
		fmt.Fprintf(&b, "- %s (Config: %s, Day %d, Created: %s)\n",
			s.ID, s.ConfigName, day, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := request.GetArguments()["session_id"].(string)

	var session service.SessionInfo
	err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &session)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleFarmState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := request.GetArguments()["session_id"].(string)

	var state engine.StateView
	err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatFarm(&state)), nil
}

func (c *Client) handleDescribeTile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, _ := args["session_id"].(string)
	row, rowOK := intArg(args, "row")
	col, colOK := intArg(args, "col")
	if !rowOK || !colOK {
		return mcp.NewToolResultError("row and col are required integers"), nil
	}

	var info service.TileInfo
	err := c.apiCall(ctx, "GET", sessionPath(sessionID, fmt.Sprintf("/tiles/%d/%d", row, col)), nil, &info)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatTileInfo(&info)), nil
}

func (c *Client) handlePlant(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, _ := args["session_id"].(string)
	crop, _ := args["crop"].(string)
	if crop == "" {
		return mcp.NewToolResultError("crop is required"), nil
	}

	tile := tileArgs(args)
	body := service.PlantRequest{Row: tile.Row, Col: tile.Col, Crop: crop}
	return c.action(ctx, sessionPath(sessionID, "/plant"), body)
}

func (c *Client) handleHarvest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, _ := args["session_id"].(string)
	return c.action(ctx, sessionPath(sessionID, "/harvest"), tileArgs(args))
}

func (c *Client) handleAdvanceDay(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := request.GetArguments()["session_id"].(string)
	return c.action(ctx, sessionPath(sessionID, "/advance-day"), nil)
}

func (c *Client) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, _ := args["session_id"].(string)
	direction, _ := args["direction"].(string)

	body := map[string]string{"direction": direction}
	return c.action(ctx, sessionPath(sessionID, "/move"), body)
}

func (c *Client) handleUndo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := request.GetArguments()["session_id"].(string)
	return c.action(ctx, sessionPath(sessionID, "/undo"), nil)
}

func (c *Client) handleRedo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := request.GetArguments()["session_id"].(string)
	return c.action(ctx, sessionPath(sessionID, "/redo"), nil)
}

func (c *Client) handleSaveSlot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, _ := args["session_id"].(string)
	slot, _ := args["slot"].(string)
	return c.action(ctx, sessionPath(sessionID, "/slots/"+url.PathEscape(slot)+"/save"), nil)
}

func (c *Client) handleLoadSlot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, _ := args["session_id"].(string)
	slot, _ := args["slot"].(string)
	return c.action(ctx, sessionPath(sessionID, "/slots/"+url.PathEscape(slot)+"/load"), nil)
}

// action posts a farm action and renders its result. A refused action is
// still a normal tool result; only transport and lookup failures are errors.
func (c *Client) action(ctx context.Context, path string, body interface{}) (*mcp.CallToolResult, error) {
	var result service.ActionResult
	if err := c.apiCall(ctx, "POST", path, body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	c.logger.Debug("mcp action", "path", path, "success", result.Success, "reason", result.Reason)
	return mcp.NewToolResultText(formatActionResult(&result)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := request.GetArguments()["session_id"].(string)

	var response struct {
		Message string            `json:"message"`
		State   *engine.StateView `json:"state"`
	}
	err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/reset"), nil, &response)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(response.Message + "\n\n" + formatFarm(response.State)), nil
}

func (c *Client) handleActionHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, _ := args["session_id"].(string)

	query := url.Values{}
	if page, ok := intArg(args, "page"); ok {
		query.Set("page", fmt.Sprint(page))
	}
	if limit, ok := intArg(args, "limit"); ok {
		query.Set("limit", fmt.Sprint(limit))
	}
	path := sessionPath(sessionID, "/history")
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Scenes:\n\n")
	for _, cfg := range configs {
		fmt.Fprintf(&b, "- %s: %s (%dx%d, %d actions/day)\n", cfg.ConfigID, cfg.Name, cfg.Rows, cfg.Cols, cfg.DailyActions)
		if cfg.Description != "" {
			fmt.Fprintf(&b, "  %s\n", cfg.Description)
		}
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `FARM DAY - RULES

THE FARM:
A grid of tiles. Every tile has sunlight (0-100) and water (0-100) and may
hold one plant. Rows count from the top, columns from the left. Your player
(@) stands on one tile; plant and harvest act on that tile unless you pass
row and col.

CROPS:
- potato (p): needs 20 water to plant, costs 20 water
- carrot (c): needs 20 water to plant, costs 20 water
- cabbage (b): needs 70 water to plant, costs 70 water
Planting uses one seed from your inventory. New plants start at level 1.

GROWTH:
When a day ends, every plant whose tile meets the conditions for its next
level grows one level, up to level 3. Conditions are minimum sunlight and
water on the tile; some crops also need neighbors:
- carrots need a potato on one of the eight surrounding tiles to reach level 3
- cabbages need a carrot on one of the eight surrounding tiles to reach level 3
Use describe_tile to see exactly what a plant needs next. Scenes may change
these rules.

WEATHER:
After growth, each tile gets new sunlight (0-100) and some rain (0-30 water,
capped at 100).

HARVEST:
Harvesting empties the tile and adds to your inventory:
level 1 = 1, level 2 = 2, level 3 = 4.
Holding 10, 15 and 20 of one crop unlocks achievements.

ACTIONS:
You have a daily action budget (usually 10). Plant and harvest cost one
action each. advance_day refills the budget. Moving is free.
A refused action (occupied tile, no seeds, not enough water, no actions
left) changes nothing and costs nothing; the reason is reported.

UNDO / REDO:
plant, harvest and advance_day can be undone and redone. A new action
clears the redo stack. Weather is part of the day, so redoing a day
restores the same weather.

SAVES:
save_slot and load_slot keep named copies of the farm. The farm is also
autosaved after every action.

STRATEGY:
- Plant potatoes first; carrots need them next door, cabbages need carrots
- Harvest at level 3 for four times the yield
- Check describe_tile before ending the day
- Save before experimenting, or lean on undo`

	return mcp.NewToolResultText(instructions), nil
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nConfig: %s\nCreated: %s\n\n%s",
		session.ID, session.ConfigName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatFarm(session.GameState))
}

// plantLetter is the one-letter grid mark for a crop
func plantLetter(p engine.PlantType) string {
	switch p {
	case engine.Potato:
		return "p"
	case engine.Carrot:
		return "c"
	case engine.Cabbage:
		return "b"
	}
	return "."
}

// formatFarm renders the farm as text. Each tile is three characters: a
// player mark (@ or space), the crop letter and its level, or " .." when empty.
func formatFarm(state *engine.StateView) string {
	if state == nil {
		return "No farm state available"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Day %d | Actions left: %d | Player: row %d, col %d\n",
		state.Day, state.ActionsRemaining, state.Player.Y, state.Player.X)
	fmt.Fprintf(&b, "Inventory: potato %d, carrot %d, cabbage %d\n",
		state.Inventory.Potato, state.Inventory.Carrot, state.Inventory.Cabbage)
	if len(state.Achievements) > 0 {
		fmt.Fprintf(&b, "Achievements: %s\n", strings.Join(state.Achievements, ", "))
	}
	b.WriteString("\n")

	for row := 0; row < state.Rows; row++ {
		for col := 0; col < state.Cols; col++ {
			mark := " "
			if row == state.Player.Y && col == state.Player.X {
				mark = "@"
			}
			b.WriteString(mark)
			tile, ok := state.TileAt(row, col)
			if !ok || tile.Plant == engine.None {
				b.WriteString("..")
				continue
			}
			fmt.Fprintf(&b, "%s%d", plantLetter(tile.Plant), tile.Level)
		}
		b.WriteString("\n")
	}
	b.WriteString("\nLegend: p potato, c carrot, b cabbage, digit = level, @ = you\n")

	fmt.Fprintf(&b, "Undo: %d | Redo: %d\n", state.UndoDepth, state.RedoDepth)
	if state.Message != "" {
		fmt.Fprintf(&b, "Message: %s\n", state.Message)
	}

	return b.String()
}

func formatActionResult(result *service.ActionResult) string {
	var b strings.Builder
	if result.Success {
		fmt.Fprintf(&b, "✓ %s: %s\n", result.Action, result.Message)
	} else {
		fmt.Fprintf(&b, "✗ %s refused (%s): %s\n", result.Action, result.Reason, result.Message)
	}

	if h := result.Harvest; h != nil {
		fmt.Fprintf(&b, "Harvested %s at level %d for %d\n", h.Plant, h.Level, h.Yield)
	}
	for _, event := range result.Events {
		if event.Type == "grew" || event.Type == "achievement_unlocked" {
			fmt.Fprintf(&b, "• %s\n", event.Message)
		}
	}

	b.WriteString("\n")
	b.WriteString(formatFarm(result.GameState))
	return b.String()
}

func formatTileInfo(info *service.TileInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Tile %s\n", info.Description)
	if info.Plant != engine.None && info.NextStage == nil {
		b.WriteString("Fully grown\n")
	}

	if next := info.NextStage; next != nil {
		fmt.Fprintf(&b, "Next level needs sunlight >= %d, water >= %d", next.Sunlight, next.Water)
		for _, crop := range engine.Crops {
			if n := next.Neighbors[crop]; n > 0 {
				fmt.Fprintf(&b, ", %d %s neighbor(s)", n, crop)
			}
		}
		if next.When != "" {
			fmt.Fprintf(&b, ", when %s", next.When)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Action History (Page %d/%d) - Total: %d\n\n",
		history.Page, history.TotalPages, history.TotalActions)

	for _, entry := range history.Actions {
		status := "✓"
		if !entry.Success {
			status = "✗"
		}
		fmt.Fprintf(&b, "%d. [day %d] %s %s", entry.Number, entry.Day, entry.Action, status)
		if entry.Detail != "" {
			fmt.Fprintf(&b, " %s", entry.Detail)
		}
		if entry.Reason != "" {
			fmt.Fprintf(&b, " (%s)", entry.Reason)
		}
		b.WriteString("\n")
	}

	return b.String()
}
