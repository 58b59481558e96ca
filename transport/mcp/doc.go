// Package mcp exposes the Farm Day REST API as Model Context Protocol tools.
//
// The Client is a thin proxy: every tool call becomes one REST request and
// the JSON answer is rendered as text an agent can read. It holds no game
// state of its own.
//
// MCP Tools:
//   - create_session, get_session, list_sessions
//   - farm_state: the grid, inventory and day
//   - describe_tile: one tile and the condition for its next growth stage
//   - plant, harvest: act on a tile, or on the player's tile without row/col
//   - advance_day, move, undo, redo, reset_game
//   - save_slot, load_slot: named save games
//   - action_history: paged log of attempted actions
//   - list_configs, game_instructions
//
// A refused action is an ordinary result that names the reason. Unknown
// sessions, empty slots and transport failures come back as tool errors.
//
// Transport Modes:
//   - Stdio: ServeStdio for local MCP clients
//   - HTTP: HTTPHandler answers single JSON-RPC messages posted to /mcp
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080", logger)
//	apiServer.Mount("/mcp", client.HTTPHandler())
//
//	// or
//	err := client.ServeStdio()
package mcp
