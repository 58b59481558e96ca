// Package websocket pushes farm updates to browsers and other live clients.
//
// A central Hub tracks the clients attached to each session. Clients connect
// with ?session=<id>; the id is matched case-insensitively. Each connection
// runs a read pump, which only services pongs, and a write pump that sends
// queued messages and a ping every pingPeriod.
//
// Message Protocol:
//
// Outgoing messages are JSON:
//
//	{"session_id": "ab12", "event": "state_update", "game_state": {...}}
//	{"session_id": "ab12", "event": "achievement_unlocked", "data": "potato master"}
//
// Several queued messages may share one frame, separated by newlines.
//
// Usage:
//
//	hub := websocket.NewHub(logger)
//	go hub.Run(ctx)
//
//	hub.BroadcastState(sessionID, engine.View())
package websocket
