// Package api provides HTTP REST API handlers for the Farm Day game.
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create new session ({"config_id": "companion"})
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/{id} - Get specific session
//   - DELETE /api/sessions/{id} - Delete a session and its save slots
//
// Farm Operations:
//   - GET /api/sessions/{id}/state - Current farm
//   - GET /api/sessions/{id}/tiles/{row}/{col} - One tile and its next growth stage
//   - POST /api/sessions/{id}/plant - {"crop": "potato", "row": 1, "col": 2}
//   - POST /api/sessions/{id}/harvest - {"row": 1, "col": 2}
//   - POST /api/sessions/{id}/advance-day
//   - POST /api/sessions/{id}/move - {"direction": "up"}
//   - POST /api/sessions/{id}/undo, /redo, /reset
//   - POST /api/sessions/{id}/slots/{slot}/save, /slots/{slot}/load
//   - GET /api/sessions/{id}/history - Paged action log (?page=1&limit=20&order=desc)
//
// Plant and harvest act on the player's tile when row and col are omitted.
//
// Configuration:
//   - GET /api/configs - List scenes
//   - GET /api/configs/{name} - Get one scene
//   - POST /api/configs - Save a scene
//
// Other:
//   - GET /health
//   - GET /ws?session={id} - Live updates, see package websocket
//
// Status Codes:
//
// A refused action (occupied tile, no seeds, no actions left) answers 200
// with "success": false and a "reason" code. Errors are JSON objects with an
// "error" field:
//
//	400  coordinates off the grid, malformed body, invalid scene
//	404  unknown session or scene, empty save slot
//	422  corrupt save slot
//	500  anything else
package api
