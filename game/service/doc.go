// Package service provides the business logic layer for the Farm Day game.
//
// The service package implements:
//   - Multi-session farm management
//   - Scene loading and saving through a ConfigManager
//   - Planting, harvesting, day advance, movement and undo/redo per session
//   - Named save slots
//   - Paged action logs
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager loads scenes and the shared plant document.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the game engine. Every farm action returns an ActionResult. A refused action
// is not an error: Success is false and Reason holds a stable code such as
// "tile_occupied" or "no_actions_remaining". Errors are reserved for requests
// that cannot be applied at all (unknown session, coordinates off the grid,
// a missing or corrupt save slot).
//
// Usage:
//
//	sessionMgr := session.NewManager(session.WithEngineFactory(factory))
//	configMgr, _ := config.NewManager("configs", logger)
//	gameService := service.NewGameService(sessionMgr, configMgr, logger)
//
//	info, err := gameService.CreateSession(ctx, "companion")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.Plant(ctx, info.ID, service.PlantRequest{Crop: "carrot"})
package service
