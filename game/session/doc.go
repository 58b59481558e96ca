// Package session provides session management for the Farm Day game.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - Per-session save slots in a shared slot store
//   - Session persistence to files or to a slot store
//   - Session cleanup and expiration
//
// Core Types:
//
// Manager is the main session manager that handles all session operations.
// EngineFactory builds the engine behind each session; StoreFactory gives
// every session its own key prefix in one storage.SlotStore and restores
// the session's autosave when the engine is built.
//
// Session Identifiers:
//
// Generated IDs are 4 hex characters from crypto/rand. Caller-supplied IDs
// may use letters, digits, '-' and '_'. Lookups ignore case.
//
// Persistence:
//
// A persisted session stores its scene and a full engine.SaveData, so it
// reloads with its undo and redo history intact. FilePersistence writes one
// JSON file per session; StorePersistence writes to a storage.SlotStore,
// which lets the SQLite store hold sessions and save slots together.
//
// Usage:
//
//	factory := session.NewStoreFactory(store, configManager, logger)
//	manager := session.NewManager(
//		session.WithEngineFactory(factory),
//		session.WithPersistence(persistence),
//	)
//
//	sess, err := manager.Create("", "classic", scene)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err = manager.Get(sessionID)
package session
