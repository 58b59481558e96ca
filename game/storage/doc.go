// Package storage holds the key/value backends that save slots are written to.
//
// A SlotStore maps a key such as "autoSave" or "saveSlot1" to an opaque
// payload. Four backends are provided:
//   - MemoryStore keeps payloads in a map (tests, ephemeral sessions)
//   - FileStore writes one <key>.json file per slot into a directory
//   - GdataStore uses the per-user application data directory via gdata
//   - SQLiteStore keeps every slot as a row in a SQLite database
//
// WithPrefix scopes any store to one namespace, which is how sessions share
// a backend without seeing each other's slots.
package storage
