package storage

import (
	"fmt"
	"log/slog"

	"github.com/quasilyte/gdata/v2"
)

// gdata keeps all slots as properties of this object
const gdataSavesObject = "saves"

// GdataStore keeps slots in the per-user application data directory. A nil
// manager puts it in degraded mode, where slots live only in memory.
type GdataStore struct {
	manager  *gdata.Manager
	fallback *MemoryStore
}

// OpenGdataStore opens the data directory for appName. When the platform
// offers no data directory the store falls back to memory and logs a warning.
func OpenGdataStore(appName string) *GdataStore {
	manager, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		slog.Warn("gdata unavailable, save slots will not persist", "app", appName, "error", err)
		manager = nil
	}
	return NewGdataStore(manager)
}

func NewGdataStore(manager *gdata.Manager) *GdataStore {
	return &GdataStore{manager: manager, fallback: NewMemoryStore()}
}

// Persistent reports whether slots survive a restart
func (g *GdataStore) Persistent() bool { return g.manager != nil }

func (g *GdataStore) Save(key string, data []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if g.manager == nil {
		return g.fallback.Save(key, data)
	}
	if err := g.manager.SaveObjectProp(gdataSavesObject, key, data); err != nil {
		return fmt.Errorf("failed to save slot %s: %w", key, err)
	}
	return nil
}

func (g *GdataStore) Load(key string) ([]byte, error) {
	if g.manager == nil {
		return g.fallback.Load(key)
	}
	if !g.manager.ObjectPropExists(gdataSavesObject, key) {
		return nil, ErrNotFound
	}
	data, err := g.manager.LoadObjectProp(gdataSavesObject, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load slot %s: %w", key, err)
	}
	// Delete leaves an empty property behind
	if len(data) == 0 {
		return nil, ErrNotFound
	}
	return data, nil
}

func (g *GdataStore) Exists(key string) bool {
	_, err := g.Load(key)
	return err == nil
}

// Delete empties the slot; an empty slot reads as not found
func (g *GdataStore) Delete(key string) error {
	if g.manager == nil {
		return g.fallback.Delete(key)
	}
	if !g.Exists(key) {
		return ErrNotFound
	}
	return g.manager.SaveObjectProp(gdataSavesObject, key, nil)
}
