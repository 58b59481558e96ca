package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/wricardo/farmday/game/service"
	"github.com/wricardo/farmday/game/storage"
)

const sessionKeyPrefix = "session."

// StorePersistence keeps session records in a slot store, so a server
// using the SQLite store holds sessions and save slots in one database.
type StorePersistence struct {
	store storage.SlotStore
}

func NewStorePersistence(store storage.SlotStore) *StorePersistence {
	return &StorePersistence{store: store}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + strings.ToLower(id)
}

func (sp *StorePersistence) Save(session *service.Session) error {
	if session == nil {
		return fmt.Errorf("session cannot be nil")
	}
	if err := validateID(session.ID); err != nil {
		return err
	}
	payload, err := json.Marshal(newPersistedSessionData(session))
	if err != nil {
		return fmt.Errorf("failed to marshal session data: %w", err)
	}
	return sp.store.Save(sessionKey(session.ID), payload)
}

func (sp *StorePersistence) Load(id string) (*PersistedSessionData, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	payload, err := sp.store.Load(sessionKey(id))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var data PersistedSessionData
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session data: %w", err)
	}
	return &data, nil
}

func (sp *StorePersistence) Delete(id string) error {
	err := sp.store.Delete(sessionKey(id))
	if errors.Is(err, storage.ErrNotFound) {
		return ErrSessionNotFound
	}
	return err
}

// ListAll returns the IDs of stored sessions. Stores that cannot list their
// keys report none.
func (sp *StorePersistence) ListAll() ([]string, error) {
	lister, ok := sp.store.(storage.Lister)
	if !ok {
		return nil, nil
	}
	keys, err := lister.Keys()
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, k := range keys {
		if strings.HasPrefix(k, sessionKeyPrefix) {
			ids = append(ids, strings.TrimPrefix(k, sessionKeyPrefix))
		}
	}
	return ids, nil
}

func (sp *StorePersistence) Exists(id string) bool {
	return validateID(id) == nil && sp.store.Exists(sessionKey(id))
}
