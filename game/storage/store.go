package storage

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned by Load when the key holds no payload
	ErrNotFound = errors.New("slot not found")
	// ErrInvalidKey is returned for keys that cannot be stored safely
	ErrInvalidKey = errors.New("invalid slot key")
)

// SlotStore persists opaque payloads by key
type SlotStore interface {
	Save(key string, data []byte) error
	Load(key string) ([]byte, error)
	Exists(key string) bool
	Delete(key string) error
}

// Lister is implemented by stores that can enumerate their keys
type Lister interface {
	Keys() ([]string, error)
}

// ValidateKey rejects keys that are empty or could escape a directory
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidKey)
	}
	if strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

type prefixStore struct {
	prefix string
	inner  SlotStore
}

// WithPrefix returns a store whose keys are transparently prefixed
func WithPrefix(inner SlotStore, prefix string) SlotStore {
	return &prefixStore{prefix: prefix, inner: inner}
}

func (p *prefixStore) Save(key string, data []byte) error { return p.inner.Save(p.prefix+key, data) }
func (p *prefixStore) Load(key string) ([]byte, error) { return p.inner.Load(p.prefix + key) }
func (p *prefixStore) Exists(key string) bool { return p.inner.Exists(p.prefix + key) }
func (p *prefixStore) Delete(key string) error { return p.inner.Delete(p.prefix + key) }

// Keys lists keys under the prefix with the prefix removed
func (p *prefixStore) Keys() ([]string, error) {
	lister, ok := p.inner.(Lister)
	if !ok {
		return nil, nil
	}
	all, err := lister.Keys()
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, k := range all {
		if strings.HasPrefix(k, p.prefix) {
			keys = append(keys, strings.TrimPrefix(k, p.prefix))
		}
	}
	return keys, nil
}

// DeletePrefix removes every key starting with prefix from a listable store
func DeletePrefix(store SlotStore, prefix string) error {
	lister, ok := store.(Lister)
	if !ok {
		return nil
	}
	keys, err := lister.Keys()
	if err != nil {
		return err
	}
	for _, k := range keys {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		if err := store.Delete(k); err != nil && !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("delete %s: %w", k, err)
		}
	}
	return nil
}
