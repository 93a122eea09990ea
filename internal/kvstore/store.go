// Package kvstore provides the string key/value stores the recommendation
// cache persists through.
//
// Stores are advisory: callers must stay correct when a key is missing,
// stale or unreadable. Writes are last-writer-wins.
package kvstore

import (
	"fmt"
	"sync"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Store is the persistence contract. A missing key is reported by ok=false,
// not by an error.
type Store interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Delete(key string) error
}

// Open creates the store for a backend rooted at dir. The returned cleanup
// func releases the store and is never nil.
func Open(backend, dir string) (Store, func(), error) {
	switch backend {
	case BackendMemory, "":
		return NewMemory(), noop, nil
	case BackendFile:
		f, err := NewFile(dir)
		if err != nil {
			return nil, noop, err
		}
		return f, noop, nil
	case BackendSQLite:
		s, err := NewSQLite(dir)
		if err != nil {
			return nil, noop, err
		}
		return s, func() { s.Close() }, nil
	default:
		return nil, noop, fmt.Errorf("kvstore: unknown backend %q", backend)
	}
}

func noop() {}

// ─── Memory ──────────────────────────────────────────────────────────────────

// Memory is an in-process Store. The zero value is not usable; call
// NewMemory.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

// Get returns the value stored under key.
func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

// Set stores value under key.
func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Len reports how many keys are stored.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
