// Package tokenstore holds the single persisted session token slot.
package tokenstore

import (
	"errors"
	"sync"
)

// ErrNotFound is returned by Load when no token is stored
var ErrNotFound = errors.New("no token stored")

// Store is one persisted token slot
type Store interface {
	Load() (string, error)
	Save(token string) error
	Delete() error
}

// MemoryStore keeps the token in process memory
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

// NewMemoryStore returns a store holding token ("" for empty)
func NewMemoryStore(token string) *MemoryStore {
	return &MemoryStore{token: token}
}

func (m *MemoryStore) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token == "" {
		return "", ErrNotFound
	}
	return m.token, nil
}

func (m *MemoryStore) Save(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.token = token
	return nil
}

func (m *MemoryStore) Delete() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.token = ""
	return nil
}
