package store

import (
	"context"
	"sync"

	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/apperr"
	"github.com/afikmenashe/travel-alerting/services/alert-service/internal/models"
)

type memoryEntry struct {
	data    []byte
	version int64
}

// Memory keeps serialized state in process. Callers never share structures with the
// store, so mutating a returned state has no effect until it is Put.
type Memory struct {
	mu       sync.RWMutex
	entries  map[string]memoryEntry
	notified map[string]bool
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry), notified: make(map[string]bool)}
}

// Get returns a copy of the user's state.
func (m *Memory) Get(ctx context.Context, userID string) (*models.UserState, error) {
	m.mu.RLock()
	e, ok := m.entries[userID]
	m.mu.RUnlock()
	if !ok {
		return nil, apperr.NotFound("user", userID)
	}
	return decode(e.data, e.version)
}

// Put writes state if its version is current.
func (m *Memory) Put(ctx context.Context, state *models.UserState) error {
	data, err := encode(state)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	current := m.entries[state.UserID].version
	if current != state.Version {
		return &apperr.ConflictError{UserID: state.UserID, ExpectedVersion: state.Version, ActualVersion: current}
	}
	state.Version++
	m.entries[state.UserID] = memoryEntry{data: data, version: state.Version}
	return nil
}

// Close does nothing.
func (m *Memory) Close() error { return nil }
