// Package store persists each trading instance's position between live
// cycles.
package store

import (
	"context"
	"errors"
	"sync"

	"github.com/evdnx/gospot/position"
)

// ErrNotFound is returned by Load when no position was saved for the
// instance.
var ErrNotFound = errors.New("store: position not found")

// PositionStore loads and saves one position per instance.
type PositionStore interface {
	Load(ctx context.Context, instance string) (position.Position, error)
	Save(ctx context.Context, instance string, pos position.Position) error
}

// Memory is a process-local PositionStore.
type Memory struct {
	mu   sync.RWMutex
	data map[string]position.Position
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]position.Position)}
}

func (m *Memory) Load(_ context.Context, instance string) (position.Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.data[instance]
	if !ok {
		return position.Position{}, ErrNotFound
	}
	return p, nil
}

func (m *Memory) Save(_ context.Context, instance string, pos position.Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[instance] = pos
	return nil
}
