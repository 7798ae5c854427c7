package inmemory

import (
	"context"
	"sync"

	memory "github.com/barekit/remedy/pkg/memory/types"
)

// InMemory implements Memory using a map.
type InMemory struct {
	mu        sync.RWMutex
	exchanges map[string][]memory.Exchange
}

// New creates a new InMemory adapter.
func New() *InMemory {
	return &InMemory{
		exchanges: make(map[string][]memory.Exchange),
	}
}

// Save appends an exchange to the in-memory store.
func (m *InMemory) Save(ctx context.Context, conversationID string, ex memory.Exchange) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.exchanges[conversationID] = append(m.exchanges[conversationID], ex)
	return nil
}

// Load loads exchanges from the in-memory store.
func (m *InMemory) Load(ctx context.Context, conversationID string) ([]memory.Exchange, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Return a copy to avoid race conditions if the caller modifies the slice
	exs := m.exchanges[conversationID]
	result := make([]memory.Exchange, len(exs))
	copy(result, exs)

	return result, nil
}
