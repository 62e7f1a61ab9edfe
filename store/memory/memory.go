// Package memory keeps checkpoints in process memory. It is the default
// checkpointer of the chatbot and agent examples.
package memory

import (
	"context"
	"sync"

	"github.com/levitang/llm-practice/store"
)

// MemoryCheckpointStore is a map backed store guarded by a RWMutex.
type MemoryCheckpointStore struct {
	mu          sync.RWMutex
	checkpoints map[string]*store.Checkpoint
	threads     map[string][]string
}

var _ store.CheckpointStore = (*MemoryCheckpointStore)(nil)

// NewMemoryCheckpointStore creates an empty store.
func NewMemoryCheckpointStore() *MemoryCheckpointStore {
	return &MemoryCheckpointStore{
		checkpoints: make(map[string]*store.Checkpoint),
		threads:     make(map[string][]string),
	}
}

func (m *MemoryCheckpointStore) Save(_ context.Context, cp *store.Checkpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := *cp
	if _, exists := m.checkpoints[cp.ID]; !exists {
		m.threads[cp.ThreadID] = append(m.threads[cp.ThreadID], cp.ID)
	}
	m.checkpoints[cp.ID] = &c
	return nil
}

func (m *MemoryCheckpointStore) Load(_ context.Context, id string) (*store.Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cp, ok := m.checkpoints[id]
	if !ok {
		return nil, store.NotFound(id)
	}
	c := *cp
	return &c, nil
}

func (m *MemoryCheckpointStore) List(_ context.Context, threadID string) ([]*store.Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := m.threads[threadID]
	out := make([]*store.Checkpoint, 0, len(ids))
	for _, id := range ids {
		c := *m.checkpoints[id]
		out = append(out, &c)
	}
	store.SortByVersion(out)
	return out, nil
}

func (m *MemoryCheckpointStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp, ok := m.checkpoints[id]
	if !ok {
		return store.NotFound(id)
	}
	delete(m.checkpoints, id)

	ids := m.threads[cp.ThreadID]
	for i, x := range ids {
		if x == id {
			m.threads[cp.ThreadID] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	if len(m.threads[cp.ThreadID]) == 0 {
		delete(m.threads, cp.ThreadID)
	}
	return nil
}

func (m *MemoryCheckpointStore) Clear(_ context.Context, threadID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range m.threads[threadID] {
		delete(m.checkpoints, id)
	}
	delete(m.threads, threadID)
	return nil
}
