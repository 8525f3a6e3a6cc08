package docstore

import (
	"context"
	"sort"
	"sync"
)

// MemoryBackend keeps documents in process memory. Used by tests and
// throwaway sessions.
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[string]map[string]map[string][]byte
}

// NewMemoryBackend returns an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string]map[string]map[string][]byte)}
}

func (m *MemoryBackend) Put(ctx context.Context, scope, collection, id string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(scope, collection, id, data)
	return nil
}

func (m *MemoryBackend) put(scope, collection, id string, data []byte) {
	cols, ok := m.data[scope]
	if !ok {
		cols = make(map[string]map[string][]byte)
		m.data[scope] = cols
	}
	docs, ok := cols[collection]
	if !ok {
		docs = make(map[string][]byte)
		cols[collection] = docs
	}
	docs[id] = clone(data)
}

func (m *MemoryBackend) Get(ctx context.Context, scope, collection, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.data[scope][collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(data), nil
}

func (m *MemoryBackend) Delete(ctx context.Context, scope, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	docs := m.data[scope][collection]
	if _, ok := docs[id]; !ok {
		return ErrNotFound
	}
	delete(docs, id)
	return nil
}

func (m *MemoryBackend) Scan(ctx context.Context, scope, collection string, fn func(id string, data []byte) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Snapshot under the lock so fn may call back into the backend.
	m.mu.RLock()
	docs := m.data[scope][collection]
	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	values := make([][]byte, len(ids))
	for i, id := range ids {
		values[i] = clone(docs[id])
	}
	m.mu.RUnlock()

	for i, id := range ids {
		if err := fn(id, values[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *MemoryBackend) Update(ctx context.Context, scope, collection, id string, fn func(current []byte) ([]byte, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.data[scope][collection][id]
	if !ok {
		return ErrNotFound
	}
	next, err := fn(clone(cur))
	if err != nil {
		return err
	}
	m.put(scope, collection, id, next)
	return nil
}

func (m *MemoryBackend) Close() error {
	return nil
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
