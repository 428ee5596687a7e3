package journal

import (
	"context"
	"iter"
	"slices"
	"strings"
	"sync"
)

// Memory is an in-memory Store. It keeps records in their encoded form
// so callers never share state with the store.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory creates an empty in-memory Store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Put(_ context.Context, r *Record) error {
	data, err := encode(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data[r.ID] = data
	m.mu.Unlock()
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (*Record, error) {
	m.mu.RLock()
	data, ok := m.data[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return decode(data)
}

func (m *Memory) List(_ context.Context) iter.Seq2[*Record, error] {
	m.mu.RLock()
	ids := make([]string, 0, len(m.data))
	snapshot := make(map[string][]byte, len(m.data))
	for id, data := range m.data {
		ids = append(ids, id)
		snapshot[id] = data
	}
	m.mu.RUnlock()
	slices.SortFunc(ids, strings.Compare)

	return func(yield func(*Record, error) bool) {
		for _, id := range ids {
			if !yield(decode(snapshot[id])) {
				return
			}
		}
	}
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.data, id)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error { return nil }

var _ Store = (*Memory)(nil)
