package match

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-process Store, used when no database is configured
// and in tests. It is safe for concurrent use.
type MemoryStore struct {
	mu      sync.Mutex
	infos   map[string]Info
	upserts int
	removes map[string]int
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{infos: make(map[string]Info), removes: make(map[string]int)}
}

// Upsert stores info, replacing any previous snapshot with the same id.
func (m *MemoryStore) Upsert(_ context.Context, info Info) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos[info.ID] = info
	m.upserts++
	return nil
}

// Remove deletes the snapshot for id.
func (m *MemoryStore) Remove(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.infos, id)
	m.removes[id]++
	return nil
}

// List returns every stored snapshot ordered by id.
func (m *MemoryStore) List(_ context.Context) ([]Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Info, 0, len(m.infos))
	for _, info := range m.infos {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Get returns the stored snapshot for id.
func (m *MemoryStore) Get(id string) (Info, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	info, ok := m.infos[id]
	return info, ok
}

// Removals returns how many times Remove was called for id.
func (m *MemoryStore) Removals(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removes[id]
}

// Upserts returns the total number of Upsert calls.
func (m *MemoryStore) Upserts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.upserts
}
