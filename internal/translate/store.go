package translate

import (
	"context"
	"sync"
)

// MappingStore is the read+append view of the industry mapping table the
// translator depends on. The table only grows: AddIndustryMapping never
// overwrites an existing name, so a learned mapping is permanent.
type MappingStore interface {
	// ResolveIndustries looks up names for the given IDs. found maps each
	// resolved ID to its name; missing lists the IDs with no entry.
	ResolveIndustries(ctx context.Context, ids []string) (found map[string]string, missing []string, err error)

	// AddIndustryMapping records an ID to name pair. The first write for an
	// ID wins; later writes for the same ID are ignored.
	AddIndustryMapping(ctx context.Context, id, name, learnedFrom string) error
}

// MemoryMappingStore is an in-process MappingStore for tests and for
// translation runs seeded from a file instead of a database.
type MemoryMappingStore struct {
	mu    sync.RWMutex
	names map[string]string
}

// NewMemoryMappingStore returns an empty in-memory mapping store.
func NewMemoryMappingStore() *MemoryMappingStore {
	return &MemoryMappingStore{names: make(map[string]string)}
}

func (m *MemoryMappingStore) ResolveIndustries(_ context.Context, ids []string) (map[string]string, []string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	found := make(map[string]string)
	var missing []string
	for _, id := range ids {
		if name, ok := m.names[id]; ok {
			found[id] = name
		} else {
			missing = append(missing, id)
		}
	}
	return found, missing, nil
}

func (m *MemoryMappingStore) AddIndustryMapping(_ context.Context, id, name, _ string) error {
	if id == "" || name == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.names[id]; !exists {
		m.names[id] = name
	}
	return nil
}
