package mmm

import "sync"

// ImpactStore receives impact solutions whenever their validity changes.
type ImpactStore interface {
	Put(ImpactSolution)
}

// StoreFunc adapts a function to the ImpactStore interface.
type StoreFunc func(ImpactSolution)

// Put implements the ImpactStore interface.
func (f StoreFunc) Put(s ImpactSolution) {
	f(s)
}

// MemoryStore keeps all solutions in memory. It is safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	history []ImpactSolution
	latest  map[string]ImpactSolution
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{latest: make(map[string]ImpactSolution)}
}

// Put implements the ImpactStore interface.
func (m *MemoryStore) Put(s ImpactSolution) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = append(m.history, s)
	m.latest[s.BodyID] = s
}

// Latest returns the last solution stored for a body.
func (m *MemoryStore) Latest(bodyID string) (ImpactSolution, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.latest[bodyID]
	return s, ok
}

// History returns a copy of all stored solutions, oldest first.
func (m *MemoryStore) History() []ImpactSolution {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ImpactSolution, len(m.history))
	copy(out, m.history)
	return out
}

// Len returns the number of stored solutions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.history)
}
