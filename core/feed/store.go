package feed

import (
	"sort"
	"sync"

	"service-map/core/mapping"
)

// Store is the authoritative entity list, folded from a snapshot and deltas
// in arrival order.
type Store struct {
	mu       sync.RWMutex
	entities map[string]mapping.Entity
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{entities: make(map[string]mapping.Entity)}
}

// Seed replaces the content with a snapshot.
func (s *Store) Seed(list []mapping.Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities = make(map[string]mapping.Entity, len(list))
	for _, e := range list {
		s.entities[e.ID] = e
	}
}

// Apply folds one delta and reports whether the list changed.
func (s *Store) Apply(d mapping.Delta) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch d.Op {
	case mapping.OpInsert, mapping.OpUpdate:
		if d.Entity == nil {
			return false
		}
		s.entities[d.ID] = *d.Entity
		return true
	case mapping.OpDelete:
		if _, ok := s.entities[d.ID]; !ok {
			return false
		}
		delete(s.entities, d.ID)
		return true
	}
	return false
}

// Get returns the entity with id.
func (s *Store) Get(id string) (mapping.Entity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entities[id]
	return e, ok
}

// Len returns the number of entities.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entities)
}

// Snapshot returns a copy of the list sorted by id.
func (s *Store) Snapshot() []mapping.Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]mapping.Entity, 0, len(s.entities))
	for _, e := range s.entities {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}
