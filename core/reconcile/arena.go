package reconcile

import (
	"sort"
	"sync"

	"service-map/core/mapping"
)

// Arena is a session's marker collection, keyed by entity id.
// Readers may look markers up at any time; only the Reconciler mutates it.
type Arena struct {
	mu      sync.RWMutex
	markers map[string]*mapping.MarkerHandle
}

// NewArena creates an empty marker collection.
func NewArena() *Arena {
	return &Arena{markers: make(map[string]*mapping.MarkerHandle)}
}

// Get returns the marker registered under key.
func (a *Arena) Get(key string) (*mapping.MarkerHandle, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	h, ok := a.markers[key]
	return h, ok
}

// Keys returns the registered keys in sorted order.
func (a *Arena) Keys() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	keys := make([]string, 0, len(a.markers))
	for key := range a.markers {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of markers.
func (a *Arena) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.markers)
}

func (a *Arena) put(h *mapping.MarkerHandle) {
	a.mu.Lock()
	a.markers[h.ID] = h
	a.mu.Unlock()
}

func (a *Arena) drop(key string) {
	a.mu.Lock()
	delete(a.markers, key)
	a.mu.Unlock()
}
