package leaflet

import (
	"fmt"
	"sort"
	"sync"

	"service-map/core/mapping"
)

// View is the center and zoom of a memory map.
type View struct {
	Center mapping.Coordinate
	Zoom   float64
}

type memoryState struct {
	surface mapping.Surface
	tileURL string
	view    View
	markers map[MarkerID]Marker
}

// MemoryMap is an in-process Native.
type MemoryMap struct {
	mu   sync.Mutex
	seq  int
	maps map[MapID]*memoryState
	hook func(op string) error
}

// NewMemoryMap creates an empty memory native.
func NewMemoryMap() *MemoryMap {
	return &MemoryMap{maps: make(map[MapID]*memoryState)}
}

// SetHook installs fn, called before every native operation.
func (m *MemoryMap) SetHook(fn func(op string) error) {
	m.mu.Lock()
	m.hook = fn
	m.mu.Unlock()
}

func (m *MemoryMap) call(op string) error {
	m.mu.Lock()
	hook := m.hook
	m.mu.Unlock()
	if hook == nil {
		return nil
	}
	return hook(op)
}

func (m *MemoryMap) NewMap(surface mapping.Surface, opts MapOptions) (MapID, error) {
	if err := m.call("new_map"); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	id := MapID(fmt.Sprintf("map-%d", m.seq))
	m.maps[id] = &memoryState{
		surface: surface,
		tileURL: opts.TileURL,
		view:    View{Center: opts.Center, Zoom: opts.Zoom},
		markers: make(map[MarkerID]Marker),
	}
	return id, nil
}

func (m *MemoryMap) AddMarker(ref MapID, marker Marker) (MarkerID, error) {
	if err := m.call("add"); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.maps[ref]
	if !ok {
		return "", ErrUnknownMap
	}
	m.seq++
	id := MarkerID(fmt.Sprintf("marker-%d", m.seq))
	st.markers[id] = marker
	return id, nil
}

func (m *MemoryMap) RemoveMarker(ref MapID, id MarkerID) error {
	if err := m.call("remove"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.maps[ref]
	if !ok {
		return ErrUnknownMap
	}
	if _, ok := st.markers[id]; !ok {
		return ErrUnknownMarker
	}
	delete(st.markers, id)
	return nil
}

func (m *MemoryMap) SetView(ref MapID, center mapping.Coordinate, zoom float64) error {
	if err := m.call("view"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.maps[ref]
	if !ok {
		return ErrUnknownMap
	}
	st.view = View{Center: center, Zoom: zoom}
	return nil
}

func (m *MemoryMap) Remove(ref MapID) error {
	if err := m.call("remove_map"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.maps[ref]; !ok {
		return ErrUnknownMap
	}
	delete(m.maps, ref)
	return nil
}

// Maps returns the number of live maps.
func (m *MemoryMap) Maps() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.maps)
}

// Markers returns the markers of every live map ordered by popup text.
func (m *MemoryMap) Markers() []Marker {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Marker
	for _, st := range m.maps {
		for _, mk := range st.markers {
			out = append(out, mk)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Popup < out[j].Popup })
	return out
}

// View returns the view of the map bound to surfaceID.
func (m *MemoryMap) View(surfaceID string) (View, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, st := range m.maps {
		if st.surface.ID == surfaceID {
			return st.view, true
		}
	}
	return View{}, false
}

// TileURL returns the tile template of the map bound to surfaceID.
func (m *MemoryMap) TileURL(surfaceID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, st := range m.maps {
		if st.surface.ID == surfaceID {
			return st.tileURL
		}
	}
	return ""
}

// Click fires the click handler of the marker at c.
func (m *MemoryMap) Click(c mapping.Coordinate) bool {
	m.mu.Lock()
	var fn func()
	for _, st := range m.maps {
		for _, mk := range st.markers {
			if mk.Coordinate == c {
				fn = mk.OnClick
			}
		}
	}
	m.mu.Unlock()

	if fn == nil {
		return false
	}
	fn()
	return true
}
