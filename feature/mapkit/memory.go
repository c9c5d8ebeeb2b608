package mapkit

import (
	"fmt"
	"sort"
	"sync"

	"service-map/core/mapping"
)

// View is the visible region of a memory map.
type View struct {
	Center   mapping.Coordinate
	LatDelta float64
	LonDelta float64
}

type memoryState struct {
	surface     mapping.Surface
	view        View
	annotations map[AnnotationID]Annotation
}

// MemoryMap is an in-process Native keeping annotations in maps.
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

// SetHook installs fn, called before every native operation. A returned
// error fails the operation; a panic propagates to the caller.
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

func (m *MemoryMap) NewMap(surface mapping.Surface, center mapping.Coordinate) (MapID, error) {
	if err := m.call("new_map"); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	id := MapID(fmt.Sprintf("map-%d", m.seq))
	m.maps[id] = &memoryState{
		surface:     surface,
		view:        View{Center: center},
		annotations: make(map[AnnotationID]Annotation),
	}
	return id, nil
}

func (m *MemoryMap) AddAnnotation(ref MapID, a Annotation) (AnnotationID, error) {
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
	id := AnnotationID(fmt.Sprintf("annotation-%d", m.seq))
	st.annotations[id] = a
	return id, nil
}

func (m *MemoryMap) RemoveAnnotation(ref MapID, id AnnotationID) error {
	if err := m.call("remove"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.maps[ref]
	if !ok {
		return ErrUnknownMap
	}
	if _, ok := st.annotations[id]; !ok {
		return ErrUnknownAnnotation
	}
	delete(st.annotations, id)
	return nil
}

func (m *MemoryMap) SetRegion(ref MapID, center mapping.Coordinate, latDelta, lonDelta float64) error {
	if err := m.call("region"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.maps[ref]
	if !ok {
		return ErrUnknownMap
	}
	st.view = View{Center: center, LatDelta: latDelta, LonDelta: lonDelta}
	return nil
}

func (m *MemoryMap) SetCenter(ref MapID, center mapping.Coordinate) error {
	if err := m.call("center"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.maps[ref]
	if !ok {
		return ErrUnknownMap
	}
	st.view.Center = center
	return nil
}

func (m *MemoryMap) Destroy(ref MapID) error {
	if err := m.call("destroy"); err != nil {
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

// Annotations returns the annotations of every live map ordered by title.
func (m *MemoryMap) Annotations() []Annotation {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Annotation
	for _, st := range m.maps {
		for _, a := range st.annotations {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out
}

// View returns the visible region of the map bound to surfaceID.
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

// Tap fires the select callback of the first annotation titled title.
func (m *MemoryMap) Tap(title string) bool {
	m.mu.Lock()
	var fn func()
	for _, st := range m.maps {
		for _, a := range st.annotations {
			if a.Title == title {
				fn = a.OnSelect
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
