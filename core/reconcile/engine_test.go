package reconcile

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"testing"
	"time"

	"service-map/core/mapping"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

type fakeHandle struct{}

func (fakeHandle) Provider() string  { return "fake" }
func (fakeHandle) SurfaceID() string { return "main" }
func (fakeHandle) Destroyed() bool   { return false }

type nativeMarker struct {
	spec mapping.MarkerSpec
}

// fakeAdapter records every native call.
type fakeAdapter struct {
	mu         sync.Mutex
	adds       []string
	removes    []string
	regions    [][]mapping.Coordinate
	centers    []mapping.Coordinate
	zooms      []float64
	failAdd    map[string]bool
	failRemove map[string]bool
	// gate runs before each AddMarker; tests use it to hold a pass open.
	gate func(key string)
}

func (f *fakeAdapter) Name() string { return "fake" }

func (f *fakeAdapter) Initialize(ctx context.Context, s mapping.Surface, c mapping.Coordinate) (mapping.Handle, error) {
	return fakeHandle{}, nil
}

func (f *fakeAdapter) Destroy(h mapping.Handle) error { return nil }

func (f *fakeAdapter) AddMarker(h mapping.Handle, spec mapping.MarkerSpec, onSelect func()) (*mapping.MarkerHandle, error) {
	if f.gate != nil {
		f.gate(spec.ID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adds = append(f.adds, spec.ID)
	if f.failAdd[spec.ID] {
		return nil, errors.New("native add failed")
	}
	return &mapping.MarkerHandle{ID: spec.ID, Native: &nativeMarker{spec: spec}, OnSelect: onSelect}, nil
}

func (f *fakeAdapter) RemoveMarker(h mapping.Handle, m *mapping.MarkerHandle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removes = append(f.removes, m.ID)
	if f.failRemove[m.ID] {
		return errors.New("native remove failed")
	}
	return nil
}

func (f *fakeAdapter) SetRegion(h mapping.Handle, coords []mapping.Coordinate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.regions = append(f.regions, append([]mapping.Coordinate(nil), coords...))
	return nil
}

func (f *fakeAdapter) CenterOn(h mapping.Handle, c mapping.Coordinate, zoom float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.centers = append(f.centers, c)
	f.zooms = append(f.zooms, zoom)
	return nil
}

func (f *fakeAdapter) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adds, f.removes, f.regions, f.centers, f.zooms = nil, nil, nil, nil, nil
}

func (f *fakeAdapter) calls() (adds, removes []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.adds...), append([]string(nil), f.removes...)
}

func newTestReconciler(adapter *fakeAdapter, opts Options) (*Reconciler, *Arena) {
	arena := NewArena()
	return New(adapter, fakeHandle{}, arena, opts, zap.NewNop()), arena
}

func targetOf(ids ...string) Target {
	entities := make([]mapping.Entity, 0, len(ids))
	for i, id := range ids {
		entities = append(entities, entity(id, float64(i), float64(i)))
	}
	return Target{Entities: entities}
}

func TestReconciler_MinimalChurn(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	pool := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	pick := func() []string {
		var ids []string
		for _, id := range pool {
			if rng.Intn(2) == 0 {
				ids = append(ids, id)
			}
		}
		return ids
	}

	for i := 0; i < 25; i++ {
		before, after := pick(), pick()
		t.Run(fmt.Sprintf("%v->%v", before, after), func(t *testing.T) {
			adapter := &fakeAdapter{}
			r, arena := newTestReconciler(adapter, Options{})

			r.Reconcile(targetOf(before...))
			adapter.reset()
			r.Reconcile(targetOf(after...))

			adds, removes := adapter.calls()
			assert.Equal(t, len(difference(before, after))+len(difference(after, before)), len(adds)+len(removes))
			assert.ElementsMatch(t, difference(after, before), adds)
			assert.ElementsMatch(t, difference(before, after), removes)

			want := append([]string{}, after...)
			sort.Strings(want)
			assert.Equal(t, want, arena.Keys())
		})
	}
}

func difference(a, b []string) []string {
	in := make(map[string]bool, len(b))
	for _, id := range b {
		in[id] = true
	}
	out := []string{}
	for _, id := range a {
		if !in[id] {
			out = append(out, id)
		}
	}
	return out
}

func TestReconciler_UpdateKeepsMarkerIdentity(t *testing.T) {
	adapter := &fakeAdapter{}
	r, arena := newTestReconciler(adapter, Options{})

	a, b, c := entity("A", 0, 0), entity("B", 1, 1), entity("C", 2, 2)
	r.Reconcile(Target{Entities: []mapping.Entity{a, b, c}})

	bHandle, ok := arena.Get("B")
	require.True(t, ok)
	bNative := bHandle.Native

	moved := entity("B", 1, 5)
	r.Reconcile(Target{Entities: []mapping.Entity{a, moved, c}})
	r.Reconcile(Target{Entities: []mapping.Entity{moved, c}})

	assert.Equal(t, []string{"B", "C"}, arena.Keys())
	after, _ := arena.Get("B")
	assert.Same(t, bNative, after.Native)

	adds, removes := adapter.calls()
	assert.Equal(t, []string{"A", "B", "C"}, adds)
	assert.Equal(t, []string{"A"}, removes)

	adapter.mu.Lock()
	defer adapter.mu.Unlock()
	require.Len(t, adapter.regions, 3)
	assert.Equal(t, []mapping.Coordinate{{Latitude: 1, Longitude: 5}, {Latitude: 2, Longitude: 2}}, adapter.regions[2])
	assert.Empty(t, adapter.centers)
}

func TestReconciler_Coalesces(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	adapter := &fakeAdapter{}
	adapter.gate = func(key string) {
		once.Do(func() {
			close(entered)
			<-release
		})
	}
	r, arena := newTestReconciler(adapter, Options{})

	done := make(chan struct{})
	go func() {
		r.Reconcile(targetOf("a"))
		close(done)
	}()
	<-entered

	// Both calls only queue while the first pass is held open.
	r.Reconcile(targetOf("a", "stale"))
	r.Reconcile(targetOf("a", "latest"))
	close(release)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("driver did not finish")
	}

	adds, _ := adapter.calls()
	assert.Equal(t, []string{"a", "latest"}, adds)
	assert.Equal(t, []string{"a", "latest"}, arena.Keys())
	assert.Equal(t, 2, r.Passes())
}

func TestReconciler_Stop(t *testing.T) {
	t.Run("AbandonsRunningPass", func(t *testing.T) {
		entered := make(chan struct{})
		release := make(chan struct{})
		var once sync.Once
		adapter := &fakeAdapter{}
		adapter.gate = func(key string) {
			once.Do(func() {
				close(entered)
				<-release
			})
		}
		r, arena := newTestReconciler(adapter, Options{})

		go r.Reconcile(targetOf("a", "b", "c"))
		<-entered
		r.Reconcile(targetOf("queued"))

		stopped := make(chan struct{})
		go func() {
			r.Stop()
			close(stopped)
		}()
		require.Eventually(t, r.isStopped, time.Second, time.Millisecond)
		close(release)
		<-stopped

		adds, _ := adapter.calls()
		assert.Equal(t, []string{"a"}, adds)
		assert.Equal(t, []string{"a"}, arena.Keys())

		adapter.mu.Lock()
		assert.Empty(t, adapter.regions)
		adapter.mu.Unlock()
	})

	t.Run("LaterRequestsAreNoOps", func(t *testing.T) {
		adapter := &fakeAdapter{}
		r, arena := newTestReconciler(adapter, Options{})

		r.Stop()
		r.Reconcile(targetOf("a"))

		assert.Zero(t, arena.Len())
		assert.Zero(t, r.Passes())
	})
}

func TestReconciler_MarkerFailuresDoNotAbort(t *testing.T) {
	adapter := &fakeAdapter{failAdd: map[string]bool{"b": true}}
	r, arena := newTestReconciler(adapter, Options{})

	r.Reconcile(targetOf("a", "b", "c"))
	assert.Equal(t, []string{"a", "c"}, arena.Keys())

	// The failed key is retried on the next pass.
	adapter.failAdd = nil
	r.Reconcile(targetOf("a", "b", "c"))
	assert.Equal(t, []string{"a", "b", "c"}, arena.Keys())

	adapter.failRemove = map[string]bool{"a": true}
	r.Reconcile(targetOf("b", "c"))
	assert.Equal(t, []string{"b", "c"}, arena.Keys())
}

func TestReconciler_Self(t *testing.T) {
	adapter := &fakeAdapter{}
	r, arena := newTestReconciler(adapter, Options{SelfZoom: 14})

	here := &mapping.Position{Coordinate: mapping.Coordinate{Latitude: 40, Longitude: -3}}
	r.Reconcile(Target{Self: here})

	assert.Equal(t, []string{mapping.SelfID}, arena.Keys())
	adapter.mu.Lock()
	assert.Equal(t, []mapping.Coordinate{here.Coordinate}, adapter.centers)
	assert.Equal(t, []float64{14}, adapter.zooms)
	assert.Empty(t, adapter.regions)
	adapter.mu.Unlock()

	// Same fix again: no churn.
	adapter.reset()
	r.Reconcile(Target{Self: here})
	adds, removes := adapter.calls()
	assert.Empty(t, adds)
	assert.Empty(t, removes)

	// A superseding fix replaces the self marker.
	there := &mapping.Position{Coordinate: mapping.Coordinate{Latitude: 41, Longitude: -3}}
	r.Reconcile(Target{Self: there})
	adds, removes = adapter.calls()
	assert.Equal(t, []string{mapping.SelfID}, adds)
	assert.Equal(t, []string{mapping.SelfID}, removes)

	h, ok := arena.Get(mapping.SelfID)
	require.True(t, ok)
	assert.Equal(t, there.Coordinate, h.Native.(*nativeMarker).spec.Coordinate)

	// Entities take precedence over centering.
	adapter.reset()
	r.Reconcile(Target{Entities: []mapping.Entity{entity("x", 1, 1)}, Self: there})
	adapter.mu.Lock()
	assert.Empty(t, adapter.centers)
	assert.Len(t, adapter.regions, 1)
	adapter.mu.Unlock()
}

func TestReconciler_Clear(t *testing.T) {
	adapter := &fakeAdapter{failRemove: map[string]bool{"b": true}}
	r, arena := newTestReconciler(adapter, Options{})

	r.Reconcile(Target{
		Entities: []mapping.Entity{entity("a", 0, 0), entity("b", 1, 1)},
		Self:     &mapping.Position{Coordinate: mapping.Coordinate{Latitude: 2, Longitude: 2}},
	})
	require.Equal(t, 3, arena.Len())

	r.Stop()
	r.Clear()
	assert.Zero(t, arena.Len())

	_, removes := adapter.calls()
	assert.ElementsMatch(t, []string{"a", "b", mapping.SelfID}, removes)

	r.Clear()
	assert.Zero(t, arena.Len())
}

func TestReconciler_OnSelect(t *testing.T) {
	var selected []string
	adapter := &fakeAdapter{}
	r, arena := newTestReconciler(adapter, Options{OnSelect: func(key string) {
		selected = append(selected, key)
	}})

	r.Reconcile(targetOf("a", "b"))
	h, ok := arena.Get("b")
	require.True(t, ok)
	h.OnSelect()

	assert.Equal(t, []string{"b"}, selected)
}

func TestReconciler_RefreshReadsSourceWhenPassStarts(t *testing.T) {
	var (
		mu    sync.Mutex
		state = []string{"a"}
		reads int
	)
	source := func() Target {
		mu.Lock()
		defer mu.Unlock()
		reads++
		return targetOf(state...)
	}
	setState := func(ids ...string) {
		mu.Lock()
		state = ids
		mu.Unlock()
	}

	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	adapter := &fakeAdapter{gate: func(key string) {
		once.Do(func() {
			close(started)
			<-release
		})
	}}
	r, arena := newTestReconciler(adapter, Options{Source: source})

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Refresh()
	}()
	<-started

	// Both requests queue while the first pass is held open; the queued pass
	// must see the state as of the last request, not the one in between.
	setState("a", "b")
	r.Refresh()
	setState("a", "c")
	r.Refresh()
	close(release)
	<-done

	assert.Equal(t, []string{"a", "c"}, arena.Keys())
	adds, _ := adapter.calls()
	assert.NotContains(t, adds, "b")
	assert.Equal(t, 2, r.Passes())
	mu.Lock()
	assert.Equal(t, 2, reads)
	mu.Unlock()
}

func TestReconciler_RefreshConvergesUnderConcurrentChanges(t *testing.T) {
	var (
		mu    sync.Mutex
		state []string
	)
	source := func() Target {
		mu.Lock()
		defer mu.Unlock()
		return targetOf(state...)
	}

	adapter := &fakeAdapter{}
	r, arena := newTestReconciler(adapter, Options{Source: source})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			mu.Lock()
			state = append(append([]string(nil), state...), fmt.Sprintf("e%02d", i))
			mu.Unlock()
			r.Refresh()
		}(i)
	}
	wg.Wait()

	mu.Lock()
	want := append([]string(nil), state...)
	mu.Unlock()
	sort.Strings(want)
	assert.Equal(t, want, arena.Keys())
}

func TestReconciler_RefreshWithoutSource(t *testing.T) {
	r, arena := newTestReconciler(&fakeAdapter{}, Options{})
	r.Refresh()
	assert.Zero(t, r.Passes())
	assert.Zero(t, arena.Len())
}

type countingCounter struct {
	noop.Int64Counter
	mu sync.Mutex
	n  int64
}

func (c *countingCounter) Add(ctx context.Context, incr int64, opts ...metric.AddOption) {
	c.mu.Lock()
	c.n += incr
	c.mu.Unlock()
}

func (c *countingCounter) value() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

func TestReconciler_ClearIsNotCountedAsPass(t *testing.T) {
	added, removed, passes := &countingCounter{}, &countingCounter{}, &countingCounter{}
	r, arena := newTestReconciler(&fakeAdapter{}, Options{})
	r.metrics = &metrics{added: added, removed: removed, passes: passes}

	r.Reconcile(targetOf("a", "b"))
	require.Equal(t, 2, arena.Len())

	r.Stop()
	r.Clear()

	assert.Equal(t, int64(1), passes.value())
	assert.Equal(t, int64(2), added.value())
	assert.Equal(t, int64(2), removed.value())
	assert.Equal(t, 1, r.Passes())
}
