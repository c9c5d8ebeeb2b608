package leaflet

import (
	"context"
	"errors"
	"sync"

	"service-map/core/geo"
	"service-map/core/mapping"

	"go.uber.org/zap"
)

// Options configure the leaflet adapter.
type Options struct {
	Fit geo.FitOptions
	// TileURL is the tile template; DefaultTileURL when empty.
	TileURL string
	// InitialZoom is the zoom of a freshly created map.
	InitialZoom float64
}

type handle struct {
	surface mapping.Surface
	ref     MapID

	mu        sync.Mutex
	destroyed bool
}

func (h *handle) Provider() string  { return ProviderName }
func (h *handle) SurfaceID() string { return h.surface.ID }

func (h *handle) Destroyed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.destroyed
}

// Adapter drives a leaflet Native.
type Adapter struct {
	native Native
	opts   Options
	logger *zap.Logger

	mu   sync.Mutex
	maps map[string]*handle
}

// New creates a leaflet adapter.
func New(native Native, opts Options, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.TileURL == "" {
		opts.TileURL = DefaultTileURL
	}
	return &Adapter{
		native: native,
		opts:   opts,
		logger: logger.With(zap.String("provider", ProviderName)),
		maps:   make(map[string]*handle),
	}
}

func (a *Adapter) Name() string { return ProviderName }

func (a *Adapter) Initialize(ctx context.Context, surface mapping.Surface, center mapping.Coordinate) (mapping.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if h, ok := a.maps[surface.ID]; ok && !h.Destroyed() {
		return h, nil
	}

	var ref MapID
	err := mapping.Guard(a.logger, ProviderName, "new_map", surface.ID, func() error {
		var err error
		ref, err = a.native.NewMap(surface, MapOptions{Center: center, Zoom: a.opts.InitialZoom, TileURL: a.opts.TileURL})
		return err
	})
	if err != nil {
		return nil, err
	}

	h := &handle{surface: surface, ref: ref}
	a.maps[surface.ID] = h
	return h, nil
}

func (a *Adapter) resolve(h mapping.Handle) (*handle, error) {
	lh, ok := h.(*handle)
	if !ok || lh == nil {
		return nil, mapping.ErrForeignHandle
	}
	if lh.Destroyed() {
		return nil, mapping.ErrHandleDestroyed
	}
	return lh, nil
}

func (a *Adapter) Destroy(h mapping.Handle) error {
	lh, ok := h.(*handle)
	if !ok || lh == nil {
		return mapping.ErrForeignHandle
	}

	lh.mu.Lock()
	if lh.destroyed {
		lh.mu.Unlock()
		return nil
	}
	lh.destroyed = true
	lh.mu.Unlock()

	a.mu.Lock()
	if a.maps[lh.surface.ID] == lh {
		delete(a.maps, lh.surface.ID)
	}
	a.mu.Unlock()

	return mapping.Guard(a.logger, ProviderName, "remove_map", lh.surface.ID, func() error {
		if err := a.native.Remove(lh.ref); err != nil && !errors.Is(err, ErrUnknownMap) {
			return err
		}
		return nil
	})
}

func (a *Adapter) AddMarker(h mapping.Handle, spec mapping.MarkerSpec, onSelect func()) (*mapping.MarkerHandle, error) {
	lh, err := a.resolve(h)
	if err != nil {
		return nil, err
	}

	var id MarkerID
	err = mapping.Guard(a.logger, ProviderName, "add", spec.ID, func() error {
		var err error
		id, err = a.native.AddMarker(lh.ref, markerFor(spec, onSelect))
		return err
	})
	if err != nil {
		return nil, err
	}
	return &mapping.MarkerHandle{ID: spec.ID, Native: id, OnSelect: onSelect}, nil
}

func (a *Adapter) RemoveMarker(h mapping.Handle, m *mapping.MarkerHandle) error {
	if m == nil {
		return nil
	}
	lh, err := a.resolve(h)
	if errors.Is(err, mapping.ErrHandleDestroyed) {
		return nil
	}
	if err != nil {
		return err
	}
	id, ok := m.Native.(MarkerID)
	if !ok {
		return &mapping.MarkerOperationError{Provider: ProviderName, Op: "remove", ID: m.ID, Err: mapping.ErrForeignHandle}
	}

	return mapping.Guard(a.logger, ProviderName, "remove", m.ID, func() error {
		if err := a.native.RemoveMarker(lh.ref, id); err != nil && !errors.Is(err, ErrUnknownMarker) {
			return err
		}
		return nil
	})
}

// SetRegion fits coords and sets the view to the region center at the
// deepest zoom showing the whole region in the surface viewport.
func (a *Adapter) SetRegion(h mapping.Handle, coords []mapping.Coordinate) error {
	lh, err := a.resolve(h)
	if err != nil {
		return err
	}
	r, ok := geo.FitRegion(coords, a.opts.Fit)
	if !ok {
		return nil
	}
	zoom := geo.ZoomForRegion(r, lh.surface.Width, lh.surface.Height)
	return mapping.Guard(a.logger, ProviderName, "region", "", func() error {
		return a.native.SetView(lh.ref, r.Center, zoom)
	})
}

func (a *Adapter) CenterOn(h mapping.Handle, c mapping.Coordinate, zoom float64) error {
	lh, err := a.resolve(h)
	if err != nil {
		return err
	}
	if zoom > geo.MaxZoom {
		zoom = geo.MaxZoom
	}
	return mapping.Guard(a.logger, ProviderName, "center", "", func() error {
		return a.native.SetView(lh.ref, c, zoom)
	})
}
