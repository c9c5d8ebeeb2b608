package mapkit

import (
	"context"
	"errors"
	"sync"

	"service-map/core/geo"
	"service-map/core/mapping"

	"go.uber.org/zap"
)

// handle is the mapkit map reference handed to sessions.
type handle struct {
	surface string
	ref     MapID

	mu        sync.Mutex
	destroyed bool
}

func (h *handle) Provider() string  { return ProviderName }
func (h *handle) SurfaceID() string { return h.surface }

func (h *handle) Destroyed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.destroyed
}

// Adapter drives a mapkit Native.
type Adapter struct {
	native Native
	fit    geo.FitOptions
	logger *zap.Logger

	mu   sync.Mutex
	maps map[string]*handle
}

// New creates a mapkit adapter.
func New(native Native, fit geo.FitOptions, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{
		native: native,
		fit:    fit,
		logger: logger.With(zap.String("provider", ProviderName)),
		maps:   make(map[string]*handle),
	}
}

func (a *Adapter) Name() string { return ProviderName }

// Initialize creates the map for surface, or returns the live one already bound to it.
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
		ref, err = a.native.NewMap(surface, center)
		return err
	})
	if err != nil {
		return nil, err
	}

	h := &handle{surface: surface.ID, ref: ref}
	a.maps[surface.ID] = h
	a.logger.Debug("Map created", zap.String("surface", surface.ID), zap.String("map", string(ref)))
	return h, nil
}

func (a *Adapter) resolve(h mapping.Handle) (*handle, error) {
	mh, ok := h.(*handle)
	if !ok || mh == nil {
		return nil, mapping.ErrForeignHandle
	}
	if mh.Destroyed() {
		return nil, mapping.ErrHandleDestroyed
	}
	return mh, nil
}

// Destroy releases the native map. Destroying twice is a no-op.
func (a *Adapter) Destroy(h mapping.Handle) error {
	mh, ok := h.(*handle)
	if !ok || mh == nil {
		return mapping.ErrForeignHandle
	}

	mh.mu.Lock()
	if mh.destroyed {
		mh.mu.Unlock()
		return nil
	}
	mh.destroyed = true
	mh.mu.Unlock()

	a.mu.Lock()
	if a.maps[mh.surface] == mh {
		delete(a.maps, mh.surface)
	}
	a.mu.Unlock()

	return mapping.Guard(a.logger, ProviderName, "destroy", mh.surface, func() error {
		err := a.native.Destroy(mh.ref)
		if errors.Is(err, ErrUnknownMap) {
			return nil
		}
		return err
	})
}

func (a *Adapter) AddMarker(h mapping.Handle, spec mapping.MarkerSpec, onSelect func()) (*mapping.MarkerHandle, error) {
	mh, err := a.resolve(h)
	if err != nil {
		return nil, err
	}

	var id AnnotationID
	err = mapping.Guard(a.logger, ProviderName, "add", spec.ID, func() error {
		var err error
		id, err = a.native.AddAnnotation(mh.ref, annotationFor(spec, onSelect))
		return err
	})
	if err != nil {
		return nil, err
	}
	return &mapping.MarkerHandle{ID: spec.ID, Native: id, OnSelect: onSelect}, nil
}

// RemoveMarker removes the annotation behind m. Unknown annotations count as removed.
func (a *Adapter) RemoveMarker(h mapping.Handle, m *mapping.MarkerHandle) error {
	if m == nil {
		return nil
	}
	mh, err := a.resolve(h)
	if err != nil {
		if errors.Is(err, mapping.ErrHandleDestroyed) {
			return nil
		}
		return err
	}
	id, ok := m.Native.(AnnotationID)
	if !ok {
		return &mapping.MarkerOperationError{Provider: ProviderName, Op: "remove", ID: m.ID, Err: mapping.ErrForeignHandle}
	}

	return mapping.Guard(a.logger, ProviderName, "remove", m.ID, func() error {
		err := a.native.RemoveAnnotation(mh.ref, id)
		if errors.Is(err, ErrUnknownAnnotation) {
			return nil
		}
		return err
	})
}

// SetRegion fits the visible region around coords. An empty list leaves the view unchanged.
func (a *Adapter) SetRegion(h mapping.Handle, coords []mapping.Coordinate) error {
	mh, err := a.resolve(h)
	if err != nil {
		return err
	}
	r, ok := geo.FitRegion(coords, a.fit)
	if !ok {
		return nil
	}
	return mapping.Guard(a.logger, ProviderName, "region", "", func() error {
		return a.native.SetRegion(mh.ref, r.Center, r.LatitudeDelta, r.LongitudeDelta)
	})
}

// CenterOn moves the view to c. A positive zoom also sets the span it implies.
func (a *Adapter) CenterOn(h mapping.Handle, c mapping.Coordinate, zoom float64) error {
	mh, err := a.resolve(h)
	if err != nil {
		return err
	}
	return mapping.Guard(a.logger, ProviderName, "center", "", func() error {
		if zoom <= 0 {
			return a.native.SetCenter(mh.ref, c)
		}
		span := geo.SpanForZoom(zoom)
		return a.native.SetRegion(mh.ref, c, span/2, span)
	})
}
