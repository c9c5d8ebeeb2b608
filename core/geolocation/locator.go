package geolocation

import (
	"context"
	"time"

	"service-map/core/mapping"
)

// Options tune a single position request.
type Options struct {
	HighAccuracy bool
	// Timeout bounds the request; zero means DefaultTimeout.
	Timeout time.Duration
	// MaxCacheAge allows returning a cached fix up to this age.
	MaxCacheAge time.Duration
}

// Locator is the device positioning boundary.
type Locator interface {
	Locate(ctx context.Context, opts Options) (mapping.Position, error)
}

// LocatorFunc adapts a function to the Locator interface.
type LocatorFunc func(ctx context.Context, opts Options) (mapping.Position, error)

// Locate calls f.
func (f LocatorFunc) Locate(ctx context.Context, opts Options) (mapping.Position, error) {
	return f(ctx, opts)
}

// StaticLocator always reports the same coordinate.
type StaticLocator struct {
	Coordinate mapping.Coordinate
	Accuracy   *float64
}

// Locate returns the fixed coordinate stamped with the current time.
func (l StaticLocator) Locate(ctx context.Context, opts Options) (mapping.Position, error) {
	if !l.Coordinate.Valid() {
		return mapping.Position{}, ErrUnavailable
	}
	return mapping.Position{
		Coordinate: l.Coordinate,
		Accuracy:   l.Accuracy,
		CapturedAt: time.Now(),
	}, nil
}
