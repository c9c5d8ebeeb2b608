package mapping

import "context"

// Handle is the provider-specific reference to one initialized native map.
type Handle interface {
	// Provider returns the name of the adapter that created the handle.
	Provider() string
	// SurfaceID returns the surface the map is bound to.
	SurfaceID() string
	// Destroyed reports whether the native map has been released.
	Destroyed() bool
}

// Adapter defines the capability set every concrete map provider implements.
// The session logic is shared; callers choose a variant (e.g. mapkit, leaflet).
type Adapter interface {
	// Name returns the unique provider name (e.g. "mapkit", "leaflet").
	Name() string

	// Initialize creates the native map bound to the surface.
	// Calling it again for a live surface returns the existing handle.
	Initialize(ctx context.Context, surface Surface, center Coordinate) (Handle, error)

	// Destroy releases every native resource of the map. It is idempotent.
	Destroy(h Handle) error

	// AddMarker creates one native marker and wires its tap event to onSelect.
	AddMarker(h Handle, spec MarkerSpec, onSelect func()) (*MarkerHandle, error)

	// RemoveMarker removes and releases one native marker. It is idempotent.
	RemoveMarker(h Handle, m *MarkerHandle) error

	// SetRegion fits the visible region around the coordinates, padded
	// proportionally and never tighter than the configured minimum span.
	SetRegion(h Handle, coords []Coordinate) error

	// CenterOn animates the view center to the coordinate.
	CenterOn(h Handle, c Coordinate, zoom float64) error
}
