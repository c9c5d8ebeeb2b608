package leaflet

import (
	"errors"
	"fmt"

	"service-map/core/mapping"
)

// ProviderName is the adapter name.
const ProviderName = "leaflet"

// DefaultTileURL is the slippy-map tile template used when none is configured.
const DefaultTileURL = "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"

var (
	ErrUnknownMap    = errors.New("unknown native map")
	ErrUnknownMarker = errors.New("unknown native marker")
)

// MapID references one native map.
type MapID string

// MarkerID references one native marker layer.
type MarkerID string

// MapOptions configure a new native map.
type MapOptions struct {
	Center  mapping.Coordinate
	Zoom    float64
	TileURL string
}

// Marker is the native marker layer description.
type Marker struct {
	Coordinate mapping.Coordinate
	// Popup is the HTML-free popup text.
	Popup   string
	IconURL string
	Self    bool
	OnClick func()
}

// Native is the tile library boundary the adapter drives.
type Native interface {
	NewMap(surface mapping.Surface, opts MapOptions) (MapID, error)
	AddMarker(m MapID, marker Marker) (MarkerID, error)
	RemoveMarker(m MapID, id MarkerID) error
	SetView(m MapID, center mapping.Coordinate, zoom float64) error
	Remove(m MapID) error
}

func markerFor(spec mapping.MarkerSpec, onClick func()) Marker {
	m := Marker{
		Coordinate: spec.Coordinate,
		Popup:      spec.Title,
		Self:       spec.Self,
		OnClick:    onClick,
	}
	if spec.Subtitle != "" {
		m.Popup = fmt.Sprintf("%s · %s", spec.Title, spec.Subtitle)
	}
	if spec.Media != nil && spec.Media.Kind == mapping.MediaImage {
		m.IconURL = spec.Media.URL
	}
	return m
}
