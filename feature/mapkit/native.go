package mapkit

import (
	"errors"

	"service-map/core/mapping"
)

// ProviderName is the adapter and SDK registry name.
const ProviderName = "mapkit"

// ErrUnknownMap and ErrUnknownAnnotation are returned by natives for stale references.
var (
	ErrUnknownMap        = errors.New("unknown native map")
	ErrUnknownAnnotation = errors.New("unknown native annotation")
)

// MapID references one native map.
type MapID string

// AnnotationID references one native annotation.
type AnnotationID string

// Annotation is the native marker description.
type Annotation struct {
	Coordinate mapping.Coordinate
	Title      string
	Subtitle   string
	// GlyphURL is the image or clip shown in the callout, if any.
	GlyphURL string
	// Color tints the annotation.
	Color string
	// OnSelect is invoked when the annotation is tapped.
	OnSelect func()
}

// Native is the SDK boundary the adapter drives.
type Native interface {
	NewMap(surface mapping.Surface, center mapping.Coordinate) (MapID, error)
	AddAnnotation(m MapID, a Annotation) (AnnotationID, error)
	RemoveAnnotation(m MapID, id AnnotationID) error
	SetRegion(m MapID, center mapping.Coordinate, latDelta, lonDelta float64) error
	SetCenter(m MapID, center mapping.Coordinate) error
	Destroy(m MapID) error
}

const (
	colorSelf     = "#007AFF"
	colorProvider = "#FF3B30"
)

func annotationFor(spec mapping.MarkerSpec, onSelect func()) Annotation {
	a := Annotation{
		Coordinate: spec.Coordinate,
		Title:      spec.Title,
		Subtitle:   spec.Subtitle,
		Color:      colorProvider,
		OnSelect:   onSelect,
	}
	if spec.Self {
		a.Color = colorSelf
	}
	if spec.Media != nil {
		a.GlyphURL = spec.Media.URL
	}
	return a
}
