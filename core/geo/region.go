package geo

import (
	"math"

	"service-map/core/mapping"

	"github.com/peterstace/simplefeatures/geom"
)

// Region is a visible map area expressed as a center and a span in degrees.
type Region struct {
	Center         mapping.Coordinate `json:"center"`
	LatitudeDelta  float64            `json:"latitude_delta"`
	LongitudeDelta float64            `json:"longitude_delta"`
}

// FitOptions controls region fitting.
type FitOptions struct {
	// Padding is the proportional margin added on each side (0.2 = 20%).
	Padding float64
	// MinSpan is the minimum latitude/longitude delta in degrees.
	MinSpan float64
}

const (
	defaultMinSpan = 0.01
	maxLatSpan     = 180.0
	maxLonSpan     = 360.0
)

// Bounds returns the south-west and north-east corners enclosing coords.
// ok is false when no valid coordinate is given.
func Bounds(coords []mapping.Coordinate) (sw, ne mapping.Coordinate, ok bool) {
	points := make([]geom.Point, 0, len(coords))
	for _, c := range coords {
		if !c.Valid() {
			continue
		}
		pt, err := geom.NewPoint(geom.Coordinates{
			XY:   geom.XY{X: c.Longitude, Y: c.Latitude},
			Type: geom.DimXY,
		})
		if err != nil {
			continue
		}
		points = append(points, pt)
	}
	if len(points) == 0 {
		return sw, ne, false
	}

	env := geom.NewMultiPoint(points).Envelope()
	lo, hi, ok := env.MinMaxXYs()
	if !ok {
		return sw, ne, false
	}
	sw = mapping.Coordinate{Latitude: lo.Y, Longitude: lo.X}
	ne = mapping.Coordinate{Latitude: hi.Y, Longitude: hi.X}
	return sw, ne, true
}

// FitRegion computes the region covering coords with proportional padding.
// When every point coincides (or nearly so) the span is floored at MinSpan.
func FitRegion(coords []mapping.Coordinate, opts FitOptions) (Region, bool) {
	sw, ne, ok := Bounds(coords)
	if !ok {
		return Region{}, false
	}

	minSpan := opts.MinSpan
	if minSpan <= 0 {
		minSpan = defaultMinSpan
	}
	padding := opts.Padding
	if padding < 0 {
		padding = 0
	}

	latSpan := (ne.Latitude - sw.Latitude) * (1 + 2*padding)
	lonSpan := (ne.Longitude - sw.Longitude) * (1 + 2*padding)

	return Region{
		Center: mapping.Coordinate{
			Latitude:  (sw.Latitude + ne.Latitude) / 2,
			Longitude: (sw.Longitude + ne.Longitude) / 2,
		},
		LatitudeDelta:  clamp(latSpan, minSpan, maxLatSpan),
		LongitudeDelta: clamp(lonSpan, minSpan, maxLonSpan),
	}, true
}

// SpanForZoom converts a tile zoom level into a longitude span in degrees.
func SpanForZoom(zoom float64) float64 {
	if zoom < 0 {
		zoom = 0
	}
	return maxLonSpan / math.Pow(2, zoom)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
