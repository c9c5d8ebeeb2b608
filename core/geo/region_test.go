package geo

import (
	"math"
	"testing"

	"service-map/core/mapping"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitRegion_MinimumSpanFloor(t *testing.T) {
	coords := []mapping.Coordinate{
		{Latitude: 0, Longitude: 0},
		{Latitude: 0.0001, Longitude: 0},
	}

	region, ok := FitRegion(coords, FitOptions{Padding: 0.2, MinSpan: 0.01})
	require.True(t, ok)

	assert.Equal(t, 0.01, region.LatitudeDelta)
	assert.Equal(t, 0.01, region.LongitudeDelta)
	assert.InDelta(t, 0.00005, region.Center.Latitude, 1e-12)
	assert.InDelta(t, 0, region.Center.Longitude, 1e-12)
}

func TestFitRegion_ProportionalPadding(t *testing.T) {
	coords := []mapping.Coordinate{
		{Latitude: 0, Longitude: 0},
		{Latitude: 1, Longitude: 1},
		{Latitude: 2, Longitude: 2},
	}

	region, ok := FitRegion(coords, FitOptions{Padding: 0.25, MinSpan: 0.01})
	require.True(t, ok)

	// span 2 degrees, padded 25% per side
	assert.InDelta(t, 3.0, region.LatitudeDelta, 1e-9)
	assert.InDelta(t, 3.0, region.LongitudeDelta, 1e-9)
	assert.InDelta(t, 1.0, region.Center.Latitude, 1e-9)
	assert.InDelta(t, 1.0, region.Center.Longitude, 1e-9)
}

func TestFitRegion_SkipsInvalidCoordinates(t *testing.T) {
	coords := []mapping.Coordinate{
		{Latitude: math.NaN(), Longitude: 3},
		{Latitude: 95, Longitude: 3},
		{Latitude: 10, Longitude: 20},
	}

	region, ok := FitRegion(coords, FitOptions{MinSpan: 0.05})
	require.True(t, ok)
	assert.Equal(t, mapping.Coordinate{Latitude: 10, Longitude: 20}, region.Center)
	assert.Equal(t, 0.05, region.LatitudeDelta)
}

func TestBounds(t *testing.T) {
	sw, ne, ok := Bounds([]mapping.Coordinate{
		{Latitude: 40.45, Longitude: -3.68},
		{Latitude: 40.41, Longitude: -3.70},
		{Latitude: math.Inf(1), Longitude: 0},
		{Latitude: 40.43, Longitude: -3.75},
	})
	require.True(t, ok)
	assert.Equal(t, mapping.Coordinate{Latitude: 40.41, Longitude: -3.75}, sw)
	assert.Equal(t, mapping.Coordinate{Latitude: 40.45, Longitude: -3.68}, ne)

	_, _, ok = Bounds([]mapping.Coordinate{{Latitude: math.NaN(), Longitude: 1}})
	assert.False(t, ok)
}

func TestFitRegion_Empty(t *testing.T) {
	_, ok := FitRegion(nil, FitOptions{})
	assert.False(t, ok)
}

func TestFitRegion_DefaultMinSpan(t *testing.T) {
	region, ok := FitRegion([]mapping.Coordinate{{Latitude: 5, Longitude: 5}}, FitOptions{})
	require.True(t, ok)
	assert.Equal(t, defaultMinSpan, region.LatitudeDelta)
}

func TestSpanForZoom(t *testing.T) {
	assert.Equal(t, 360.0, SpanForZoom(0))
	assert.Equal(t, 180.0, SpanForZoom(1))
	assert.Equal(t, 360.0, SpanForZoom(-3))
}
