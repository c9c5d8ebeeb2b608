package leaflet_test

import (
	"context"
	"errors"
	"testing"

	"service-map/core/geo"
	"service-map/core/mapping"
	"service-map/feature/leaflet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var surface = mapping.Surface{ID: "main", Width: 390, Height: 844}

func newAdapter(t *testing.T) (*leaflet.Adapter, *leaflet.MemoryMap, mapping.Handle) {
	t.Helper()
	native := leaflet.NewMemoryMap()
	a := leaflet.New(native, leaflet.Options{
		Fit:         geo.FitOptions{Padding: 0.2, MinSpan: 0.01},
		InitialZoom: 12,
	}, zap.NewNop())
	h, err := a.Initialize(context.Background(), surface, mapping.Coordinate{Latitude: 40.4, Longitude: -3.7})
	require.NoError(t, err)
	return a, native, h
}

func TestAdapter_Lifecycle(t *testing.T) {
	a, native, h := newAdapter(t)
	assert.Equal(t, "leaflet", a.Name())
	assert.Equal(t, leaflet.DefaultTileURL, native.TileURL("main"))

	view, ok := native.View("main")
	require.True(t, ok)
	assert.Equal(t, 12.0, view.Zoom)

	again, err := a.Initialize(context.Background(), surface, mapping.Coordinate{})
	require.NoError(t, err)
	assert.Same(t, h, again)

	require.NoError(t, a.Destroy(h))
	require.NoError(t, a.Destroy(h))
	assert.Equal(t, 0, native.Maps())

	_, err = a.AddMarker(h, mapping.MarkerSpec{ID: "1"}, nil)
	assert.ErrorIs(t, err, mapping.ErrHandleDestroyed)
}

func TestAdapter_Markers(t *testing.T) {
	a, native, h := newAdapter(t)

	var clicked []string
	c := mapping.Coordinate{Latitude: 40.42, Longitude: -3.69}
	m, err := a.AddMarker(h, mapping.MarkerSpec{
		ID:         "7",
		Coordinate: c,
		Title:      "Luis",
		Subtitle:   "Electrician",
		Media:      &mapping.Media{Kind: mapping.MediaVideo, URL: "https://cdn/luis.mp4"},
	}, func() { clicked = append(clicked, "7") })
	require.NoError(t, err)

	markers := native.Markers()
	require.Len(t, markers, 1)
	assert.Equal(t, "Luis · Electrician", markers[0].Popup)
	assert.Empty(t, markers[0].IconURL, "videos are not used as icons")

	assert.True(t, native.Click(c))
	assert.Equal(t, []string{"7"}, clicked)

	require.NoError(t, a.RemoveMarker(h, m))
	require.NoError(t, a.RemoveMarker(h, m))
	assert.Empty(t, native.Markers())
}

func TestAdapter_RegionToZoom(t *testing.T) {
	a, native, h := newAdapter(t)

	require.NoError(t, a.SetRegion(h, []mapping.Coordinate{
		{Latitude: 40.0, Longitude: -4.0},
		{Latitude: 41.0, Longitude: -3.0},
	}))
	wide, ok := native.View("main")
	require.True(t, ok)
	assert.InDelta(t, 40.5, wide.Center.Latitude, 1e-9)
	assert.Equal(t, 8.0, wide.Zoom)

	require.NoError(t, a.SetRegion(h, []mapping.Coordinate{
		{Latitude: 40.41, Longitude: -3.71},
		{Latitude: 40.42, Longitude: -3.70},
	}))
	narrow, _ := native.View("main")
	assert.Greater(t, narrow.Zoom, wide.Zoom)

	require.NoError(t, a.CenterOn(h, mapping.Coordinate{Latitude: 1, Longitude: 2}, 30))
	view, _ := native.View("main")
	assert.Equal(t, geo.MaxZoom, view.Zoom)
}

func TestAdapter_FailuresAreContained(t *testing.T) {
	a, native, h := newAdapter(t)
	native.SetHook(func(op string) error {
		switch op {
		case "remove":
			panic("layer already detached")
		case "view":
			return errors.New("map container gone")
		}
		return nil
	})

	m, err := a.AddMarker(h, mapping.MarkerSpec{ID: "1", Title: "a"}, nil)
	require.NoError(t, err)

	var moe *mapping.MarkerOperationError
	assert.NotPanics(t, func() { err = a.RemoveMarker(h, m) })
	require.ErrorAs(t, err, &moe)
	assert.Equal(t, "remove", moe.Op)

	err = a.CenterOn(h, mapping.Coordinate{}, 10)
	require.ErrorAs(t, err, &moe)
	assert.Equal(t, "center", moe.Op)
}
