package geo

import (
	"math"

	"service-map/core/mapping"

	"github.com/wroge/wgs84"
)

const (
	// tileSize is the pixel size of one slippy-map tile.
	tileSize = 256.0
	// earthCircumference is the EPSG:3857 world width in meters.
	earthCircumference = 40075016.685578488
	// MaxZoom is the deepest zoom level tile maps serve.
	MaxZoom = 19.0
)

// toWebMercator converts longitude/latitude to EPSG:3857 meters.
var toWebMercator = wgs84.EPSG().Transform(4326, 3857)

// Project converts a WGS84 coordinate to Web Mercator (EPSG:3857) meters.
func Project(c mapping.Coordinate) (x, y float64) {
	x, y, _ = toWebMercator(c.Longitude, c.Latitude, 0)
	return x, y
}

// ZoomForRegion returns the largest integer zoom at which region fits in a
// viewport of width x height pixels.
func ZoomForRegion(r Region, width, height int) float64 {
	if width <= 0 || height <= 0 {
		return 0
	}

	half := mapping.Coordinate{Latitude: r.LatitudeDelta / 2, Longitude: r.LongitudeDelta / 2}
	swX, swY := Project(mapping.Coordinate{
		Latitude:  clamp(r.Center.Latitude-half.Latitude, -85.05112878, 85.05112878),
		Longitude: r.Center.Longitude - half.Longitude,
	})
	neX, neY := Project(mapping.Coordinate{
		Latitude:  clamp(r.Center.Latitude+half.Latitude, -85.05112878, 85.05112878),
		Longitude: r.Center.Longitude + half.Longitude,
	})

	spanX := math.Abs(neX - swX)
	spanY := math.Abs(neY - swY)
	if spanX == 0 && spanY == 0 {
		return MaxZoom
	}

	zoomX := MaxZoom
	if spanX > 0 {
		zoomX = math.Log2(float64(width) * earthCircumference / (tileSize * spanX))
	}
	zoomY := MaxZoom
	if spanY > 0 {
		zoomY = math.Log2(float64(height) * earthCircumference / (tileSize * spanY))
	}

	return clamp(math.Floor(math.Min(zoomX, zoomY)), 0, MaxZoom)
}
