// Package geo provides the viewport math shared by map adapters.
//
// FitRegion derives a padded center/span region from a set of coordinates,
// flooring the span so coincident points never zoom in to street level.
// ZoomForRegion converts a region to a slippy-map zoom level through the Web
// Mercator projection for tile-based providers.
package geo
