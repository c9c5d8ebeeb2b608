// Package leaflet implements the tile-map provider variant.
//
// Tile maps have no span-based region call: fitted regions are projected to
// Web Mercator and turned into the deepest zoom at which they fit the
// surface viewport. No SDK lease is needed.
package leaflet
