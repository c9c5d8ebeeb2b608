// Package discovery implements the provider discovery map feature.
//
// It owns the map session of one surface and exposes it over HTTP. The
// initial provider snapshot comes from the providers table through GORM;
// live changes arrive through the configured feed.
//
// # Components
//
//   - Repository: Loads the provider snapshot and verifies the table schema.
//   - Service: Opens, initializes, resets and queries the surface session.
//   - Handler: Exposes the HTTP endpoints.
//   - Loader: Registers the feature with the application.
//
// # HTTP Endpoints
//
//   - GET /map/session : Session state, failure reason and feed health.
//   - POST /map/session/reset : Tear down and start a new session.
//   - GET /map/markers : Marker keys on the map.
//   - POST /map/markers/:id/select : Tap a marker and get its entity.
//   - GET /map/entities : Providers shown on the map.
//   - POST /map/locate : Locate the viewer and place the self marker.
package discovery
