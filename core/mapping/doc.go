// Package mapping defines the provider-independent map model.
//
// It holds the entity, position and delta types shared by the engine, the
// Adapter interface every concrete map provider implements, and Guard, which
// turns a failing or panicking native call into a logged
// MarkerOperationError so one bad marker never aborts a reconciliation pass.
//
// # Providers
//
// Concrete adapters live in feature packages:
//   - feature/mapkit: script-SDK annotation map (requires an SDK lease).
//   - feature/leaflet: tile-library marker map.
package mapping
