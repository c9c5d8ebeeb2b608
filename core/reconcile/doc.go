// Package reconcile keeps a native marker collection in line with a target
// entity list with minimal churn.
//
// # Planning
//
// BuildPlan computes the symmetric difference between the keys currently on
// the map and the target ids (plus mapping.SelfID when a position is known).
// Keys on both sides get no native call, so an update that moves an existing
// entity does not rebuild its marker. Removes come first, then adds, each
// sorted by key.
//
// # Applying
//
// A Reconciler owns no markers itself; it records them in the session's
// Arena. Each pass removes, then adds, then fits the view: SetRegion over the
// entity coordinates when any entity is present, otherwise CenterOn the
// viewer. A failure on one marker is logged and the pass continues.
//
// Passes are serialized per reconciler. Requests arriving during a pass are
// coalesced so only the latest one is applied when the pass ends. Stop drops
// the queued target and waits for the running pass.
//
// # Metrics
//
// Passes and marker mutations are counted through the global OpenTelemetry
// meter (servicemap.reconcile.passes, servicemap.markers.added,
// servicemap.markers.removed).
package reconcile
