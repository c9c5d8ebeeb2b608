// Package session ties one map surface to its provider adapter, SDK lease,
// entity list, live feed and viewer position.
//
// A Session moves through Uninitialized, Initializing, Ready and Destroyed.
// Initialize loads the SDK, creates the native map, seeds the entity list and
// only then publishes Ready, subscribes to the feed and requests a position.
// A failed initialization returns to Uninitialized with a classified
// *sdk.InitError and may be retried. Teardown is idempotent and leaves no
// marker, subscription or SDK reference behind; an initialization that
// finishes after teardown releases what it built instead of resurrecting the
// session.
//
// Feed failures never destroy a Ready session: it keeps its last list and
// reports the failure through Degraded.
package session
