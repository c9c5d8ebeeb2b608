// Package feed folds a live stream of entity changes into the authoritative
// entity list.
//
// A Source is the transport (see package source for Postgres LISTEN, NATS,
// AMQP, WebSocket and in-memory implementations). A Subscriber decodes the
// raw postgres-changes documents into mapping.Delta values and applies
// eligibility: an insert or update of an entity that is inactive or has no
// usable coordinates becomes a delete. Deletes always pass.
//
// Store holds the list the map is reconciled against. Deltas are applied in
// arrival order; Snapshot returns the list sorted by id.
//
// Transport failures are reported through the OnError callback and leave the
// last known list in place.
package feed
