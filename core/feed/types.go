package feed

import (
	"context"
	"time"

	"service-map/core/mapping"
)

// Change is one raw event delivered by a transport.
type Change struct {
	// Op is the operation when the transport knows it; otherwise it is read
	// from the payload.
	Op string
	// Payload is the JSON change document.
	Payload []byte
	// ReceivedAt is when the transport received the event.
	ReceivedAt time.Time
	// Err reports a subscription-level failure. The transport closes its
	// channel after sending it.
	Err error
}

// Source is a realtime transport for entity changes.
type Source interface {
	// Open starts delivery of changes matching filter.
	Open(ctx context.Context, filter Filter) (<-chan Change, error)
	// Close stops delivery and closes the channel returned by Open.
	// It is safe to call more than once.
	Close() error
}

// Filter selects the changes a subscriber cares about and decides which
// entities are eligible to appear on the map.
type Filter struct {
	// Table restricts changes to one table; empty accepts every table.
	Table string
	// RequireActive excludes entities not flagged active.
	RequireActive bool
}

// Eligible reports whether e may be shown: it needs an id, valid coordinates
// and, when required, the active flag.
func (f Filter) Eligible(e mapping.Entity) bool {
	if e.ID == "" || e.ID == mapping.SelfID || !e.Coordinate.Valid() {
		return false
	}
	return !f.RequireActive || e.Active
}

// Normalize applies eligibility to a decoded delta: an insert or update of an
// ineligible entity becomes a delete. Deletes pass through unchanged.
func (f Filter) Normalize(d mapping.Delta) mapping.Delta {
	if d.Op == mapping.OpDelete || d.Entity == nil {
		return mapping.Delta{Op: mapping.OpDelete, ID: d.ID}
	}
	if !f.Eligible(*d.Entity) {
		return mapping.Delta{Op: mapping.OpDelete, ID: d.ID}
	}
	return d
}

// Select returns the eligible entities of list, preserving order.
func (f Filter) Select(list []mapping.Entity) []mapping.Entity {
	out := make([]mapping.Entity, 0, len(list))
	for _, e := range list {
		if f.Eligible(e) {
			out = append(out, e)
		}
	}
	return out
}
