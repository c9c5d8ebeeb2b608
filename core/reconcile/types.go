package reconcile

import "service-map/core/mapping"

// ActionType represents the type of marker mutation.
type ActionType string

const (
	// ActionAddMarker creates a native marker for a key missing from the map.
	ActionAddMarker ActionType = "add_marker"
	// ActionRemoveMarker releases a native marker whose key left the target.
	ActionRemoveMarker ActionType = "remove_marker"
)

// Action represents a planned marker mutation.
type Action struct {
	// Type specifies the mutation to perform.
	Type ActionType `json:"type"`

	// Key is the entity id or mapping.SelfID.
	Key string `json:"key"`

	// Reason explains why this action is needed.
	Reason string `json:"reason"`

	// Marker describes the marker to create. Only populated for ActionAddMarker.
	Marker mapping.MarkerSpec `json:"-"`
}

// Target is the desired content of a marker collection.
type Target struct {
	// Entities is the authoritative entity list.
	Entities []mapping.Entity

	// Self is the viewer's position, if known.
	Self *mapping.Position
}

// Plan contains the actions that turn the current marker set into the target.
type Plan struct {
	// Actions are ordered removes first, then adds, each sorted by key.
	Actions []Action `json:"actions"`

	// Region holds the coordinates of every target entity, for fitting the view.
	Region []mapping.Coordinate `json:"region"`

	// Self is carried over from the target for centering.
	Self *mapping.Position `json:"self,omitempty"`

	// Summary provides aggregate counts.
	Summary PlanSummary `json:"summary"`
}

// PlanSummary provides aggregate statistics for a plan.
type PlanSummary struct {
	// Current is the number of markers before the pass.
	Current int `json:"current"`

	// Target is the number of markers wanted after the pass.
	Target int `json:"target"`

	// Adds counts planned marker creations.
	Adds int `json:"adds"`

	// Removes counts planned marker removals.
	Removes int `json:"removes"`

	// Kept counts markers left untouched.
	Kept int `json:"kept"`
}

// Options tune a Reconciler.
type Options struct {
	// OnSelect receives the key of a tapped marker.
	OnSelect func(key string)

	// SelfZoom is the zoom used when centering on the viewer alone.
	SelfZoom float64

	// Source reports the current target. Refresh reads it when a pass
	// starts, never earlier.
	Source func() Target
}
