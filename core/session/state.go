package session

import "errors"

// State is a session's readiness.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Live reports whether the session holds or is acquiring a map surface.
func (s State) Live() bool {
	return s == StateInitializing || s == StateReady
}

var (
	// ErrDestroyed is returned by operations on a torn down session.
	ErrDestroyed = errors.New("map session destroyed")
	// ErrNotReady is returned by operations that need a Ready session.
	ErrNotReady = errors.New("map session not ready")
	// ErrNoAdapter is returned when a session is created without an adapter.
	ErrNoAdapter = errors.New("map session requires an adapter")
)
