package session

import (
	"service-map/core/mapping"

	"go.uber.org/zap"
)

// Dispatcher routes marker taps to the caller as entity selections.
// Taps on the self marker are ignored.
type Dispatcher struct {
	lookup   func(id string) (mapping.Entity, bool)
	onSelect func(mapping.Entity)
	logger   *zap.Logger
}

// NewDispatcher creates a dispatcher resolving tapped keys through lookup.
func NewDispatcher(lookup func(id string) (mapping.Entity, bool), onSelect func(mapping.Entity), logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{lookup: lookup, onSelect: onSelect, logger: logger}
}

// Dispatch forwards the entity behind key. It reports whether a selection
// was delivered.
func (d *Dispatcher) Dispatch(key string) bool {
	if key == mapping.SelfID || d.onSelect == nil {
		return false
	}
	e, ok := d.lookup(key)
	if !ok {
		d.logger.Debug("Tap on unknown marker", zap.String("key", key))
		return false
	}
	d.onSelect(e)
	return true
}
