package reconcile

import (
	"sync"

	"service-map/core/mapping"

	"go.uber.org/zap"
)

// Reconciler keeps one session's marker collection in line with a target
// entity list. Passes are serialized: a request arriving while a pass runs is
// queued, and only the latest queued request is applied once the pass ends.
type Reconciler struct {
	adapter mapping.Adapter
	handle  mapping.Handle
	arena   *Arena
	opts    Options
	logger  *zap.Logger
	metrics *metrics

	mu      sync.Mutex
	idle    *sync.Cond
	running bool
	pending func() Target
	stopped bool
	passes  int

	// selfAt is where the self marker was placed. Only the pass driver touches it.
	selfAt *mapping.Coordinate
}

// New creates a reconciler driving adapter on handle and recording markers in arena.
func New(adapter mapping.Adapter, handle mapping.Handle, arena *Arena, opts Options, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Reconciler{
		adapter: adapter,
		handle:  handle,
		arena:   arena,
		opts:    opts,
		logger:  logger.With(zap.String("provider", adapter.Name())),
	}
	r.metrics = newMetrics(r.logger)
	r.idle = sync.NewCond(&r.mu)
	return r
}

// Reconcile requests a pass towards target. The first caller drives passes
// until nothing is queued; callers arriving meanwhile only queue theirs and
// return immediately. After Stop it does nothing.
func (r *Reconciler) Reconcile(target Target) {
	r.request(func() Target { return target })
}

// Refresh requests a pass towards the target reported by Options.Source.
// The source is read as the pass starts, so the last pass always reflects
// the state as of the last request. Without a source it does nothing.
func (r *Reconciler) Refresh() {
	if r.opts.Source == nil {
		return
	}
	r.request(r.opts.Source)
}

func (r *Reconciler) request(next func() Target) {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	if r.running {
		r.pending = next
		r.mu.Unlock()
		return
	}
	r.running = true
	r.mu.Unlock()

	for {
		r.apply(next())

		r.mu.Lock()
		if r.pending == nil || r.stopped {
			r.pending = nil
			r.running = false
			r.idle.Broadcast()
			r.mu.Unlock()
			return
		}
		next = r.pending
		r.pending = nil
		r.mu.Unlock()
	}
}

// Stop drops any queued target, waits for the running pass to end and
// rejects further passes.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	r.pending = nil
	for r.running {
		r.idle.Wait()
	}
}

// Clear removes every marker in the arena. Failures are logged and the marker
// is dropped anyway, so the arena is always empty afterwards.
func (r *Reconciler) Clear() {
	r.mu.Lock()
	for r.running {
		r.idle.Wait()
	}
	r.running = true
	r.mu.Unlock()

	removed := 0
	for _, key := range r.arena.Keys() {
		h, ok := r.arena.Get(key)
		if !ok {
			continue
		}
		if err := r.adapter.RemoveMarker(r.handle, h); err != nil {
			r.logger.Warn("Failed to remove marker on clear", zap.String("key", key), zap.Error(err))
		} else {
			removed++
		}
		r.arena.drop(key)
	}
	r.selfAt = nil
	r.metrics.recordRemoved(r.adapter.Name(), removed)

	r.mu.Lock()
	r.running = false
	r.idle.Broadcast()
	r.mu.Unlock()
}

// Passes returns the number of passes applied so far.
func (r *Reconciler) Passes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.passes
}

func (r *Reconciler) isStopped() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopped
}

// apply runs one pass. Errors from single markers are logged and skipped.
func (r *Reconciler) apply(target Target) {
	plan := r.plan(target)

	added, removed := 0, 0
	for _, action := range plan.Actions {
		if r.isStopped() {
			r.logger.Debug("Reconcile pass abandoned")
			return
		}

		switch action.Type {
		case ActionRemoveMarker:
			h, ok := r.arena.Get(action.Key)
			if !ok {
				continue
			}
			if err := r.adapter.RemoveMarker(r.handle, h); err != nil {
				r.logger.Warn("Failed to remove marker", zap.String("key", action.Key), zap.Error(err))
			} else {
				removed++
			}
			r.arena.drop(action.Key)
			if action.Key == mapping.SelfID {
				r.selfAt = nil
			}

		case ActionAddMarker:
			h, err := r.adapter.AddMarker(r.handle, action.Marker, r.selectFunc(action.Key))
			if err != nil {
				r.logger.Warn("Failed to add marker", zap.String("key", action.Key), zap.Error(err))
				continue
			}
			r.arena.put(h)
			added++
			if action.Key == mapping.SelfID {
				at := action.Marker.Coordinate
				r.selfAt = &at
			}
		}
	}

	if r.isStopped() {
		return
	}
	switch {
	case len(plan.Region) > 0:
		if err := r.adapter.SetRegion(r.handle, plan.Region); err != nil {
			r.logger.Warn("Failed to fit region", zap.Error(err))
		}
	case plan.Self != nil:
		if err := r.adapter.CenterOn(r.handle, plan.Self.Coordinate, r.opts.SelfZoom); err != nil {
			r.logger.Warn("Failed to center on position", zap.Error(err))
		}
	}

	r.mu.Lock()
	r.passes++
	r.mu.Unlock()
	r.metrics.record(r.adapter.Name(), added, removed)

	r.logger.Debug("Reconcile pass applied",
		zap.Int("current", plan.Summary.Current),
		zap.Int("target", plan.Summary.Target),
		zap.Int("added", added),
		zap.Int("removed", removed),
		zap.Int("kept", plan.Summary.Kept),
	)
}

// plan builds the pass plan. A self marker whose position was superseded is
// replaced, since kept keys otherwise get no native call.
func (r *Reconciler) plan(target Target) *Plan {
	plan := BuildPlan(r.arena.Keys(), target)
	if plan.Self == nil || r.selfAt == nil || *r.selfAt == plan.Self.Coordinate {
		return plan
	}
	if _, ok := r.arena.Get(mapping.SelfID); !ok {
		return plan
	}

	actions := make([]Action, 0, len(plan.Actions)+2)
	actions = append(actions, Action{Type: ActionRemoveMarker, Key: mapping.SelfID, Reason: "position superseded"})
	actions = append(actions, plan.Actions...)
	actions = append(actions, Action{
		Type:   ActionAddMarker,
		Key:    mapping.SelfID,
		Reason: "position superseded",
		Marker: mapping.MarkerForSelf(*plan.Self),
	})
	plan.Actions = actions
	plan.Summary.Adds++
	plan.Summary.Removes++
	plan.Summary.Kept--
	return plan
}

func (r *Reconciler) selectFunc(key string) func() {
	return func() {
		if r.opts.OnSelect != nil {
			r.opts.OnSelect(key)
		}
	}
}
