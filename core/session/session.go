package session

import (
	"context"
	"errors"
	"sync"

	"service-map/core/feed"
	"service-map/core/geolocation"
	"service-map/core/mapping"
	"service-map/core/reconcile"
	"service-map/core/sdk"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Options configure one map session.
type Options struct {
	// Adapter is the map provider variant.
	Adapter mapping.Adapter
	// Surface is the rendering area the map binds to.
	Surface mapping.Surface
	// Center is the initial center hint.
	Center mapping.Coordinate
	// SDK is the script SDK the adapter needs; nil when it needs none.
	SDK *sdk.ProviderConfig
	// Registry tracks SDK loads; nil means sdk.Default.
	Registry *sdk.Registry
	// Geolocation provides the viewer's position; nil disables the self marker.
	Geolocation *geolocation.Source
	// GeoOptions tune the position request made once the session is Ready.
	GeoOptions geolocation.Options
	// Feed delivers live entity changes; nil keeps the seeded list static.
	Feed *feed.Subscriber
	// Filter decides entity eligibility.
	Filter feed.Filter
	// Seed loads the initial entity snapshot.
	Seed func(ctx context.Context) ([]mapping.Entity, error)
	// OnSelect receives entities whose marker was tapped.
	OnSelect func(mapping.Entity)
	// SelfZoom is the zoom used when centering on the viewer alone.
	SelfZoom float64
	// Logger is the base logger.
	Logger *zap.Logger
}

// Session owns one adapter map, its marker collection and the glue between
// SDK bootstrap, the live feed and geolocation.
type Session struct {
	id         string
	opts       Options
	logger     *zap.Logger
	store      *feed.Store
	arena      *reconcile.Arena
	dispatcher *Dispatcher

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	state    State
	err      error
	attempt  uint64
	initDone chan struct{}
	handle   mapping.Handle
	lease    *sdk.Lease
	rec      *reconcile.Reconciler
	self     *mapping.Position
	degraded error
	feedDone chan struct{}
}

// New creates an uninitialized session.
func New(opts Options) (*Session, error) {
	if opts.Adapter == nil {
		return nil, ErrNoAdapter
	}
	if opts.Registry == nil {
		opts.Registry = sdk.Default
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	id := uuid.NewString()
	s := &Session{
		id:    id,
		opts:  opts,
		store: feed.NewStore(),
		arena: reconcile.NewArena(),
		logger: opts.Logger.With(
			zap.String("session", id),
			zap.String("provider", opts.Adapter.Name()),
			zap.String("surface", opts.Surface.ID),
		),
	}
	s.dispatcher = NewDispatcher(s.store.Get, opts.OnSelect, s.logger)
	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Provider returns the adapter name.
func (s *Session) Provider() string { return s.opts.Adapter.Name() }

// Surface returns the bound surface.
func (s *Session) Surface() mapping.Surface { return s.opts.Surface }

// State returns the current readiness state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the classified error of the last failed initialization.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Degraded returns the feed failure that left the entity list stale, if any.
func (s *Session) Degraded() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// Initialize brings the session to Ready. A call while another
// initialization runs waits for that one's outcome. On failure the session
// returns to Uninitialized and the classified error is returned.
func (s *Session) Initialize(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case StateDestroyed:
		s.mu.Unlock()
		return ErrDestroyed
	case StateReady:
		s.mu.Unlock()
		return nil
	case StateInitializing:
		done := s.initDone
		s.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
		return s.outcome()
	}

	s.state = StateInitializing
	s.err = nil
	s.attempt++
	token := s.attempt
	s.initDone = make(chan struct{})
	s.mu.Unlock()

	s.logger.Info("Initializing map session")
	return s.initialize(ctx, token)
}

func (s *Session) outcome() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateReady:
		return nil
	case StateDestroyed:
		return ErrDestroyed
	}
	if s.err != nil {
		return s.err
	}
	return ErrNotReady
}

func (s *Session) initialize(ctx context.Context, token uint64) error {
	var lease *sdk.Lease
	if s.opts.SDK != nil {
		l, err := s.opts.Registry.EnsureLoaded(ctx, *s.opts.SDK)
		if err != nil {
			return s.fail(token, err, nil, nil)
		}
		lease = l
	}

	handle, err := s.opts.Adapter.Initialize(ctx, s.opts.Surface, s.opts.Center)
	if err != nil {
		var ie *sdk.InitError
		if !errors.As(err, &ie) {
			err = &sdk.InitError{Provider: s.opts.Adapter.Name(), Reason: sdk.ReasonAdapterInitFailed, Err: err}
		}
		return s.fail(token, err, lease, nil)
	}

	if s.opts.Seed != nil {
		list, err := s.opts.Seed(ctx)
		if err != nil {
			s.markDegraded(err)
		} else {
			s.store.Seed(s.opts.Filter.Select(list))
		}
	}

	rec := reconcile.New(s.opts.Adapter, handle, s.arena, reconcile.Options{
		OnSelect: func(key string) { s.dispatcher.Dispatch(key) },
		SelfZoom: s.opts.SelfZoom,
		Source:   s.target,
	}, s.logger)

	s.mu.Lock()
	if s.attempt != token || s.state != StateInitializing {
		s.mu.Unlock()
		// Torn down while initializing: nothing was published, undo locally.
		s.release(handle, lease)
		return ErrDestroyed
	}
	s.handle = handle
	s.lease = lease
	s.rec = rec
	s.state = StateReady
	close(s.initDone)
	s.initDone = nil
	s.mu.Unlock()

	s.logger.Info("Map session ready", zap.Int("entities", s.store.Len()))
	s.reconcile()
	s.startFeed()
	s.startLocate()
	return nil
}

// fail returns the session to Uninitialized unless the attempt is stale,
// releasing whatever the attempt acquired.
func (s *Session) fail(token uint64, err error, lease *sdk.Lease, handle mapping.Handle) error {
	s.release(handle, lease)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attempt != token || s.state != StateInitializing {
		return ErrDestroyed
	}
	s.state = StateUninitialized
	s.err = err
	close(s.initDone)
	s.initDone = nil

	s.logger.Warn("Map session initialization failed",
		zap.String("reason", string(sdk.ReasonOf(err))),
		zap.Error(err),
	)
	return err
}

func (s *Session) release(handle mapping.Handle, lease *sdk.Lease) {
	if handle != nil {
		if err := s.opts.Adapter.Destroy(handle); err != nil {
			s.logger.Warn("Failed to destroy map", zap.Error(err))
		}
	}
	lease.Release()
}

func (s *Session) startFeed() {
	if s.opts.Feed == nil {
		return
	}
	s.opts.Feed.OnError(s.markDegraded)
	deltas, err := s.opts.Feed.Subscribe(s.ctx, s.opts.Filter)
	if err != nil {
		s.markDegraded(err)
		return
	}

	done := make(chan struct{})
	s.mu.Lock()
	s.feedDone = done
	s.mu.Unlock()

	go func() {
		defer close(done)
		for d := range deltas {
			s.applyDelta(d)
		}
	}()
}

func (s *Session) startLocate() {
	if s.opts.Geolocation == nil {
		return
	}
	go func() {
		if _, err := s.Locate(s.ctx); err != nil {
			s.logger.Info("Continuing without viewer position", zap.Error(err))
		}
	}()
}

func (s *Session) markDegraded(err error) {
	s.mu.Lock()
	s.degraded = err
	s.mu.Unlock()
	s.logger.Warn("Entity feed degraded", zap.Error(err))
}

func (s *Session) applyDelta(d mapping.Delta) {
	if s.State() != StateReady {
		return
	}
	if s.store.Apply(d) {
		s.reconcile()
	}
}

// reconcile requests a pass against the current list and position. The
// reconciler reads both when the pass starts, so a pass never applies a
// state older than the one a later request saw.
func (s *Session) reconcile() {
	s.mu.Lock()
	rec := s.rec
	ready := s.state == StateReady
	s.mu.Unlock()

	if !ready || rec == nil {
		return
	}
	rec.Refresh()
}

// target is the reconciler source: the entity list and the viewer position.
func (s *Session) target() reconcile.Target {
	s.mu.Lock()
	var self *mapping.Position
	if s.self != nil {
		p := *s.self
		self = &p
	}
	s.mu.Unlock()
	return reconcile.Target{Entities: s.store.Snapshot(), Self: self}
}

// SetEntities replaces the entity list with the eligible entries of list.
func (s *Session) SetEntities(list []mapping.Entity) error {
	if s.State() == StateDestroyed {
		return ErrDestroyed
	}
	s.store.Seed(s.opts.Filter.Select(list))
	s.reconcile()
	return nil
}

// ApplyDelta folds one change into the entity list, as the live feed does.
func (s *Session) ApplyDelta(d mapping.Delta) error {
	if s.State() != StateReady {
		return ErrNotReady
	}
	s.applyDelta(s.opts.Filter.Normalize(d))
	return nil
}

// SetPosition supersedes the viewer position. A nil position removes the
// self marker.
func (s *Session) SetPosition(p *mapping.Position) error {
	s.mu.Lock()
	if s.state == StateDestroyed {
		s.mu.Unlock()
		return ErrDestroyed
	}
	if p != nil {
		pos := *p
		s.self = &pos
	} else {
		s.self = nil
	}
	s.mu.Unlock()

	s.reconcile()
	return nil
}

// Position returns the current viewer position.
func (s *Session) Position() (mapping.Position, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.self == nil {
		return mapping.Position{}, false
	}
	return *s.self, true
}

// Locate requests a one-shot fix and, on success, places the self marker.
// Failures leave the session without a self marker.
func (s *Session) Locate(ctx context.Context) (mapping.Position, error) {
	if s.opts.Geolocation == nil {
		return mapping.Position{}, &geolocation.Error{Code: geolocation.Unsupported}
	}
	pos, err := s.opts.Geolocation.RequestPosition(ctx, s.opts.GeoOptions)
	if err != nil {
		return mapping.Position{}, err
	}
	if err := s.SetPosition(&pos); err != nil {
		return mapping.Position{}, err
	}
	return pos, nil
}

// Select is the native tap entry point for the marker registered under key.
// It reports whether a marker was found.
func (s *Session) Select(key string) bool {
	if s.State() != StateReady {
		return false
	}
	h, ok := s.arena.Get(key)
	if !ok || h.OnSelect == nil {
		return false
	}
	h.OnSelect()
	return true
}

// Markers returns the keys of the markers on the map.
func (s *Session) Markers() []string {
	return s.arena.Keys()
}

// Entities returns the authoritative entity list.
func (s *Session) Entities() []mapping.Entity {
	return s.store.Snapshot()
}

// Entity returns one entity of the list.
func (s *Session) Entity(id string) (mapping.Entity, bool) {
	return s.store.Get(id)
}

// Passes returns the number of reconciliation passes applied.
func (s *Session) Passes() int {
	s.mu.Lock()
	rec := s.rec
	s.mu.Unlock()
	if rec == nil {
		return 0
	}
	return rec.Passes()
}

// Teardown releases everything the session holds: the feed subscription is
// closed, queued reconciliation dropped, every marker removed, the map
// destroyed and the SDK lease released. Later calls do nothing.
func (s *Session) Teardown() error {
	s.mu.Lock()
	if s.state == StateDestroyed {
		s.mu.Unlock()
		return nil
	}
	prev := s.state
	s.state = StateDestroyed
	if s.initDone != nil {
		close(s.initDone)
		s.initDone = nil
	}
	rec, handle, lease, feedDone := s.rec, s.handle, s.lease, s.feedDone
	s.rec, s.handle, s.lease = nil, nil, nil
	s.mu.Unlock()

	s.cancel()

	if s.opts.Feed != nil {
		s.opts.Feed.Unsubscribe()
	}
	if feedDone != nil {
		<-feedDone
	}

	if rec != nil {
		rec.Stop()
		rec.Clear()
	}

	var err error
	if handle != nil {
		if derr := s.opts.Adapter.Destroy(handle); derr != nil {
			s.logger.Warn("Failed to destroy map", zap.Error(derr))
			err = derr
		}
	}
	lease.Release()

	s.logger.Info("Map session destroyed", zap.String("from", prev.String()))
	return err
}
