package sdk

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// entry is the process-wide load state of one provider's SDK.
type entry struct {
	loaded  bool
	refs    int
	waiters int
	// token is bumped on every load attempt, timeout and unload so that a
	// stale completion can recognize it no longer owns the entry.
	token uint64
	// inflight is the token of the attempt currently loading, zero when none.
	inflight uint64
	runtime  Runtime
}

// Registry tracks SDK load state per provider, reference counted across the
// sessions that use it. Concurrent loads of the same provider share one
// injection and one authorization handshake.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
	sf      singleflight.Group
	logger  *zap.Logger
}

// Default is the process-wide registry.
var Default = NewRegistry(nil)

// NewRegistry creates an empty registry. A nil logger falls back to zap.L().
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		entries: make(map[string]*entry),
		logger:  logger,
	}
}

func (r *Registry) log() *zap.Logger {
	if r.logger != nil {
		return r.logger
	}
	return zap.L()
}

// entryFor returns the entry for provider, creating it. Callers hold r.mu.
func (r *Registry) entryFor(provider string) *entry {
	e, ok := r.entries[provider]
	if !ok {
		e = &entry{}
		r.entries[provider] = e
	}
	return e
}

// EnsureLoaded makes sure the provider's SDK is loaded and authorized and
// returns a lease on it. An already loaded SDK resolves immediately; a load
// in flight is joined rather than restarted.
func (r *Registry) EnsureLoaded(ctx context.Context, cfg ProviderConfig) (*Lease, error) {
	if err := cfg.validate(); err != nil {
		return nil, initError(cfg.Provider, ReasonScriptLoadFailed, err)
	}

	r.mu.Lock()
	e := r.entryFor(cfg.Provider)
	if e.loaded {
		e.refs++
		r.mu.Unlock()
		return &Lease{r: r, provider: cfg.Provider}, nil
	}
	e.waiters++
	r.mu.Unlock()

	ch := r.sf.DoChan(cfg.Provider, func() (any, error) {
		return nil, r.load(ctx, cfg)
	})

	var err error
	select {
	case res := <-ch:
		err = res.Err
	case <-ctx.Done():
		err = ctx.Err()
		if errors.Is(err, context.DeadlineExceeded) {
			err = initError(cfg.Provider, ReasonTimeout, err)
		}
	}

	r.mu.Lock()
	e.waiters--
	if err == nil && !e.loaded {
		err = initError(cfg.Provider, ReasonSDKMissingAfterLoad, nil)
	}
	if err != nil {
		rt := r.unloadIfIdle(e)
		r.mu.Unlock()
		r.remove(cfg.Provider, rt)
		return nil, err
	}
	e.refs++
	r.mu.Unlock()

	return &Lease{r: r, provider: cfg.Provider}, nil
}

// load performs one bounded load attempt. It runs at most once at a time per
// provider under the singleflight group.
func (r *Registry) load(parent context.Context, cfg ProviderConfig) error {
	r.mu.Lock()
	e := r.entryFor(cfg.Provider)
	if e.loaded {
		r.mu.Unlock()
		return nil
	}
	e.token++
	token := e.token
	e.inflight = token
	r.mu.Unlock()
	defer r.settle(e, token)

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	// The shared load must not die with whichever caller happened to start it.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- r.run(ctx, cfg, token)
	}()

	r.log().Info("Loading mapping SDK",
		zap.String("provider", cfg.Provider),
		zap.String("locator", cfg.Locator),
		zap.Duration("timeout", timeout),
	)

	select {
	case err := <-done:
		if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			r.invalidate(e, token)
			return initError(cfg.Provider, ReasonTimeout, err)
		}
		if err != nil {
			return err
		}

		r.mu.Lock()
		if e.token != token {
			r.mu.Unlock()
			r.discard(cfg, token)
			return initError(cfg.Provider, ReasonTimeout, errors.New("load superseded"))
		}
		e.loaded = true
		e.runtime = cfg.Runtime
		// Every caller may have given up while the load was running.
		rt := r.unloadIfIdle(e)
		r.mu.Unlock()

		if rt != nil {
			r.remove(cfg.Provider, rt)
			return nil
		}
		r.log().Info("Mapping SDK ready", zap.String("provider", cfg.Provider))
		return nil

	case <-ctx.Done():
		r.invalidate(e, token)
		go r.discardLate(cfg, token, done)
		return initError(cfg.Provider, ReasonTimeout, fmt.Errorf("no ready signal within %s", timeout))
	}
}

// run fetches, injects and authorizes the SDK.
func (r *Registry) run(ctx context.Context, cfg ProviderConfig, token uint64) error {
	script, err := cfg.Source.Fetch(ctx, cfg.Locator)
	if err != nil {
		return initError(cfg.Provider, ReasonScriptLoadFailed, err)
	}
	if err := cfg.Runtime.Inject(ctx, script); err != nil {
		return initError(cfg.Provider, ReasonScriptLoadFailed, err)
	}

	var (
		credMu  sync.Mutex
		credErr error
	)
	authorize := func(ctx context.Context) (string, error) {
		credMu.Lock()
		defer credMu.Unlock()
		if cfg.Credential == nil {
			credErr = ErrMissingCredential
			return "", credErr
		}
		token, err := cfg.Credential(ctx)
		if err != nil {
			credErr = fmt.Errorf("%w: %v", ErrMissingCredential, err)
			return "", credErr
		}
		if token == "" {
			credErr = ErrMissingCredential
			return "", credErr
		}
		return token, nil
	}

	if err := cfg.Runtime.Authorize(ctx, authorize); err != nil {
		r.discard(cfg, token)
		credMu.Lock()
		if credErr != nil {
			err = credErr
		}
		credMu.Unlock()
		return initError(cfg.Provider, ReasonAuthorizationFailed, err)
	}

	if !cfg.Runtime.Present() {
		r.discard(cfg, token)
		return initError(cfg.Provider, ReasonSDKMissingAfterLoad, nil)
	}
	return nil
}

// invalidate marks the attempt identified by token as dead.
func (r *Registry) invalidate(e *entry, token uint64) {
	r.mu.Lock()
	if e.token == token {
		e.token++
	}
	r.mu.Unlock()
}

// settle marks the attempt identified by token as no longer loading.
func (r *Registry) settle(e *entry, token uint64) {
	r.mu.Lock()
	if e.inflight == token {
		e.inflight = 0
	}
	r.mu.Unlock()
}

// discardLate waits for a timed-out attempt and undoes it if it succeeded.
func (r *Registry) discardLate(cfg ProviderConfig, token uint64, done <-chan error) {
	if err := <-done; err != nil {
		return
	}
	r.log().Warn("Ignoring SDK ready signal that arrived after timeout", zap.String("provider", cfg.Provider))
	r.discard(cfg, token)
}

// discard removes what the attempt identified by token injected. A stale
// attempt leaves the runtime alone once a newer attempt is loading or has
// loaded it. Removal happens under r.mu so no new attempt starts meanwhile.
func (r *Registry) discard(cfg ProviderConfig, token uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.entryFor(cfg.Provider)
	owner := e.inflight == token
	if !owner && (e.inflight != 0 || e.loaded) {
		r.log().Debug("Leaving SDK to newer load attempt", zap.String("provider", cfg.Provider))
		return
	}
	r.removeQuietly(cfg)
}

// unloadIfIdle resets e when nothing references it and returns the runtime
// to remove. Callers hold r.mu.
func (r *Registry) unloadIfIdle(e *entry) Runtime {
	if !e.loaded || e.refs > 0 || e.waiters > 0 {
		return nil
	}
	rt := e.runtime
	e.loaded = false
	e.runtime = nil
	e.token++
	return rt
}

func (r *Registry) release(provider string) {
	r.mu.Lock()
	e, ok := r.entries[provider]
	if !ok || e.refs == 0 {
		r.mu.Unlock()
		return
	}
	e.refs--
	rt := r.unloadIfIdle(e)
	r.mu.Unlock()

	r.remove(provider, rt)
}

func (r *Registry) remove(provider string, rt Runtime) {
	if rt == nil {
		return
	}
	if err := rt.Remove(); err != nil {
		r.log().Warn("Failed to remove mapping SDK", zap.String("provider", provider), zap.Error(err))
		return
	}
	r.log().Info("Mapping SDK removed", zap.String("provider", provider))
}

func (r *Registry) removeQuietly(cfg ProviderConfig) {
	if err := cfg.Runtime.Remove(); err != nil {
		r.log().Debug("SDK cleanup failed", zap.String("provider", cfg.Provider), zap.Error(err))
	}
}

// Loaded reports whether provider's SDK is currently loaded.
func (r *Registry) Loaded(provider string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[provider]
	return ok && e.loaded
}

// Refs returns the number of live leases on provider's SDK.
func (r *Registry) Refs(provider string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[provider]; ok {
		return e.refs
	}
	return 0
}

// Lease is one session's reference on a loaded SDK.
type Lease struct {
	r        *Registry
	provider string
	once     sync.Once
}

// Provider returns the leased provider name.
func (l *Lease) Provider() string {
	return l.provider
}

// Release drops the reference. The last release unloads the SDK.
// Releasing twice is a no-op.
func (l *Lease) Release() {
	if l == nil {
		return
	}
	l.once.Do(func() {
		l.r.release(l.provider)
	})
}

func (c ProviderConfig) validate() error {
	switch {
	case c.Provider == "":
		return fmt.Errorf("%w: provider name is empty", ErrInvalidConfig)
	case c.Runtime == nil:
		return fmt.Errorf("%w: runtime is nil", ErrInvalidConfig)
	case c.Source == nil:
		return fmt.Errorf("%w: script source is nil", ErrInvalidConfig)
	}
	return nil
}
