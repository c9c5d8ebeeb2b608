package mapkit

import (
	"context"
	"errors"
	"sync"

	"service-map/core/sdk"
)

var errNotInjected = errors.New("mapkit script not injected")

// Runtime is a headless sdk.Runtime: it accepts the script, runs the
// authorization callback once and keeps the issued token.
type Runtime struct {
	mu      sync.Mutex
	script  []byte
	token   string
	present bool
}

// NewRuntime creates an empty headless runtime.
func NewRuntime() *Runtime {
	return &Runtime{}
}

func (r *Runtime) Inject(ctx context.Context, script []byte) error {
	if len(script) == 0 {
		return sdk.ErrEmptyScript
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.script = append([]byte(nil), script...)
	r.present = true
	return nil
}

func (r *Runtime) Authorize(ctx context.Context, authorize func(ctx context.Context) (string, error)) error {
	r.mu.Lock()
	injected := r.script != nil
	r.mu.Unlock()
	if !injected {
		return errNotInjected
	}

	token, err := authorize(ctx)
	if err != nil {
		return err
	}
	if token == "" {
		return sdk.ErrMissingCredential
	}

	r.mu.Lock()
	r.token = token
	r.mu.Unlock()
	return nil
}

func (r *Runtime) Present() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.present
}

func (r *Runtime) Remove() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.script = nil
	r.token = ""
	r.present = false
	return nil
}

// Token returns the credential issued during the last handshake.
func (r *Runtime) Token() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.token
}

// ProviderConfig describes the mapkit SDK load for the registry.
func ProviderConfig(cfg sdk.Config, source sdk.ScriptSource, runtime sdk.Runtime, credential sdk.CredentialFunc) sdk.ProviderConfig {
	return sdk.ProviderConfig{
		Provider:   ProviderName,
		Locator:    cfg.Locator,
		Source:     source,
		Runtime:    runtime,
		Credential: credential,
		Timeout:    cfg.Timeout(),
	}
}
