package sdk

import (
	"context"
	"time"
)

// Config holds settings for loading the script-based mapping SDK.
type Config struct {
	// Locator is the object key of the SDK script in storage.
	Locator string `mapstructure:"locator" default:"sdk/mapkit.core.js"`
	// TokenURL is the authenticated endpoint that issues SDK credentials.
	TokenURL string `mapstructure:"token_url" default:""`
	// Token is a static credential used when TokenURL is empty.
	Token string `mapstructure:"token" default:""`
	// TimeoutMs bounds the whole load and authorization handshake.
	TimeoutMs int `mapstructure:"timeout_ms" default:"10000"`
}

// Timeout returns the configured load timeout, defaulting to DefaultTimeout.
func (c Config) Timeout() time.Duration {
	if c.TimeoutMs <= 0 {
		return DefaultTimeout
	}
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// DefaultTimeout bounds an SDK load when no timeout is configured.
const DefaultTimeout = 10 * time.Second

// CredentialFunc supplies the opaque SDK credential on demand.
type CredentialFunc func(ctx context.Context) (string, error)

// Runtime is the provider SDK boundary: the environment the script is
// injected into and that performs the asynchronous authorization handshake.
type Runtime interface {
	// Inject loads the SDK resource.
	Inject(ctx context.Context, script []byte) error
	// Authorize runs the SDK's handshake. The SDK calls authorize when it is
	// ready to authenticate and uses the returned credential.
	Authorize(ctx context.Context, authorize func(ctx context.Context) (string, error)) error
	// Present reports whether the SDK is loaded and initialized.
	Present() bool
	// Remove unloads the injected resource.
	Remove() error
}

// ScriptSource resolves a locator into the SDK script bytes.
type ScriptSource interface {
	Fetch(ctx context.Context, locator string) ([]byte, error)
}

// ProviderConfig is everything needed to bootstrap one provider's SDK.
type ProviderConfig struct {
	// Provider is the registry key (e.g. "mapkit").
	Provider string
	// Locator identifies the script resource.
	Locator string
	// Source fetches the script resource.
	Source ScriptSource
	// Runtime receives the script and runs the handshake.
	Runtime Runtime
	// Credential supplies the authorization credential.
	Credential CredentialFunc
	// Timeout bounds the load; zero means DefaultTimeout.
	Timeout time.Duration
}
