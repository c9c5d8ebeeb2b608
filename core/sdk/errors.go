package sdk

import (
	"errors"
	"fmt"
)

// Reason classifies why a map session could not reach Ready.
type Reason string

const (
	ReasonScriptLoadFailed    Reason = "script_load_failed"
	ReasonAuthorizationFailed Reason = "authorization_failed"
	ReasonTimeout             Reason = "timeout"
	ReasonSDKMissingAfterLoad Reason = "sdk_missing_after_load"
	ReasonAdapterInitFailed   Reason = "adapter_init_failed"
)

var (
	// ErrMissingCredential is wrapped when no credential could be obtained.
	ErrMissingCredential = errors.New("mapping SDK credential is not configured")
	// ErrInvalidConfig is returned for provider configs missing required parts.
	ErrInvalidConfig = errors.New("invalid SDK provider config")
)

// InitError is the classified failure of an SDK load or map initialization.
type InitError struct {
	Provider string
	Reason   Reason
	Err      error
}

func (e *InitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Provider, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Reason, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// Is matches another *InitError by reason, so errors.Is(err, &InitError{Reason: ReasonTimeout}) works.
func (e *InitError) Is(target error) bool {
	t, ok := target.(*InitError)
	if !ok {
		return false
	}
	return t.Reason == e.Reason && (t.Provider == "" || t.Provider == e.Provider)
}

// ReasonOf extracts the classification from err, or "" when err is not an *InitError.
func ReasonOf(err error) Reason {
	var ie *InitError
	if errors.As(err, &ie) {
		return ie.Reason
	}
	return ""
}

func initError(provider string, reason Reason, err error) *InitError {
	return &InitError{Provider: provider, Reason: reason, Err: err}
}
