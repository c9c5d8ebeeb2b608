// Package sdk bootstraps script-loaded mapping SDKs.
//
// A Registry keeps one load state per provider for the whole process. The
// first EnsureLoaded call fetches the script (from object storage or a static
// source), injects it into the provider Runtime and runs the authorization
// handshake, handing the SDK a credential through a callback. Concurrent
// callers join the in-flight load through a singleflight group, so there is
// exactly one injection and one handshake per provider.
//
// # Leases
//
// Every successful EnsureLoaded returns a Lease. The SDK stays loaded while
// any lease is held; the last Release removes the injected resource.
//
// # Timeouts
//
// Each load is bounded (DefaultTimeout when unset). A load token is bumped
// when the timeout fires, so a ready signal arriving afterwards is discarded
// and its resource removed instead of flipping a failed load back to ready.
//
// # Errors
//
// Failures are *InitError values classified by Reason:
// ScriptLoadFailed, AuthorizationFailed, Timeout, SDKMissingAfterLoad.
// A missing credential is an AuthorizationFailed wrapping ErrMissingCredential
// and is never retried.
package sdk
