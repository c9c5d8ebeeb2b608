// Package mapkit implements the annotation-map provider variant.
//
// The native SDK is script loaded: a session must hold an sdk.Lease for
// ProviderName before Initialize. Regions are passed to the native map in
// center plus span form, and zoom hints are converted to spans.
//
// NewMemoryMap is a headless Native used by the watch command and tests;
// Runtime is the matching headless sdk.Runtime.
package mapkit
