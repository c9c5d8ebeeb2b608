// Package geolocation obtains the viewer's position.
//
// Requests are single shot: a Source asks its Locator once, enforces the
// timeout itself and classifies failures as PermissionDenied,
// PositionUnavailable, Timeout or Unsupported. A fix arriving after the
// timeout is dropped. A cached fix younger than MaxCacheAge is returned
// without asking the locator again.
package geolocation
