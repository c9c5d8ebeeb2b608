package geolocation

import (
	"errors"
	"fmt"
)

// Code classifies a failed position request.
type Code string

const (
	PermissionDenied    Code = "permission_denied"
	PositionUnavailable Code = "position_unavailable"
	Timeout             Code = "timeout"
	Unsupported         Code = "unsupported"
)

var (
	// ErrPermissionDenied is returned by locators when the viewer refused access.
	ErrPermissionDenied = &Error{Code: PermissionDenied}
	// ErrUnavailable is returned by locators that cannot produce a fix.
	ErrUnavailable = &Error{Code: PositionUnavailable}
)

// Error is a classified geolocation failure.
type Error struct {
	Code Code
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("geolocation: %s", e.Code)
	}
	return fmt.Sprintf("geolocation: %s: %v", e.Code, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// CodeOf returns the classification of err, or "" when err is not an *Error.
func CodeOf(err error) Code {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Code
	}
	return ""
}

// classify maps arbitrary locator failures onto a code.
func classify(err error) *Error {
	var ge *Error
	if errors.As(err, &ge) {
		return ge
	}
	return &Error{Code: PositionUnavailable, Err: err}
}
