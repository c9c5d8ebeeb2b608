package mapping

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

var (
	// ErrHandleDestroyed is returned when an operation targets a released map.
	ErrHandleDestroyed = errors.New("map handle destroyed")
	// ErrForeignHandle is returned when a handle from another adapter is passed in.
	ErrForeignHandle = errors.New("handle belongs to another provider")
)

// MarkerOperationError reports a failed native call for a single marker or
// view operation. It never aborts the surrounding reconciliation pass.
type MarkerOperationError struct {
	Provider string
	Op       string
	ID       string
	Err      error
}

func (e *MarkerOperationError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s: %s %s: %v", e.Provider, e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Op, e.Err)
}

func (e *MarkerOperationError) Unwrap() error {
	return e.Err
}

// Guard runs one native call, converting a panic or an error into a
// *MarkerOperationError and logging it.
func Guard(log *zap.Logger, provider, op, id string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &MarkerOperationError{Provider: provider, Op: op, ID: id, Err: fmt.Errorf("native panic: %v", r)}
		}
		if err != nil {
			var moe *MarkerOperationError
			if !errors.As(err, &moe) {
				err = &MarkerOperationError{Provider: provider, Op: op, ID: id, Err: err}
			}
			if log != nil {
				log.Warn("Native map call failed",
					zap.String("provider", provider),
					zap.String("op", op),
					zap.String("id", id),
					zap.Error(err),
				)
			}
		}
	}()
	return fn()
}
