package geolocation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"service-map/core/mapping"

	"go.uber.org/zap"
)

// DefaultTimeout bounds a request when Options.Timeout is unset.
const DefaultTimeout = 10 * time.Second

// Source performs one-shot position requests against a Locator and keeps the
// last good fix for reuse within Options.MaxCacheAge.
type Source struct {
	locator Locator
	logger  *zap.Logger

	now   func() time.Time
	after func(time.Duration) <-chan time.Time

	mu   sync.Mutex
	last *mapping.Position
}

// NewSource creates a source. A nil locator makes every request Unsupported.
func NewSource(locator Locator, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{
		locator: locator,
		logger:  logger,
		now:     time.Now,
		after:   time.After,
	}
}

// RequestPosition returns the viewer's position or a classified *Error.
// It never blocks longer than the request timeout.
func (s *Source) RequestPosition(ctx context.Context, opts Options) (mapping.Position, error) {
	if s == nil || s.locator == nil {
		return mapping.Position{}, &Error{Code: Unsupported}
	}

	if pos, ok := s.cached(opts.MaxCacheAge); ok {
		s.logger.Debug("Using cached position", zap.Time("captured_at", pos.CapturedAt))
		return pos, nil
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		pos mapping.Position
		err error
	}
	done := make(chan result, 1)
	go func() {
		pos, err := s.locator.Locate(reqCtx, opts)
		done <- result{pos: pos, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			if ctx.Err() != nil {
				return mapping.Position{}, callerError(ctx)
			}
			err := classify(res.err)
			s.logger.Warn("Position request failed", zap.String("code", string(err.Code)), zap.Error(res.err))
			return mapping.Position{}, err
		}
		if !res.pos.Coordinate.Valid() {
			return mapping.Position{}, &Error{Code: PositionUnavailable, Err: errors.New("locator returned an invalid coordinate")}
		}
		if res.pos.CapturedAt.IsZero() {
			res.pos.CapturedAt = s.now()
		}
		s.store(res.pos)
		return res.pos, nil

	case <-s.after(timeout):
		s.logger.Warn("Position request timed out", zap.Duration("timeout", timeout))
		return mapping.Position{}, &Error{Code: Timeout, Err: fmt.Errorf("no fix within %s", timeout)}

	case <-ctx.Done():
		return mapping.Position{}, callerError(ctx)
	}
}

// callerError reports why the caller's context ended. Only a deadline is a
// Timeout; a cancellation is returned as is.
func callerError(ctx context.Context) error {
	err := ctx.Err()
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Code: Timeout, Err: err}
	}
	return err
}

// Last returns the most recent successful fix, if any.
func (s *Source) Last() (mapping.Position, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return mapping.Position{}, false
	}
	return *s.last, true
}

func (s *Source) cached(maxAge time.Duration) (mapping.Position, bool) {
	if maxAge <= 0 {
		return mapping.Position{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil || s.now().Sub(s.last.CapturedAt) > maxAge {
		return mapping.Position{}, false
	}
	return *s.last, true
}

func (s *Source) store(pos mapping.Position) {
	s.mu.Lock()
	s.last = &pos
	s.mu.Unlock()
}
