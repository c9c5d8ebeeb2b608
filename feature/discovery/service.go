package discovery

import (
	"context"
	"errors"
	"sync"

	"service-map/core/mapping"
	"service-map/core/session"

	"go.uber.org/zap"
)

// ErrUnknownMarker is returned when a select targets no marker.
var ErrUnknownMarker = errors.New("no marker with that id")

// Builder returns fresh options for a new session.
type Builder func() (session.Options, error)

// Service exposes one map surface's session.
type Service struct {
	sessions *session.Manager
	surface  string
	build    Builder
	logger   *zap.Logger

	mu       sync.Mutex
	selected *mapping.Entity
}

// NewService creates a service driving the session bound to surface.
func NewService(sessions *session.Manager, surface string, build Builder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{sessions: sessions, surface: surface, build: build, logger: logger}
}

func (s *Service) options() (session.Options, error) {
	opts, err := s.build()
	if err != nil {
		return opts, err
	}
	next := opts.OnSelect
	opts.OnSelect = func(e mapping.Entity) {
		s.mu.Lock()
		s.selected = &e
		s.mu.Unlock()
		s.logger.Info("Entity selected", zap.String("id", e.ID), zap.String("name", e.Name))
		if next != nil {
			next(e)
		}
	}
	return opts, nil
}

// Session returns the surface's session, initializing it when needed.
// An initialization failure is returned with the session so callers can
// still report its state.
func (s *Service) Session(ctx context.Context) (*session.Session, error) {
	sess, _, err := s.sessions.Open(s.surface, s.options)
	if err != nil {
		return nil, err
	}
	if err := sess.Initialize(ctx); err != nil {
		return sess, err
	}
	return sess, nil
}

// Status initializes the session if needed and reports its state.
func (s *Service) Status(ctx context.Context) (SessionStatus, error) {
	sess, err := s.Session(ctx)
	if sess == nil {
		return SessionStatus{}, err
	}
	return statusOf(sess), err
}

// Markers returns the keys of the markers on the map.
func (s *Service) Markers(ctx context.Context) ([]string, error) {
	sess, err := s.Session(ctx)
	if err != nil {
		return nil, err
	}
	return sess.Markers(), nil
}

// Entities returns the current entity list.
func (s *Service) Entities(ctx context.Context) ([]mapping.Entity, error) {
	sess, err := s.Session(ctx)
	if err != nil {
		return nil, err
	}
	return sess.Entities(), nil
}

// Select taps the marker of id and returns the entity it dispatched.
func (s *Service) Select(ctx context.Context, id string) (mapping.Entity, error) {
	sess, err := s.Session(ctx)
	if err != nil {
		return mapping.Entity{}, err
	}

	s.mu.Lock()
	s.selected = nil
	s.mu.Unlock()

	if id == mapping.SelfID || !sess.Select(id) {
		return mapping.Entity{}, ErrUnknownMarker
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return mapping.Entity{}, ErrUnknownMarker
	}
	return *s.selected, nil
}

// Locate requests a fresh viewer position.
func (s *Service) Locate(ctx context.Context) (mapping.Position, error) {
	sess, err := s.Session(ctx)
	if err != nil {
		return mapping.Position{}, err
	}
	return sess.Locate(ctx)
}

// Reset tears the session down and initializes a new one.
func (s *Service) Reset(ctx context.Context) (SessionStatus, error) {
	if err := s.sessions.Close(s.surface); err != nil {
		s.logger.Warn("Teardown reported an error", zap.Error(err))
	}
	return s.Status(ctx)
}

// Close tears the session down.
func (s *Service) Close() error {
	return s.sessions.Close(s.surface)
}
