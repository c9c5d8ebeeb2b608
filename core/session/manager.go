package session

import (
	"sync"

	"go.uber.org/zap"
)

// Manager keeps at most one live session per surface. Re-entering a surface
// that already has a live or retryable session reuses it instead of creating
// a second map on the same surface.
type Manager struct {
	logger *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates an empty manager.
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{logger: logger, sessions: make(map[string]*Session)}
}

// Open returns the session bound to surfaceID, creating it with the options
// from build when none exists or the previous one was torn down. reused
// reports whether an existing session was returned.
func (m *Manager) Open(surfaceID string, build func() (Options, error)) (s *Session, reused bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.sessions[surfaceID]; ok && existing.State() != StateDestroyed {
		return existing, true, nil
	}

	opts, err := build()
	if err != nil {
		return nil, false, err
	}
	opts.Surface.ID = surfaceID
	s, err = New(opts)
	if err != nil {
		return nil, false, err
	}
	m.sessions[surfaceID] = s
	m.logger.Debug("Session created", zap.String("surface", surfaceID), zap.String("session", s.ID()))
	return s, false, nil
}

// Get returns the session bound to surfaceID.
func (m *Manager) Get(surfaceID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[surfaceID]
	return s, ok
}

// Close tears down and forgets the session bound to surfaceID.
func (m *Manager) Close(surfaceID string) error {
	m.mu.Lock()
	s, ok := m.sessions[surfaceID]
	delete(m.sessions, surfaceID)
	m.mu.Unlock()

	if !ok {
		return nil
	}
	return s.Teardown()
}

// CloseAll tears down every session.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for id, s := range sessions {
		if err := s.Teardown(); err != nil {
			m.logger.Warn("Failed to tear down session", zap.String("surface", id), zap.Error(err))
		}
	}
}

// Len returns the number of tracked sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
