package source

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"service-map/core/feed"
)

// ErrNotOpen is returned when pushing into a source nobody opened.
var ErrNotOpen = errors.New("source is not open")

// Memory is a channel-backed source fed by Push. It backs tests and the
// headless watch mode.
type Memory struct {
	buffer int

	mu     sync.RWMutex
	out    chan feed.Change
	done   chan struct{}
	closed bool
	once   sync.Once
}

// NewMemory creates an in-memory source.
func NewMemory(buffer int) *Memory {
	if buffer < 1 {
		buffer = 1
	}
	return &Memory{buffer: buffer, done: make(chan struct{})}
}

// Open returns the delivery channel. A memory source can be opened once.
func (m *Memory) Open(ctx context.Context, filter feed.Filter) (<-chan feed.Change, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, errors.New("memory source closed")
	}
	if m.out != nil {
		return nil, errors.New("memory source already open")
	}
	m.out = make(chan feed.Change, m.buffer)
	return m.out, nil
}

// Push delivers one raw change. It reports false once the source is closed.
func (m *Memory) Push(c feed.Change) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return false, nil
	}
	if m.out == nil {
		return false, ErrNotOpen
	}
	if c.ReceivedAt.IsZero() {
		c.ReceivedAt = time.Now()
	}
	select {
	case m.out <- c:
		return true, nil
	case <-m.done:
		return false, nil
	}
}

// PushJSON marshals doc and delivers it as a change payload.
func (m *Memory) PushJSON(doc any) (bool, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return false, err
	}
	return m.Push(feed.Change{Payload: data})
}

// Fail reports a transport failure and ends delivery.
func (m *Memory) Fail(err error) {
	if ok, _ := m.Push(feed.Change{Err: err}); ok {
		_ = m.Close()
	}
}

// Close ends delivery. Blocked pushes return false.
func (m *Memory) Close() error {
	m.once.Do(func() {
		close(m.done)
		m.mu.Lock()
		m.closed = true
		if m.out != nil {
			close(m.out)
		}
		m.mu.Unlock()
	})
	return nil
}
