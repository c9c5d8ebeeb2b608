package source

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"service-map/core/feed"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// NATS consumes change documents published on a subject.
type NATS struct {
	conn     *nats.Conn
	ownsConn bool
	subject  string
	buffer   int
	logger   *zap.Logger

	mu       sync.RWMutex
	sub      *nats.Subscription
	out      chan feed.Change
	done     chan struct{}
	closed   bool
	inflight sync.WaitGroup
	once     sync.Once
}

// NewNATS creates a subject source on an existing connection.
func NewNATS(conn *nats.Conn, subject string, buffer int, logger *zap.Logger) *NATS {
	return &NATS{conn: conn, subject: subject, buffer: buffer, logger: logger, done: make(chan struct{})}
}

// ConnectNATS dials url and returns a source that owns the connection.
func ConnectNATS(url, subject string, buffer int, logger *zap.Logger) (*NATS, error) {
	var src *NATS
	nc, err := nats.Connect(url,
		nats.MaxReconnects(10),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(5*time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			if src != nil {
				src.deliver(feed.Change{Err: errors.New("nats connection closed")})
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	src = NewNATS(nc, subject, buffer, logger)
	src.ownsConn = true
	return src, nil
}

// Open subscribes to the subject.
func (n *NATS) Open(ctx context.Context, filter feed.Filter) (<-chan feed.Change, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return nil, errors.New("nats source closed")
	}
	if n.out != nil {
		return nil, errors.New("nats source already open")
	}

	n.out = make(chan feed.Change, n.buffer)
	sub, err := n.conn.Subscribe(n.subject, func(msg *nats.Msg) {
		n.deliver(feed.Change{Payload: msg.Data, ReceivedAt: time.Now()})
	})
	if err != nil {
		n.out = nil
		return nil, fmt.Errorf("nats subscribe %s: %w", n.subject, err)
	}
	n.sub = sub

	n.logger.Info("Subscribed to entity changes", zap.String("subject", n.subject))
	return n.out, nil
}

func (n *NATS) deliver(c feed.Change) {
	n.mu.RLock()
	if n.closed || n.out == nil {
		n.mu.RUnlock()
		return
	}
	n.inflight.Add(1)
	out := n.out
	n.mu.RUnlock()
	defer n.inflight.Done()

	select {
	case out <- c:
	case <-n.done:
	}
}

// Close unsubscribes and closes the delivery channel.
func (n *NATS) Close() error {
	var err error
	n.once.Do(func() {
		n.mu.Lock()
		n.closed = true
		sub := n.sub
		n.mu.Unlock()

		close(n.done)
		if sub != nil {
			if uerr := sub.Unsubscribe(); uerr != nil && !errors.Is(uerr, nats.ErrConnectionClosed) {
				err = fmt.Errorf("nats unsubscribe: %w", uerr)
			}
		}
		n.inflight.Wait()
		if n.out != nil {
			close(n.out)
		}
		if n.ownsConn {
			n.conn.Close()
		}
	})
	return err
}
