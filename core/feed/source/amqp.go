package source

import (
	"context"
	"fmt"
	"sync"
	"time"

	"service-map/core/feed"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// AMQP consumes change documents from a queue.
type AMQP struct {
	conn     *amqp.Connection
	ownsConn bool
	queue    string
	tag      string
	buffer   int
	logger   *zap.Logger

	mu     sync.Mutex
	ch     *amqp.Channel
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// NewAMQP creates a queue source on an existing connection.
func NewAMQP(conn *amqp.Connection, queue string, buffer int, logger *zap.Logger) *AMQP {
	return &AMQP{conn: conn, queue: queue, tag: "service-map-" + queue, buffer: buffer, logger: logger}
}

// DialAMQP connects to url and returns a source that owns the connection.
func DialAMQP(url, queue string, buffer int, logger *zap.Logger) (*AMQP, error) {
	conn, err := amqp.DialConfig(url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(30 * time.Second),
	})
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial failed: %w", err)
	}
	src := NewAMQP(conn, queue, buffer, logger)
	src.ownsConn = true
	return src, nil
}

// Open starts consuming with manual acks. A message is acked once it has
// been handed to the subscriber.
func (a *AMQP) Open(ctx context.Context, filter feed.Filter) (<-chan feed.Change, error) {
	ch, err := a.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: failed to open channel: %w", err)
	}
	if err := ch.Qos(a.buffer, 0, false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("rabbitmq: qos: %w", err)
	}

	deliveries, err := ch.Consume(
		a.queue,
		a.tag,
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("rabbitmq: consume(%s): %w", a.queue, err)
	}
	chClosed := ch.NotifyClose(make(chan *amqp.Error, 1))

	ctx, cancel := context.WithCancel(ctx)
	out := make(chan feed.Change, a.buffer)
	done := make(chan struct{})

	a.mu.Lock()
	a.ch = ch
	a.cancel = cancel
	a.done = done
	a.mu.Unlock()

	a.logger.Info("Consuming entity changes", zap.String("queue", a.queue))

	go func() {
		defer close(done)
		defer close(out)

		for {
			select {
			case <-ctx.Done():
				return

			case cerr := <-chClosed:
				if cerr != nil {
					send(ctx, out, feed.Change{Err: fmt.Errorf("rabbitmq: channel closed while consuming %s: %w", a.queue, cerr)})
				}
				return

			case d, ok := <-deliveries:
				if !ok {
					return
				}
				if !send(ctx, out, feed.Change{Payload: d.Body, ReceivedAt: time.Now()}) {
					_ = d.Nack(false, true)
					return
				}
				_ = d.Ack(false)
			}
		}
	}()

	return out, nil
}

// Close cancels the consumer and closes the channel.
func (a *AMQP) Close() error {
	a.once.Do(func() {
		a.mu.Lock()
		ch, cancel, done := a.ch, a.cancel, a.done
		a.mu.Unlock()

		if cancel != nil {
			cancel()
			<-done
		}
		if ch != nil {
			_ = ch.Cancel(a.tag, false)
			_ = ch.Close()
		}
		if a.ownsConn {
			_ = a.conn.Close()
		}
	})
	return nil
}
