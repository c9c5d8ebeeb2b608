package feed

import (
	"context"
	"errors"
	"sync"

	"service-map/core/mapping"

	"go.uber.org/zap"
)

var (
	// ErrAlreadySubscribed is returned by a second Subscribe on one subscriber.
	ErrAlreadySubscribed = errors.New("feed already subscribed")
	// ErrUnsubscribed is returned by Subscribe after Unsubscribe.
	ErrUnsubscribed = errors.New("feed unsubscribed")
	// ErrFeedClosed is reported when the transport ends delivery on its own.
	ErrFeedClosed = errors.New("feed closed by transport")
)

// Subscriber turns a transport's raw changes into normalized deltas.
type Subscriber struct {
	source  Source
	logger  *zap.Logger
	buffer  int
	onError func(error)

	mu         sync.Mutex
	subscribed bool
	closed     bool
	cancel     context.CancelFunc
	done       chan struct{}
	once       sync.Once
}

// NewSubscriber creates a subscriber over source.
func NewSubscriber(source Source, buffer int, logger *zap.Logger) *Subscriber {
	if logger == nil {
		logger = zap.NewNop()
	}
	if buffer < 1 {
		buffer = 1
	}
	return &Subscriber{source: source, buffer: buffer, logger: logger}
}

// OnError registers the callback for subscription-level failures.
// It must be set before Subscribe.
func (s *Subscriber) OnError(fn func(error)) {
	s.mu.Lock()
	s.onError = fn
	s.mu.Unlock()
}

// Subscribe opens the transport and returns the delta stream. The stream is
// closed when the subscription ends. Malformed changes are logged and dropped.
func (s *Subscriber) Subscribe(ctx context.Context, filter Filter) (<-chan mapping.Delta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrUnsubscribed
	}
	if s.subscribed {
		return nil, ErrAlreadySubscribed
	}

	ctx, cancel := context.WithCancel(ctx)
	changes, err := s.source.Open(ctx, filter)
	if err != nil {
		cancel()
		return nil, err
	}

	s.subscribed = true
	s.cancel = cancel
	s.done = make(chan struct{})
	out := make(chan mapping.Delta, s.buffer)
	go s.pump(ctx, filter, changes, out, s.onError)

	s.logger.Info("Feed subscribed", zap.String("table", filter.Table))
	return out, nil
}

func (s *Subscriber) pump(ctx context.Context, filter Filter, changes <-chan Change, out chan<- mapping.Delta, onError func(error)) {
	defer close(s.done)
	defer close(out)

	fail := func(err error) {
		if ctx.Err() != nil {
			return
		}
		s.logger.Warn("Feed degraded", zap.Error(err))
		if onError != nil {
			onError(err)
		}
	}

	for {
		var (
			change Change
			ok     bool
		)
		select {
		case <-ctx.Done():
			return
		case change, ok = <-changes:
		}
		if !ok {
			fail(ErrFeedClosed)
			return
		}
		if change.Err != nil {
			fail(change.Err)
			return
		}

		delta, err := Decode(change, filter)
		if err != nil {
			if !errors.Is(err, ErrSkip) {
				s.logger.Warn("Dropping feed change", zap.Error(err))
			}
			continue
		}
		delta = filter.Normalize(delta)

		select {
		case <-ctx.Done():
			return
		case out <- delta:
		}
	}
}

// Unsubscribe ends the subscription and waits for delivery to stop. It is
// safe to call more than once.
func (s *Subscriber) Unsubscribe() {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		cancel, done := s.cancel, s.done
		s.mu.Unlock()

		if cancel == nil {
			return
		}
		cancel()
		if err := s.source.Close(); err != nil {
			s.logger.Warn("Failed to close feed source", zap.Error(err))
		}
		<-done
		s.logger.Info("Feed unsubscribed")
	})
}
