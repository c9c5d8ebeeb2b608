package source

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"service-map/core/feed"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Postgres listens on a notification channel fed by a row-change trigger.
// Each NOTIFY payload is one postgres-changes JSON document.
type Postgres struct {
	pool     *pgxpool.Pool
	ownsPool bool
	channel  string
	buffer   int
	logger   *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// NewPostgres creates a LISTEN source on an existing pool.
func NewPostgres(pool *pgxpool.Pool, channel string, buffer int, logger *zap.Logger) *Postgres {
	return &Postgres{pool: pool, channel: channel, buffer: buffer, logger: logger}
}

// ConnectPostgres builds a pool from dsn and a LISTEN source that closes it.
func ConnectPostgres(ctx context.Context, dsn, channel string, buffer int, logger *zap.Logger) (*Postgres, error) {
	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres parse dsn: %w", err)
	}
	pcfg.ConnConfig.ConnectTimeout = 5 * time.Second
	pcfg.HealthCheckPeriod = 30 * time.Second
	// One connection holds the LISTEN; one spare for UNLISTEN cleanup.
	pcfg.MaxConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("postgres pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	p := NewPostgres(pool, channel, buffer, logger)
	p.ownsPool = true
	return p, nil
}

// Open acquires a dedicated connection and issues LISTEN on it.
func (p *Postgres) Open(ctx context.Context, filter feed.Filter) (<-chan feed.Change, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("postgres acquire: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{p.channel}.Sanitize()); err != nil {
		conn.Release()
		return nil, fmt.Errorf("postgres listen %s: %w", p.channel, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	out := make(chan feed.Change, p.buffer)
	done := make(chan struct{})

	p.mu.Lock()
	p.cancel = cancel
	p.done = done
	p.mu.Unlock()

	p.logger.Info("Listening for entity changes", zap.String("channel", p.channel))

	go func() {
		defer close(done)
		defer close(out)
		defer p.unlisten(conn)

		for {
			n, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() == nil {
					send(ctx, out, feed.Change{Err: fmt.Errorf("postgres wait: %w", err)})
				}
				return
			}
			if !send(ctx, out, feed.Change{Payload: []byte(n.Payload), ReceivedAt: time.Now()}) {
				return
			}
		}
	}()

	return out, nil
}

func (p *Postgres) unlisten(conn *pgxpool.Conn) {
	defer conn.Release()
	if conn.Conn().IsClosed() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := conn.Exec(ctx, "UNLISTEN "+pgx.Identifier{p.channel}.Sanitize()); err != nil && !errors.Is(err, context.Canceled) {
		p.logger.Debug("UNLISTEN failed", zap.Error(err))
	}
}

// Close stops listening and releases the connection.
func (p *Postgres) Close() error {
	p.once.Do(func() {
		p.mu.Lock()
		cancel, done := p.cancel, p.done
		p.mu.Unlock()
		if cancel != nil {
			cancel()
			<-done
		}
		if p.ownsPool {
			p.pool.Close()
		}
	})
	return nil
}

// send delivers c unless ctx ends first.
func send(ctx context.Context, out chan<- feed.Change, c feed.Change) bool {
	select {
	case out <- c:
		return true
	case <-ctx.Done():
		return false
	}
}
