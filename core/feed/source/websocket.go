package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"service-map/core/feed"

	ws "github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

// subscribeMessage asks a realtime gateway for changes to one table.
type subscribeMessage struct {
	Type  string `json:"type"`
	Table string `json:"table,omitempty"`
}

// WebSocket reads change documents from a realtime gateway.
type WebSocket struct {
	url    string
	header http.Header
	buffer int
	logger *zap.Logger

	mu      sync.Mutex
	conn    *ws.Conn
	closing bool
	done    chan struct{}
	once    sync.Once
}

// NewWebSocket creates a gateway source for url.
func NewWebSocket(url string, header http.Header, buffer int, logger *zap.Logger) *WebSocket {
	return &WebSocket{url: url, header: header, buffer: buffer, logger: logger}
}

// Open dials the gateway, subscribes to the filter's table and starts reading.
func (w *WebSocket) Open(ctx context.Context, filter feed.Filter) (<-chan feed.Change, error) {
	conn, _, err := ws.DefaultDialer.DialContext(ctx, w.url, w.header)
	if err != nil {
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}

	msg, err := json.Marshal(subscribeMessage{Type: "subscribe", Table: filter.Table})
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(ws.TextMessage, msg); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("websocket subscribe failed: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	out := make(chan feed.Change, w.buffer)
	done := make(chan struct{})

	w.mu.Lock()
	w.conn = conn
	w.done = done
	w.mu.Unlock()

	go func() {
		<-ctx.Done()
		_ = w.Close()
	}()

	go func() {
		defer close(done)
		defer close(out)
		defer cancel()

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				w.mu.Lock()
				closing := w.closing
				w.mu.Unlock()
				if !closing {
					w.logger.Warn("WebSocket read error", zap.Error(err))
					send(ctx, out, feed.Change{Err: fmt.Errorf("websocket read: %w", err)})
				}
				return
			}
			if !send(ctx, out, feed.Change{Payload: data, ReceivedAt: time.Now()}) {
				return
			}
		}
	}()

	return out, nil
}

// Close sends a close frame and tears the connection down.
func (w *WebSocket) Close() error {
	w.once.Do(func() {
		w.mu.Lock()
		w.closing = true
		conn, done := w.conn, w.done
		w.mu.Unlock()
		if conn == nil {
			return
		}

		_ = conn.WriteControl(ws.CloseMessage,
			ws.FormatCloseMessage(ws.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
		<-done
	})
	return nil
}
