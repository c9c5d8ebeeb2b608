package source

import (
	"context"
	"errors"
	"fmt"

	"service-map/core/feed"

	"go.uber.org/zap"
)

// ErrUnknownTransport is returned for unsupported transport names.
var ErrUnknownTransport = errors.New("unknown feed transport")

// New builds the source selected by cfg.Transport.
func New(ctx context.Context, cfg feed.Config, logger *zap.Logger) (feed.Source, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("transport", cfg.Transport))

	if cfg.Transport != feed.TransportMemory && cfg.URL == "" {
		return nil, fmt.Errorf("feed transport %s requires a url", cfg.Transport)
	}

	switch cfg.Transport {
	case feed.TransportMemory:
		return NewMemory(cfg.Buffer()), nil
	case feed.TransportPostgres:
		return ConnectPostgres(ctx, cfg.URL, cfg.Channel, cfg.Buffer(), logger)
	case feed.TransportNATS:
		return ConnectNATS(cfg.URL, cfg.Subject, cfg.Buffer(), logger)
	case feed.TransportAMQP:
		return DialAMQP(cfg.URL, cfg.Queue, cfg.Buffer(), logger)
	case feed.TransportWebSocket:
		return NewWebSocket(cfg.URL, nil, cfg.Buffer(), logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransport, cfg.Transport)
	}
}
