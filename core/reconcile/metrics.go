package reconcile

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

const instrumentationName = "service-map/core/reconcile"

type metrics struct {
	added   metric.Int64Counter
	removed metric.Int64Counter
	passes  metric.Int64Counter
}

func newMetrics(logger *zap.Logger) *metrics {
	m := otel.Meter(instrumentationName)
	fallback := noop.NewMeterProvider().Meter(instrumentationName)

	counter := func(name, desc string) metric.Int64Counter {
		c, err := m.Int64Counter(name, metric.WithDescription(desc))
		if err != nil {
			logger.Warn("Failed to create counter", zap.String("name", name), zap.Error(err))
			c, _ = fallback.Int64Counter(name)
		}
		return c
	}

	return &metrics{
		added:   counter("servicemap.markers.added", "Native markers created"),
		removed: counter("servicemap.markers.removed", "Native markers removed"),
		passes:  counter("servicemap.reconcile.passes", "Reconciliation passes applied"),
	}
}

func (m *metrics) record(provider string, added, removed int) {
	ctx := context.Background()
	attrs := metric.WithAttributes(attribute.String("provider", provider))
	m.passes.Add(ctx, 1, attrs)
	if added > 0 {
		m.added.Add(ctx, int64(added), attrs)
	}
	if removed > 0 {
		m.removed.Add(ctx, int64(removed), attrs)
	}
}

// recordRemoved counts markers removed outside a pass.
func (m *metrics) recordRemoved(provider string, removed int) {
	if removed <= 0 {
		return
	}
	m.removed.Add(context.Background(), int64(removed), metric.WithAttributes(attribute.String("provider", provider)))
}
