// Package otel provides OpenTelemetry instrumentation for Rostra.
package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "rostra"

// Metrics holds all Rostra metric instruments. A nil *Metrics is valid and
// records nothing, so instrumented components never need nil checks.
type Metrics struct {
	WSConnections   metric.Int64UpDownCounter
	Broadcasts      metric.Int64Counter
	BroadcastDrops  metric.Int64Counter
	GatewaySessions metric.Int64Counter
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.WSConnections, err = meter.Int64UpDownCounter("rostra.ws.connections",
		metric.WithDescription("Number of live realtime connections"))
	if err != nil {
		return nil, err
	}

	m.Broadcasts, err = meter.Int64Counter("rostra.ws.broadcasts",
		metric.WithDescription("Number of broadcast deliveries attempted"))
	if err != nil {
		return nil, err
	}

	m.BroadcastDrops, err = meter.Int64Counter("rostra.ws.broadcast_drops",
		metric.WithDescription("Number of connections pruned after a failed broadcast write"))
	if err != nil {
		return nil, err
	}

	m.GatewaySessions, err = meter.Int64Counter("rostra.gateway.sessions",
		metric.WithDescription("Number of proxy sessions accepted by the gateway"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// ConnOpened records a new realtime connection.
func (m *Metrics) ConnOpened(ctx context.Context) {
	if m == nil {
		return
	}
	m.WSConnections.Add(ctx, 1)
}

// ConnClosed records a realtime connection teardown.
func (m *Metrics) ConnClosed(ctx context.Context) {
	if m == nil {
		return
	}
	m.WSConnections.Add(ctx, -1)
}

// BroadcastAttempted records n delivery attempts for one broadcast.
func (m *Metrics) BroadcastAttempted(ctx context.Context, n int64) {
	if m == nil {
		return
	}
	m.Broadcasts.Add(ctx, n)
}

// BroadcastDropped records a connection pruned after a write failure.
func (m *Metrics) BroadcastDropped(ctx context.Context) {
	if m == nil {
		return
	}
	m.BroadcastDrops.Add(ctx, 1)
}

// GatewaySessionStarted records an accepted public connection.
func (m *Metrics) GatewaySessionStarted(ctx context.Context) {
	if m == nil {
		return
	}
	m.GatewaySessions.Add(ctx, 1)
}
