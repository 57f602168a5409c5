// Package telemetry holds the OpenTelemetry instruments CAN-FIX components
// report to. Instruments come from the global meter provider, which is a no-op
// until a host installs an SDK.
package telemetry

import (
	"context"

	"github.com/muurk/canfix/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const meterName = "github.com/muurk/canfix"

// Counters groups the node counters
type Counters struct {
	framesReceived      metric.Int64Counter
	responsesSent       metric.Int64Counter
	parameterSuppressed metric.Int64Counter
	framesRejected      metric.Int64Counter
}

// NewCounters creates the counters on the global meter provider
func NewCounters() *Counters {
	return NewCountersWithMeter(otel.GetMeterProvider().Meter(meterName))
}

// NewCountersWithMeter creates the counters on m
func NewCountersWithMeter(m metric.Meter) *Counters {
	return &Counters{
		framesReceived: newCounter(m, "canfix_frames_received",
			metric.WithDescription("Frames processed by the node, by category")),
		responsesSent: newCounter(m, "canfix_responses_sent",
			metric.WithDescription("Node specific responses transmitted, by control code")),
		parameterSuppressed: newCounter(m, "canfix_parameter_suppressed",
			metric.WithDescription("Parameter sends suppressed by the query hook")),
		framesRejected: newCounter(m, "canfix_frames_rejected",
			metric.WithDescription("Frames rejected as invalid or malformed")),
	}
}

func newCounter(m metric.Meter, name string, opts ...metric.Int64CounterOption) metric.Int64Counter {
	counter, err := m.Int64Counter(name, opts...)
	if err != nil {
		logging.Warn("failed to create counter", zap.String("name", name), zap.Error(err))
	}
	return counter
}

// FrameReceived counts one processed frame
func (c *Counters) FrameReceived(ctx context.Context, category string) {
	if c == nil || c.framesReceived == nil {
		return
	}
	c.framesReceived.Add(ctx, 1, metric.WithAttributes(attribute.String("category", category)))
}

// ResponseSent counts one node specific response
func (c *Counters) ResponseSent(ctx context.Context, code string) {
	if c == nil || c.responsesSent == nil {
		return
	}
	c.responsesSent.Add(ctx, 1, metric.WithAttributes(attribute.String("code", code)))
}

// ParameterSuppressed counts one suppressed parameter send
func (c *Counters) ParameterSuppressed(ctx context.Context, id uint16) {
	if c == nil || c.parameterSuppressed == nil {
		return
	}
	c.parameterSuppressed.Add(ctx, 1, metric.WithAttributes(attribute.Int("parameter", int(id))))
}

// FrameRejected counts one frame that failed validation or decoding
func (c *Counters) FrameRejected(ctx context.Context, reason string) {
	if c == nil || c.framesRejected == nil {
		return
	}
	c.framesRejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}
