package telemetry

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

func attrEffect(effect string) attribute.KeyValue {
	return attribute.String("policymesh.effect", effect)
}

// MeterProvider wraps an sdkmetric.MeterProvider that periodically
// exports to an stdout writer, complementing the pull-based Prometheus
// registry with a push-based OTel stream for environments that scrape
// traces and metrics through the same collector pipeline.
type MeterProvider struct {
	mp *sdkmetric.MeterProvider
}

// NewMeterProvider builds a MeterProvider that writes periodic metric
// snapshots to w as newline-delimited JSON.
func NewMeterProvider(w io.Writer) (*MeterProvider, error) {
	exporter, err := stdoutmetric.New(stdoutmetric.WithWriter(w), stdoutmetric.WithoutTimestamps())
	if err != nil {
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
	)
	return &MeterProvider{mp: mp}, nil
}

// Meter returns a named meter from the provider.
func (p *MeterProvider) Meter(name string) metric.Meter {
	return p.mp.Meter(name)
}

// Shutdown flushes buffered metrics and releases the exporter.
func (p *MeterProvider) Shutdown(ctx context.Context) error {
	return p.mp.Shutdown(ctx)
}

// EvaluationCounter is an OTel counter instrument recording evaluation
// outcomes, mirroring Metrics.EvaluationsTotal for push-based exporters.
type EvaluationCounter struct {
	counter metric.Int64Counter
}

// NewEvaluationCounter creates the policymesh.evaluations.total
// instrument on the given meter.
func NewEvaluationCounter(m metric.Meter) (*EvaluationCounter, error) {
	c, err := m.Int64Counter(
		"policymesh.evaluations.total",
		metric.WithDescription("Total policy evaluations processed"),
		metric.WithUnit("{evaluation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create evaluations counter: %w", err)
	}
	return &EvaluationCounter{counter: c}, nil
}

// Add records one evaluation with the given effect label.
func (c *EvaluationCounter) Add(ctx context.Context, effect string) {
	if c == nil {
		return
	}
	c.counter.Add(ctx, 1, metric.WithAttributes(attrEffect(effect)))
}
