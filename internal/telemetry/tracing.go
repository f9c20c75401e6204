package telemetry

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// TracerProvider wraps an sdktrace.TracerProvider with an explicit
// shutdown lifecycle, adapted from the
// pack's observability.Manager.initTracing (a stdout exporter stands in
// for OTLP/Jaeger, since this module ships no network trace backend).
type TracerProvider struct {
	tp *sdktrace.TracerProvider
}

// NewTracerProvider builds a TracerProvider that writes spans to w as
// newline-delimited JSON, registers it as the global provider, and
// returns it for explicit shutdown by the caller.
func NewTracerProvider(w io.Writer, serviceName string) (*TracerProvider, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithoutTimestamps())
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			attribute.String("service.name", serviceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build trace resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return &TracerProvider{tp: tp}, nil
}

// Tracer returns a named tracer from the provider.
func (p *TracerProvider) Tracer(name string) trace.Tracer {
	return p.tp.Tracer(name)
}

// Shutdown flushes buffered spans and releases the exporter.
func (p *TracerProvider) Shutdown(ctx context.Context) error {
	return p.tp.Shutdown(ctx)
}

// StartEvaluationSpan starts a span for one C9 Evaluate call, annotated
// with the tenant/principal/resource/action the decision is about.
func StartEvaluationSpan(ctx context.Context, tracer trace.Tracer, tenantID, principalID, resourceType, action string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "policy.Evaluate",
		trace.WithAttributes(
			attribute.String("policymesh.tenant_id", tenantID),
			attribute.String("policymesh.principal_id", principalID),
			attribute.String("policymesh.resource_type", resourceType),
			attribute.String("policymesh.action", action),
		),
	)
}

// StartCompileSpan starts a span for one C5 GetOrCompile call.
func StartCompileSpan(ctx context.Context, tracer trace.Tracer, tenantID, policyID, versionID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "policy.Compile",
		trace.WithAttributes(
			attribute.String("policymesh.tenant_id", tenantID),
			attribute.String("policymesh.policy_id", policyID),
			attribute.String("policymesh.version_id", versionID),
		),
	)
}

