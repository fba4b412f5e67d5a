// Package observability wires OpenTelemetry tracing for opsgate.
// Tracing is optional: when no exporter endpoint is configured, the global
// no-op tracer provider is used and span helpers cost almost nothing.
package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/opsgate/opsgate"

// TracingConfig configures the OTLP/HTTP trace exporter.
type TracingConfig struct {
	// Endpoint is the OTLP/HTTP collector endpoint (host:port).
	// Empty disables tracing.
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS on the exporter connection.
	Insecure bool `yaml:"insecure"`
}

// InitTracer installs a tracer provider exporting to the configured OTLP
// endpoint. It returns the provider so the caller can shut it down; a nil
// provider means tracing is disabled.
func InitTracer(ctx context.Context, cfg TracingConfig) (*sdktrace.TracerProvider, error) {
	if cfg.Endpoint == "" {
		return nil, nil
	}

	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptrace.New(ctx, otlptracehttp.NewClient(opts...))
	if err != nil {
		return nil, fmt.Errorf("observability: create exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName("opsgate"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("observability: create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	return tp, nil
}

// StartToolSpan starts a span for a tool invocation.
func StartToolSpan(ctx context.Context, toolName, idempotencyKey string) (context.Context, trace.Span) {
	tracer := otel.Tracer(tracerName)
	attrs := []attribute.KeyValue{
		attribute.String("tool.name", toolName),
	}
	if idempotencyKey != "" {
		attrs = append(attrs, attribute.String("tool.idempotency_key", idempotencyKey))
	}
	return tracer.Start(ctx, "tool.invoke", trace.WithAttributes(attrs...))
}

// StartConfirmSpan starts a span for a pending-action resolution.
func StartConfirmSpan(ctx context.Context, pendingID string, approve bool) (context.Context, trace.Span) {
	tracer := otel.Tracer(tracerName)
	return tracer.Start(ctx, "action.resolve",
		trace.WithAttributes(
			attribute.String("pending.id", pendingID),
			attribute.Bool("pending.approve", approve),
		),
	)
}
