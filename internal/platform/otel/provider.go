// Package otel configures OpenTelemetry tracing for tableside processes.
package otel

import (
	"context"
	"fmt"
	"strings"

	"github.com/tableside/tableside/internal/platform/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// instrumentationPrefix namespaces tracers created through Tracer.
const instrumentationPrefix = "github.com/tableside/tableside/"

// Env configures tracing export.
type Env struct {
	// Endpoint is the OTLP/HTTP collector URL. Empty disables tracing.
	Endpoint string `env:"TABLESIDE_OTEL_ENDPOINT"`
	// Enabled set to "false" disables tracing even when Endpoint is set.
	Enabled string `env:"TABLESIDE_OTEL_ENABLED"`
	// SampleRatio is the fraction of root spans sampled.
	SampleRatio float64 `env:"TABLESIDE_OTEL_SAMPLE_RATIO" envDefault:"1"`
}

func (e Env) active() bool {
	return strings.TrimSpace(e.Endpoint) != "" && !strings.EqualFold(strings.TrimSpace(e.Enabled), "false")
}

// Setup installs a global OTLP/HTTP tracer provider for serviceName.
//
// Tracing is opt-in. Without an endpoint the returned shutdown is a no-op and
// spans from Tracer go to the global no-op provider. Callers defer shutdown to
// flush pending spans.
func Setup(ctx context.Context, serviceName string) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }

	var env Env
	if err := config.ParseEnv(&env); err != nil {
		return noop, err
	}
	if !env.active() {
		return noop, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(env.Endpoint))
	if err != nil {
		return noop, fmt.Errorf("create otlp exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceNamespace("tableside"),
		),
	)
	if err != nil {
		return noop, fmt.Errorf("build otel resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(env.SampleRatio))),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return tp.Shutdown, nil
}

// Tracer returns a tracer from the global provider for one package.
func Tracer(pkg string) trace.Tracer {
	return otel.Tracer(instrumentationPrefix + strings.TrimPrefix(pkg, "/"))
}
