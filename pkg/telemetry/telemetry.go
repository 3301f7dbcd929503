// Package telemetry wires OpenTelemetry tracing and metrics providers.
package telemetry

import (
	"context"
	"fmt"
	"net/http"

	"github.com/abgdnv/rocketcart/pkg/config"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/propagation"
	metricsdk "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
)

func newResource(serviceName string) *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(serviceName),
	)
}

func NewTracerProvider(ctx context.Context, serviceName string, cfg config.TelemetryConfig) (*tracesdk.TracerProvider, error) {

	collectorOpts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(cfg.Traces.OtlpHttp.Endpoint),
		otlptracehttp.WithTimeout(cfg.Traces.OtlpHttp.Timeout),
	}
	if cfg.Traces.OtlpHttp.Insecure {
		collectorOpts = append(collectorOpts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptracehttp.New(ctx, collectorOpts...)
	if err != nil {
		return nil, err
	}
	tp := tracesdk.NewTracerProvider(
		tracesdk.WithBatcher(exporter),
		tracesdk.WithResource(newResource(serviceName)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	return tp, nil
}

// NewMeterProvider installs a global meter provider backed by the Prometheus exporter
// and returns it together with the handler serving the scrape endpoint.
func NewMeterProvider(serviceName string) (*metricsdk.MeterProvider, http.Handler, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}
	mp := metricsdk.NewMeterProvider(
		metricsdk.WithReader(exporter),
		metricsdk.WithResource(newResource(serviceName)),
	)
	otel.SetMeterProvider(mp)
	return mp, promhttp.Handler(), nil
}

// Shutdown flushes and stops the providers that were created. Nil providers are skipped.
func Shutdown(ctx context.Context, tp *tracesdk.TracerProvider, mp *metricsdk.MeterProvider) error {
	var err error
	if tp != nil {
		if e := tp.Shutdown(ctx); e != nil {
			err = fmt.Errorf("tracer provider shutdown: %w", e)
		}
	}
	if mp != nil {
		if e := mp.Shutdown(ctx); e != nil && err == nil {
			err = fmt.Errorf("meter provider shutdown: %w", e)
		}
	}
	return err
}

// Setup creates the providers enabled in cfg. The returned handler serves the
// Prometheus scrape endpoint and is nil when metrics are disabled.
// The shutdown func is always safe to call.
func Setup(ctx context.Context, serviceName string, cfg config.TelemetryConfig) (http.Handler, func(context.Context) error, error) {
	var (
		tp      *tracesdk.TracerProvider
		mp      *metricsdk.MeterProvider
		handler http.Handler
		err     error
	)
	if cfg.Traces.Enabled {
		if tp, err = NewTracerProvider(ctx, serviceName, cfg); err != nil {
			return nil, nil, fmt.Errorf("failed to create tracer provider: %w", err)
		}
	}
	if cfg.Metrics.Enabled {
		if mp, handler, err = NewMeterProvider(serviceName); err != nil {
			_ = Shutdown(ctx, tp, nil)
			return nil, nil, err
		}
	}
	return handler, func(ctx context.Context) error { return Shutdown(ctx, tp, mp) }, nil
}
