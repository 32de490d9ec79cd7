package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func newOTLPMetricExporter(ctx context.Context, opts Options) (sdkmetric.Exporter, error) {
	mopts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(opts.Endpoint)}
	if opts.Insecure {
		mopts = append(mopts, otlpmetrichttp.WithInsecure())
	}
	return otlpmetrichttp.New(ctx, mopts...)
}

func newOTLPTraceExporter(ctx context.Context, opts Options) (sdktrace.SpanExporter, error) {
	topts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(opts.Endpoint)}
	if opts.Insecure {
		topts = append(topts, otlptracehttp.WithInsecure())
	}
	return otlptracehttp.New(ctx, topts...)
}
