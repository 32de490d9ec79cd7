// Package telemetry exports sprintsync traces and metrics over OpenTelemetry.
//
// It is configured by the telemetry section of the settings:
//
//	telemetry:
//	  enabled: true
//	  endpoint: collector:4318   # OTLP/HTTP, also read from OTEL_EXPORTER_OTLP_ENDPOINT
//	  stdout: false              # pretty-print spans and metrics instead
//	  sample_ratio: 1.0
//	  metric_interval: 30s
//
// Until Init is called with enabled set, the global providers are no-ops and
// WrapWarehouse returns the warehouse unchanged.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/sdk/resource"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Options is the telemetry section of the settings.
type Options struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Endpoint is an OTLP/HTTP collector as host:port.
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	// Insecure sends OTLP over plain HTTP.
	Insecure       bool          `mapstructure:"insecure" yaml:"insecure,omitempty"`
	Stdout         bool          `mapstructure:"stdout" yaml:"stdout,omitempty"`
	SampleRatio    float64       `mapstructure:"sample_ratio" yaml:"sample_ratio"`
	MetricInterval time.Duration `mapstructure:"metric_interval" yaml:"metric_interval"`
}

// Service describes this process on every exported span and metric.
type Service struct {
	Name    string
	Version string
	// Source is the record source name, e.g. "notion".
	Source string
	// Warehouse is the warehouse driver, e.g. "dolt".
	Warehouse string
	// Environments lists the configured environment names.
	Environments []string
}

// ErrNoExporter is returned by Init when telemetry is enabled with nowhere
// to send it.
var ErrNoExporter = errors.New("telemetry is enabled but neither telemetry.endpoint nor telemetry.stdout is set")

var (
	active atomic.Bool

	mu        sync.Mutex
	shutdowns []func(context.Context) error

	// stdoutWriter receives stdout exports; tests swap it out.
	stdoutWriter io.Writer = os.Stdout
)

// Enabled reports whether Init installed real providers.
func Enabled() bool {
	return active.Load()
}

// Init installs the global tracer and meter providers. With opts.Enabled
// unset it installs no-op providers.
func Init(ctx context.Context, opts Options, svc Service) error {
	if !opts.Enabled {
		otel.SetTracerProvider(tracenoop.NewTracerProvider())
		otel.SetMeterProvider(metricnoop.NewMeterProvider())
		active.Store(false)
		return nil
	}
	if opts.Endpoint == "" && !opts.Stdout {
		return ErrNoExporter
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(serviceAttributes(svc)...),
		resource.WithHost(),
	)
	if err != nil {
		return fmt.Errorf("telemetry: resource: %w", err)
	}

	tp, err := newTracerProvider(ctx, opts, res)
	if err != nil {
		return fmt.Errorf("telemetry: traces: %w", err)
	}
	mp, err := newMeterProvider(ctx, opts, res)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return fmt.Errorf("telemetry: metrics: %w", err)
	}

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	mu.Lock()
	shutdowns = append(shutdowns, tp.Shutdown, mp.Shutdown)
	mu.Unlock()
	active.Store(true)
	return nil
}

func serviceAttributes(svc Service) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(svc.Name),
		semconv.ServiceVersion(svc.Version),
	}
	if svc.Source != "" {
		attrs = append(attrs, attribute.String("sprintsync.source", svc.Source))
	}
	if svc.Warehouse != "" {
		attrs = append(attrs, attribute.String("sprintsync.warehouse.driver", svc.Warehouse))
	}
	if len(svc.Environments) > 0 {
		attrs = append(attrs, attribute.StringSlice("sprintsync.environments", svc.Environments))
	}
	return attrs
}

func newTracerProvider(ctx context.Context, opts Options, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	ratio := opts.SampleRatio
	if ratio <= 0 || ratio > 1 {
		ratio = 1
	}
	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	}
	if opts.Stdout {
		exp, err := stdouttrace.New(stdouttrace.WithWriter(stdoutWriter), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, err
		}
		tpOpts = append(tpOpts, sdktrace.WithSyncer(exp))
	}
	if opts.Endpoint != "" {
		exp, err := newOTLPTraceExporter(ctx, opts)
		if err != nil {
			return nil, err
		}
		tpOpts = append(tpOpts, sdktrace.WithBatcher(exp))
	}
	return sdktrace.NewTracerProvider(tpOpts...), nil
}

func newMeterProvider(ctx context.Context, opts Options, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	interval := opts.MetricInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	mpOpts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	if opts.Stdout {
		exp, err := stdoutmetric.New(stdoutmetric.WithWriter(stdoutWriter))
		if err != nil {
			return nil, err
		}
		mpOpts = append(mpOpts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(interval))))
	}
	if opts.Endpoint != "" {
		exp, err := newOTLPMetricExporter(ctx, opts)
		if err != nil {
			return nil, err
		}
		mpOpts = append(mpOpts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(interval))))
	}
	return sdkmetric.NewMeterProvider(mpOpts...), nil
}

// Tracer returns a tracer from the global provider.
func Tracer(scope string) trace.Tracer {
	return otel.Tracer(scope)
}

// Meter returns a meter from the global provider.
func Meter(scope string) metric.Meter {
	return otel.Meter(scope)
}

// Shutdown flushes pending exports. The CLI calls it once, after the command.
func Shutdown(ctx context.Context) {
	mu.Lock()
	fns := shutdowns
	shutdowns = nil
	mu.Unlock()
	for _, fn := range fns {
		_ = fn(ctx)
	}
	active.Store(false)
}
