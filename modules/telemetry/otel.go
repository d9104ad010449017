package telemetry

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// ShutdownFunc flushes and stops the providers installed by Init.
type ShutdownFunc func(ctx context.Context) error

// Init installs the global tracer and meter providers described by cfg.
//
// When the Go auto-instrumentation sidecar owns tracing (ModeAuto, or
// ModeDetect with the sidecar present) only the meter provider is installed:
// store metrics such as stock-outs and payouts are invisible to eBPF.
func Init(ctx context.Context, cfg Config) (ShutdownFunc, error) {
	if cfg.Disabled {
		slog.Info("telemetry disabled")
		return func(context.Context) error { return nil }, nil
	}
	if cfg.ServiceName == "" {
		return nil, errors.New("telemetry: ServiceName is required")
	}

	sidecar := sidecarPresent()
	withTraces := true
	switch cfg.Mode {
	case ModeManual:
	case ModeAuto:
		withTraces = false
		if !sidecar {
			slog.Warn("telemetry: auto mode requested but no Go auto-instrumentation detected; using no-op providers")
			return func(context.Context) error { return nil }, nil
		}
	case ModeDetect, "":
		withTraces = !sidecar
	default:
		return nil, fmt.Errorf("telemetry: unknown Mode %q", cfg.Mode)
	}

	timeout := cfg.StartupTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("telemetry: build resource: %w", err)
	}
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	var stops []func(context.Context) error
	shutdown := func(ctx context.Context) error {
		var errs []error
		for _, stop := range slices.Backward(stops) {
			errs = append(errs, stop(ctx))
		}
		return errors.Join(errs...)
	}

	if withTraces {
		exp, err := newTraceExporter(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("telemetry: build trace exporter: %w", err)
		}
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exp),
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sampler(cfg.SamplerRatio)),
		)
		otel.SetTracerProvider(tp)
		stops = append(stops, tp.Shutdown)
	}

	if !cfg.DisableMetrics {
		exp, err := newMetricExporter(ctx, cfg)
		switch {
		case err != nil && withTraces:
			_ = shutdown(ctx)
			return nil, fmt.Errorf("telemetry: build metric exporter: %w", err)
		case err != nil:
			slog.Warn("telemetry: metrics unavailable alongside auto-instrumentation", slog.Any("error", err))
		default:
			mp := sdkmetric.NewMeterProvider(
				sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)),
				sdkmetric.WithResource(res),
			)
			otel.SetMeterProvider(mp)
			stops = append(stops, mp.Shutdown)
		}
	}
	return shutdown, nil
}

func sidecarPresent() bool {
	if os.Getenv("OTEL_GO_AUTO_TARGET_EXE") != "" {
		slog.Info("using auto-instrumentation with sidecar agent")
		return true
	}
	switch strings.ToLower(os.Getenv("OTEL_GO_AUTO_ENABLED")) {
	case "true", "1", "yes":
		return true
	}
	return false
}

func newResource(ctx context.Context, cfg Config) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{semconv.ServiceNameKey.String(cfg.ServiceName)}
	if cfg.ServiceVersion != "" {
		attrs = append(attrs, semconv.ServiceVersionKey.String(cfg.ServiceVersion))
	}
	if cfg.Environment != "" {
		attrs = append(attrs, attribute.String("deployment.environment", cfg.Environment))
	}
	for k, v := range cfg.ResourceAttrs {
		attrs = append(attrs, attribute.String(k, v))
	}
	return resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithHost(),
		resource.WithOS(),
		resource.WithAttributes(attrs...),
	)
}

// endpoint returns raw as a full URL when it has a scheme, else as host:port.
func endpoint(raw string) (fullURL, hostPort string) {
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw, ""
	}
	return "", raw
}

func newTraceExporter(ctx context.Context, cfg Config) (sdktrace.SpanExporter, error) {
	url, host := endpoint(cfg.OTLPEndpoint)
	if cfg.Protocol == "grpc" {
		var opts []otlptracegrpc.Option
		if url != "" {
			opts = append(opts, otlptracegrpc.WithEndpointURL(url))
		} else if host != "" {
			opts = append(opts, otlptracegrpc.WithEndpoint(host))
		}
		if cfg.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		return otlptracegrpc.New(ctx, opts...)
	}

	var opts []otlptracehttp.Option
	if url != "" {
		opts = append(opts, otlptracehttp.WithEndpointURL(url))
	} else if host != "" {
		opts = append(opts, otlptracehttp.WithEndpoint(host))
	}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	return otlptracehttp.New(ctx, opts...)
}

// newMetricExporter honours the metrics specific OTLP endpoint and protocol
// variables before falling back to the trace settings.
func newMetricExporter(ctx context.Context, cfg Config) (sdkmetric.Exporter, error) {
	raw := cmp.Or(os.Getenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"), cfg.OTLPEndpoint)
	protocol := cmp.Or(os.Getenv("OTEL_EXPORTER_OTLP_METRICS_PROTOCOL"), cfg.Protocol)

	url, host := endpoint(raw)
	if protocol == "grpc" {
		var opts []otlpmetricgrpc.Option
		if url != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpointURL(url))
		} else if host != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(host))
		}
		if cfg.Insecure {
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		}
		return otlpmetricgrpc.New(ctx, opts...)
	}

	var opts []otlpmetrichttp.Option
	if url != "" {
		opts = append(opts, otlpmetrichttp.WithEndpointURL(url))
	} else if host != "" {
		opts = append(opts, otlpmetrichttp.WithEndpoint(host))
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	return otlpmetrichttp.New(ctx, opts...)
}

func sampler(ratio float64) sdktrace.Sampler {
	if ratio <= 0 {
		return sdktrace.NeverSample()
	}
	if ratio >= 1 {
		return sdktrace.AlwaysSample()
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}
