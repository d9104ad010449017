package telemetry

import "time"

// Mode decides who owns the tracer provider.
type Mode string

const (
	// ModeDetect defers to the Go auto-instrumentation sidecar when it is present.
	ModeDetect Mode = "detect"
	ModeManual Mode = "manual"
	// ModeAuto leaves tracing to the sidecar and only installs metrics.
	ModeAuto Mode = "auto"
)

// Config follows the standard OTEL_* variable names where one exists.
type Config struct {
	Disabled       bool          `env:"OTEL_SDK_DISABLED"`
	Mode           Mode          `env:"OTEL_MODE" envDefault:"detect"`
	DisableMetrics bool          `env:"OTEL_METRICS_DISABLED"`
	StartupTimeout time.Duration `env:"OTEL_STARTUP_TIMEOUT" envDefault:"5s"`

	ServiceName    string            `env:"OTEL_SERVICE_NAME" envDefault:"storefront"`
	ServiceVersion string            `env:"SERVICE_VERSION" envDefault:"dev"`
	Environment    string            `env:"ENVIRONMENT" envDefault:"local"`
	ResourceAttrs  map[string]string `env:"OTEL_RESOURCE_ATTRIBUTES" envDefault:"deployment.environment=local,service.version=dev" envSeparator:"," envKeyValSeparator:"="`

	// OTLPEndpoint is a URL ("http://otel-collector:4318") or host:port.
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_TRACES_ENDPOINT" envDefault:"otel-collector:4317"`
	Insecure     bool   `env:"OTEL_EXPORTER_OTLP_TRACES_INSECURE"`
	// Protocol is "grpc" or "http/protobuf".
	Protocol string `env:"OTEL_EXPORTER_OTLP_PROTOCOL" envDefault:"grpc"`

	// SamplerRatio of 0 samples nothing and 1 everything. Values in between
	// sample by trace id, respecting the parent's decision.
	SamplerRatio float64 `env:"OTEL_TRACES_SAMPLER_ARG" envDefault:"1"`
}
