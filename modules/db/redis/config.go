package redis

import "time"

type RedisConfig struct {
	// Required: Redis connection URL (redis:// or rediss://).
	URL string `env:"URL" envDefault:"redis://:redis@localhost:6379/0"`

	// Optional: client name visible in CLIENT LIST, etc.
	ClientName string `env:"CLIENT_NAME" envDefault:"storefront"`

	// SkipTLSVerify disables TLS certificate verification. Only use this in trusted
	// environments (e.g. some AWS ElastiCache setups with non-standard certs).
	SkipTLSVerify bool `env:"SKIP_TLS_VERIFY"`

	// RequireTLS enforces the use of rediss://.
	RequireTLS bool `env:"REQUIRE_TLS"`

	DisableRetry     bool          `env:"DISABLE_RETRY"`
	DisableCache     bool          `env:"DISABLE_CACHE"`
	AlwaysPipelining bool          `env:"ALWAYS_PIPELINING"`
	ConnWriteTimeout time.Duration `env:"CONN_WRITE_TIMEOUT"`

	// Enable OpenTelemetry integration via rueidisotel.
	EnableOtel bool `env:"ENABLE_OTEL"`

	// Commands slower than this are logged by the slow command hook. Zero disables the hook.
	SlowCommandThreshold time.Duration `env:"SLOW_COMMAND_THRESHOLD" envDefault:"50ms"`

	// Enable server-assisted client-side caching for the given prefixes.
	// Example: []string{"storefront:cache:"}
	//
	// NOTE: this configures CLIENT TRACKING ON with PREFIX/BCAST/OPTIN.
	// Reads still opt in per command through DoCache.
	ClientTrackingPrefixes []string `env:"CLIENT_TRACKING_PREFIXES" envSeparator:","`
}
