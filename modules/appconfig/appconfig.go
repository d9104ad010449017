package appconfig

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"storefront/core/store/adapters/cache"
	"storefront/core/store/adapters/events"
	"storefront/core/store/adapters/jobs"
	"storefront/core/store/adapters/media"
	"storefront/core/store/adapters/notify"
	"storefront/core/store/adapters/paystack"
	"storefront/modules/auth"
	"storefront/modules/db/postgres"
	"storefront/modules/db/redis"
	"storefront/modules/hmac"
	"storefront/modules/middleware/ratelimit"
	"storefront/modules/telemetry"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Env      string `env:"ENV" envDefault:"dev"`
	Host     string `env:"HOST" envDefault:"0.0.0.0"`
	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// DotEnvFile is loaded before parsing when it exists. Variables already set win.
	DotEnvFile string `env:"DOTENV_FILE" envDefault:".env"`

	// --- core infra ----
	HMAC     hmac.HMACConfig         `envPrefix:"HMAC_"`
	Redis    redis.RedisConfig       `envPrefix:"REDIS_"`
	Postgres postgres.PostgresConfig `envPrefix:"POSTGRES_"`

	// --- middlewares ----
	RateLimit ratelimit.RestHTTPConfig `envPrefix:"RATE_LIMIT_"`
	Auth      auth.Config              `envPrefix:"AUTH_"`

	// --- otel ----
	// since it has special naming conventions, we do not use prefix here
	Otel telemetry.Config

	// --- store integrations ----
	Paystack paystack.Config `envPrefix:"PAYSTACK_"`
	Mail     notify.Config   `envPrefix:"MAIL_"`
	Media    media.Config    `envPrefix:"CLOUDINARY_"`
	Kafka    events.Config   `envPrefix:"KAFKA_"`
	Payout   jobs.Config     `envPrefix:"PAYOUT_"`
	Cache    cache.Config    `envPrefix:"CACHE_"`
}

var ErrInvalidConfig = errors.New("appconfig: invalid configuration")

// Load reads an optional dotenv file and then parses the process environment.
func Load() (*Config, error) {
	path := os.Getenv("DOTENV_FILE")
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("appconfig: load %s: %w", path, err)
	}

	return Parse(env.Options{})
}

// Parse parses the environment without touching dotenv files.
func Parse(opts env.Options) (*Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return nil, err
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func validate(c *Config) error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}
	if strings.TrimSpace(c.Auth.Secret) == "" {
		errs = append(errs, errors.New("AUTH_JWT_SECRET is empty"))
	}
	if c.RateLimit.DefaultPolicy.Window < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_DEFAULT_WINDOW must not be negative"))
	}
	for _, r := range c.RateLimit.Routes {
		for _, rule := range r.EndpointRules {
			if rule.Window <= 0 {
				errs = append(errs, fmt.Errorf("rate limit window for %s %q must be positive", rule.Method, r.Pattern))
			}
		}
	}
	if c.Env == "prod" && c.HMAC.Secret == "dev-secret" {
		errs = append(errs, errors.New("HMAC_SECRET must be changed in prod"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
