package postgres

import (
	"fmt"
	"net/url"
	"strconv"
)

type (
	// Note: For env parsing to work, we must export all struct fields
	PostgresConfig struct {
		WriteConfig PoolConfig   `envPrefix:"PRIMARY_"`
		ReadConfigs []PoolConfig `envPrefix:"REPLICA_"`

		// AutoMigrate applies pending migrations on startup.
		AutoMigrate bool `env:"AUTO_MIGRATE" envDefault:"false"`
	}

	PoolConfig struct {
		Host         string `env:"HOST"     envDefault:"localhost"`
		Port         uint16 `env:"PORT"     envDefault:"5432"`
		User         string `env:"USER"     envDefault:"postgres"`
		Password     string `env:"PASSWORD" envDefault:"postgres"`
		Database     string `env:"DATABASE" envDefault:"storefront"`
		SSLMode      string `env:"SSL_MODE" envDefault:"disable"`
		PoolMaxConns int    `env:"POOL_MAX_CONNS" envDefault:"5"`
	}
)

// URL renders the libpq style connection URL. Pool sizing is a pgxpool
// parameter and is only included when withPool is set.
func (c *PoolConfig) URL(withPool bool) *url.URL {
	q := url.Values{}
	if c.SSLMode != "" {
		q.Set("sslmode", c.SSLMode)
	}
	if withPool && c.PoolMaxConns > 0 {
		q.Set("pool_max_conns", strconv.Itoa(c.PoolMaxConns))
	}
	return &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Database,
		RawQuery: q.Encode(),
	}
}
