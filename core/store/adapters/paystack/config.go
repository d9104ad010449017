package paystack

import "time"

type Config struct {
	SecretKey string        `env:"SECRET_KEY"`
	BaseURL   string        `env:"BASE_URL" envDefault:"https://api.paystack.co"`
	Timeout   time.Duration `env:"TIMEOUT" envDefault:"15s"`

	// Outbound requests are throttled client side to stay under the gateway's quota.
	RatePerSecond float64 `env:"RATE_PER_SECOND" envDefault:"10"`
	Burst         int     `env:"BURST" envDefault:"5"`
}
