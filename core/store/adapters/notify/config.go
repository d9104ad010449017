package notify

import "time"

type Config struct {
	// Without an API key mails are logged instead of sent.
	APIKey  string `env:"API_KEY"`
	From    string `env:"FROM" envDefault:"Storefront <no-reply@storefront.local>"`
	BaseURL string `env:"BASE_URL" envDefault:"https://api.resend.com"`

	Workers    int           `env:"WORKERS" envDefault:"4"`
	QueueSize  int           `env:"QUEUE_SIZE" envDefault:"256"`
	JobTimeout time.Duration `env:"JOB_TIMEOUT" envDefault:"10s"`

	// DrainTimeout bounds how long shutdown waits for queued mail.
	DrainTimeout time.Duration `env:"DRAIN_TIMEOUT" envDefault:"30s"`
}
