package auth

import "time"

type Config struct {
	Secret     string        `env:"JWT_SECRET,notEmpty"`
	TTL        time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	Issuer     string        `env:"ISSUER" envDefault:"storefront"`
	BcryptCost int           `env:"BCRYPT_COST" envDefault:"10"`
}
