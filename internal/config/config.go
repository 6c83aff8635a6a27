package config

import (
	"log"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is read once from the environment in main and passed down by
// parameter. Admin-editable values (minimum advance notice, home address,
// notification targets, templates) live in the settings table instead.
type Config struct {
	Env      string `env:"APP_ENV" env-default:"development"`
	Port     string `env:"PORT" env-default:"8080"`
	LogLevel string `env:"LOG_LEVEL" env-default:"info"`

	DatabaseURL string `env:"DATABASE_URL" env-required:"true"`
	RedisAddr   string `env:"REDIS_ADDR"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `env:"GOOGLE_REDIRECT_URL"`
	GoogleMapsAPIKey   string `env:"GOOGLE_MAPS_API_KEY"`

	ResendAPIKey string `env:"RESEND_API_KEY"`
	FromEmail    string `env:"FROM_EMAIL" env-default:"noreply@example.com"`

	StaticTokens string `env:"STATIC_TOKENS"`
	JWTSecret    string `env:"JWT_HMAC_SECRET"`

	BookingRatePerMinute int           `env:"BOOKING_RATE_PER_MINUTE" env-default:"10"`
	ShutdownTimeout      time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"15s"`
}

func MustLoad() *Config {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		log.Fatalf("failed to read config: %v", err)
	}
	return &cfg
}

// AdminTokens splits the comma-separated static token list, dropping blanks.
func (c *Config) AdminTokens() []string {
	var tokens []string
	for _, t := range strings.Split(c.StaticTokens, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}
