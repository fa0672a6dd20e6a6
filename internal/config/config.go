package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Addr   string `env:"BRACKET_ADDR" envDefault:":8080"`
	DBPath string `env:"BRACKET_DB_PATH" envDefault:"op_bracket.db"`

	LogLevel slog.Level `env:"BRACKET_LOG_LEVEL" envDefault:"INFO"`

	SessionLifetime time.Duration `env:"BRACKET_SESSION_LIFETIME" envDefault:"24h"`
	AllowedOrigins  []string      `env:"BRACKET_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:8080"`

	// Public registration throttling, per client address
	RegisterRate  float64 `env:"BRACKET_REGISTER_RATE" envDefault:"1"`
	RegisterBurst int     `env:"BRACKET_REGISTER_BURST" envDefault:"5"`

	ShutdownTimeout time.Duration `env:"BRACKET_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Lets anyone sign in as the built-in system admin. Local development only.
	AllowGuestLogin bool `env:"BRACKET_ALLOW_GUEST_LOGIN" envDefault:"false"`

	Auth AuthConfig
}

type AuthConfig struct {
	DiscordKey         string `env:"DISCORD_KEY"`
	DiscordSecret      string `env:"DISCORD_SECRET"`
	DiscordCallbackURL string `env:"DISCORD_CALLBACK_URL"`

	GoogleKey         string `env:"GOOGLE_KEY"`
	GoogleSecret      string `env:"GOOGLE_SECRET"`
	GoogleCallbackURL string `env:"GOOGLE_CALLBACK_URL"`
}

// Load reads an optional .env file, then parses the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}
	return Parse()
}

func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.RegisterBurst < 1 {
		return nil, fmt.Errorf("BRACKET_REGISTER_BURST must be at least 1, got %d", cfg.RegisterBurst)
	}
	return &cfg, nil
}
