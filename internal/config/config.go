// Package config loads the adapter's settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Configuration struct {
	APIKey            string        `env:"LOMAVIS_API_KEY"`
	BaseURL           string        `env:"LOMAVIS_BASE_URL" envDefault:"https://app.lomavis.com/lomavis_publishing_api/v1" validate:"required,url"`
	CredentialTestURL string        `env:"LOMAVIS_CREDENTIAL_TEST_URL" envDefault:"https://app.lomavis.com/api/v1/users/3c038f8a-50c8-4e60-93c0-877e29492a8f/" validate:"required,url"`
	HTTPTimeout       time.Duration `env:"LOMAVIS_HTTP_TIMEOUT" envDefault:"60s" validate:"min=0"`
	ContinueOnFail    bool          `env:"LOMAVIS_CONTINUE_ON_FAIL" envDefault:"false"`
	ListenAddress     string        `env:"LOMAVIS_LISTEN_ADDRESS" envDefault:":8080" validate:"required"`
	RequestTimeout    time.Duration `env:"LOMAVIS_REQUEST_TIMEOUT" envDefault:"5m" validate:"min=0"`
	DryRun            bool          `env:"DRY_RUN" envDefault:"false"`

	Log LogConfig `envPrefix:"LOG_"`
}

// LogConfig is consumed by the logger package.
type LogConfig struct {
	Level      string `env:"LEVEL" envDefault:"info" validate:"oneof=trace debug info warn warning error fatal panic"`
	Format     string `env:"FORMAT" envDefault:"text" validate:"oneof=text json"`
	File       string `env:"FILE"`
	MaxSize    int    `env:"MAX_SIZE" envDefault:"50" validate:"min=1"`
	MaxBackups int    `env:"MAX_BACKUPS" envDefault:"3" validate:"min=0"`
	MaxAge     int    `env:"MAX_AGE" envDefault:"28" validate:"min=0"`
	Compress   bool   `env:"COMPRESS" envDefault:"true"`
}

// ErrMissingAPIKey is returned by RequireAPIKey.
var ErrMissingAPIKey = errors.New("LOMAVIS_API_KEY is not set")

// NewConfig loads the given env files (".env" when none are given; a missing
// file is not an error), then parses and validates the environment.
func NewConfig(files ...string) (*Configuration, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := Configuration{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// RequireAPIKey fails for commands that talk to the API without a key.
func (c *Configuration) RequireAPIKey() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}
