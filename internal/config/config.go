// Package config reads the server configuration from the environment.
package config

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the process configuration. cobra flags may override fields
// after Load.
type Config struct {
	Addr            string        `env:"CRM_ADDR"             envDefault:":8080"`
	DatabaseURL     string        `env:"CRM_DATABASE_URL"     envDefault:"file:crm.db?_pragma=foreign_keys(1)"`
	SecretKey       string        `env:"CRM_SECRET_KEY"`
	LogLevel        string        `env:"CRM_LOG_LEVEL"        envDefault:"info"`
	LogFormat       string        `env:"CRM_LOG_FORMAT"       envDefault:"json"`
	ShutdownTimeout time.Duration `env:"CRM_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	MaxRows         int           `env:"CRM_MAX_ROWS"         envDefault:"500"`

	// Memory selects the in-memory collaborator instead of DatabaseURL.
	Memory bool `env:"CRM_MEMORY"`
}

// ErrInvalid reports a configuration value out of range.
var ErrInvalid = errors.New("config: invalid value")

// Load parses the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate checks the values Load cannot type-check.
func (c Config) Validate() error {
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("%w: log format %q (want json or console)", ErrInvalid, c.LogFormat)
	}
	if c.MaxRows < 0 {
		return fmt.Errorf("%w: max rows %d", ErrInvalid, c.MaxRows)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("%w: shutdown timeout %s", ErrInvalid, c.ShutdownTimeout)
	}
	if !c.Memory && c.DatabaseURL == "" {
		return fmt.Errorf("%w: database url is empty", ErrInvalid)
	}
	return nil
}

// Key returns the props signing key. Without CRM_SECRET_KEY a random key
// is generated, so signed props do not survive a restart.
func (c Config) Key() (key []byte, generated bool, err error) {
	if c.SecretKey != "" {
		return []byte(c.SecretKey), false, nil
	}
	key = make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, false, fmt.Errorf("generate secret key: %w", err)
	}
	return key, true, nil
}
