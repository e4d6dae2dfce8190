package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "file:crm.db?_pragma=foreign_keys(1)", cfg.DatabaseURL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 500, cfg.MaxRows)
	assert.False(t, cfg.Memory)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CRM_ADDR", "127.0.0.1:9000")
	t.Setenv("CRM_LOG_FORMAT", "console")
	t.Setenv("CRM_SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("CRM_MAX_ROWS", "50")
	t.Setenv("CRM_MEMORY", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 50, cfg.MaxRows)
	assert.True(t, cfg.Memory)
}

func TestLoadError(t *testing.T) {
	t.Setenv("CRM_MAX_ROWS", "lots")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestValidate(t *testing.T) {
	base, err := Load()
	require.NoError(t, err)

	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"log format", func(c *Config) { c.LogFormat = "xml" }},
		{"max rows", func(c *Config) { c.MaxRows = -1 }},
		{"shutdown timeout", func(c *Config) { c.ShutdownTimeout = 0 }},
		{"database url", func(c *Config) { c.DatabaseURL = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.modify(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}

	cfg := base
	cfg.DatabaseURL = ""
	cfg.Memory = true
	assert.NoError(t, cfg.Validate())
}

func TestKey(t *testing.T) {
	key, generated, err := Config{SecretKey: "s3cret"}.Key()
	require.NoError(t, err)
	assert.False(t, generated)
	assert.Equal(t, []byte("s3cret"), key)

	a, generated, err := Config{}.Key()
	require.NoError(t, err)
	assert.True(t, generated)
	assert.Len(t, a, 32)
	b, _, err := Config{}.Key()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
