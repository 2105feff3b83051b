package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/marcelsud/webhook-shield/webhook"
	"github.com/marcelsud/webhook-shield/webhook/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validKey = "0123456789abcdefghijklmnopqrstuv"

func validConfig() *Config {
	return &Config{
		Port:                "8080",
		EncryptionKey:       validKey,
		Cipher:              "aes-gcm",
		StoreDriver:         DriverFile,
		DataFile:            "data/webhooks.json",
		RelayTimeoutSeconds: 10,
		UsagePolicy:         "attempts",
		MaxBodyBytes:        1 << 20,
	}
}

func TestLoad(t *testing.T) {
	t.Run("defaults without a file", func(t *testing.T) {
		t.Setenv("PORT", "")
		t.Setenv("STORE_DRIVER", "")
		os.Unsetenv("PORT")
		os.Unsetenv("STORE_DRIVER")

		cfg, err := Load(t.TempDir())

		require.NoError(t, err)
		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, DriverFile, cfg.StoreDriver)
		assert.Equal(t, "data/webhooks.json", cfg.DataFile)
		assert.Equal(t, 10*time.Second, cfg.RelayTimeout())
		assert.Equal(t, int64(1<<20), cfg.MaxBodyBytes)
		assert.True(t, cfg.MetricsEnabled)
		assert.False(t, cfg.StrictPersistence)
		assert.Zero(t, cfg.MappingTTL())
	})

	t.Run("file values", func(t *testing.T) {
		dir := t.TempDir()
		content := "PORT = \"9090\"\nSTORE_DRIVER = \"redis\"\nMAPPING_TTL_HOURS = 48\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600))

		cfg, err := Load(dir)

		require.NoError(t, err)
		assert.Equal(t, "9090", cfg.Port)
		assert.Equal(t, DriverRedis, cfg.StoreDriver)
		assert.Equal(t, 48*time.Hour, cfg.MappingTTL())
	})

	t.Run("environment overrides file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PORT = \"9090\"\n"), 0o600))
		t.Setenv("PORT", "7070")
		t.Setenv("ENCRYPTION_KEY", validKey)
		t.Setenv("STRICT_PERSISTENCE", "true")
		t.Setenv("USAGE_POLICY", "successes")

		cfg, err := Load(dir)

		require.NoError(t, err)
		assert.Equal(t, "7070", cfg.Port)
		assert.Equal(t, validKey, cfg.EncryptionKey)
		assert.True(t, cfg.StrictPersistence)
		assert.Equal(t, webhook.CountSuccesses, cfg.Policy())
	})

	t.Run("malformed file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PORT = = ="), 0o600))

		_, err := Load(dir)

		assert.ErrorContains(t, err, "reading config file")
	})
}

func TestValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		cfg := validConfig()
		require.NoError(t, cfg.Validate())
		assert.Equal(t, codec.AESGCM, cfg.Algorithm())
	})

	tests := map[string]func(c *Config){
		"missing key":            func(c *Config) { c.EncryptionKey = "" },
		"short key":              func(c *Config) { c.EncryptionKey = "short" },
		"long key":               func(c *Config) { c.EncryptionKey = validKey + "x" },
		"unknown cipher":         func(c *Config) { c.Cipher = "rot13" },
		"unknown driver":         func(c *Config) { c.StoreDriver = "mongo" },
		"redis without address":  func(c *Config) { c.StoreDriver = DriverRedis; c.RedisAddr = "" },
		"postgres without url":   func(c *Config) { c.StoreDriver = DriverPostgres },
		"file without path":      func(c *Config) { c.DataFile = "" },
		"unknown usage policy":   func(c *Config) { c.UsagePolicy = "sometimes" },
		"zero relay timeout":     func(c *Config) { c.RelayTimeoutSeconds = 0 },
		"relay outlasts request": func(c *Config) { c.RelayTimeoutSeconds = 30 },
		"negative ttl":           func(c *Config) { c.MappingTTLHours = -1 },
		"zero body limit":        func(c *Config) { c.MaxBodyBytes = 0 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := validConfig()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	t.Run("xchacha cipher", func(t *testing.T) {
		cfg := validConfig()
		cfg.Cipher = "xchacha20-poly1305"
		require.NoError(t, cfg.Validate())
		assert.Equal(t, codec.XChaCha20Poly1305, cfg.Algorithm())
	})
}
