package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/marcelsud/webhook-shield/config"
	"github.com/marcelsud/webhook-shield/webhook"
	"github.com/marcelsud/webhook-shield/webhook/codec"
	"github.com/marcelsud/webhook-shield/webhook/file"
	"github.com/marcelsud/webhook-shield/webhook/signature"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		EncryptionKey:       "0123456789abcdefghijklmnopqrstuv",
		Cipher:              "aes-gcm",
		StoreDriver:         config.DriverFile,
		DataFile:            filepath.Join(t.TempDir(), "webhooks.json"),
		RelayTimeoutSeconds: 5,
		UsagePolicy:         "attempts",
		MaxBodyBytes:        1 << 20,
	}
}

func TestNewRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("file driver", func(t *testing.T) {
		repo, err := NewRepository(ctx, testConfig(t))
		require.NoError(t, err)
		assert.IsType(t, &file.Repository{}, repo)
	})

	t.Run("unknown driver", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.StoreDriver = "mongo"

		_, err := NewRepository(ctx, cfg)
		assert.ErrorContains(t, err, "unknown store driver")
	})
}

func TestNewService(t *testing.T) {
	ctx := context.Background()

	t.Run("register then forward lookup through the file store", func(t *testing.T) {
		cfg := testConfig(t)
		repo, err := NewRepository(ctx, cfg)
		require.NoError(t, err)

		svc, err := NewService(cfg, repo, zerolog.Nop())
		require.NoError(t, err)

		reg, err := svc.Register(ctx, "https://example.com/hook", "https://shield.test")
		require.NoError(t, err)

		_, destination, err := svc.Inspect(ctx, reg.ID)
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/hook", destination)
	})

	t.Run("bad key", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.EncryptionKey = "short"

		_, err := NewService(cfg, nil, zerolog.Nop())
		assert.ErrorIs(t, err, codec.ErrInvalidKey)
	})

	t.Run("bad signing secret", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.RelaySigningSecret = "not-a-secret"

		_, err := NewService(cfg, nil, zerolog.Nop())
		assert.ErrorContains(t, err, "RELAY_SIGNING_SECRET")
	})

	t.Run("valid signing secret", func(t *testing.T) {
		secret, err := signature.GenerateSecret(32)
		require.NoError(t, err)
		cfg := testConfig(t)
		cfg.RelaySigningSecret = secret.String()

		svc, err := NewService(cfg, nil, zerolog.Nop())
		require.NoError(t, err)
		var _ webhook.UseCase = svc
	})
}
