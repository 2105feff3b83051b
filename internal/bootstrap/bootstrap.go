package bootstrap

import (
	"context"
	"fmt"

	"github.com/marcelsud/webhook-shield/config"
	"github.com/marcelsud/webhook-shield/webhook"
	"github.com/marcelsud/webhook-shield/webhook/codec"
	"github.com/marcelsud/webhook-shield/webhook/file"
	"github.com/marcelsud/webhook-shield/webhook/postgres"
	"github.com/marcelsud/webhook-shield/webhook/redis"
	"github.com/marcelsud/webhook-shield/webhook/relay"
	"github.com/marcelsud/webhook-shield/webhook/signature"
	"github.com/rs/zerolog"
)

/* Wiring shared by cmd/api and cmd/cli
 * Both binaries build the same store so registrations made by one resolve in the other
 */

// NewRepository opens the store selected by STORE_DRIVER
func NewRepository(ctx context.Context, cfg *config.Config) (webhook.Repository, error) {
	switch cfg.StoreDriver {
	case config.DriverFile:
		return file.NewRepository(cfg.DataFile), nil
	case config.DriverRedis:
		repo, err := redis.NewRepository(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("opening redis store: %w", err)
		}
		return repo, nil
	case config.DriverPostgres:
		repo, err := postgres.NewRepository(cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("opening postgres store: %w", err)
		}
		if err := repo.CreateTable(ctx); err != nil {
			_ = repo.Close(ctx)
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// NewRelayer builds the outbound client, signing when a secret is configured
func NewRelayer(cfg *config.Config) (*relay.HTTPRelayer, error) {
	var opts []relay.Option
	if cfg.RelaySigningSecret != "" {
		secret, err := signature.ParseSecret(cfg.RelaySigningSecret)
		if err != nil {
			return nil, fmt.Errorf("RELAY_SIGNING_SECRET: %w", err)
		}
		opts = append(opts, relay.WithSigner(signature.NewSigner(secret)))
	}
	return relay.New(cfg.RelayTimeout(), opts...), nil
}

// NewService assembles the webhook service on top of repo
func NewService(cfg *config.Config, repo webhook.Repository, logger zerolog.Logger) (*webhook.Service, error) {
	c, err := codec.New([]byte(cfg.EncryptionKey), cfg.Algorithm())
	if err != nil {
		return nil, fmt.Errorf("creating codec: %w", err)
	}

	relayer, err := NewRelayer(cfg)
	if err != nil {
		return nil, err
	}

	return webhook.NewService(repo, c, relayer,
		webhook.WithLogger(logger),
		webhook.WithTTL(cfg.MappingTTL()),
		webhook.WithUsagePolicy(cfg.Policy()),
		webhook.WithStrictPersistence(cfg.StrictPersistence),
	), nil
}
