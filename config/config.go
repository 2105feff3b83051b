package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/marcelsud/webhook-shield/webhook"
	"github.com/marcelsud/webhook-shield/webhook/codec"
	"github.com/spf13/viper"
)

/* Config is read from an optional .env (toml) in the working directory
 * Environment variables override the file
 */

// RequestTimeout bounds every HTTP request; a relay must finish inside it
const RequestTimeout = 30 * time.Second

const (
	DriverFile     = "file"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

type Config struct {
	Port string `mapstructure:"PORT"`

	EncryptionKey string `mapstructure:"ENCRYPTION_KEY"`
	Cipher        string `mapstructure:"CIPHER"`

	StoreDriver   string `mapstructure:"STORE_DRIVER"`
	DataFile      string `mapstructure:"DATA_FILE"`
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
	PostgresURL   string `mapstructure:"POSTGRES_URL"`

	PublicBaseURL       string `mapstructure:"PUBLIC_BASE_URL"`
	RelayTimeoutSeconds int    `mapstructure:"RELAY_TIMEOUT_SECONDS"`
	RelaySigningSecret  string `mapstructure:"RELAY_SIGNING_SECRET"`
	MappingTTLHours     int    `mapstructure:"MAPPING_TTL_HOURS"`
	UsagePolicy         string `mapstructure:"USAGE_POLICY"`
	StrictPersistence   bool   `mapstructure:"STRICT_PERSISTENCE"`
	MetricsEnabled      bool   `mapstructure:"METRICS_ENABLED"`
	MaxBodyBytes        int64  `mapstructure:"MAX_BODY_BYTES"`
}

var defaults = map[string]any{
	"PORT":                  "8080",
	"ENCRYPTION_KEY":        "",
	"CIPHER":                "aes-gcm",
	"STORE_DRIVER":          DriverFile,
	"DATA_FILE":             "data/webhooks.json",
	"REDIS_ADDR":            "localhost:6379",
	"REDIS_PASSWORD":        "",
	"REDIS_DB":              0,
	"POSTGRES_URL":          "",
	"PUBLIC_BASE_URL":       "",
	"RELAY_TIMEOUT_SECONDS": 10,
	"RELAY_SIGNING_SECRET":  "",
	"MAPPING_TTL_HOURS":     0,
	"USAGE_POLICY":          "attempts",
	"STRICT_PERSISTENCE":    false,
	"METRICS_ENABLED":       true,
	"MAX_BODY_BYTES":        1 << 20,
}

// GetConfig loads configuration from ./.env and the environment
func GetConfig() (*Config, error) {
	return Load(".")
}

// Load reads .env from dir when present; a missing file is not an error
func Load(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("toml")
	v.AddConfigPath(dir)
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("parsing config data: %w", err)
	}
	return &config, nil
}

// Validate fails fast on settings the service cannot start with
func (c *Config) Validate() error {
	if len(c.EncryptionKey) != codec.KeySize {
		return fmt.Errorf("ENCRYPTION_KEY must be exactly %d characters (got %d)", codec.KeySize, len(c.EncryptionKey))
	}
	if err := c.Algorithm().Validate(); err != nil {
		return fmt.Errorf("CIPHER %q: %w", c.Cipher, err)
	}
	switch c.StoreDriver {
	case DriverFile:
		if c.DataFile == "" {
			return fmt.Errorf("DATA_FILE is required for the file driver")
		}
	case DriverRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis driver")
		}
	case DriverPostgres:
		if c.PostgresURL == "" {
			return fmt.Errorf("POSTGRES_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.UsagePolicy != webhook.CountAttempts.String() && c.UsagePolicy != webhook.CountSuccesses.String() {
		return fmt.Errorf("unknown USAGE_POLICY %q", c.UsagePolicy)
	}
	if c.RelayTimeoutSeconds <= 0 {
		return fmt.Errorf("RELAY_TIMEOUT_SECONDS must be positive")
	}
	if c.RelayTimeout() >= RequestTimeout {
		return fmt.Errorf("RELAY_TIMEOUT_SECONDS must be below the %s request timeout", RequestTimeout)
	}
	if c.MappingTTLHours < 0 {
		return fmt.Errorf("MAPPING_TTL_HOURS cannot be negative")
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive")
	}
	return nil
}

func (c *Config) Algorithm() codec.Algorithm {
	return codec.NewAlgorithm(c.Cipher)
}

func (c *Config) Policy() webhook.UsagePolicy {
	return webhook.NewUsagePolicy(c.UsagePolicy)
}

func (c *Config) RelayTimeout() time.Duration {
	return time.Duration(c.RelayTimeoutSeconds) * time.Second
}

// MappingTTL is zero when mappings never expire
func (c *Config) MappingTTL() time.Duration {
	return time.Duration(c.MappingTTLHours) * time.Hour
}
