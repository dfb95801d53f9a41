// Package config loads process configuration from, in increasing order of
// precedence: built-in defaults, a YAML file, a .env file and the
// environment.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "evote.config"

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// RelayMode selects how the API process hands snapshots to subscribers.
type RelayMode string

const (
	// RelayEmbedded runs the broker inside the API process.
	RelayEmbedded RelayMode = "embedded"
	// RelayRemote forwards snapshots to a relay process over HTTP.
	RelayRemote RelayMode = "remote"
	RelayOff    RelayMode = "off"
)

func (m RelayMode) Valid() bool {
	switch m {
	case RelayEmbedded, RelayRemote, RelayOff:
		return true
	default:
		return false
	}
}

type Config struct {
	HTTPAddr        string        `yaml:"httpAddr"        envconfig:"HTTP_ADDR"`
	RelayAddr       string        `yaml:"relayAddr"       envconfig:"RELAY_ADDR"`
	DatabaseDriver  string        `yaml:"databaseDriver"  envconfig:"DATABASE_DRIVER"`
	DatabaseURL     string        `yaml:"databaseUrl"     envconfig:"DATABASE_URL"`
	SeedFile        string        `yaml:"seedFile"        envconfig:"SEED_FILE"`
	StoreTimeout    time.Duration `yaml:"storeTimeout"    envconfig:"STORE_TIMEOUT"`
	SnapshotTimeout time.Duration `yaml:"snapshotTimeout" envconfig:"SNAPSHOT_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" envconfig:"SHUTDOWN_TIMEOUT"`
	JWTSecret       string        `yaml:"jwtSecret"       envconfig:"JWT_SECRET"`

	RelayMode             RelayMode     `yaml:"relayMode"             envconfig:"RELAY_MODE"`
	RelayURL              string        `yaml:"relayUrl"              envconfig:"RELAY_URL"`
	RelayToken            string        `yaml:"relayToken"            envconfig:"RELAY_TOKEN"`
	RelayTimeout          time.Duration `yaml:"relayTimeout"          envconfig:"RELAY_TIMEOUT"`
	RelayQueueSize        int           `yaml:"relayQueueSize"        envconfig:"RELAY_QUEUE_SIZE"`
	RelaySubscriberBuffer int           `yaml:"relaySubscriberBuffer" envconfig:"RELAY_SUBSCRIBER_BUFFER"`
	RelayHeartbeat        time.Duration `yaml:"relayHeartbeat"        envconfig:"RELAY_HEARTBEAT"`
}

func Default() *Config {
	return &Config{
		HTTPAddr:              "0.0.0.0:8080",
		RelayAddr:             "0.0.0.0:8090",
		DatabaseDriver:        DriverPostgres,
		StoreTimeout:          5 * time.Second,
		SnapshotTimeout:       10 * time.Second,
		ShutdownTimeout:       30 * time.Second,
		RelayMode:             RelayEmbedded,
		RelayURL:              "http://127.0.0.1:8090",
		RelayTimeout:          2 * time.Second,
		RelayQueueSize:        1000,
		RelaySubscriberBuffer: 16,
		RelayHeartbeat:        15 * time.Second,
	}
}

// LoadConfig builds the configuration. configFile may be empty.
func LoadConfig(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	// .env is optional; it never overrides variables already set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	if err := envconfig.Process("evote", cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}

	if cfg.DatabaseURL == "" && cfg.DatabaseDriver == DriverPostgres {
		cfg.DatabaseURL = postgresURLFromEnv()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings every command relies on. Commands that open
// the record store also call ValidateStore.
func (c *Config) Validate() error {
	if !c.RelayMode.Valid() {
		return fmt.Errorf("unknown relay mode %q", c.RelayMode)
	}
	if c.RelayMode == RelayRemote && c.RelayURL == "" {
		return errors.New("relay url is required in remote relay mode")
	}
	if c.StoreTimeout <= 0 || c.SnapshotTimeout <= 0 {
		return errors.New("store and snapshot timeouts must be positive")
	}
	return nil
}

func (c *Config) ValidateStore() error {
	switch c.DatabaseDriver {
	case DriverPostgres, DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("unknown database driver %q", c.DatabaseDriver)
	}
	if c.DatabaseDriver != DriverMemory && c.DatabaseURL == "" {
		return fmt.Errorf("database url is required for driver %q", c.DatabaseDriver)
	}
	return nil
}

// postgresURLFromEnv supports the POSTGRES_* variables used by the
// postgres container image.
func postgresURLFromEnv() string {
	host := os.Getenv("POSTGRES_HOST")
	if host == "" {
		return ""
	}
	port := os.Getenv("POSTGRES_PORT")
	if port == "" {
		port = "5432"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		os.Getenv("POSTGRES_USER"),
		os.Getenv("POSTGRES_PASSWORD"),
		host,
		port,
		os.Getenv("POSTGRES_DB"),
	)
}
