// Package config loads the claims layer configuration from YAML with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/opencover/claims_layer/pkg/logger"
)

// Config is the full application configuration.
type Config struct {
	Server   ServerConfig         `yaml:"server"`
	Database DatabaseConfig       `yaml:"database"`
	Logging  logger.LoggingConfig `yaml:"logging"`
	Pool     PoolConfig           `yaml:"pool"`
	Auth     AuthConfig           `yaml:"auth"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	ReadTimeout    int      `yaml:"read_timeout_seconds"`
	WriteTimeout   int      `yaml:"write_timeout_seconds"`
	AllowedOrigins []string `yaml:"cors_allowed_origins"`
}

// DatabaseConfig controls the optional PostgreSQL journal. When the DSN is
// empty the application falls back to in-memory storage.
type DatabaseConfig struct {
	Driver          string `yaml:"driver"`
	DSN             string `yaml:"dsn"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime_seconds"`
}

// PoolConfig carries the DAO parameters. They are fixed once the pool is
// constructed.
type PoolConfig struct {
	VotingPeriodSeconds    int    `yaml:"voting_period_seconds"`
	ChallengePeriodSeconds int    `yaml:"challenge_period_seconds"`
	MinStake               string `yaml:"min_stake"`
	InitialPremiumRate     int    `yaml:"initial_premium_rate"`
	Treasury               string `yaml:"treasury"`
	BootstrapAdmin         string `yaml:"bootstrap_admin"`
}

// AuthConfig controls caller attribution on the HTTP surface.
type AuthConfig struct {
	// JWTSecret signs and verifies bearer tokens. When empty, auth is
	// disabled and callers are attributed via the X-Caller header; only for
	// local development.
	JWTSecret string `yaml:"jwt_secret"`
}

// Load reads the configuration from CLAIMS_CONFIG or config/claims.yaml.
// A missing file yields defaults so local runs work out of the box.
func Load() (*Config, error) {
	path := os.Getenv("CLAIMS_CONFIG")
	if path == "" {
		path = filepath.Join("config", "claims.yaml")
	}
	return LoadFromPath(path)
}

// LoadFromPath reads the configuration from a specific file.
func LoadFromPath(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnv(cfg)

	if cfg.Server.Port <= 0 {
		return nil, fmt.Errorf("server port must be positive")
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8090,
			ReadTimeout:  15,
			WriteTimeout: 15,
		},
		Database: DatabaseConfig{
			Driver: "postgres",
		},
		Logging: logger.LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Pool: PoolConfig{
			VotingPeriodSeconds:    86400,
			ChallengePeriodSeconds: 3600,
			MinStake:               "1000000000000000000",
			InitialPremiumRate:     10,
			Treasury:               "pool-treasury",
		},
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("CLAIMS_HTTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("CLAIMS_DB_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("CLAIMS_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CLAIMS_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("CLAIMS_BOOTSTRAP_ADMIN"); v != "" {
		cfg.Pool.BootstrapAdmin = v
	}
}
