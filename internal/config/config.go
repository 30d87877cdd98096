package config

import (
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the chat engine daemon.
type Config struct {
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
	Server    ServerConfig
	Backend   BackendConfig
	Storage   StorageConfig
	Redis     RedisConfig
	Media     MediaConfig
}

// ServerConfig holds the local gateway listener configuration. The
// gateway is meant for the UI shell on the same machine, so it binds to
// loopback by default.
type ServerConfig struct {
	Host string `envconfig:"SERVER_HOST" default:"127.0.0.1"`
	Port string `envconfig:"SERVER_PORT" default:"8787"`
}

// BackendConfig holds the remote nextch backend configuration.
type BackendConfig struct {
	BaseURL string `envconfig:"BACKEND_URL" required:"true"`
	// JWTSecret enables local signature verification of session tokens.
	// When empty, claims are parsed without verification; the backend
	// stays the enforcing party either way.
	JWTSecret string `envconfig:"JWT_SECRET"`
}

// StorageConfig holds the embedded local store configuration.
type StorageConfig struct {
	Path string `envconfig:"DATA_DIR" default:"./data/nextch"`
}

// RedisConfig holds the optional shared-cache configuration. An empty URI
// disables Redis.
type RedisConfig struct {
	URI string `envconfig:"REDIS_URI"`
}

// MediaConfig controls retention of locally stored media blobs.
type MediaConfig struct {
	MaxAge        time.Duration `envconfig:"MEDIA_MAX_AGE" default:"168h"`
	SweepInterval time.Duration `envconfig:"MEDIA_SWEEP_INTERVAL" default:"1h"`
	// MaxUploadBytes caps attachment size accepted by the gateway.
	MaxUploadBytes int64 `envconfig:"MEDIA_MAX_UPLOAD_BYTES" default:"5242880"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks configuration for logical errors beyond required fields.
func (c *Config) Validate() error {
	if c.Media.MaxAge <= 0 {
		return errors.New("MEDIA_MAX_AGE must be positive")
	}
	if c.Media.SweepInterval <= 0 {
		return errors.New("MEDIA_SWEEP_INTERVAL must be positive")
	}
	if c.Media.MaxUploadBytes <= 0 {
		return errors.New("MEDIA_MAX_UPLOAD_BYTES must be positive")
	}
	return nil
}
