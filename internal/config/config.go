package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendMemory = "memory"
)

// Environment variables that override the config file.
const (
	EnvAPIKey     = "COINFAV_API_KEY"
	EnvAPIBaseURL = "COINFAV_API_BASE_URL"
	EnvDataDir    = "COINFAV_DATA_DIR"
	EnvLogLevel   = "COINFAV_LOG_LEVEL"
)

// Config holds the application configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
	Markets MarketsConfig `yaml:"markets"`
}

// APIConfig configures the price API client.
type APIConfig struct {
	BaseURL    string        `yaml:"base_url"`
	Key        string        `yaml:"key"`
	Currency   string        `yaml:"currency"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// StorageConfig selects where favorites are kept.
type StorageConfig struct {
	Backend string `yaml:"backend"`
	DataDir string `yaml:"data_dir"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// MarketsConfig configures the market listing.
type MarketsConfig struct {
	PerPage int `yaml:"per_page"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		API: APIConfig{
			BaseURL:    "https://api.coingecko.com/api/v3",
			Currency:   "usd",
			Timeout:    15 * time.Second,
			MaxRetries: 3,
		},
		Storage: StorageConfig{
			Backend: BackendSQLite,
			DataDir: DefaultDataDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
		Markets: MarketsConfig{
			PerPage: 50,
		},
	}
}

// Load reads the config file at path on top of the defaults, then applies
// environment overrides and validates the result. An empty path falls back
// to DefaultPath, which may be absent.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		if p, err := DefaultPath(); err == nil {
			if _, err := os.Stat(p); err == nil {
				path = p
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.ApplyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the environment. lookup is usually
// os.LookupEnv; empty values are ignored.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvAPIKey); ok && v != "" {
		c.API.Key = v
	}
	if v, ok := lookup(EnvAPIBaseURL); ok && v != "" {
		c.API.BaseURL = v
	}
	if v, ok := lookup(EnvDataDir); ok && v != "" {
		c.Storage.DataDir = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid api base url: %q", c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return errors.New("api timeout must be positive")
	}
	if c.API.MaxRetries < 0 {
		return errors.New("api max_retries must not be negative")
	}
	if strings.TrimSpace(c.API.Currency) == "" {
		return errors.New("api currency is required")
	}

	switch c.Storage.Backend {
	case BackendSQLite, BackendFile:
		if c.Storage.DataDir == "" {
			return fmt.Errorf("storage data_dir is required for the %s backend", c.Storage.Backend)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown storage backend: %q", c.Storage.Backend)
	}

	if c.Markets.PerPage < 1 || c.Markets.PerPage > 250 {
		return fmt.Errorf("markets per_page must be between 1 and 250, got %d", c.Markets.PerPage)
	}
	return nil
}
