// Package config provides configuration management.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"taxmap/core/types"
	"taxmap/internal/errors"
	"taxmap/internal/logging"
)

// DefaultRatesURL is the public endpoint serving USD-based rates.
const DefaultRatesURL = "https://api.exchangerate-api.com/v4/latest/USD"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TAXMAP_"

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version"`

	// Rates contains exchange rate acquisition settings
	Rates RatesConfig `json:"rates"`

	// Engine contains calculation settings
	Engine EngineConfig `json:"engine"`

	// Catalog contains country catalog settings
	Catalog CatalogConfig `json:"catalog"`

	// Server contains HTTP server settings
	Server ServerConfig `json:"server"`

	// Output contains output configuration
	Output OutputConfig `json:"output"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging"`
}

// RatesConfig contains exchange rate settings
type RatesConfig struct {
	// URL is the remote JSON rate endpoint
	URL string `json:"url"`

	// TimeoutSeconds bounds a single fetch including retries
	TimeoutSeconds int `json:"timeout_seconds"`

	// MaxRetries is the number of retries after the first attempt
	MaxRetries int `json:"max_retries"`

	// Offline skips the network and uses the static table
	Offline bool `json:"offline"`
}

// Timeout returns the fetch timeout as a duration
func (r RatesConfig) Timeout() time.Duration {
	if r.TimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(r.TimeoutSeconds) * time.Second
}

// EngineConfig contains calculation settings
type EngineConfig struct {
	// Workers bounds concurrent per-country tasks
	Workers int `json:"workers"`

	// DefaultInputCurrency is the salary currency when none is given
	DefaultInputCurrency types.CurrencyCode `json:"default_input_currency"`

	// DefaultDisplayCurrency is the result currency when none is given
	DefaultDisplayCurrency types.CurrencyCode `json:"default_display_currency"`
}

// CatalogConfig contains catalog settings
type CatalogConfig struct {
	// Path is a YAML, JSON or HCL catalog file; empty uses the built-in catalog
	Path string `json:"path,omitempty"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	// Addr is the listen address
	Addr string `json:"addr"`

	// AllowedOrigins are the CORS origins
	AllowedOrigins []string `json:"allowed_origins"`

	// RequestsPerSecond is the per-client sustained rate
	RequestsPerSecond float64 `json:"requests_per_second"`

	// Burst is the per-client burst size
	Burst int `json:"burst"`

	// ReadHeaderTimeoutSeconds bounds reading request headers
	ReadHeaderTimeoutSeconds int `json:"read_header_timeout_seconds"`
}

// OutputConfig contains output-related settings
type OutputConfig struct {
	// DefaultFormat is the default output format
	DefaultFormat string `json:"default_format"`

	// NoColor disables ANSI colours in table output
	NoColor bool `json:"no_color"`
}

// Default returns a default configuration
func Default() *Config {
	return &Config{
		Version: "1.0",
		Rates: RatesConfig{
			URL:            DefaultRatesURL,
			TimeoutSeconds: 5,
			MaxRetries:     2,
		},
		Engine: EngineConfig{
			Workers:                8,
			DefaultInputCurrency:   types.CurrencyUSD,
			DefaultDisplayCurrency: types.CurrencyUSD,
		},
		Server: ServerConfig{
			Addr:                     ":8080",
			AllowedOrigins:           []string{"*"},
			RequestsPerSecond:        10,
			Burst:                    20,
			ReadHeaderTimeoutSeconds: 10,
		},
		Output: OutputConfig{
			DefaultFormat: "table",
		},
		Logging: logging.DefaultConfig(),
	}
}

// DefaultPath returns ~/.taxmap/config.json
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".taxmap", "config.json")
}

// Load loads configuration from a file. A missing file yields defaults.
// Environment overrides are applied on top; see ApplyEnv.
func Load(path string) (*Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, config); err != nil {
			return nil, errors.Config("invalid config file "+path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, errors.Config("failed to read config file "+path, err)
	}

	// .env is optional
	_ = godotenv.Load()

	if err := config.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return config, nil
}

// ApplyEnv overrides fields from TAXMAP_* variables using lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			return "", false
		}
		return strings.TrimSpace(v), true
	}

	if v, ok := get("RATES_URL"); ok && v != "" {
		c.Rates.URL = v
	}
	if v, ok := get("RATES_OFFLINE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Config(EnvPrefix+"RATES_OFFLINE must be a boolean", err)
		}
		c.Rates.Offline = b
	}
	if v, ok := get("WORKERS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return errors.Config(EnvPrefix+"WORKERS must be a positive integer", err)
		}
		c.Engine.Workers = n
	}
	if v, ok := get("CATALOG_PATH"); ok {
		c.Catalog.Path = v
	}
	if v, ok := get("SERVER_ADDR"); ok && v != "" {
		c.Server.Addr = v
	}
	if v, ok := get("ALLOWED_ORIGINS"); ok && v != "" {
		c.Server.AllowedOrigins = strings.Split(v, ",")
	}
	if v, ok := get("LOG_LEVEL"); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := get("LOG_FORMAT"); ok && v != "" {
		c.Logging.Format = v
	}
	return nil
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
