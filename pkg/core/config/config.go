// Package config loads runtime settings from .env and STRESS_* environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"liquidity_stress/pkg/core/covenant"
)

// EnvPrefix is prepended to every variable, e.g. STRESS_SEC_USER_AGENT.
const EnvPrefix = "STRESS"

// Config represents the complete application configuration
type Config struct {
	SEC       SECConfig       `yaml:"sec" envconfig:"SEC"`
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Covenants CovenantsConfig `yaml:"covenants" envconfig:"COVENANTS"`

	// ScenarioDeck optionally replaces the preset scenarios.
	ScenarioDeck string `yaml:"scenario_deck" envconfig:"SCENARIO_DECK"`
}

// SECConfig controls outbound EDGAR requests.
type SECConfig struct {
	UserAgent      string        `yaml:"user_agent" envconfig:"USER_AGENT" default:"LiquidityStress/1.0 (contact@example.com)"`
	Timeout        time.Duration `yaml:"timeout" envconfig:"TIMEOUT" default:"30s"`
	RateLimit      float64       `yaml:"rate_limit" envconfig:"RATE_LIMIT" default:"10"`
	TickerCacheTTL time.Duration `yaml:"ticker_cache_ttl" envconfig:"TICKER_CACHE_TTL" default:"12h"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"90s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format string `yaml:"format" envconfig:"FORMAT" default:"text"`
}

// CovenantsConfig holds the thresholds used when a request does not supply them.
type CovenantsConfig struct {
	MaxLeverage     float64 `yaml:"max_leverage" envconfig:"MAX_LEVERAGE" default:"4.0"`
	MinCoverage     float64 `yaml:"min_coverage" envconfig:"MIN_COVERAGE" default:"3.0"`
	MinCurrentRatio float64 `yaml:"min_current_ratio" envconfig:"MIN_CURRENT_RATIO" default:"1.1"`
	MinCash         float64 `yaml:"min_cash" envconfig:"MIN_CASH" default:"0.0"`
}

// Thresholds converts the configured defaults.
func (c CovenantsConfig) Thresholds() covenant.Thresholds {
	return covenant.Thresholds{
		MaxLeverage:     c.MaxLeverage,
		MinCoverage:     c.MinCoverage,
		MinCurrentRatio: c.MinCurrentRatio,
		MinCash:         c.MinCash,
	}
}

// Load reads .env (when present) into the environment, then decodes
// STRESS_* variables over the defaults.
func Load() (*Config, error) {
	// Missing .env is normal outside development.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// LoadFile decodes a YAML config file over the environment-derived defaults.
// Values present in the file win.
func LoadFile(path string) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.SEC.UserAgent) == "" {
		return fmt.Errorf("SEC user agent must not be empty")
	}
	if c.SEC.Timeout <= 0 {
		return fmt.Errorf("SEC timeout must be positive, got %s", c.SEC.Timeout)
	}
	if c.SEC.RateLimit <= 0 {
		return fmt.Errorf("SEC rate limit must be positive, got %v", c.SEC.RateLimit)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}
	return nil
}
