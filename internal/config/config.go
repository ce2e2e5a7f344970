// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jonathan/smartapplicant/internal/logging"
)

// DefaultSessionTTL is how long an idle wizard session is kept.
const DefaultSessionTTL = 2 * time.Hour

// DefaultPort is the HTTP listen port.
const DefaultPort = 8080

// Config represents configuration that can be loaded from a JSON or YAML file.
// All fields are optional; missing values use defaults, environment or CLI flags.
type Config struct {
	// Model access
	APIKey             string            `json:"api_key,omitempty" yaml:"api_key,omitempty"`                           // Gemini API key
	Models             map[string]string `json:"models,omitempty" yaml:"models,omitempty"`                             // tier -> model name
	MaxConcurrentCalls int               `json:"max_concurrent_calls,omitempty" yaml:"max_concurrent_calls,omitempty"` // upstream call cap
	StrictValidation   bool              `json:"strict_validation,omitempty" yaml:"strict_validation,omitempty"`       // enforce score bounds and list sizes

	// Job ingestion
	UseBrowser bool `json:"use_browser,omitempty" yaml:"use_browser,omitempty"` // headless browser fallback for SPA job boards

	// Server
	Port        int    `json:"port,omitempty" yaml:"port,omitempty"`
	SessionTTL  string `json:"session_ttl,omitempty" yaml:"session_ttl,omitempty"` // Go duration, e.g. "2h"
	RedisURL    string `json:"redis_url,omitempty" yaml:"redis_url,omitempty"`     // sessions in Redis instead of memory
	DatabaseURL string `json:"database_url,omitempty" yaml:"database_url,omitempty"`

	// Output
	Log     logging.Config `json:"log,omitempty" yaml:"log,omitempty"`
	Verbose bool           `json:"verbose,omitempty" yaml:"verbose,omitempty"`
}

// LoadConfig loads configuration from a JSON file, or YAML when the extension is .yaml/.yml.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Required fields are checked by the commands that need them.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535")
	}
	if c.MaxConcurrentCalls < 0 {
		return fmt.Errorf("config error: 'max_concurrent_calls' must be non-negative")
	}
	if c.SessionTTL != "" {
		ttl, err := time.ParseDuration(c.SessionTTL)
		if err != nil {
			return fmt.Errorf("config error: invalid 'session_ttl': %w", err)
		}
		if ttl <= 0 {
			return fmt.Errorf("config error: 'session_ttl' must be positive")
		}
	}
	for tier := range c.Models {
		switch tier {
		case "lite", "standard", "advanced":
		default:
			return fmt.Errorf("config error: unknown model tier %q", tier)
		}
	}
	if c.Log.Format != "" && c.Log.Format != "json" && c.Log.Format != "pretty" {
		return fmt.Errorf("config error: 'log.format' must be json or pretty")
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.RedisURL == "" {
		result.RedisURL = defaults.RedisURL
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.SessionTTL == "" {
		result.SessionTTL = defaults.SessionTTL
	}
	if result.Log.Level == "" {
		result.Log.Level = defaults.Log.Level
	}
	if result.Log.Format == "" {
		result.Log.Format = defaults.Log.Format
	}

	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.MaxConcurrentCalls == 0 {
		result.MaxConcurrentCalls = defaults.MaxConcurrentCalls
	}

	if len(defaults.Models) > 0 {
		merged := make(map[string]string, len(defaults.Models)+len(result.Models))
		for k, v := range defaults.Models {
			merged[k] = v
		}
		for k, v := range result.Models {
			merged[k] = v
		}
		result.Models = merged
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// ApplyEnv overrides fields from environment variables when they are set.
func (c *Config) ApplyEnv() {
	c.APIKey = getEnvString("GEMINI_API_KEY", c.APIKey)
	c.DatabaseURL = getEnvString("DATABASE_URL", c.DatabaseURL)
	c.RedisURL = getEnvString("REDIS_URL", c.RedisURL)
	c.SessionTTL = getEnvString("SESSION_TTL", c.SessionTTL)
	c.Log.Level = getEnvString("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnvString("LOG_FORMAT", c.Log.Format)
	c.Port = getEnvInt("PORT", c.Port)
	c.StrictValidation = getEnvBool("STRICT_VALIDATION", c.StrictValidation)
	c.UseBrowser = getEnvBool("USE_BROWSER", c.UseBrowser)
}

// SessionTTLDuration returns the parsed session TTL or DefaultSessionTTL.
func (c *Config) SessionTTLDuration() time.Duration {
	if c.SessionTTL == "" {
		return DefaultSessionTTL
	}
	ttl, err := time.ParseDuration(c.SessionTTL)
	if err != nil || ttl <= 0 {
		return DefaultSessionTTL
	}
	return ttl
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Port:               DefaultPort,
		MaxConcurrentCalls: 4,
		SessionTTL:         DefaultSessionTTL.String(),
		Log: logging.Config{
			Level:  "info",
			Format: "json",
		},
	}
}
