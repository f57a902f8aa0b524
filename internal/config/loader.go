package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadOptions represents options for loading configuration
type LoadOptions struct {
	Path string
}

// Load loads configuration from various sources
func Load(opts ...LoadOptions) (*Config, error) {
	cfg := Default()

	var options LoadOptions
	if len(opts) > 0 {
		options = opts[0]
	}

	if options.Path != "" {
		if err := loadFromFile(cfg, options.Path); err != nil {
			return nil, err
		}
	}

	loadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile loads configuration from a file
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse JSON config: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse YAML config: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config file format: %s", ext)
	}

	return nil
}

// loadFromEnv loads configuration from environment variables
func loadFromEnv(cfg *Config) {
	if v := os.Getenv("SCORELINE_SERVER_URL"); v != "" {
		cfg.Server.URL = v
	}

	if v := os.Getenv("SCORELINE_AUTO_RECONNECT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Realtime.AutoReconnect = b
		}
	}
	if v := os.Getenv("SCORELINE_RECONNECT_MAX_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Realtime.ReconnectMaxDelay = Duration{d}
		}
	}
	if v := os.Getenv("SCORELINE_PROBE_ADDRESS"); v != "" {
		cfg.Realtime.ProbeAddress = v
	}

	if v := os.Getenv("SCORELINE_TOKEN"); v != "" {
		cfg.Auth.Token = v
		cfg.Auth.TokenFile = ""
	}
	if v := os.Getenv("SCORELINE_TOKEN_FILE"); v != "" {
		cfg.Auth.TokenFile = v
		cfg.Auth.Token = ""
	}

	if v := os.Getenv("SCORELINE_HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}

	if level := os.Getenv("SCORELINE_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if format := os.Getenv("SCORELINE_LOG_FORMAT"); format != "" {
		cfg.Logging.Format = format
	}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

// NewConfigError creates a new configuration error
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Message: message,
	}
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in field '%s': %s", e.Field, e.Message)
}
