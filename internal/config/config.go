package config

import (
	"net/url"
	"time"

	"github.com/HMasataka/scoreline/internal/logging"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `json:"server" yaml:"server"`
	Realtime RealtimeConfig `json:"realtime" yaml:"realtime"`
	Auth     AuthConfig     `json:"auth" yaml:"auth"`
	HTTP     HTTPConfig     `json:"http" yaml:"http"`
	Logging  logging.Config `json:"logging" yaml:"logging"`
}

// ServerConfig describes the push channel endpoint
type ServerConfig struct {
	URL              string   `json:"url" yaml:"url"`
	HandshakeTimeout Duration `json:"handshake_timeout" yaml:"handshake_timeout"`
}

// RealtimeConfig controls the connection and reconnection policy
type RealtimeConfig struct {
	AutoReconnect        bool     `json:"auto_reconnect" yaml:"auto_reconnect"`
	ReconnectBaseDelay   Duration `json:"reconnect_base_delay" yaml:"reconnect_base_delay"`
	ReconnectMaxDelay    Duration `json:"reconnect_max_delay" yaml:"reconnect_max_delay"`
	MaxReconnectAttempts int      `json:"max_reconnect_attempts" yaml:"max_reconnect_attempts"`
	PingInterval         Duration `json:"ping_interval" yaml:"ping_interval"`
	ReadTimeout          Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout         Duration `json:"write_timeout" yaml:"write_timeout"`
	ProbeAddress         string   `json:"probe_address" yaml:"probe_address"`
	ProbeInterval        Duration `json:"probe_interval" yaml:"probe_interval"`
}

// AuthConfig describes where the referee credential comes from
type AuthConfig struct {
	Token     string `json:"token,omitempty" yaml:"token,omitempty"`
	TokenFile string `json:"token_file,omitempty" yaml:"token_file,omitempty"`
}

// HTTPConfig configures the local presentation bridge
type HTTPConfig struct {
	Addr         string   `json:"addr" yaml:"addr"`
	ReadTimeout  Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout Duration `json:"write_timeout" yaml:"write_timeout"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			URL:              "ws://localhost:3000/ws",
			HandshakeTimeout: Duration{10 * time.Second},
		},
		Realtime: RealtimeConfig{
			AutoReconnect:      true,
			ReconnectBaseDelay: Duration{time.Second},
			ReconnectMaxDelay:  Duration{30 * time.Second},
			PingInterval:       Duration{25 * time.Second},
			ReadTimeout:        Duration{60 * time.Second},
			WriteTimeout:       Duration{10 * time.Second},
			ProbeInterval:      Duration{5 * time.Second},
		},
		HTTP: HTTPConfig{
			Addr:         "127.0.0.1:8080",
			ReadTimeout:  Duration{15 * time.Second},
			WriteTimeout: Duration{15 * time.Second},
		},
		Logging: logging.Config{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.URL == "" {
		return NewConfigError("server.url", "endpoint is required")
	}

	u, err := url.Parse(c.Server.URL)
	if err != nil {
		return NewConfigError("server.url", err.Error())
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return NewConfigError("server.url", "scheme must be ws or wss")
	}

	if c.Server.HandshakeTimeout.Duration < 0 {
		return NewConfigError("server.handshake_timeout", "timeout cannot be negative")
	}

	if c.Realtime.ReconnectBaseDelay.Duration <= 0 {
		return NewConfigError("realtime.reconnect_base_delay", "delay must be positive")
	}

	if c.Realtime.ReconnectMaxDelay.Duration < c.Realtime.ReconnectBaseDelay.Duration {
		return NewConfigError("realtime.reconnect_max_delay", "must not be lower than reconnect_base_delay")
	}

	if c.Realtime.MaxReconnectAttempts < 0 {
		return NewConfigError("realtime.max_reconnect_attempts", "cannot be negative")
	}

	if c.Realtime.ReadTimeout.Duration < 0 || c.Realtime.WriteTimeout.Duration < 0 {
		return NewConfigError("realtime.read_timeout", "timeout cannot be negative")
	}

	if c.Realtime.ProbeAddress != "" && c.Realtime.ProbeInterval.Duration <= 0 {
		return NewConfigError("realtime.probe_interval", "interval must be positive when probe_address is set")
	}

	if c.Auth.Token != "" && c.Auth.TokenFile != "" {
		return NewConfigError("auth", "token and token_file are mutually exclusive")
	}

	if c.HTTP.Addr == "" {
		return NewConfigError("http.addr", "listen address is required")
	}

	return nil
}
