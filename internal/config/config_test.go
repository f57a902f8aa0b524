package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scoreline.yaml")
	body := `
server:
  url: wss://live.example.com/socket
  handshake_timeout: 3s
realtime:
  auto_reconnect: false
  reconnect_base_delay: 500ms
  reconnect_max_delay: 10s
auth:
  token_file: /tmp/token
logging:
  level: debug
  format: text
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(LoadOptions{Path: path})
	require.NoError(t, err)

	assert.Equal(t, "wss://live.example.com/socket", cfg.Server.URL)
	assert.Equal(t, 3*time.Second, cfg.Server.HandshakeTimeout.Duration)
	assert.False(t, cfg.Realtime.AutoReconnect)
	assert.Equal(t, 500*time.Millisecond, cfg.Realtime.ReconnectBaseDelay.Duration)
	assert.Equal(t, "/tmp/token", cfg.Auth.TokenFile)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// untouched sections keep their defaults
	assert.Equal(t, "127.0.0.1:8080", cfg.HTTP.Addr)
}

func TestLoadJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scoreline.json")
	body := `{
  "server": {"url": "ws://live.example.com/ws", "handshake_timeout": "3s"},
  "realtime": {"reconnect_base_delay": "250ms", "reconnect_max_delay": 5000000000},
  "http": {"read_timeout": null}
}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(LoadOptions{Path: path})
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, cfg.Server.HandshakeTimeout.Duration)
	assert.Equal(t, 250*time.Millisecond, cfg.Realtime.ReconnectBaseDelay.Duration)
	assert.Equal(t, 5*time.Second, cfg.Realtime.ReconnectMaxDelay.Duration)
	assert.Equal(t, 15*time.Second, cfg.HTTP.ReadTimeout.Duration)
}

func TestLoadJSONRejectsBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scoreline.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server":{"handshake_timeout":"soon"}}`), 0o600))

	_, err := Load(LoadOptions{Path: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration")
}

func TestDurationRoundTrip(t *testing.T) {
	d := Duration{1500 * time.Millisecond}

	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"1.5s"`, string(b))

	out, err := yaml.Marshal(struct {
		Timeout Duration `yaml:"timeout"`
	}{d})
	require.NoError(t, err)
	assert.Equal(t, "timeout: 1.5s\n", string(out))
}

func TestLoadEnvReconnectMaxDelay(t *testing.T) {
	t.Setenv("SCORELINE_RECONNECT_MAX_DELAY", "45s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 45*time.Second, cfg.Realtime.ReconnectMaxDelay.Duration)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	t.Setenv("SCORELINE_SERVER_URL", "ws://override:9000/ws")
	t.Setenv("SCORELINE_TOKEN", "abc")
	t.Setenv("SCORELINE_LOG_FORMAT", "pretty")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ws://override:9000/ws", cfg.Server.URL)
	assert.Equal(t, "abc", cfg.Auth.Token)
	assert.Empty(t, cfg.Auth.TokenFile)
	assert.Equal(t, "pretty", cfg.Logging.Format)
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scoreline.toml")
	require.NoError(t, os.WriteFile(path, []byte("x = 1"), 0o600))

	_, err := Load(LoadOptions{Path: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported config file format")
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name  string
		edit  func(c *Config)
		field string
	}{
		{
			name:  "missing url",
			edit:  func(c *Config) { c.Server.URL = "" },
			field: "server.url",
		},
		{
			name:  "http scheme",
			edit:  func(c *Config) { c.Server.URL = "http://localhost:3000" },
			field: "server.url",
		},
		{
			name:  "max delay below base",
			edit:  func(c *Config) { c.Realtime.ReconnectMaxDelay = Duration{time.Millisecond} },
			field: "realtime.reconnect_max_delay",
		},
		{
			name: "both token sources",
			edit: func(c *Config) {
				c.Auth.Token = "a"
				c.Auth.TokenFile = "b"
			},
			field: "auth",
		},
		{
			name: "probe without interval",
			edit: func(c *Config) {
				c.Realtime.ProbeAddress = "1.1.1.1:53"
				c.Realtime.ProbeInterval = Duration{}
			},
			field: "realtime.probe_interval",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.edit(cfg)

			err := cfg.Validate()
			require.Error(t, err)

			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tc.field, cfgErr.Field)
		})
	}
}
