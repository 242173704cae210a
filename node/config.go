// Package node runs the proof server: it owns the proving backend and the
// four proof pipelines, serves them over JSON-RPC, and exposes Prometheus
// metrics.
package node

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Duration is a time.Duration written as a string such as "30s" in config
// files.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config is the proof server configuration.
type Config struct {
	Server    ServerConfig   `toml:"server"`
	Beacon    EndpointConfig `toml:"beacon"`
	Chainweb  ChainwebConfig `toml:"chainweb"`
	Execution EndpointConfig `toml:"execution"`
	Metrics   MetricsConfig  `toml:"metrics"`
	Log       LogConfig      `toml:"log"`
}

// ServerConfig holds the JSON-RPC listener settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`

	// SetupOnStart generates proving keys before the listener opens.
	SetupOnStart bool     `toml:"setup_on_start"`
	ShutdownWait Duration `toml:"shutdown_timeout"`
}

// EndpointConfig points at a remote data source. An empty URL disables it.
type EndpointConfig struct {
	URL     string   `toml:"url"`
	Timeout Duration `toml:"timeout"`
}

// ChainwebConfig points at a Chainweb node.
type ChainwebConfig struct {
	EndpointConfig
	Network string `toml:"network"`
}

// MetricsConfig controls the /metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "127.0.0.1",
			Port:         3000,
			SetupOnStart: true,
			ShutdownWait: Duration{10 * time.Second},
		},
		Beacon: EndpointConfig{Timeout: Duration{30 * time.Second}},
		Chainweb: ChainwebConfig{
			EndpointConfig: EndpointConfig{Timeout: Duration{30 * time.Second}},
			Network:        "mainnet01",
		},
		Execution: EndpointConfig{Timeout: Duration{30 * time.Second}},
		Metrics:   MetricsConfig{Enabled: true, Path: "/metrics"},
		Log:       LogConfig{Level: "info", Format: "text"},
	}
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// Validate checks configuration values for correctness.
func (c *Config) Validate() error {
	if c.Server.Host == "" {
		return errors.New("config: server host must not be empty")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid server port: %d", c.Server.Port)
	}
	if c.Server.ShutdownWait.Duration < 0 {
		return fmt.Errorf("config: negative shutdown_timeout %s", c.Server.ShutdownWait)
	}
	for name, ep := range map[string]EndpointConfig{
		"beacon":    c.Beacon,
		"chainweb":  c.Chainweb.EndpointConfig,
		"execution": c.Execution,
	} {
		if ep.URL != "" && !strings.Contains(ep.URL, "://") {
			return fmt.Errorf("config: %s url %q has no scheme", name, ep.URL)
		}
		if ep.Timeout.Duration < 0 {
			return fmt.Errorf("config: negative %s timeout", name)
		}
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("config: metrics path %q must start with /", c.Metrics.Path)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: unknown log format %q", c.Log.Format)
	}
	return nil
}

// ParseConfig decodes TOML over the defaults. Unknown keys are rejected.
func ParseConfig(data string) (*Config, error) {
	cfg := DefaultConfig()
	md, err := toml.Decode(data, cfg)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("config: unknown keys %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig reads and parses the config file at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return ParseConfig(string(data))
}

// WriteConfig writes c as TOML to path.
func (c *Config) WriteConfig(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(c)
}
