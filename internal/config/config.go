// YAML config loader with CUE validation integration
package config

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"gopkg.in/yaml.v3"
)

const (
	DefaultHTTPPort         = 8765
	DefaultBindAddress      = "127.0.0.1"
	DefaultRefreshTicks     = 200
	MinRefreshTicks         = 1
	MaxRefreshTicks         = 12000
	DefaultMinecraftVersion = "1.20.1"

	// PathEnv names the config file when no path is given explicitly.
	PathEnv = "MCTELEMETRY_CONFIG"
)

// Config holds the telemetry settings for one host.
type Config struct {
	HTTPPort              int    `yaml:"http_port"`
	HTTPBindAddress       string `yaml:"http_bind_address"`
	TelemetryRefreshTicks int    `yaml:"telemetry_refresh_ticks"`
	DetailedLogging       bool   `yaml:"detailed_logging"`
	Dedicated             bool   `yaml:"dedicated"`

	// Simulated host settings.
	MinecraftVersion string `yaml:"minecraft_version"`
	Scenario         string `yaml:"scenario"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		HTTPPort:              DefaultHTTPPort,
		HTTPBindAddress:       DefaultBindAddress,
		TelemetryRefreshTicks: DefaultRefreshTicks,
		Dedicated:             true,
		MinecraftVersion:      DefaultMinecraftVersion,
	}
}

// ResolvePath returns path, or the PathEnv value when path is blank.
func ResolvePath(path string) string {
	if p := strings.TrimSpace(path); p != "" {
		return p
	}
	return strings.TrimSpace(os.Getenv(PathEnv))
}

// Load reads a YAML config, validates it against the CUE schema and fills
// unset keys with defaults. An empty path yields Default().
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return &cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return &cfg, nil
	}
	if err := ValidateWithCue(path, data); err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// Normalize replaces out-of-range values with defaults, logging a warning
// for each. The port is left alone; the endpoint falls back on its own.
func (c *Config) Normalize(log *slog.Logger) {
	if log == nil {
		log = slog.Default()
	}
	if c.TelemetryRefreshTicks < MinRefreshTicks || c.TelemetryRefreshTicks > MaxRefreshTicks {
		log.Warn("telemetry_refresh_ticks out of range; using default",
			"value", c.TelemetryRefreshTicks, "min", MinRefreshTicks, "max", MaxRefreshTicks, "default", DefaultRefreshTicks)
		c.TelemetryRefreshTicks = DefaultRefreshTicks
	}
	if strings.TrimSpace(c.HTTPBindAddress) == "" {
		c.HTTPBindAddress = DefaultBindAddress
	}
	if strings.TrimSpace(c.MinecraftVersion) == "" {
		c.MinecraftVersion = DefaultMinecraftVersion
	}
}

// Provider hands out the current config. Reload swaps in a freshly loaded
// file; callers holding an older copy are unaffected.
type Provider struct {
	path string
	log  *slog.Logger
	cur  atomic.Pointer[Config]
}

// NewProvider loads path (which may be empty) and normalizes it.
func NewProvider(path string, log *slog.Logger) (*Provider, error) {
	p := &Provider{path: path, log: log}
	if err := p.Reload(); err != nil {
		return nil, err
	}
	return p, nil
}

// Static wraps an already built config.
func Static(cfg Config) *Provider {
	p := &Provider{}
	p.cur.Store(&cfg)
	return p
}

// Current returns a copy of the active config.
func (p *Provider) Current() Config {
	return *p.cur.Load()
}

// Reload re-reads the config file. On error the previous config stays active.
func (p *Provider) Reload() error {
	cfg, err := Load(p.path)
	if err != nil {
		return err
	}
	cfg.Normalize(p.log)
	p.cur.Store(cfg)
	return nil
}
