package config

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// CurrentVersion is the config file format version written by Save.
const CurrentVersion = 1

// Defaults used when the file or a field is missing.
const (
	DefaultTimeout      = 10 * time.Second
	DefaultPollInterval = 30 * time.Second
	DefaultSettleDelay  = 2 * time.Second
	DefaultListen       = ":8080"
	DefaultLogLevel     = ""
)

// Config represents the entire user configuration file.
type Config struct {
	Version  int           `yaml:"version"`
	Device   *DeviceConfig `yaml:"device"`
	Server   *ServerConfig `yaml:"server,omitempty"`
	LogLevel string        `yaml:"log_level,omitempty"` // "", debug, info, warn, error
}

// DeviceConfig describes the heater to talk to.
type DeviceConfig struct {
	Host         string   `yaml:"host"`                    // e.g. "192.168.4.1"
	Timeout      Duration `yaml:"timeout,omitempty"`       // Per-request timeout
	PollInterval Duration `yaml:"poll_interval,omitempty"` // Coordinator refresh interval
	SettleDelay  Duration `yaml:"settle_delay,omitempty"`  // Wait after on/off commands
}

// ServerConfig holds settings for `bobil serve`.
type ServerConfig struct {
	Listen string `yaml:"listen"` // Listen address for the HTTP gateway
}

// Duration is a time.Duration written as a human-readable string ("10s").
type Duration time.Duration

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(node.Value))
	if err != nil {
		return fmt.Errorf("invalid duration %q at line %d: %w", node.Value, node.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// New creates a Config with default values and no host.
func New() *Config {
	cfg := &Config{Version: CurrentVersion}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in zero values. Called after every load.
func (c *Config) applyDefaults() {
	if c.Device == nil {
		c.Device = &DeviceConfig{}
	}
	if c.Device.Timeout <= 0 {
		c.Device.Timeout = Duration(DefaultTimeout)
	}
	if c.Device.PollInterval <= 0 {
		c.Device.PollInterval = Duration(DefaultPollInterval)
	}
	// Negative disables the delay and is kept so it survives a save
	if c.Device.SettleDelay == 0 {
		c.Device.SettleDelay = Duration(DefaultSettleDelay)
	}
	if c.Server == nil {
		c.Server = &ServerConfig{}
	}
	if c.Server.Listen == "" {
		c.Server.Listen = DefaultListen
	}
}

// Validate checks the loaded values. A missing host is not an error here:
// commands that need one report it themselves.
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return fmt.Errorf("unsupported config version: %d (expected %d)", c.Version, CurrentVersion)
	}
	if strings.ContainsAny(c.Device.Host, " \t/") && !strings.HasPrefix(c.Device.Host, "http://") {
		return fmt.Errorf("invalid device host %q", c.Device.Host)
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	return nil
}
