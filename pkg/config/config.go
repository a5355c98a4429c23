// Package config loads the bridge daemon configuration from a YAML file,
// falling back to defaults for anything unset.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied when the file omits a field or no file exists.
const (
	DefaultHost          = "127.0.0.1"
	DefaultPort          = 9875
	DefaultSubmitTimeout = 30 * time.Second
	DefaultPumpInterval  = 500 * time.Millisecond
	DefaultEventLogDir   = "logs"
)

// Duration wraps time.Duration with YAML string parsing ("500ms", "30s").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the daemon configuration.
type Config struct {
	Listen struct {
		Host         string `yaml:"host"`
		Port         int    `yaml:"port"`
		AuthDisabled bool   `yaml:"auth_disabled"`
	} `yaml:"listen"`

	Bridge struct {
		SubmitTimeout Duration `yaml:"submit_timeout"`
		PumpInterval  Duration `yaml:"pump_interval"`
	} `yaml:"bridge"`

	EventLogDir string `yaml:"event_log_dir"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// Default returns a config with every field at its default.
func Default() *Config {
	cfg := &Config{}
	cfg.Listen.Host = DefaultHost
	cfg.Listen.Port = DefaultPort
	cfg.Bridge.SubmitTimeout = Duration(DefaultSubmitTimeout)
	cfg.Bridge.PumpInterval = Duration(DefaultPumpInterval)
	cfg.EventLogDir = DefaultEventLogDir
	return cfg
}

// Load reads path and overlays it on the defaults. A missing file is not an
// error; the defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	if c.Listen.Port < 0 || c.Listen.Port > 65535 {
		return fmt.Errorf("listen.port %d out of range", c.Listen.Port)
	}
	if c.Bridge.SubmitTimeout <= 0 {
		return fmt.Errorf("bridge.submit_timeout must be positive")
	}
	if c.Bridge.PumpInterval <= 0 {
		return fmt.Errorf("bridge.pump_interval must be positive")
	}
	return nil
}
