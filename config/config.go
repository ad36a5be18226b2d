package config

import (
	"fmt"

	"github.com/kbukum/execkit/gpg"
	"github.com/kbukum/execkit/logger"
	"github.com/kbukum/execkit/observability"
	"github.com/kbukum/execkit/postgres"
	"github.com/kbukum/execkit/process"
	"github.com/kbukum/execkit/rsync"
	"github.com/kbukum/execkit/subprocess"
	"github.com/kbukum/execkit/validation"
)

// DefaultName is used when the configuration does not name the host.
const DefaultName = "execkit"

// Config is the configuration of a host program built on execkit.
type Config struct {
	Name       string            `yaml:"name" mapstructure:"name"`
	Logging    logger.Config     `yaml:"logging" mapstructure:"logging"`
	Command    process.Config    `yaml:"command" mapstructure:"command"`
	Rsync      rsync.Config      `yaml:"rsync" mapstructure:"rsync"`
	Postgres   postgres.Config   `yaml:"postgres" mapstructure:"postgres"`
	GPG        gpg.Config        `yaml:"gpg" mapstructure:"gpg"`
	Subprocess subprocess.Config `yaml:"subprocess" mapstructure:"subprocess"`
	Telemetry  TelemetryConfig   `yaml:"telemetry" mapstructure:"telemetry"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = DefaultName
	}
	// Propagate the host name into logging so Init() uses the right tag.
	if c.Logging.ServiceName == "" {
		c.Logging.ServiceName = c.Name
	}
	c.Logging.ApplyDefaults()

	if c.Telemetry.Enabled {
		if c.Telemetry.Tracing.Endpoint == "" {
			c.Telemetry.Tracing = observability.DefaultTracerConfig(c.Name)
		}
		if c.Telemetry.Metrics.Endpoint == "" {
			c.Telemetry.Metrics = observability.DefaultMeterConfig(c.Name)
		}
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	return nil
}

// Load reads the configuration of the named host, applies defaults and
// validates it.
func Load(name string, opts ...LoaderOption) (*Config, error) {
	cfg := &Config{Name: name}
	if err := LoadConfig(name, cfg, opts...); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
