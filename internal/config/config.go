// Package config handles YAML configuration parsing and environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"outreach/internal/campaign"
	"outreach/internal/launch"
)

// Config is the root configuration structure.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Launch   LaunchConfig   `yaml:"launch"`
	Delivery DeliveryConfig `yaml:"delivery"`
	Server   ServerConfig   `yaml:"server"`
	Fixtures string         `yaml:"fixtures,omitempty"` // path to a campaign fixture file; empty = built-in set
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// LaunchConfig controls launch pacing.
type LaunchConfig struct {
	TickInterval time.Duration `yaml:"tickInterval"`
	MaxDuration  time.Duration `yaml:"maxDuration"`
}

// DeliveryConfig holds the defaults applied to campaigns created at runtime.
type DeliveryConfig struct {
	Throttle     int                 `yaml:"throttle"`
	SendInterval time.Duration       `yaml:"sendInterval"`
	SendWindow   campaign.SendWindow `yaml:"sendWindow"`
}

// ServerConfig controls the HTTP control surface.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// envOverrides holds raw env values. Unset variables leave the pointer nil.
type envOverrides struct {
	LogLevel        *string        `env:"OUTREACH_LOG_LEVEL"`
	TickInterval    *time.Duration `env:"OUTREACH_TICK_INTERVAL"`
	MaxDuration     *time.Duration `env:"OUTREACH_MAX_DURATION"`
	Throttle        *int           `env:"OUTREACH_THROTTLE"`
	SendInterval    *time.Duration `env:"OUTREACH_SEND_INTERVAL"`
	SendWindow      *string        `env:"OUTREACH_SEND_WINDOW"`
	Addr            *string        `env:"OUTREACH_ADDR"`
	ShutdownTimeout *time.Duration `env:"OUTREACH_SHUTDOWN_TIMEOUT"`
	Fixtures        *string        `env:"OUTREACH_FIXTURES"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	d := campaign.DefaultDelivery()
	return &Config{
		Logging: LoggingConfig{Level: "info"},
		Launch:  LaunchConfig{TickInterval: launch.DefaultTickInterval},
		Delivery: DeliveryConfig{
			Throttle:     d.Throttle,
			SendInterval: d.SendInterval,
			SendWindow:   d.Window,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 5 * time.Second,
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// any), then environment variables. A .env file in the working directory is
// loaded first when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // optional

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	var raw envOverrides
	if err := env.Parse(&raw); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if raw.LogLevel != nil {
		c.Logging.Level = *raw.LogLevel
	}
	if raw.TickInterval != nil {
		c.Launch.TickInterval = *raw.TickInterval
	}
	if raw.MaxDuration != nil {
		c.Launch.MaxDuration = *raw.MaxDuration
	}
	if raw.Throttle != nil {
		c.Delivery.Throttle = *raw.Throttle
	}
	if raw.SendInterval != nil {
		c.Delivery.SendInterval = *raw.SendInterval
	}
	if raw.SendWindow != nil {
		c.Delivery.SendWindow = campaign.SendWindow(*raw.SendWindow)
	}
	if raw.Addr != nil {
		c.Server.Addr = *raw.Addr
	}
	if raw.ShutdownTimeout != nil {
		c.Server.ShutdownTimeout = *raw.ShutdownTimeout
	}
	if raw.Fixtures != nil {
		c.Fixtures = *raw.Fixtures
	}
	return nil
}

// Validate checks the configuration for values the engine cannot run with.
func (c *Config) Validate() error {
	var errs []error
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level: unknown level %q", c.Logging.Level))
	}
	if c.Launch.TickInterval < 0 {
		errs = append(errs, fmt.Errorf("launch.tickInterval must be >= 0, got %v", c.Launch.TickInterval))
	}
	if c.Launch.MaxDuration < 0 {
		errs = append(errs, fmt.Errorf("launch.maxDuration must be >= 0, got %v", c.Launch.MaxDuration))
	}
	if err := c.Delivery.Defaults().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("delivery: %w", err))
	}
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("server.shutdownTimeout must be > 0, got %v", c.Server.ShutdownTimeout))
	}
	return errors.Join(errs...)
}

// Defaults converts the section into campaign delivery settings.
func (d DeliveryConfig) Defaults() campaign.Delivery {
	return campaign.Delivery{
		Throttle:     d.Throttle,
		SendInterval: d.SendInterval,
		Window:       d.SendWindow,
	}
}

// Simulator converts the launch section into simulator pacing.
func (l LaunchConfig) Simulator() launch.Config {
	return launch.Config{
		TickInterval: l.TickInterval,
		MaxDuration:  l.MaxDuration,
	}
}
