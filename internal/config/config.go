// Package config loads the runtime settings file. Every value has a default,
// so a missing file is not an error.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/julianstephens/pulse/internal/constants"
	"github.com/julianstephens/pulse/internal/utils"
)

type Config struct {
	Timezone     string       `yaml:"timezone"`
	Connectivity Connectivity `yaml:"connectivity"`
	Daily        Daily        `yaml:"daily"`
	Periodic     Periodic     `yaml:"periodic"`
	Immediate    Immediate    `yaml:"immediate"`
	Dispatch     Dispatch     `yaml:"dispatch"`
}

type Connectivity struct {
	Endpoint      string        `yaml:"endpoint"`
	CheckInterval time.Duration `yaml:"check_interval"`
	SplashDelay   time.Duration `yaml:"splash_delay"`
	PresencePoll  time.Duration `yaml:"presence_poll"`
	// ProbeTimeout of zero leaves the transport defaults in charge.
	ProbeTimeout time.Duration `yaml:"probe_timeout"`
}

type Daily struct {
	Time  string `yaml:"time"`
	Count int    `yaml:"count"`
	Title string `yaml:"title"`
	Body  string `yaml:"body"`
}

type Periodic struct {
	Count    int           `yaml:"count"`
	Interval time.Duration `yaml:"interval"`
	Title    string        `yaml:"title"`
	Body     string        `yaml:"body"`
}

type Immediate struct {
	Delay time.Duration `yaml:"delay"`
}

type Dispatch struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	GracePeriod  time.Duration `yaml:"grace_period"`
	MaxRetries   int           `yaml:"max_retries"`
	RetryDelay   time.Duration `yaml:"retry_delay"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Timezone: "Local",
		Connectivity: Connectivity{
			Endpoint:      constants.DefaultProbeURL,
			CheckInterval: constants.CheckInterval,
			SplashDelay:   constants.SplashDelay,
			PresencePoll:  constants.PresencePollInterval,
		},
		Daily: Daily{
			Time:  fmt.Sprintf("%02d:%02d", constants.DailyHour, constants.DailyMinute),
			Count: constants.DailyBatchSize,
			Title: constants.DailyTitle,
			Body:  constants.DailyBody,
		},
		Periodic: Periodic{
			Count:    constants.PeriodicBatchSize,
			Interval: constants.PeriodicInterval,
			Title:    constants.PeriodicTitle,
			Body:     constants.PeriodicBody,
		},
		Immediate: Immediate{
			Delay: constants.ImmediateDelay,
		},
		Dispatch: Dispatch{
			PollInterval: constants.DispatchPollInterval,
			GracePeriod:  constants.DeliveryGracePeriod,
			MaxRetries:   constants.NotifyMaxRetries,
			RetryDelay:   constants.NotifyRetryDelay,
		},
	}
}

// Load reads path on top of the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	expanded, err := utils.ExpandPath(path)
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(expanded)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", expanded, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config file %s: %w", expanded, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if !utils.ValidateTimezone(c.Timezone) {
		return fmt.Errorf("invalid timezone %q", c.Timezone)
	}
	if c.Connectivity.Endpoint == "" {
		return fmt.Errorf("connectivity.endpoint cannot be empty")
	}
	if c.Connectivity.CheckInterval <= 0 {
		return fmt.Errorf("connectivity.check_interval must be positive")
	}
	if c.Connectivity.SplashDelay < 0 || c.Connectivity.ProbeTimeout < 0 {
		return fmt.Errorf("connectivity durations cannot be negative")
	}
	if c.Connectivity.PresencePoll <= 0 {
		return fmt.Errorf("connectivity.presence_poll must be positive")
	}
	if _, _, err := utils.ParseTimeOfDay(c.Daily.Time); err != nil {
		return fmt.Errorf("daily.time: %w", err)
	}
	if c.Daily.Count < 1 {
		return fmt.Errorf("daily.count must be at least 1")
	}
	if c.Periodic.Count < 1 {
		return fmt.Errorf("periodic.count must be at least 1")
	}
	if c.Periodic.Interval <= 0 {
		return fmt.Errorf("periodic.interval must be positive")
	}
	if c.Immediate.Delay <= 0 {
		return fmt.Errorf("immediate.delay must be positive")
	}
	if c.Daily.Title == "" || c.Periodic.Title == "" {
		return fmt.Errorf("notification titles cannot be empty")
	}
	if c.Dispatch.PollInterval <= 0 {
		return fmt.Errorf("dispatch.poll_interval must be positive")
	}
	if c.Dispatch.MaxRetries < 1 {
		return fmt.Errorf("dispatch.max_retries must be at least 1")
	}
	return nil
}

// Location resolves the configured timezone.
func (c *Config) Location() *time.Location {
	loc, err := utils.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
