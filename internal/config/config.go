package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"pickupsched/internal/clock"
	"pickupsched/internal/model"
	"pickupsched/internal/slots"
)

// DefaultPath is used when SCHEDULER_CONFIG_PATH is unset.
const DefaultPath = "configs/config.yaml"

type Config struct {
	Server struct {
		Address         string `yaml:"address"`
		ReadTimeoutSec  int    `yaml:"read_timeout_seconds"`
		WriteTimeoutSec int    `yaml:"write_timeout_seconds"`
	} `yaml:"server"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Redis struct {
		Enabled         bool   `yaml:"enabled"`
		Address         string `yaml:"address"`
		Password        string `yaml:"password"`
		DB              int    `yaml:"db"`
		CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
	} `yaml:"redis"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Backup BackupConfig `yaml:"backup"`

	Logging LoggingConfig `yaml:"logging"`

	Scheduling SchedulingConfig `yaml:"scheduling"`

	RateLimit struct {
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		Burst             int     `yaml:"burst"`
	} `yaml:"rate_limit"`

	Alerts struct {
		TelegramToken  string `yaml:"telegram_token"`
		TelegramChatID int64  `yaml:"telegram_chat_id"`
	} `yaml:"alerts"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console or json
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	IntervalHours int    `yaml:"interval_hours"`
	StoragePath   string `yaml:"storage_path"`
	RetentionDays int    `yaml:"retention_days"`
}

// SlotWindowConfig is one slot's "HH:MM" bounds.
type SlotWindowConfig struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

type SchedulingConfig struct {
	Timezone string                      `yaml:"timezone"`
	Slots    map[string]SlotWindowConfig `yaml:"slots"`
	Defaults struct {
		AdvanceBookingDays int `yaml:"advance_booking_days"`
		MaxBookingDays     int `yaml:"max_booking_days"`
	} `yaml:"defaults"`
	OrdersPerSlot       int    `yaml:"orders_per_slot"`
	HolidaysPath        string `yaml:"holidays_path"`
	HolidayPollInterval int    `yaml:"holiday_poll_seconds"`
	HolidayReapplyHours int    `yaml:"holiday_reapply_hours"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Server.ReadTimeoutSec <= 0 {
		c.Server.ReadTimeoutSec = 10
	}
	if c.Server.WriteTimeoutSec <= 0 {
		c.Server.WriteTimeoutSec = 15
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/pickupsched.db"
	}
	if c.Redis.CacheTTLSeconds <= 0 {
		c.Redis.CacheTTLSeconds = 300
	}
	if c.Monitoring.HealthCheckPort == 0 {
		c.Monitoring.HealthCheckPort = 8081
	}
	if c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Backup.IntervalHours <= 0 {
		c.Backup.IntervalHours = 24
	}
	if c.Backup.StoragePath == "" {
		c.Backup.StoragePath = "data/backups"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Scheduling.Timezone == "" {
		c.Scheduling.Timezone = clock.DefaultZone
	}
	if c.Scheduling.Defaults.AdvanceBookingDays == 0 && c.Scheduling.Defaults.MaxBookingDays == 0 {
		d := model.DefaultScheduleSettings("", "")
		c.Scheduling.Defaults.AdvanceBookingDays = d.AdvanceBookingDays
		c.Scheduling.Defaults.MaxBookingDays = d.MaxBookingDays
	}
	if c.Scheduling.HolidayPollInterval <= 0 {
		c.Scheduling.HolidayPollInterval = 30
	}
	if c.Scheduling.HolidayReapplyHours <= 0 {
		c.Scheduling.HolidayReapplyHours = 6
	}
	if c.RateLimit.RequestsPerSecond <= 0 {
		c.RateLimit.RequestsPerSecond = 20
	}
	if c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = 40
	}
}

// Validate reports the first invalid field, prefixed with its path.
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.Scheduling.Timezone); err != nil {
		return fmt.Errorf("scheduling.timezone: unknown zone '%s'", c.Scheduling.Timezone)
	}
	if _, err := c.SlotBounds(); err != nil {
		return fmt.Errorf("scheduling.slots: %w", err)
	}

	d := c.Scheduling.Defaults
	if d.AdvanceBookingDays < model.MinAdvanceBookingDays || d.AdvanceBookingDays > model.MaxAdvanceBookingDays {
		return fmt.Errorf("scheduling.defaults.advance_booking_days must be %d-%d, got %d",
			model.MinAdvanceBookingDays, model.MaxAdvanceBookingDays, d.AdvanceBookingDays)
	}
	if d.MaxBookingDays < model.MinMaxBookingDays || d.MaxBookingDays > model.MaxMaxBookingDays {
		return fmt.Errorf("scheduling.defaults.max_booking_days must be %d-%d, got %d",
			model.MinMaxBookingDays, model.MaxMaxBookingDays, d.MaxBookingDays)
	}
	if c.Scheduling.OrdersPerSlot < 0 {
		return fmt.Errorf("scheduling.orders_per_slot cannot be negative")
	}

	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got '%s'", c.Logging.Format)
	}

	if c.Backup.RetentionDays < 0 {
		return fmt.Errorf("backup.retention_days cannot be negative")
	}
	return nil
}

// SlotBounds builds the slot windows, defaulting unset slots.
func (c *Config) SlotBounds() (slots.Bounds, error) {
	if len(c.Scheduling.Slots) == 0 {
		return slots.DefaultBounds(), nil
	}
	ranges := make(map[string][2]string, len(c.Scheduling.Slots))
	for name, w := range c.Scheduling.Slots {
		ranges[name] = [2]string{w.Start, w.End}
	}
	return slots.ParseBounds(ranges)
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Redis.CacheTTLSeconds) * time.Second
}

func (c *Config) BackupInterval() time.Duration {
	return time.Duration(c.Backup.IntervalHours) * time.Hour
}

func (c *Config) HolidayPollInterval() time.Duration {
	return time.Duration(c.Scheduling.HolidayPollInterval) * time.Second
}

func (c *Config) HolidayReapplyInterval() time.Duration {
	return time.Duration(c.Scheduling.HolidayReapplyHours) * time.Hour
}
