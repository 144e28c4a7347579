package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable override.
const EnvPrefix = "PLANTCARE"

// Config is the plantcare configuration.
type Config struct {
	Database   DatabaseConfig   `mapstructure:"database"`
	Server     ServerConfig     `mapstructure:"server"`
	Timezone   string           `mapstructure:"timezone"`
	Log        LogConfig        `mapstructure:"log"`
	Batch      BatchConfig      `mapstructure:"batch"`
	Dispatcher DispatcherConfig `mapstructure:"dispatcher"`
	Lookup     LookupConfig     `mapstructure:"lookup"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Mode string `mapstructure:"mode"` // "development" or "production"
}

type BatchConfig struct {
	// Secret guards the scheduled batch endpoint. Empty rejects every call.
	Secret string `mapstructure:"secret"`
	// Schedule is an optional cron spec for an in-process daily batch.
	Schedule            string `mapstructure:"schedule"`
	ManualRatePerMinute int    `mapstructure:"manual_rate_per_minute"`
}

type DispatcherConfig struct {
	Workers   int `mapstructure:"workers"`
	QueueSize int `mapstructure:"queue_size"`
}

type LookupConfig struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// envBinding maps a config key to its environment variable.
type envBinding struct {
	ConfigKey string
	EnvVar    string
}

func envBindings() []envBinding {
	keys := []string{
		"database.path",
		"server.addr",
		"timezone",
		"log.mode",
		"batch.secret",
		"batch.schedule",
		"batch.manual_rate_per_minute",
		"dispatcher.workers",
		"dispatcher.queue_size",
		"lookup.cache_ttl",
	}
	out := make([]envBinding, 0, len(keys))
	for _, k := range keys {
		out = append(out, envBinding{
			ConfigKey: k,
			EnvVar:    EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(k, ".", "_")),
		})
	}
	return out
}

// DefaultDatabasePath returns ~/.plantcare/plantcare.db.
func DefaultDatabasePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".plantcare", "plantcare.db"), nil
}

// DefaultConfigPath returns ~/.plantcare/config.yaml.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".plantcare", "config.yaml"), nil
}

func setDefaults(v *viper.Viper) error {
	dbPath, err := DefaultDatabasePath()
	if err != nil {
		return err
	}
	v.SetDefault("database.path", dbPath)
	v.SetDefault("server.addr", ":10000")
	v.SetDefault("timezone", "America/New_York")
	v.SetDefault("log.mode", "development")
	v.SetDefault("batch.secret", "")
	v.SetDefault("batch.schedule", "")
	v.SetDefault("batch.manual_rate_per_minute", 6)
	v.SetDefault("dispatcher.workers", 2)
	v.SetDefault("dispatcher.queue_size", 64)
	v.SetDefault("lookup.cache_ttl", 5*time.Minute)
	return nil
}

// LoadConfig reads configuration from path (YAML, optional) with environment
// overrides. An empty path loads defaults and environment only.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	if err := setDefaults(v); err != nil {
		return nil, err
	}

	for _, b := range envBindings() {
		if err := v.BindEnv(b.ConfigKey, b.EnvVar); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", b.EnvVar, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveConfig writes cfg as YAML to path.
func SaveConfig(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	v := viper.New()
	v.Set("database.path", cfg.Database.Path)
	v.Set("server.addr", cfg.Server.Addr)
	v.Set("timezone", cfg.Timezone)
	v.Set("log.mode", cfg.Log.Mode)
	v.Set("batch.schedule", cfg.Batch.Schedule)
	v.Set("batch.manual_rate_per_minute", cfg.Batch.ManualRatePerMinute)
	v.Set("dispatcher.workers", cfg.Dispatcher.Workers)
	v.Set("dispatcher.queue_size", cfg.Dispatcher.QueueSize)
	v.Set("lookup.cache_ttl", cfg.Lookup.CacheTTL.String())

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks the configuration for values the application cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path must be set"))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone %q: %w", c.Timezone, err))
	}
	switch strings.ToLower(c.Log.Mode) {
	case "development", "dev", "production", "prod":
	default:
		errs = append(errs, fmt.Errorf("log.mode %q must be development or production", c.Log.Mode))
	}
	if c.Dispatcher.Workers < 1 {
		errs = append(errs, fmt.Errorf("dispatcher.workers must be at least 1, got %d", c.Dispatcher.Workers))
	}
	if c.Dispatcher.QueueSize < 1 {
		errs = append(errs, fmt.Errorf("dispatcher.queue_size must be at least 1, got %d", c.Dispatcher.QueueSize))
	}
	if c.Batch.ManualRatePerMinute < 1 {
		errs = append(errs, fmt.Errorf("batch.manual_rate_per_minute must be at least 1, got %d", c.Batch.ManualRatePerMinute))
	}
	if c.Batch.Schedule != "" {
		if _, err := cron.Parse(c.Batch.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("batch.schedule %q: %w", c.Batch.Schedule, err))
		}
	}
	if c.Lookup.CacheTTL < 0 {
		errs = append(errs, fmt.Errorf("lookup.cache_ttl must not be negative"))
	}
	return errors.Join(errs...)
}

// Location returns the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}
