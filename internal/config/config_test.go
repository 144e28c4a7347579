package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, ":10000", cfg.Server.Addr)
	assert.Equal(t, "America/New_York", cfg.Timezone)
	assert.Equal(t, "development", cfg.Log.Mode)
	assert.Equal(t, 6, cfg.Batch.ManualRatePerMinute)
	assert.Equal(t, 2, cfg.Dispatcher.Workers)
	assert.Equal(t, 64, cfg.Dispatcher.QueueSize)
	assert.Equal(t, 5*time.Minute, cfg.Lookup.CacheTTL)
	assert.Equal(t, "plantcare.db", filepath.Base(cfg.Database.Path))
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("PLANTCARE_BATCH_SECRET", "s3cret")
	t.Setenv("PLANTCARE_DISPATCHER_WORKERS", "4")
	t.Setenv("PLANTCARE_TIMEZONE", "UTC")
	t.Setenv("PLANTCARE_LOOKUP_CACHE_TTL", "30s")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Batch.Secret)
	assert.Equal(t, 4, cfg.Dispatcher.Workers)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, 30*time.Second, cfg.Lookup.CacheTTL)
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plantcare.yaml")
	content := `
database:
  path: /tmp/plants.db
server:
  addr: ":9000"
timezone: Europe/Berlin
batch:
  schedule: "0 0 6 * * *"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/plants.db", cfg.Database.Path)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "Europe/Berlin", cfg.Timezone)
	assert.Equal(t, "0 0 6 * * *", cfg.Batch.Schedule)
	// untouched keys keep defaults
	assert.Equal(t, 2, cfg.Dispatcher.Workers)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "plantcare.yaml")
	cfg := &Config{
		Database:   DatabaseConfig{Path: "/data/plantcare.db"},
		Server:     ServerConfig{Addr: ":8080"},
		Timezone:   "UTC",
		Log:        LogConfig{Mode: "production"},
		Batch:      BatchConfig{ManualRatePerMinute: 3},
		Dispatcher: DispatcherConfig{Workers: 1, QueueSize: 8},
		Lookup:     LookupConfig{CacheTTL: time.Minute},
	}
	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Database.Path, loaded.Database.Path)
	assert.Equal(t, cfg.Log.Mode, loaded.Log.Mode)
	assert.Equal(t, cfg.Dispatcher, loaded.Dispatcher)
	assert.Equal(t, time.Minute, loaded.Lookup.CacheTTL)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Database:   DatabaseConfig{Path: "x.db"},
			Timezone:   "UTC",
			Log:        LogConfig{Mode: "dev"},
			Batch:      BatchConfig{ManualRatePerMinute: 1},
			Dispatcher: DispatcherConfig{Workers: 1, QueueSize: 1},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "empty db path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: "database.path"},
		{name: "bad timezone", mutate: func(c *Config) { c.Timezone = "Mars/Olympus" }, wantErr: "timezone"},
		{name: "bad log mode", mutate: func(c *Config) { c.Log.Mode = "loud" }, wantErr: "log.mode"},
		{name: "zero workers", mutate: func(c *Config) { c.Dispatcher.Workers = 0 }, wantErr: "dispatcher.workers"},
		{name: "zero queue", mutate: func(c *Config) { c.Dispatcher.QueueSize = 0 }, wantErr: "dispatcher.queue_size"},
		{name: "zero rate", mutate: func(c *Config) { c.Batch.ManualRatePerMinute = 0 }, wantErr: "manual_rate_per_minute"},
		{name: "bad cron", mutate: func(c *Config) { c.Batch.Schedule = "every day" }, wantErr: "batch.schedule"},
		{name: "negative ttl", mutate: func(c *Config) { c.Lookup.CacheTTL = -time.Second }, wantErr: "cache_ttl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
