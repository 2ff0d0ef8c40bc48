// Package config loads simpldb's runtime configuration: data directory,
// storage backend, process-lock timeout, and log level. It is viper-backed
// the way the teacher's internal/config is, scoped down to the handful of
// settings this engine actually has (no routing/sync/federation surface —
// those are beads-specific, not simpldb's).
package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"

	envPrefix = "SIMPLDB"
)

// Config is simpldb's resolved runtime configuration.
type Config struct {
	DataDir     string
	Backend     string
	LockTimeout time.Duration
	LogLevel    string

	v *viper.Viper
}

// Load reads simpldb.yaml out of the directory path, applying
// SIMPLDB_*-prefixed environment variable overrides on top, and falling
// back to defaults when no file is present at all — matching the
// teacher's "defaults + env vars, config file optional" precedence in
// internal/config.Initialize.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("simpldb")
	v.SetConfigType("yaml")
	if path != "" {
		v.AddConfigPath(path)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("data_dir", "./simpldb-data")
	v.SetDefault("backend", BackendSQLite)
	v.SetDefault("lock_timeout", "5s")
	v.SetDefault("log_level", "info")

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("config: reading simpldb.yaml: %w", err)
		}
	}

	cfg := &Config{v: v}
	cfg.reload()
	return cfg, nil
}

func (c *Config) reload() {
	c.DataDir = c.v.GetString("data_dir")
	c.Backend = c.v.GetString("backend")
	c.LockTimeout = c.v.GetDuration("lock_timeout")
	c.LogLevel = c.v.GetString("log_level")
}

// WatchConfig hot-reloads LogLevel (the only setting safe to change
// without reopening the engine) whenever the config file changes on disk.
// DataDir/Backend/LockTimeout are structural — the running Engine was
// already opened against them, so they are left untouched on reload.
func (c *Config) WatchConfig() {
	c.v.OnConfigChange(func(_ fsnotify.Event) {
		prevLevel := c.LogLevel
		c.LogLevel = c.v.GetString("log_level")
		if c.LogLevel != prevLevel {
			log.Printf("config: log level changed %q -> %q", prevLevel, c.LogLevel)
		}
	})
	c.v.WatchConfig()
}
