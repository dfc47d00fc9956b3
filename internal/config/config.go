// Package config loads gocache settings from defaults, an optional config
// file, GOCACHE_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"gocache/internal/cache"
)

// EnvPrefix is prepended to every environment variable, e.g.
// GOCACHE_CACHE_CAPACITY for cache.capacity.
const EnvPrefix = "GOCACHE"

// Config represents the complete configuration.
type Config struct {
	Cache   CacheConfig   `mapstructure:"cache"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Bench   BenchConfig   `mapstructure:"bench"`
}

// CacheConfig holds the cache construction settings.
type CacheConfig struct {
	Capacity     int           `mapstructure:"capacity"`
	Strategy     string        `mapstructure:"strategy"`
	CleanupDelay time.Duration `mapstructure:"cleanup_delay"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// MetricsConfig holds the Prometheus endpoint settings. An empty Addr
// disables the endpoint.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// BenchConfig shapes the load generated by the bench command.
type BenchConfig struct {
	Workers  int `mapstructure:"workers"`
	Ops      int `mapstructure:"ops"`
	KeySpace int `mapstructure:"key_space"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Cache: CacheConfig{
			Capacity:     1024,
			Strategy:     cache.Locking.String(),
			CleanupDelay: cache.DefaultCleanupDelay,
		},
		Logging: LoggingConfig{Level: "info"},
		Bench: BenchConfig{
			Workers:  8,
			Ops:      100_000,
			KeySpace: 4096,
		},
	}
}

// New returns a Viper instance with defaults and environment binding set
// up. If path is non-empty it is used as the config file; otherwise a file
// named gocache.{yaml,json,toml} in the working directory is picked up when
// present.
func New(path string) *viper.Viper {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("gocache")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("cache.capacity", d.Cache.Capacity)
	v.SetDefault("cache.strategy", d.Cache.Strategy)
	v.SetDefault("cache.cleanup_delay", d.Cache.CleanupDelay)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("metrics.addr", d.Metrics.Addr)
	v.SetDefault("bench.workers", d.Bench.Workers)
	v.SetDefault("bench.ops", d.Bench.Ops)
	v.SetDefault("bench.key_space", d.Bench.KeySpace)
}

// Load reads the config file (a missing default file is not an error),
// unmarshals and validates the result.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field the cache and CLI depend on.
func (c *Config) Validate() error {
	if c.Cache.Capacity <= 0 {
		return fmt.Errorf("cache.capacity: %w", cache.ErrInvalidCapacity)
	}
	if _, err := cache.ParseStrategy(c.Cache.Strategy); err != nil {
		return fmt.Errorf("cache.strategy: %w", err)
	}
	if c.Cache.CleanupDelay < 0 {
		return fmt.Errorf("cache.cleanup_delay: %w", cache.ErrInvalidDelay)
	}
	if _, err := c.Logging.SlogLevel(); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	if c.Bench.Workers <= 0 || c.Bench.Ops <= 0 || c.Bench.KeySpace <= 0 {
		return errors.New("bench: workers, ops and key_space must be positive")
	}
	return nil
}

// Options translates the cache section into construction options.
func (c CacheConfig) Options() ([]cache.Option, error) {
	s, err := cache.ParseStrategy(c.Strategy)
	if err != nil {
		return nil, err
	}
	return []cache.Option{
		cache.WithStrategy(s),
		cache.WithCleanupDelay(c.CleanupDelay),
	}, nil
}

// SlogLevel parses Level ("debug", "info", "warn", "error").
func (l LoggingConfig) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, err
	}
	return lvl, nil
}
