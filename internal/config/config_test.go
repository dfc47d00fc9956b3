package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocache/internal/cache"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(New(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gocache.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
cache:
  capacity: 3
  strategy: threaded
  cleanup_delay: 25ms
logging:
  level: debug
`), 0o644))

	t.Setenv("GOCACHE_BENCH_WORKERS", "2")

	cfg, err := Load(New(path))
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Cache.Capacity)
	assert.Equal(t, "threaded", cfg.Cache.Strategy)
	assert.Equal(t, 25*time.Millisecond, cfg.Cache.CleanupDelay)
	assert.Equal(t, 2, cfg.Bench.Workers)

	lvl, err := cfg.Logging.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gocache.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cache:\n  capacity: -1\n"), 0o644))

	_, err := Load(New(path))
	require.ErrorIs(t, err, cache.ErrInvalidCapacity)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"zero capacity", func(c *Config) { c.Cache.Capacity = 0 }, cache.ErrInvalidCapacity},
		{"unknown strategy", func(c *Config) { c.Cache.Strategy = "lfu" }, cache.ErrUnknownStrategy},
		{"negative delay", func(c *Config) { c.Cache.CleanupDelay = -time.Second }, cache.ErrInvalidDelay},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, nil},
		{"no workers", func(c *Config) { c.Bench.Workers = 0 }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestCacheOptions(t *testing.T) {
	cc := CacheConfig{Capacity: 2, Strategy: "threaded", CleanupDelay: time.Millisecond}
	opts, err := cc.Options()
	require.NoError(t, err)

	c, err := cache.New[string, int](cc.Capacity, opts...)
	require.NoError(t, err)
	defer c.Shutdown()
	assert.Equal(t, cache.Threaded, c.Strategy())

	_, err = CacheConfig{Strategy: "nope"}.Options()
	assert.ErrorIs(t, err, cache.ErrUnknownStrategy)
}
