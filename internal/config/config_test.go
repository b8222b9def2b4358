// internal/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	t.Parallel()
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "console", cfg.Logger.Format)
	assert.Equal(t, "webloop", cfg.Logger.ServiceName)

	assert.Equal(t, 500, cfg.Resolver.CacheSize)

	assert.Equal(t, time.Second, cfg.Recorder.DedupWindow)
	assert.Equal(t, 100*time.Millisecond, cfg.Recorder.ScrollMinInterval)
	assert.Equal(t, int64(10), cfg.Recorder.ScrollMinDelta)
	assert.Equal(t, 1000, cfg.Recorder.MaxActions)

	assert.Equal(t, 250*time.Millisecond, cfg.Replay.SettleDelay)
	assert.Equal(t, 100*time.Millisecond, cfg.Replay.PausePoll)
	assert.Equal(t, 2*time.Second, cfg.Replay.VisibilityWait)

	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 90*time.Second, cfg.Browser.NavigationTimeout)

	require.NoError(t, cfg.Validate())
}

func TestNewConfigFromViperOverrides(t *testing.T) {
	t.Parallel()
	v := viper.New()
	SetDefaults(v)
	v.Set("resolver.cache_size", 50)
	v.Set("recorder.dedup_window", "2s")
	v.Set("browser.headless", false)

	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.Resolver.CacheSize)
	assert.Equal(t, 2*time.Second, cfg.Recorder.DedupWindow)
	assert.False(t, cfg.Browser.Headless)
	// Untouched keys keep their defaults.
	assert.Equal(t, int64(10), cfg.Recorder.ScrollMinDelta)
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "zero cache size",
			mutate:  func(c *Config) { c.Resolver.CacheSize = 0 },
			wantErr: "cache_size",
		},
		{
			name:    "negative dedup window",
			mutate:  func(c *Config) { c.Recorder.DedupWindow = -time.Second },
			wantErr: "dedup_window",
		},
		{
			name:    "negative scroll delta",
			mutate:  func(c *Config) { c.Recorder.ScrollMinDelta = -1 },
			wantErr: "scroll_min_delta",
		},
		{
			name:    "zero max actions",
			mutate:  func(c *Config) { c.Recorder.MaxActions = 0 },
			wantErr: "max_actions",
		},
		{
			name:    "zero pause poll",
			mutate:  func(c *Config) { c.Replay.PausePoll = 0 },
			wantErr: "pause_poll",
		},
		{
			name:    "negative settle delay",
			mutate:  func(c *Config) { c.Replay.SettleDelay = -time.Millisecond },
			wantErr: "replay delays",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := NewDefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestNewConfigFromViperRejectsInvalid(t *testing.T) {
	t.Parallel()
	v := viper.New()
	SetDefaults(v)
	v.Set("resolver.cache_size", -5)

	_, err := NewConfigFromViper(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}
