// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/webloop/webloop/api/schemas"
)

// Config holds the entire application configuration.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	Resolver ResolverConfig `mapstructure:"resolver" yaml:"resolver"`
	Recorder RecorderConfig `mapstructure:"recorder" yaml:"recorder"`
	Replay   ReplayConfig   `mapstructure:"replay" yaml:"replay"`
	Browser  BrowserConfig  `mapstructure:"browser" yaml:"browser"`
	Store    StoreConfig    `mapstructure:"store" yaml:"store"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color names for console log levels.
type ColorConfig struct {
	Debug string `mapstructure:"debug" yaml:"debug"`
	Info  string `mapstructure:"info" yaml:"info"`
	Warn  string `mapstructure:"warn" yaml:"warn"`
	Error string `mapstructure:"error" yaml:"error"`
	Fatal string `mapstructure:"fatal" yaml:"fatal"`
}

// ResolverConfig tunes element resolution.
type ResolverConfig struct {
	// CacheSize bounds the descriptor cache (insertion-order eviction).
	CacheSize int `mapstructure:"cache_size" yaml:"cache_size"`
}

// RecorderConfig tunes interaction capture. The dedup and scroll thresholds
// are empirical defaults carried over from field observation; they are
// configuration, not invariants.
type RecorderConfig struct {
	// DedupWindow drops an action identical to the previous one when it
	// lands within this window.
	DedupWindow time.Duration `mapstructure:"dedup_window" yaml:"dedup_window"`
	// ScrollMinInterval is the minimum gap between recorded scrolls.
	ScrollMinInterval time.Duration `mapstructure:"scroll_min_interval" yaml:"scroll_min_interval"`
	// ScrollMinDelta is the minimum displacement (either axis) for a scroll
	// to be worth recording.
	ScrollMinDelta int64 `mapstructure:"scroll_min_delta" yaml:"scroll_min_delta"`
	// MaxActions caps a single recording session.
	MaxActions int `mapstructure:"max_actions" yaml:"max_actions"`
}

// ReplayConfig tunes the execution loop.
type ReplayConfig struct {
	// SettleDelay is applied before and after each interaction, divided by
	// the job's speed multiplier.
	SettleDelay time.Duration `mapstructure:"settle_delay" yaml:"settle_delay"`
	// PausePoll is how often a paused job re-checks for resume/stop.
	PausePoll time.Duration `mapstructure:"pause_poll" yaml:"pause_poll"`
	// RetryBackoff is the base wait between retries of a failed interaction.
	RetryBackoff time.Duration `mapstructure:"retry_backoff" yaml:"retry_backoff"`
	// VisibilityWait bounds how long the engine waits for an element to
	// become visible after scrolling it into view.
	VisibilityWait time.Duration `mapstructure:"visibility_wait" yaml:"visibility_wait"`
}

// BrowserConfig holds settings for the chromedp-backed page.
type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless" yaml:"headless"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	PostLoadWait      time.Duration `mapstructure:"post_load_wait" yaml:"post_load_wait"`
	Args              []string      `mapstructure:"args" yaml:"args"`
}

// StoreConfig locates persisted action sequences.
type StoreConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "webloop")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Resolver --
	v.SetDefault("resolver.cache_size", 500)

	// -- Recorder --
	v.SetDefault("recorder.dedup_window", "1s")
	v.SetDefault("recorder.scroll_min_interval", "100ms")
	v.SetDefault("recorder.scroll_min_delta", 10)
	v.SetDefault("recorder.max_actions", schemas.DefaultMaxSequenceLength)

	// -- Replay --
	v.SetDefault("replay.settle_delay", "250ms")
	v.SetDefault("replay.pause_poll", "100ms")
	v.SetDefault("replay.retry_backoff", "500ms")
	v.SetDefault("replay.visibility_wait", "2s")

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.navigation_timeout", "90s")
	v.SetDefault("browser.post_load_wait", "2s")

	// -- Store --
	v.SetDefault("store.dir", ".")
}

// NewDefaultConfig creates a configuration populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Cannot happen with defaults only.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewConfigFromViper builds and validates a configuration from a viper
// instance that already has file/env values loaded.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for sane values.
func (c *Config) Validate() error {
	if c.Resolver.CacheSize <= 0 {
		return fmt.Errorf("resolver.cache_size must be a positive integer")
	}
	if c.Recorder.DedupWindow < 0 {
		return fmt.Errorf("recorder.dedup_window must not be negative")
	}
	if c.Recorder.ScrollMinInterval < 0 {
		return fmt.Errorf("recorder.scroll_min_interval must not be negative")
	}
	if c.Recorder.ScrollMinDelta < 0 {
		return fmt.Errorf("recorder.scroll_min_delta must not be negative")
	}
	if c.Recorder.MaxActions <= 0 {
		return fmt.Errorf("recorder.max_actions must be a positive integer")
	}
	if c.Replay.SettleDelay < 0 || c.Replay.RetryBackoff < 0 || c.Replay.VisibilityWait < 0 {
		return fmt.Errorf("replay delays must not be negative")
	}
	if c.Replay.PausePoll <= 0 {
		return fmt.Errorf("replay.pause_poll must be a positive duration")
	}
	return nil
}
