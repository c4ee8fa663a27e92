// Package config loads Prowler configuration from ~/.prowler/config.yaml
// with environment-variable overrides, following the usual viper layering:
// defaults in code, file on top, environment on top of that.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all engine configuration.
type Config struct {
	Engine    EngineConfig    `mapstructure:"engine" yaml:"engine"`
	Inference InferenceConfig `mapstructure:"inference" yaml:"inference"`
	Cache     CacheConfig     `mapstructure:"cache" yaml:"cache"`
	Data      DataConfig      `mapstructure:"data" yaml:"data"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
}

// EngineConfig tunes the mode controller and synthesizer.
type EngineConfig struct {
	// DailyCallLimit caps external inference calls per rolling 24h window.
	DailyCallLimit int `mapstructure:"daily_call_limit" yaml:"daily_call_limit"`
	// ForceLocal pins the engine to local synthesis regardless of budget.
	ForceLocal bool `mapstructure:"force_local" yaml:"force_local"`
	// CachedProbability is the chance of serving from cache when healthy.
	CachedProbability float64 `mapstructure:"cached_probability" yaml:"cached_probability"`
	// CacheQualityThreshold is the average quality a healthy cache needs.
	CacheQualityThreshold float64 `mapstructure:"cache_quality_threshold" yaml:"cache_quality_threshold"`
	// CriticalHealth is the retreat threshold for the agent's own health.
	CriticalHealth float64 `mapstructure:"critical_health" yaml:"critical_health"`
	// GrudgeThreshold is the grudge level that makes an opponent a
	// priority target.
	GrudgeThreshold float64 `mapstructure:"grudge_threshold" yaml:"grudge_threshold"`
	// ProfilesPath optionally overrides the built-in personality tables.
	ProfilesPath string `mapstructure:"profiles_path" yaml:"profiles_path,omitempty"`
}

// InferenceConfig configures the live inference provider.
type InferenceConfig struct {
	Endpoint    string  `mapstructure:"endpoint" yaml:"endpoint"`
	APIKey      string  `mapstructure:"api_key" yaml:"api_key,omitempty"`
	Model       string  `mapstructure:"model" yaml:"model"`
	MaxTokens   int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
	// TimeoutSec bounds every call; expiry is treated as any other
	// inference failure.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// Timeout returns the call timeout as a duration.
func (c InferenceConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// CacheConfig tunes the response cache.
type CacheConfig struct {
	MaxEntries int `mapstructure:"max_entries" yaml:"max_entries"`
	TTLSec     int `mapstructure:"ttl_sec" yaml:"ttl_sec"`
}

// TTL returns the entry lifetime as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSec) * time.Second
}

// DataConfig locates the SQLite store.
type DataConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// LoggingConfig configures zerolog.
type LoggingConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// DefaultDataDir returns ~/.prowler.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".prowler"
	}
	return filepath.Join(home, ".prowler")
}

// Load reads configuration from the given path (or the default location
// when empty), applying defaults and PROWLER_* environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(DefaultDataDir())
	}

	v.SetEnvPrefix("PROWLER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine; defaults apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && path != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("engine.daily_call_limit", 50)
	v.SetDefault("engine.force_local", false)
	v.SetDefault("engine.cached_probability", 0.3)
	v.SetDefault("engine.cache_quality_threshold", 0.6)
	v.SetDefault("engine.critical_health", 25.0)
	v.SetDefault("engine.grudge_threshold", 6.0)

	v.SetDefault("inference.endpoint", "http://127.0.0.1:11434/v1")
	v.SetDefault("inference.model", "llama3")
	v.SetDefault("inference.max_tokens", 512)
	v.SetDefault("inference.temperature", 0.8)
	v.SetDefault("inference.timeout_sec", 10)

	v.SetDefault("cache.max_entries", 100)
	v.SetDefault("cache.ttl_sec", 300)

	v.SetDefault("data.dir", DefaultDataDir())
	v.SetDefault("logging.level", "info")
}

// Validate checks ranged values.
func (c *Config) Validate() error {
	if c.Engine.DailyCallLimit <= 0 {
		return fmt.Errorf("engine.daily_call_limit must be positive")
	}
	if c.Engine.CachedProbability < 0 || c.Engine.CachedProbability > 1 {
		return fmt.Errorf("engine.cached_probability must be in [0,1]")
	}
	if c.Inference.TimeoutSec <= 0 {
		return fmt.Errorf("inference.timeout_sec must be positive")
	}
	return nil
}
