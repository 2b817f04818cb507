// Package config loads and validates collector configuration via Viper.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/devoid00/creto-votes/internal/votes"
)

// Config captures all collector configuration knobs loaded via Viper.
type Config struct {
	Logging LoggingConfig  `mapstructure:"logging"`
	HTTP    HTTPConfig     `mapstructure:"http"`
	Senate  SenateConfig   `mapstructure:"senate"`
	House   HouseConfig    `mapstructure:"house"`
	Output  OutputConfig   `mapstructure:"output"`
	Server  ServerConfig   `mapstructure:"server"`
	Targets []TargetConfig `mapstructure:"targets"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// HTTPConfig configures the shared fetch client.
type HTTPConfig struct {
	TimeoutSeconds   int     `mapstructure:"timeout_seconds"`
	MaxRetries       int     `mapstructure:"max_retries"`
	BackoffInitialMs int     `mapstructure:"backoff_initial_ms"`
	UserAgent        string  `mapstructure:"user_agent"`
	APIKey           string  `mapstructure:"api_key"`
	RatePerHost      float64 `mapstructure:"rate_per_host"`
	RateBurst        int     `mapstructure:"rate_burst"`
}

// SenateConfig governs the upper-chamber adapter.
type SenateConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// HouseConfig governs the lower-chamber probe heuristic. The miss streak
// and probe ceiling are deliberately configurable: the enumerator has no
// authoritative end and operators tune these when a session under- or
// over-runs.
type HouseConfig struct {
	MissStreak  int `mapstructure:"miss_streak"`
	MaxProbe    int `mapstructure:"max_probe"`
	PaceEvery   int `mapstructure:"pace_every"`
	PaceDelayMs int `mapstructure:"pace_delay_ms"`
}

// OutputConfig sets the dataset output directory.
type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

// ServerConfig controls the optional ops HTTP listener.
type ServerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// TargetConfig is one (congress, chamber, session) collection target.
type TargetConfig struct {
	Congress int    `mapstructure:"congress"`
	Chamber  string `mapstructure:"chamber"`
	Session  int    `mapstructure:"session"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("VOTES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	// The api.data.gov gateway key is conventionally provided through the
	// environment rather than the config file.
	if cfg.HTTP.APIKey == "" {
		cfg.HTTP.APIKey = os.Getenv("CONGRESS_GOV_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.development", true)
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("http.max_retries", 3)
	v.SetDefault("http.backoff_initial_ms", 1000)
	v.SetDefault("http.user_agent", "creto-votes/1.0 (+github.com/devoid00/creto)")
	v.SetDefault("http.rate_per_host", 4.0)
	v.SetDefault("http.rate_burst", 2)
	v.SetDefault("senate.concurrency", 8)
	v.SetDefault("house.miss_streak", 30)
	v.SetDefault("house.max_probe", 1200)
	v.SetDefault("house.pace_every", 20)
	v.SetDefault("house.pace_delay_ms", 500)
	v.SetDefault("output.dir", "web/data")
	v.SetDefault("server.enabled", false)
	v.SetDefault("server.port", 9090)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.HTTP.MaxRetries < 0 {
		return fmt.Errorf("http.max_retries must be >= 0")
	}
	if c.Senate.Concurrency <= 0 {
		return fmt.Errorf("senate.concurrency must be > 0")
	}
	if c.House.MissStreak <= 0 {
		return fmt.Errorf("house.miss_streak must be > 0")
	}
	if c.House.MaxProbe <= 0 {
		return fmt.Errorf("house.max_probe must be > 0")
	}
	if strings.TrimSpace(c.Output.Dir) == "" {
		return fmt.Errorf("output.dir must be set")
	}
	if c.Server.Enabled && c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0 when the server is enabled")
	}
	for i, t := range c.Targets {
		if t.Congress <= 0 || t.Session <= 0 {
			return fmt.Errorf("targets[%d]: congress and session must be > 0", i)
		}
		if !votes.Chamber(t.Chamber).Valid() {
			return fmt.Errorf("targets[%d]: unknown chamber %q", i, t.Chamber)
		}
	}
	return nil
}

// CollectionTargets converts the configured targets to the model type.
func (c Config) CollectionTargets() []votes.Target {
	targets := make([]votes.Target, 0, len(c.Targets))
	for _, t := range c.Targets {
		targets = append(targets, votes.Target{
			Congress: t.Congress,
			Chamber:  votes.Chamber(t.Chamber),
			Session:  t.Session,
		})
	}
	return targets
}

// Timeout returns the HTTP timeout as a duration.
func (c HTTPConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Backoff returns the initial retry backoff as a duration.
func (c HTTPConfig) Backoff() time.Duration {
	return time.Duration(c.BackoffInitialMs) * time.Millisecond
}

// PaceDelay returns the probe pacing pause as a duration.
func (c HouseConfig) PaceDelay() time.Duration {
	return time.Duration(c.PaceDelayMs) * time.Millisecond
}
