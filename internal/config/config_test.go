package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/devoid00/creto-votes/internal/votes"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.House.MissStreak != 30 {
		t.Errorf("house.miss_streak = %d, want 30", cfg.House.MissStreak)
	}
	if cfg.House.MaxProbe != 1200 {
		t.Errorf("house.max_probe = %d, want 1200", cfg.House.MaxProbe)
	}
	if cfg.Senate.Concurrency != 8 {
		t.Errorf("senate.concurrency = %d, want 8", cfg.Senate.Concurrency)
	}
	if cfg.HTTP.TimeoutSeconds != 30 {
		t.Errorf("http.timeout_seconds = %d, want 30", cfg.HTTP.TimeoutSeconds)
	}
	if !strings.HasPrefix(cfg.HTTP.UserAgent, "creto-votes/") {
		t.Errorf("unexpected user agent %q", cfg.HTTP.UserAgent)
	}
}

func TestLoadWithFileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
logging:
  development: false
http:
  timeout_seconds: 20
  max_retries: 5
  backoff_initial_ms: 250
  user_agent: test-agent
senate:
  concurrency: 4
house:
  miss_streak: 10
  max_probe: 300
  pace_every: 5
  pace_delay_ms: 50
output:
  dir: /tmp/votes-out
server:
  enabled: true
  port: 8099
targets:
  - congress: 119
    chamber: house
    session: 1
  - congress: 119
    chamber: senate
    session: 1
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Logging.Development {
		t.Error("logging.development should be false")
	}
	if cfg.HTTP.MaxRetries != 5 {
		t.Errorf("http.max_retries = %d, want 5", cfg.HTTP.MaxRetries)
	}
	if cfg.House.MissStreak != 10 {
		t.Errorf("house.miss_streak = %d, want 10", cfg.House.MissStreak)
	}
	if !cfg.Server.Enabled || cfg.Server.Port != 8099 {
		t.Errorf("server = %+v, want enabled on 8099", cfg.Server)
	}

	targets := cfg.CollectionTargets()
	if len(targets) != 2 {
		t.Fatalf("targets = %d, want 2", len(targets))
	}
	want := votes.Target{Congress: 119, Chamber: votes.ChamberHouse, Session: 1}
	if targets[0] != want {
		t.Errorf("targets[0] = %+v, want %+v", targets[0], want)
	}
}

func TestLoadAPIKeyFromEnv(t *testing.T) {
	t.Setenv("CONGRESS_GOV_API_KEY", "gateway-secret")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HTTP.APIKey != "gateway-secret" {
		t.Errorf("http.api_key = %q, want env fallback", cfg.HTTP.APIKey)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero timeout", func(c *Config) { c.HTTP.TimeoutSeconds = 0 }},
		{"zero concurrency", func(c *Config) { c.Senate.Concurrency = 0 }},
		{"zero miss streak", func(c *Config) { c.House.MissStreak = 0 }},
		{"zero max probe", func(c *Config) { c.House.MaxProbe = 0 }},
		{"empty output dir", func(c *Config) { c.Output.Dir = " " }},
		{"bad chamber", func(c *Config) {
			c.Targets = []TargetConfig{{Congress: 119, Chamber: "assembly", Session: 1}}
		}},
		{"zero congress", func(c *Config) {
			c.Targets = []TargetConfig{{Congress: 0, Chamber: "house", Session: 1}}
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Load("")
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() accepted invalid config")
			}
		})
	}
}
