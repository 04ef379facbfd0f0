package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config holds all netra configuration.
type Config struct {
	Portal     PortalConfig     `toml:"portal"`
	Predictor  PredictorConfig  `toml:"predictor"`
	Appearance AppearanceConfig `toml:"appearance"`
	TUI        TUIConfig        `toml:"tui"`
	Daemon     DaemonConfig     `toml:"daemon"`
	Cache      CacheConfig      `toml:"cache"`
}

// PortalConfig points at the attendance backend.
type PortalConfig struct {
	BaseURL    string `toml:"base_url,omitempty"`
	TimeoutSec int    `toml:"timeout_sec"`
}

// PredictorConfig holds the projection targets and the daily class rate.
type PredictorConfig struct {
	AvgClassesPerDay  float64 `toml:"avg_classes_per_day"`
	MinimumTarget     float64 `toml:"minimum_target"`
	RecommendedTarget float64 `toml:"recommended_target"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// TUIConfig holds dashboard refresh settings.
type TUIConfig struct {
	AutoRefresh        bool `toml:"auto_refresh"`
	RefreshIntervalSec int  `toml:"refresh_interval_sec"`
}

// DaemonConfig holds the background watcher settings.
type DaemonConfig struct {
	Schedule string `toml:"schedule"`
	Addr     string `toml:"addr"`
}

// CacheConfig bounds the local snapshot history.
type CacheConfig struct {
	KeepSnapshots int `toml:"keep_snapshots"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Portal: PortalConfig{
			TimeoutSec: 15,
		},
		Predictor: PredictorConfig{
			AvgClassesPerDay:  8,
			MinimumTarget:     65,
			RecommendedTarget: 75,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		TUI: TUIConfig{
			AutoRefresh:        true,
			RefreshIntervalSec: 300,
		},
		Daemon: DaemonConfig{
			Schedule: "@every 15m",
			Addr:     "127.0.0.1:8787",
		},
		Cache: CacheConfig{
			KeepSnapshots: 200,
		},
	}
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "netra")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "netra")
}

// Path returns the full path to the config file.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist,
// then applies NETRA_* environment overrides. A .env file in the working
// directory is read first; variables already set in the environment win.
func Load() (Config, error) {
	cfg := DefaultConfig()

	_ = godotenv.Load()

	data, err := os.ReadFile(Path())
	if err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err == nil {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	}

	applyEnv(&cfg, os.LookupEnv)
	cfg.normalize()
	return cfg, nil
}

// applyEnv overlays environment variables onto cfg. lookup is os.LookupEnv
// outside tests.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup("NETRA_BACKEND_URL"); ok && v != "" {
		cfg.Portal.BaseURL = v
	}
	if v, ok := lookup("NETRA_TIMEOUT_SEC"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			cfg.Portal.TimeoutSec = n
		}
	}
	if v, ok := lookup("NETRA_AVG_CLASSES_PER_DAY"); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			cfg.Predictor.AvgClassesPerDay = f
		}
	}
	if v, ok := lookup("NETRA_THEME"); ok && v != "" {
		cfg.Appearance.Theme = v
	}
	if v, ok := lookup("NETRA_DAEMON_ADDR"); ok && v != "" {
		cfg.Daemon.Addr = v
	}
	if v, ok := lookup("NETRA_DAEMON_SCHEDULE"); ok && v != "" {
		cfg.Daemon.Schedule = v
	}
}

// normalize replaces nonsensical values with defaults.
func (c *Config) normalize() {
	def := DefaultConfig()
	if c.Portal.TimeoutSec <= 0 {
		c.Portal.TimeoutSec = def.Portal.TimeoutSec
	}
	if !(c.Predictor.AvgClassesPerDay > 0) {
		c.Predictor.AvgClassesPerDay = def.Predictor.AvgClassesPerDay
	}
	if !ValidTarget(c.Predictor.MinimumTarget) {
		c.Predictor.MinimumTarget = def.Predictor.MinimumTarget
	}
	if !ValidTarget(c.Predictor.RecommendedTarget) {
		c.Predictor.RecommendedTarget = def.Predictor.RecommendedTarget
	}
	if c.TUI.RefreshIntervalSec < 30 {
		c.TUI.RefreshIntervalSec = def.TUI.RefreshIntervalSec
	}
	if c.Daemon.Schedule == "" {
		c.Daemon.Schedule = def.Daemon.Schedule
	}
	if c.Daemon.Addr == "" {
		c.Daemon.Addr = def.Daemon.Addr
	}
	if c.Cache.KeepSnapshots <= 0 {
		c.Cache.KeepSnapshots = def.Cache.KeepSnapshots
	}
}

// Timeout returns the per-request portal timeout.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.Portal.TimeoutSec) * time.Second
}

// RefreshInterval returns the TUI auto-refresh period.
func (c Config) RefreshInterval() time.Duration {
	return time.Duration(c.TUI.RefreshIntervalSec) * time.Second
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(Path(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(Path())
	return err == nil
}
