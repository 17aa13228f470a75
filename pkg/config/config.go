// Package config handles loading and saving msv configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config: ~/.config/msv/config.yaml
//   - State:  ~/.local/state/msv/ (debug logs from headless runs)
//
// Command-line flags override the file, and MSV_STATS_BUFFER /
// MSV_STATS_MARGIN override both.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/msaview/pkg/colstats"
)

const maxRecent = 10

// UIConfig holds display and navigation preferences.
type UIConfig struct {
	ScrollStep      int    `yaml:"scroll_step,omitempty"`
	FastScrollStep  int    `yaml:"fast_scroll_step,omitempty"`
	ConsensusMethod string `yaml:"consensus_method,omitempty"` // majority, majority-non-gap
	Watch           bool   `yaml:"watch,omitempty"`            // reload when the input file changes
	NameWidth       int    `yaml:"name_width,omitempty"`       // widest identifier pane
}

// StatsConfig tunes the column statistics window.
type StatsConfig struct {
	Buffer  int `yaml:"buffer,omitempty"`
	Margin  int `yaml:"margin,omitempty"`
	Workers int `yaml:"workers,omitempty"` // 0 means GOMAXPROCS
}

// Config is the top-level configuration for msv.
type Config struct {
	UI     UIConfig    `yaml:"ui,omitempty"`
	Stats  StatsConfig `yaml:"stats,omitempty"`
	Recent []string    `yaml:"recent,omitempty"` // most recent first
}

// DefaultConfig returns a Config with the built-in defaults.
func DefaultConfig() Config {
	return Config{
		UI: UIConfig{
			ScrollStep:      1,
			FastScrollStep:  10,
			ConsensusMethod: colstats.MethodMajority.String(),
			NameWidth:       20,
		},
		Stats: StatsConfig{
			Buffer: colstats.DefaultBuffer,
			Margin: colstats.DefaultMargin,
		},
	}
}

// ConfigDir returns the XDG config directory for msv.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "msv")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "msv")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		cfg := DefaultConfig()
		cfg.applyEnv()
		return cfg, nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path. A missing file yields the
// defaults. Environment overrides are applied last.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	}

	for i := range cfg.Recent {
		cfg.Recent[i] = expandHome(cfg.Recent[i])
	}
	cfg.applyEnv()
	cfg.normalize()
	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Method parses UI.ConsensusMethod, falling back to majority.
func (c Config) Method() colstats.Method {
	m, err := colstats.ParseMethod(c.UI.ConsensusMethod)
	if err != nil {
		return colstats.MethodMajority
	}
	return m
}

// StatsParams returns the cache window parameters.
func (c Config) StatsParams() colstats.Params {
	return colstats.Params{Buffer: c.Stats.Buffer, Margin: c.Stats.Margin}
}

// AddRecent moves source to the front of the recent list. URLs and "-" are
// kept as given; paths are made absolute.
func (c *Config) AddRecent(source string) {
	if source == "" || source == "-" {
		return
	}
	if !strings.Contains(source, "://") {
		if abs, err := filepath.Abs(source); err == nil {
			source = abs
		}
	}
	c.Recent = slices.DeleteFunc(c.Recent, func(s string) bool { return s == source })
	c.Recent = append([]string{source}, c.Recent...)
	if len(c.Recent) > maxRecent {
		c.Recent = c.Recent[:maxRecent]
	}
}

func (c *Config) applyEnv() {
	c.Stats.Buffer = envNonNegativeIntOr("MSV_STATS_BUFFER", c.Stats.Buffer)
	c.Stats.Margin = envNonNegativeIntOr("MSV_STATS_MARGIN", c.Stats.Margin)
}

func (c *Config) normalize() {
	if c.UI.ScrollStep <= 0 {
		c.UI.ScrollStep = 1
	}
	if c.UI.FastScrollStep <= 0 {
		c.UI.FastScrollStep = 10
	}
	if c.UI.NameWidth <= 0 {
		c.UI.NameWidth = 20
	}
	c.Stats.Buffer = max(c.Stats.Buffer, 0)
	c.Stats.Margin = max(c.Stats.Margin, 0)
	c.Stats.Workers = max(c.Stats.Workers, 0)
}

func envNonNegativeIntOr(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
