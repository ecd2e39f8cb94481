package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all mergelytics configuration. It lives in the user config
// directory, never inside a provisioned workspace, so the tool leaves no
// state of its own behind in scaffolded projects.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Run ledger
	Ledger LedgerConfig `yaml:"ledger"`

	// Scaffold verification
	Doctor DoctorConfig `yaml:"doctor"`

	// Terminal output
	UI UIConfig `yaml:"ui"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LedgerConfig configures the apply-history ledger.
type LedgerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // empty = default state directory
}

// DoctorConfig configures scaffold verification and drift watching.
type DoctorConfig struct {
	WatchDebounce string `yaml:"watch_debounce"`
	CheckTimeout  string `yaml:"check_timeout"`
}

// UIConfig configures terminal rendering.
type UIConfig struct {
	Theme   string `yaml:"theme"` // auto, light, dark
	NoColor bool   `yaml:"no_color"`
	Wrap    int    `yaml:"wrap"` // word wrap column for markdown previews
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
	File   string `yaml:"file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "mergelytics",
		Version: "0.1.0",

		Ledger: LedgerConfig{
			Enabled: true,
		},

		Doctor: DoctorConfig{
			WatchDebounce: "500ms",
			CheckTimeout:  "30s",
		},

		UI: UIConfig{
			Theme: "auto",
			Wrap:  80,
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// DefaultPath returns the default config file location, following XDG
// conventions.
func DefaultPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".mergelytics", "config.yaml")
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "mergelytics", "config.yaml")
}

// Load loads configuration from a YAML file. An empty path selects the
// default location; a missing file is not an error and defaults apply.
// Environment overrides are applied last.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if path := os.Getenv("MERGELYTICS_LEDGER"); path != "" {
		c.Ledger.Path = path
	}
	if os.Getenv("MERGELYTICS_NO_LEDGER") == "1" {
		c.Ledger.Enabled = false
	}
	if level := os.Getenv("MERGELYTICS_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if theme := os.Getenv("MERGELYTICS_THEME"); theme != "" {
		c.UI.Theme = theme
	}

	// https://no-color.org: any non-empty value disables color.
	if os.Getenv("NO_COLOR") != "" {
		c.UI.NoColor = true
	}
}

// GetWatchDebounce returns the watch debounce window as a duration.
func (c *Config) GetWatchDebounce() time.Duration {
	d, err := time.ParseDuration(c.Doctor.WatchDebounce)
	if err != nil {
		return 500 * time.Millisecond
	}
	return d
}

// GetCheckTimeout returns the verification timeout as a duration.
func (c *Config) GetCheckTimeout() time.Duration {
	d, err := time.ParseDuration(c.Doctor.CheckTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// ValidThemes lists the supported UI themes.
var ValidThemes = []string{"auto", "light", "dark"}

// ValidLogLevels lists the supported log levels.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validTheme := false
	for _, t := range ValidThemes {
		if c.UI.Theme == t {
			validTheme = true
			break
		}
	}
	if !validTheme {
		return fmt.Errorf("invalid UI theme: %s (valid: %v)", c.UI.Theme, ValidThemes)
	}

	validLevel := false
	for _, l := range ValidLogLevels {
		if c.Logging.Level == l {
			validLevel = true
			break
		}
	}
	if !validLevel {
		return fmt.Errorf("invalid log level: %s (valid: %v)", c.Logging.Level, ValidLogLevels)
	}

	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("invalid log format: %s (valid: json, console)", c.Logging.Format)
	}

	if _, err := time.ParseDuration(c.Doctor.WatchDebounce); err != nil {
		return fmt.Errorf("invalid watch_debounce: %w", err)
	}
	if _, err := time.ParseDuration(c.Doctor.CheckTimeout); err != nil {
		return fmt.Errorf("invalid check_timeout: %w", err)
	}

	if c.UI.Wrap < 0 {
		return fmt.Errorf("invalid wrap column: %d", c.UI.Wrap)
	}

	return nil
}
