// Package config handles configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/mugaber/challenge-experiment-module/internal/models"
)

// Themes lists the panel color themes.
var Themes = []string{"default", "high-contrast"}

// Config is the root configuration structure.
type Config struct {
	// Global settings
	Global GlobalConfig `yaml:"global" mapstructure:"global"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`

	// Journal settings
	Journal JournalConfig `yaml:"journal" mapstructure:"journal"`

	// Store settings
	Store StoreConfig `yaml:"store" mapstructure:"store"`

	// TUI settings
	TUI TUIConfig `yaml:"tui" mapstructure:"tui"`
}

// GlobalConfig contains global settings.
type GlobalConfig struct {
	// DataDir holds the journal database (default: ~/.local/share/experiments).
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`

	// ConfigDir is where config files are stored (default: ~/.config/experiments).
	ConfigDir string `yaml:"config_dir" mapstructure:"config_dir"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console).
	Format string `yaml:"format" mapstructure:"format"`

	// File is an optional log file path. The panel logs only here.
	File string `yaml:"file" mapstructure:"file"`

	// EnableCaller adds caller information to logs.
	EnableCaller bool `yaml:"enable_caller" mapstructure:"enable_caller"`
}

// JournalConfig controls the SQLite event journal.
type JournalConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// Path is the SQLite file path (default: DataDir/journal.db).
	Path string `yaml:"path" mapstructure:"path"`

	// BusyTimeoutMs is how long to wait for a locked database (milliseconds).
	BusyTimeoutMs int `yaml:"busy_timeout_ms" mapstructure:"busy_timeout_ms"`
}

// StoreConfig contains experiment store settings.
type StoreConfig struct {
	// FinalTitle is given to an iteration when it is committed.
	FinalTitle string `yaml:"final_title" mapstructure:"final_title"`
}

// TUIConfig contains panel settings.
type TUIConfig struct {
	// Theme is the color theme (default, high-contrast).
	Theme string `yaml:"theme" mapstructure:"theme"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Global: GlobalConfig{
			DataDir:   filepath.Join(homeDir, ".local", "share", "experiments"),
			ConfigDir: filepath.Join(homeDir, ".config", "experiments"),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Journal: JournalConfig{
			Enabled:       false,
			Path:          "", // Will be set to DataDir/journal.db
			BusyTimeoutMs: 5000,
		},
		Store: StoreConfig{
			FinalTitle: models.DoneIterationTitle,
		},
		TUI: TUIConfig{
			Theme: "default",
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error", "disabled", "off":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, disabled")
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console")
	}

	if c.Journal.BusyTimeoutMs < 0 {
		return fmt.Errorf("journal.busy_timeout_ms must not be negative")
	}

	if strings.TrimSpace(c.Store.FinalTitle) == "" {
		return fmt.Errorf("store.final_title is required")
	}

	if !slices.Contains(Themes, c.TUI.Theme) {
		return fmt.Errorf("tui.theme must be one of %s", strings.Join(Themes, ", "))
	}

	return nil
}

// EnsureDirectories creates required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Global.DataDir,
		filepath.Dir(c.JournalPath()),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// JournalPath returns the full journal database path.
func (c *Config) JournalPath() string {
	if c.Journal.Path != "" {
		return c.Journal.Path
	}
	return filepath.Join(c.Global.DataDir, "journal.db")
}
