// Package config handles configuration loading and validation for tidy.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// ConfigErrorType represents the type of configuration error.
type ConfigErrorType string

const (
	FileNotFound    ConfigErrorType = "FILE_NOT_FOUND"
	InvalidTOML     ConfigErrorType = "INVALID_TOML"
	ValidationError ConfigErrorType = "VALIDATION_ERROR"
)

// ConfigError represents an error that occurred during configuration loading.
type ConfigError struct {
	Type    ConfigErrorType
	Path    string
	Message string
}

func (e *ConfigError) Error() string {
	switch e.Type {
	case FileNotFound:
		if e.Message != "" {
			return fmt.Sprintf("cannot read configuration file %s: %s", e.Path, e.Message)
		}
		return fmt.Sprintf("configuration file not found: %s", e.Path)
	case InvalidTOML:
		return fmt.Sprintf("invalid TOML in configuration file %s: %s", e.Path, e.Message)
	case ValidationError:
		return fmt.Sprintf("configuration validation error: %s", e.Message)
	default:
		return fmt.Sprintf("configuration error: %s", e.Message)
	}
}

// Undo store backends.
const (
	UndoBackendSQLite = "sqlite"
	UndoBackendFile   = "file"
)

// Defaults used when a field is absent.
const (
	DefaultLogLevel          = "info"
	DefaultDebounceSeconds   = 2
	DefaultStableThresholdMs = 1000
	DefaultBcryptCost        = 10
)

// DefaultIgnorePatterns are temporary-download names the watcher never triggers on.
var DefaultIgnorePatterns = []string{"*.tmp", "*.part", "*.download", "*.crdownload", "*.partial", ".~*"}

// Config holds all settings for tidy.
type Config struct {
	DataDir  string         `toml:"data_dir"`
	LogDir   string         `toml:"log_dir"`
	LogLevel string         `toml:"log_level"`
	Undo     UndoConfig     `toml:"undo"`
	Organize OrganizeConfig `toml:"organize"`
	Watch    WatchConfig    `toml:"watch"`
	Auth     AuthConfig     `toml:"auth"`
}

// UndoConfig selects where undo entries are kept.
type UndoConfig struct {
	Backend string `toml:"backend"` // "sqlite" (per user) or "file" (single legacy slot)
}

// OrganizeConfig holds organize defaults.
type OrganizeConfig struct {
	SkipExtensions []string `toml:"skip_extensions"` // merged with --skip
}

// WatchConfig tunes `tidy watch`.
type WatchConfig struct {
	DebounceSeconds   int      `toml:"debounce_seconds"`
	StableThresholdMs int      `toml:"stable_threshold_ms"`
	IgnorePatterns    []string `toml:"ignore_patterns"`
}

// AuthConfig tunes password hashing.
type AuthConfig struct {
	BcryptCost int `toml:"bcrypt_cost"`
}

// New returns a Config with every default filled in, rooted at dataDir.
func New(dataDir string) *Config {
	cfg := &Config{DataDir: dataDir}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.LogDir == "" && c.DataDir != "" {
		c.LogDir = filepath.Join(c.DataDir, "log")
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Undo.Backend == "" {
		c.Undo.Backend = UndoBackendSQLite
	}
	if c.Organize.SkipExtensions == nil {
		c.Organize.SkipExtensions = []string{}
	}
	if c.Watch.DebounceSeconds == 0 {
		c.Watch.DebounceSeconds = DefaultDebounceSeconds
	}
	if c.Watch.StableThresholdMs == 0 {
		c.Watch.StableThresholdMs = DefaultStableThresholdMs
	}
	if c.Watch.IgnorePatterns == nil {
		c.Watch.IgnorePatterns = append([]string(nil), DefaultIgnorePatterns...)
	}
	if c.Auth.BcryptCost == 0 {
		c.Auth.BcryptCost = DefaultBcryptCost
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return &ConfigError{Type: ValidationError, Message: "data_dir cannot be empty"}
	}
	switch c.Undo.Backend {
	case UndoBackendSQLite, UndoBackendFile:
	default:
		return &ConfigError{
			Type:    ValidationError,
			Message: fmt.Sprintf("undo.backend must be %q or %q, got %q", UndoBackendSQLite, UndoBackendFile, c.Undo.Backend),
		}
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return &ConfigError{Type: ValidationError, Message: err.Error()}
	}
	if c.Watch.DebounceSeconds < 0 {
		return &ConfigError{Type: ValidationError, Message: "watch.debounce_seconds cannot be negative"}
	}
	if c.Watch.StableThresholdMs < 0 {
		return &ConfigError{Type: ValidationError, Message: "watch.stable_threshold_ms cannot be negative"}
	}
	for i, p := range c.Watch.IgnorePatterns {
		if _, err := filepath.Match(p, ""); err != nil {
			return &ConfigError{
				Type:    ValidationError,
				Message: fmt.Sprintf("watch.ignore_patterns[%d] %q: %v", i, p, err),
			}
		}
	}
	// bcrypt.MinCost..bcrypt.MaxCost
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return &ConfigError{Type: ValidationError, Message: "auth.bcrypt_cost must be between 4 and 31"}
	}
	return nil
}

// Derived locations under DataDir.

func (c *Config) DatabasePath() string { return filepath.Join(c.DataDir, "tidy.db") }
func (c *Config) ActivityDir() string  { return filepath.Join(c.DataDir, "logs") }
func (c *Config) BackupsDir() string   { return filepath.Join(c.DataDir, "backups") }
func (c *Config) UndoFilePath() string { return filepath.Join(c.DataDir, "undo_log.json") }

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from r on top of base, so keys absent from r keep
// base's values. A nil base starts from zero values.
func (m *Manager) Read(r io.Reader, base *Config) (*Config, error) {
	cfg := Config{}
	if base != nil {
		cfg = *base
	}
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes cfg to w.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads path on top of base.
func ReadFromFile(path string, base *Config) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &ConfigError{Type: FileNotFound, Path: path}
		}
		return nil, &ConfigError{Type: FileNotFound, Path: path, Message: err.Error()}
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f, base)
	if err != nil {
		return nil, &ConfigError{Type: InvalidTOML, Path: path, Message: err.Error()}
	}
	return cfg, nil
}

// Load reads path on top of defaults, fills remaining defaults, expands "~",
// and validates. A missing file is not an error: defaults are returned.
func Load(path string, defaults *Config) (*Config, error) {
	cfg, err := ReadFromFile(path, defaults)
	if err != nil {
		var ce *ConfigError
		if !errors.As(err, &ce) || ce.Type != FileNotFound || ce.Message != "" {
			return nil, err
		}
		cfg = &Config{}
		if defaults != nil {
			*cfg = *defaults
		}
	}

	cfg.DataDir = ExpandHome(cfg.DataDir)
	cfg.LogDir = ExpandHome(cfg.LogDir)
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Init writes cfg to path. It refuses to overwrite an existing file.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
