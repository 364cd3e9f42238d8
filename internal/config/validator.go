package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ValidationSeverity represents the severity of a validation issue.
type ValidationSeverity string

const (
	SeverityError   ValidationSeverity = "error"
	SeverityWarning ValidationSeverity = "warning"
)

// ConfigValidationError represents a single validation issue.
type ConfigValidationError struct {
	Field    string // e.g. "organize.skip_extensions[0]"
	Message  string
	Severity ValidationSeverity
}

// ValidationResult contains all validation findings.
type ValidationResult struct {
	Errors   []ConfigValidationError
	Warnings []ConfigValidationError
	Valid    bool // True if no errors (warnings OK)
}

// ValidateConfig checks the environment a configuration points at and
// returns every finding. Validate covers the values themselves.
func ValidateConfig(cfg *Config) *ValidationResult {
	result := &ValidationResult{
		Errors:   []ConfigValidationError{},
		Warnings: []ConfigValidationError{},
	}

	findings := append(ValidatePaths(cfg), ValidateSettings(cfg)...)
	for _, f := range findings {
		if f.Severity == SeverityError {
			result.Errors = append(result.Errors, f)
		} else {
			result.Warnings = append(result.Warnings, f)
		}
	}

	result.Valid = len(result.Errors) == 0
	return result
}

// ValidatePaths checks that data_dir and log_dir exist or can be created.
func ValidatePaths(cfg *Config) []ConfigValidationError {
	var findings []ConfigValidationError
	for _, p := range []struct{ field, dir string }{
		{"data_dir", cfg.DataDir},
		{"log_dir", cfg.LogDir},
	} {
		if msg := checkDirectory(p.dir); msg != "" {
			findings = append(findings, ConfigValidationError{Field: p.field, Message: msg, Severity: SeverityError})
		}
	}
	return findings
}

// checkDirectory returns "" if dir is a writable directory or could be
// created under its nearest existing ancestor.
func checkDirectory(dir string) string {
	if dir == "" {
		return "path is empty"
	}
	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return "path exists but is not a directory: " + dir
		}
		if !isDirectoryWritable(dir) {
			return "directory is not writable: " + dir
		}
		return ""
	}
	if !os.IsNotExist(err) {
		return "error accessing directory: " + err.Error()
	}

	parent := filepath.Dir(dir)
	for parent != filepath.Dir(parent) {
		if _, err := os.Stat(parent); err == nil {
			break
		}
		parent = filepath.Dir(parent)
	}
	info, err = os.Stat(parent)
	if err != nil || !info.IsDir() {
		return "no existing parent directory for: " + dir
	}
	if !isDirectoryWritable(parent) {
		return "parent directory is not writable: " + parent
	}
	return ""
}

// isDirectoryWritable checks if a directory is writable by attempting to create a temp file.
func isDirectoryWritable(dir string) bool {
	f, err := os.CreateTemp(dir, ".tidy_write_test*")
	if err != nil {
		return false
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return true
}

// ValidateSettings reports questionable but accepted values.
func ValidateSettings(cfg *Config) []ConfigValidationError {
	var findings []ConfigValidationError

	for i, ext := range cfg.Organize.SkipExtensions {
		trimmed := strings.TrimSpace(ext)
		if trimmed == "" {
			findings = append(findings, ConfigValidationError{
				Field:    fmt.Sprintf("organize.skip_extensions[%d]", i),
				Message:  "empty extension is ignored",
				Severity: SeverityWarning,
			})
		} else if !strings.HasPrefix(trimmed, ".") || trimmed != strings.ToLower(trimmed) {
			findings = append(findings, ConfigValidationError{
				Field:    fmt.Sprintf("organize.skip_extensions[%d]", i),
				Message:  fmt.Sprintf("%q will be treated as %q", ext, "."+strings.TrimPrefix(strings.ToLower(trimmed), ".")),
				Severity: SeverityWarning,
			})
		}
	}

	if cfg.Undo.Backend == UndoBackendFile {
		findings = append(findings, ConfigValidationError{
			Field:    "undo.backend",
			Message:  "file backend keeps one undo slot for all users; another user's organize replaces yours",
			Severity: SeverityWarning,
		})
	}

	if cfg.Auth.BcryptCost < DefaultBcryptCost {
		findings = append(findings, ConfigValidationError{
			Field:    "auth.bcrypt_cost",
			Message:  fmt.Sprintf("cost %d is below the recommended %d", cfg.Auth.BcryptCost, DefaultBcryptCost),
			Severity: SeverityWarning,
		})
	}

	if cfg.Watch.DebounceSeconds == 0 {
		findings = append(findings, ConfigValidationError{
			Field:    "watch.debounce_seconds",
			Message:  "zero debounce organizes on every file event",
			Severity: SeverityWarning,
		})
	}

	return findings
}

// ParseLevel maps a log_level value to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("log_level must be one of debug, info, warn, error; got %q", s)
}
