package app

import (
	"fmt"
	"os"
	"path/filepath"

	"tidy/internal/config"
)

// Paths are the locations tidy uses before any config file is read.
type Paths struct {
	ConfigFile string
	DataDir    string
}

// DefaultPaths resolves Paths from the environment. TIDY_CONFIG_PATH and
// TIDY_HOME win; otherwise XDG_CONFIG_HOME and XDG_DATA_HOME are honoured,
// falling back to ~/.config and ~/.local/share.
func DefaultPaths() (Paths, error) {
	cfgDir, err := xdgDir("XDG_CONFIG_HOME", ".config")
	if err != nil {
		return Paths{}, err
	}
	dataDir, err := xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
	if err != nil {
		return Paths{}, err
	}

	p := Paths{
		ConfigFile: filepath.Join(cfgDir, "tidy.toml"),
		DataDir:    filepath.Join(dataDir, "tidy"),
	}
	if v := os.Getenv("TIDY_CONFIG_PATH"); v != "" {
		p.ConfigFile = v
	}
	if v := os.Getenv("TIDY_HOME"); v != "" {
		p.DataDir = v
	}
	return p, nil
}

func xdgDir(env, fallback string) (string, error) {
	if v := os.Getenv(env); filepath.IsAbs(v) {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, fallback), nil
}

// BaseConfig is the configuration used when no file overrides it:
// everything under DataDir, logs in DataDir/log.
func (p Paths) BaseConfig() *config.Config {
	return config.New(p.DataDir)
}

// LoadConfig reads p.ConfigFile on top of BaseConfig. A missing file yields
// the base configuration.
func (p Paths) LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(p.ConfigFile, p.BaseConfig())
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return cfg, nil
}
