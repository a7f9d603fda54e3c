// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/coral-mesh/ferroscope/internal/constants"
)

// Loader reads the configuration file and applies environment overrides.
type Loader struct {
	path string
}

// NewLoader creates a loader for the default config file.
// The base directory is resolved in this order:
//  1. FERROSCOPE_CONFIG environment variable.
//  2. User home directory (~/.ferroscope).
//  3. A directory under os.TempDir when no home directory exists.
func NewLoader() *Loader {
	if baseDir := os.Getenv(constants.ConfigDirEnv); baseDir != "" {
		return &Loader{path: filepath.Join(baseDir, constants.ConfigFile)}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Nothing exists here, so Load returns defaults with env overrides.
		homeDir = filepath.Join(os.TempDir(), "ferroscope-fallback")
	}
	return &Loader{path: filepath.Join(homeDir, constants.DefaultDir, constants.ConfigFile)}
}

// NewFileLoader creates a loader for an explicit config file. Unlike the default file, an
// explicit file must exist.
func NewFileLoader(path string) *Loader {
	return &Loader{path: path}
}

// Path returns the config file the loader reads.
func (l *Loader) Path() string {
	return l.path
}

// Load reads the config file over the defaults, then applies environment overrides.
// A missing default file yields the defaults.
func (l *Loader) Load(explicit bool) (*Config, error) {
	cfg := Default()

	//nolint:gosec // G304: path is the user's own config file.
	data, err := os.ReadFile(l.path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", l.path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := MergeFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	return cfg, nil
}

// Marshal renders cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}
