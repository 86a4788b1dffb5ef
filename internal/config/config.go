// Package config loads the locksync configuration file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	lserr "git.home.luguber.info/inful/locksync/internal/errors"
	"git.home.luguber.info/inful/locksync/internal/pm"
)

// Config is the locksync configuration, normally read from locksync.yaml at
// the repository root.
type Config struct {
	// Root overrides repository root detection. Empty means detect via git.
	Root string `yaml:"root"`

	// Manager selects the package manager driving the root refresh.
	Manager string `yaml:"manager"`

	// Packages are directory globs (relative to root) naming workspace
	// package directories, e.g. "packages/*".
	Packages []string `yaml:"packages"`

	// Journal is an optional path to the SQLite release journal.
	Journal string `yaml:"journal"`
}

// DefaultPackageGlobs is used when the config names no package directories.
var DefaultPackageGlobs = []string{"packages/*"}

// Load reads and validates the configuration file. Values support ${VAR}
// environment expansion so secrets and machine-local paths stay out of the
// committed file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, lserr.Wrap(err, lserr.CategoryConfig, lserr.SeverityFatal, "failed to read configuration file").
			WithContext("path", path)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, lserr.Wrap(err, lserr.CategoryConfig, lserr.SeverityFatal, "failed to parse configuration file").
			WithContext("path", path)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Manager == "" {
		c.Manager = pm.ManagerNPM
	}
	if len(c.Packages) == 0 {
		c.Packages = DefaultPackageGlobs
	}
}

func (c *Config) validate() error {
	switch c.Manager {
	case pm.ManagerNPM, pm.ManagerPnpm, pm.ManagerYarn:
		return nil
	default:
		return lserr.ConfigError(fmt.Sprintf("unsupported package manager %q (expected npm, pnpm, or yarn)", c.Manager))
	}
}
