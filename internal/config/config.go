// Package config holds teamfit's runtime configuration: where data lives,
// which cache backend to use, an optional custom role table and the default
// optimization mode.
//
// Settings come from defaults, then <data_dir>/config.yaml, then TEAMFIT_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/HendryAvila/teamfit/internal/kvstore"
	"github.com/HendryAvila/teamfit/internal/roles"
	"github.com/HendryAvila/teamfit/internal/team"
)

const (
	// DirName is the data directory created under the user's home.
	DirName = ".teamfit"
	// FileName is the config file inside the data directory.
	FileName = "config.yaml"
)

// Environment overrides.
const (
	EnvDataDir = "TEAMFIT_DATA_DIR"
	EnvCache   = "TEAMFIT_CACHE"
	EnvRoles   = "TEAMFIT_ROLES"
	EnvMode    = "TEAMFIT_MODE"
)

const defaultConfigYAML = `# teamfit configuration
version: 1

# Where the recommendation cache is kept: sqlite, file or memory.
cache: sqlite

# Optional role table replacing the built-in one.
# roles_file: roles.yaml

# Mode used when a request does not name one: fastest, balanced or cheapest.
default_mode: balanced
`

// Config is the runtime configuration.
type Config struct {
	Version int `yaml:"version"`
	// DataDir holds the cache, logs and config file. Not read from YAML.
	DataDir     string `yaml:"-"`
	Cache       string `yaml:"cache"`
	RolesFile   string `yaml:"roles_file,omitempty"`
	DefaultMode string `yaml:"default_mode"`
}

// DefaultConfig returns sensible defaults rooted at ~/.teamfit.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		Version:     1,
		DataDir:     filepath.Join(home, DirName),
		Cache:       kvstore.BackendSQLite,
		DefaultMode: string(team.ModeBalanced),
	}
}

// Load builds the configuration. path may be empty, in which case
// <data_dir>/config.yaml is read if it exists.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if dir := strings.TrimSpace(os.Getenv(EnvDataDir)); dir != "" {
		cfg.DataDir = dir
	}
	if path == "" {
		path = cfg.Path()
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if v := strings.TrimSpace(os.Getenv(EnvCache)); v != "" {
		cfg.Cache = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvRoles)); v != "" {
		cfg.RolesFile = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvMode)); v != "" {
		cfg.DefaultMode = v
	}

	// A relative roles file is relative to the data directory.
	if cfg.RolesFile != "" && !filepath.IsAbs(cfg.RolesFile) {
		cfg.RolesFile = filepath.Join(cfg.DataDir, cfg.RolesFile)
	}

	return cfg, cfg.Validate()
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("config: data dir is required")
	}
	switch c.Cache {
	case kvstore.BackendMemory, kvstore.BackendFile, kvstore.BackendSQLite:
	default:
		return fmt.Errorf("config: unknown cache backend %q (want sqlite, file or memory)", c.Cache)
	}
	if _, err := team.ParseMode(c.DefaultMode); err != nil {
		return fmt.Errorf("config: default_mode: %w", err)
	}
	return nil
}

// Path returns the config file location.
func (c Config) Path() string {
	return filepath.Join(c.DataDir, FileName)
}

// LogsDir returns the directory log files are written to.
func (c Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// CacheDir returns the directory the cache backend stores its data in.
func (c Config) CacheDir() string {
	return filepath.Join(c.DataDir, "cache")
}

// Mode returns the parsed default mode.
func (c Config) Mode() team.Mode {
	m, err := team.ParseMode(c.DefaultMode)
	if err != nil {
		return team.ModeBalanced
	}
	return m
}

// Resolver loads the configured role table, or the built-in one.
func (c Config) Resolver() (*roles.Resolver, error) {
	if c.RolesFile == "" {
		return roles.Default(), nil
	}
	t, err := roles.LoadTable(c.RolesFile)
	if err != nil {
		return nil, err
	}
	return roles.New(t), nil
}

// OpenStore opens the configured cache backend.
func (c Config) OpenStore() (kvstore.Store, func(), error) {
	return kvstore.Open(c.Cache, c.CacheDir())
}

// Init creates the data directory and writes a commented default config
// file if none exists. It reports whether a file was written.
func (c Config) Init() (bool, error) {
	if err := os.MkdirAll(c.DataDir, 0o755); err != nil {
		return false, fmt.Errorf("config: create data dir: %w", err)
	}
	path := c.Path()
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("config: stat %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigYAML), 0o644); err != nil {
		return false, fmt.Errorf("config: write %s: %w", path, err)
	}
	return true, nil
}
