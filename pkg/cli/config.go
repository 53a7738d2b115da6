package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Profile is one named connection target.
type Profile struct {
	Host   string `yaml:"host,omitempty"`
	Output string `yaml:"output,omitempty"`
}

// UserConfig holds the on-disk CLI configuration: named profiles plus the
// name of the one used when --profile is not given. The file lives at
// ~/.tq/config.yaml unless TQ_CONFIG points somewhere else.
type UserConfig struct {
	DefaultProfile string             `yaml:"default-profile,omitempty"`
	Profiles       map[string]Profile `yaml:"profiles,omitempty"`

	path string // where the config was loaded from, for Save
}

// configPath resolves the config file location. TQ_CONFIG wins so tests and
// scripted environments can point the CLI at a throwaway file.
func configPath() string {
	if p := os.Getenv("TQ_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".tq", "config.yaml")
}

// LoadUserConfig reads the config file. A missing file is not an error: the
// CLI works without one, so an empty config is returned instead. A present
// but malformed file is an error, since silently ignoring it would mask the
// user's profiles.
func LoadUserConfig() (*UserConfig, error) {
	path := configPath()
	cfg := &UserConfig{Profiles: map[string]Profile{}, path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) || path == "" {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Profiles == nil {
		cfg.Profiles = map[string]Profile{}
	}
	return cfg, nil
}

// Save writes the config back to where it was loaded from, creating the
// directory on first save.
func (c *UserConfig) Save() error {
	path := c.path
	if path == "" {
		path = configPath()
	}
	if path == "" {
		return errors.New("cannot resolve config path: no home directory and TQ_CONFIG unset")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// ActiveProfile resolves which profile applies: the override when given,
// otherwise the configured default. An unknown name yields a zero Profile so
// flag and built-in defaults still apply downstream.
func (c *UserConfig) ActiveProfile(override string) Profile {
	name := override
	if name == "" {
		name = c.DefaultProfile
	}
	return c.Profiles[name]
}

// ProfileNames lists configured profile names in stable order.
func (c *UserConfig) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
