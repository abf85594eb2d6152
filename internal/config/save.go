package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Save writes the config to the user's config directory.
func (c *Config) Save() error {
	return c.SaveTo(filepath.Join(ConfigDir(), "config.yaml"))
}

// SaveTo writes the config to a specific path. A .toml extension selects TOML.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := c.Encode(path)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Encode marshals the config in the format implied by path's extension.
func (c *Config) Encode(path string) ([]byte, error) {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return toml.Marshal(c)
	}
	return yaml.Marshal(c)
}
