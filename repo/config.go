package repo

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// Config is the repository's remotes configuration, persisted as
// .vekt/config.json.
type Config struct {
	Remotes map[string]string `json:"remotes"`
}

// LoadConfig reads the config at <root>/.vekt/config.json, returning an
// empty Config if it does not exist yet.
func LoadConfig(root string) (*Config, error) {
	path := filepath.Join(root, DirName, ConfigFileName)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Config{Remotes: make(map[string]string)}, nil
	}
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if cfg.Remotes == nil {
		cfg.Remotes = make(map[string]string)
	}
	return &cfg, nil
}

// Save writes the config to <root>/.vekt/config.json, pretty-printed.
func (c *Config) Save(root string) error {
	vektDir := filepath.Join(root, DirName)
	if err := EnsureDir(vektDir); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(vektDir, ConfigFileName), data, 0o644)
}

// AddRemote sets or overwrites the URL for a named remote.
func (c *Config) AddRemote(name, url string) {
	if c.Remotes == nil {
		c.Remotes = make(map[string]string)
	}
	c.Remotes[name] = url
}

// RemoveRemote deletes a named remote, reporting whether it was present.
func (c *Config) RemoveRemote(name string) bool {
	if _, ok := c.Remotes[name]; !ok {
		return false
	}
	delete(c.Remotes, name)
	return true
}
