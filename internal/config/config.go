// Package config loads the user-wide glance configuration from
// $XDG_CONFIG_HOME/glance/config.toml. Every field has a usable default;
// a missing file is not an error.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

type Config struct {
	// Color is "auto", "light" or "dark".
	Color string `toml:"color"`

	// Limit is the default number of commits shown by list.
	Limit int `toml:"limit"`

	// RenameThreshold is the minimum similarity percentage for rename
	// detection in status and diff.
	RenameThreshold int `toml:"rename_threshold"`

	// Untracked controls whether status reports untracked files.
	Untracked bool `toml:"untracked"`
}

func Default() Config {
	return Config{
		Color:           "auto",
		Limit:           20,
		RenameThreshold: 50,
		Untracked:       true,
	}
}

func Path() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "glance", "config.toml"), nil
}

// Load reads the config file, returning defaults when it does not exist.
func Load() (Config, error) {
	path, err := Path()
	if err != nil {
		return Default(), nil
	}
	return LoadFile(path)
}

func LoadFile(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.RenameThreshold < 0 || cfg.RenameThreshold > 100 {
		return cfg, fmt.Errorf("parse %s: rename_threshold must be between 0 and 100", path)
	}
	return cfg, nil
}
