// Package config loads the server configuration file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults used when the file (or a field) is absent.
const (
	DefaultListen   = ":8780"
	DefaultDatabase = "templatefall.db"
)

// Config is the YAML server configuration. Flags override file
// values; the file is optional.
type Config struct {
	// Listen is the admin server bind address.
	Listen string `yaml:"listen"`

	// Database is the SQLite database path.
	Database string `yaml:"database"`

	// Catalog is the site catalog YAML path.
	Catalog string `yaml:"catalog"`

	// Tokens maps admin bearer tokens to the capabilities they hold.
	Tokens map[string][]string `yaml:"tokens"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Listen:   DefaultListen,
		Database: DefaultDatabase,
		Tokens:   map[string][]string{},
	}
}

// Load reads a configuration file, filling absent fields with
// defaults. A missing file is not an error; the defaults apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.Listen == "" {
		cfg.Listen = DefaultListen
	}
	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}
	if cfg.Tokens == nil {
		cfg.Tokens = map[string][]string{}
	}
	return cfg, nil
}
