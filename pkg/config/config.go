// Package config loads the aopctl demo graph's runtime configuration
// from a YAML or TOML file, selected by file extension, the way
// aiseeq-glint's core.LoadConfig reads a YAML rules file and
// emergent-company-specmcp's config.Load reads a TOML file.
//
// A loaded Config names its aspects by ID rather than carrying Go func
// values (a file can't serialize a closure): cmd/aopctl hands Aspects to
// demo.BuildSelected, which installs only the demo aspects whose IDs are
// listed.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config is the file-backed shape of the demo object graph's inputs.
type Config struct {
	DeclineOverCents int            `yaml:"decline_over_cents" toml:"decline_over_cents"`
	Stock            map[string]int `yaml:"stock" toml:"stock"`
	Aspects          []string       `yaml:"aspects" toml:"aspects"`
}

// Default returns the configuration aopctl uses when no file is given.
func Default() *Config {
	return &Config{
		DeclineOverCents: 0,
		Stock:            map[string]int{"WIDGET-1": 10, "GIZMO-7": 1},
		Aspects:          []string{"logging", "audit", "alert", "timing"},
	}
}

// Load reads path and unmarshals it as YAML or TOML based on its
// extension. An empty path returns Default().
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	// Stock and Aspects start empty so a file's values replace the
	// defaults rather than being merged into them; the checks below fall
	// back to the defaults when the file leaves them out.
	cfg := &Config{DeclineOverCents: Default().DeclineOverCents}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse yaml %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse toml %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("config: %s: unrecognized extension %q, want .yaml, .yml, or .toml", path, filepath.Ext(path))
	}

	if len(cfg.Stock) == 0 {
		cfg.Stock = Default().Stock
	}
	if len(cfg.Aspects) == 0 {
		cfg.Aspects = Default().Aspects
	}
	return cfg, nil
}

// HasAspect reports whether name was requested in the config.
func (c *Config) HasAspect(name string) bool {
	for _, a := range c.Aspects {
		if a == name {
			return true
		}
	}
	return false
}
