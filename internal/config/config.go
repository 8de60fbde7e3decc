// Package config loads the sysfacts CLI configuration from a YAML file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all sysfacts configuration.
type Config struct {
	// CustomDirs are explicit custom fact script directories.
	CustomDirs []string `yaml:"custom_dirs"`

	// ExternalDirs are static fact file directories.
	ExternalDirs []string `yaml:"external_dirs"`

	// LoadPath is the embedded interpreter's module search path.
	LoadPath []string `yaml:"load_path"`

	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Logging: LoggingConfig{Level: "warn"},
	}
}

// Load reads a config file, falling back to defaults when the path is
// empty or the file does not exist. The SYSFACTS_LOG_LEVEL environment
// variable overrides the configured level.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("reading config file %q: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config file %q: %w", path, err)
		}
	}

	if level := os.Getenv("SYSFACTS_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "warn"
	}
	return cfg, nil
}
