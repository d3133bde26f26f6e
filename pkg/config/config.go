package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultOutput is the output file name used when none is configured.
	DefaultOutput = "output.cpp"
	// DefaultFile is looked up in the working directory when no config path is given.
	DefaultFile = "amalgam.yaml"
	// EnvConfig names the environment variable that may point at a config file.
	EnvConfig = "AMALGAM_CONFIG"
)

// Config describes one amalgamation run.
type Config struct {
	Output          string   `yaml:"output"`
	Recursive       bool     `yaml:"recursive"`
	CaseInsensitive *bool    `yaml:"case_insensitive"`
	Include         []string `yaml:"include"`
	Exclude         []string `yaml:"exclude"`
	IncludeDirs     []string `yaml:"include_dirs"`
}

// Load reads the config file at path. An empty path selects $AMALGAM_CONFIG, then
// ./amalgam.yaml; a missing default file yields an empty Config.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvConfig)
		explicit = path != ""
	}
	if !explicit {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// OutputPath returns the configured output file or the default.
func (c *Config) OutputPath() string {
	if c.Output == "" {
		return DefaultOutput
	}
	return c.Output
}
