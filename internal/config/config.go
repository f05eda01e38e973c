// Package config loads the optional .safedi.yaml project configuration.
// Command-line flags always win over file values; the file only supplies
// defaults for invocations that omit them.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file looked up in the working
// directory.
const FileName = ".safedi.yaml"

// Config is the project-level configuration.
type Config struct {
	// Include lists directories enumerated recursively for source files.
	Include []string `yaml:"include"`
	// AdditionalImportedModules are module names added to the generated
	// imports.
	AdditionalImportedModules []string `yaml:"additionalImportedModules"`
}

// Load reads the configuration file from dir. A missing file is not an
// error; it yields an empty configuration.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}
