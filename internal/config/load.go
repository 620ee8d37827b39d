package config

import (
	"fmt"
	"os"
)

// Load reads, parses, normalizes and validates a config file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, err
	}
	Normalize(&cfg, RootFromConfigPath(path))
	if err := Validate(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Discover finds and loads the nearest config above startDir, falling back
// to defaults rooted at startDir when none exists. The second result is
// the project root the config is anchored at.
func Discover(startDir string) (Config, string, error) {
	path, err := FindConfigPath(startDir)
	if err != nil {
		root := startDir
		if root == "" {
			if wd, wdErr := os.Getwd(); wdErr == nil {
				root = wd
			} else {
				return Config{}, "", fmt.Errorf("get working directory: %w", wdErr)
			}
		}
		return Default(root), root, nil
	}
	cfg, err := Load(path)
	if err != nil {
		return Config{}, "", err
	}
	return cfg, RootFromConfigPath(path), nil
}
