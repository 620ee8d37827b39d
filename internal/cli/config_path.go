package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"taskline/internal/config"
)

// loadConfig loads an explicit config file, or discovers the nearest one
// above the working directory, falling back to defaults rooted there.
func loadConfig(path string) (config.Config, error) {
	if strings.TrimSpace(path) == "" {
		cfg, _, err := config.Discover("")
		return cfg, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("resolve config path: %w", err)
	}
	return config.Load(abs)
}
