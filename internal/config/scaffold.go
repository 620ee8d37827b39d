package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const defaultConfig = `version: 1

executor:
  base_url: "http://127.0.0.1:8787"
  token_env: "TASKLINE_TOKEN"
  timeout_seconds: 30

ui:
  mode: auto

log:
  file: ""
  debug: false

spool:
  path: ""

archive:
  path: ""

serve:
  listen: "127.0.0.1:8790"
`

// Scaffold writes a starter config at configPath, refusing to overwrite
// one that already exists.
func Scaffold(configPath string) error {
	if configPath == "" {
		return fmt.Errorf("config path is required")
	}
	if info, err := os.Stat(configPath); err == nil {
		if info.IsDir() {
			return fmt.Errorf("config path %q is a directory", configPath)
		}
		return fmt.Errorf("config file already exists at %q", configPath)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
