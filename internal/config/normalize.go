package config

import "path/filepath"

// Default values applied by Normalize.
const (
	DefaultBaseURL        = "http://127.0.0.1:8787"
	DefaultTokenEnv       = "TASKLINE_TOKEN"
	DefaultTimeoutSeconds = 30
	DefaultListen         = "127.0.0.1:8790"

	defaultLogFile     = "taskline.log"
	defaultSpoolFile   = "spool.db"
	defaultArchiveFile = "archive.duckdb"
)

// Normalize fills defaults and resolves relative paths against root, so
// every consumer downstream sees a complete config.
func Normalize(cfg *Config, root string) {
	if cfg.Executor.BaseURL == "" {
		cfg.Executor.BaseURL = DefaultBaseURL
	}
	if cfg.Executor.TokenEnv == "" {
		cfg.Executor.TokenEnv = DefaultTokenEnv
	}
	if cfg.Executor.TimeoutSeconds == 0 {
		cfg.Executor.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if cfg.UI.Mode == "" {
		cfg.UI.Mode = ModeAuto
	}
	if cfg.Serve.Listen == "" {
		cfg.Serve.Listen = DefaultListen
	}

	stateDir := ConfigDir(root)
	cfg.Log.File = resolve(cfg.Log.File, filepath.Join(stateDir, defaultLogFile), root)
	cfg.Spool.Path = resolve(cfg.Spool.Path, filepath.Join(stateDir, defaultSpoolFile), root)
	cfg.Archive.Path = resolve(cfg.Archive.Path, filepath.Join(stateDir, defaultArchiveFile), root)
}

// Default returns the normalized config used when no config file exists.
func Default(root string) Config {
	cfg := Config{Version: 1}
	Normalize(&cfg, root)
	return cfg
}

// resolve picks the fallback when path is empty and anchors relative paths
// at root.
func resolve(path, fallback, root string) string {
	if path == "" {
		return fallback
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
