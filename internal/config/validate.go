package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Issue captures a validation problem with a config field.
type Issue struct {
	Field   string
	Message string
}

// ValidationError aggregates config validation issues.
type ValidationError struct {
	Issues []Issue
}

// Error renders validation errors as a multi-line string.
func (err *ValidationError) Error() string {
	if err == nil || len(err.Issues) == 0 {
		return "config validation failed"
	}
	lines := make([]string, 0, len(err.Issues))
	for _, issue := range err.Issues {
		lines = append(lines, fmt.Sprintf("%s: %s", issue.Field, issue.Message))
	}
	return strings.Join(lines, "\n")
}

// Validate checks a normalized config for correctness.
func Validate(cfg *Config) error {
	var issues []Issue
	add := func(field, message string) {
		issues = append(issues, Issue{Field: field, Message: message})
	}

	if cfg.Version == 0 {
		add("version", "is required")
	} else if cfg.Version != 1 {
		add("version", fmt.Sprintf("unsupported version %d", cfg.Version))
	}

	if u, err := url.Parse(cfg.Executor.BaseURL); err != nil {
		add("executor.base_url", fmt.Sprintf("invalid URL: %v", err))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		add("executor.base_url", fmt.Sprintf("unsupported scheme %q", u.Scheme))
	} else if u.Host == "" {
		add("executor.base_url", "missing host")
	}

	if cfg.Executor.TimeoutSeconds <= 0 {
		add("executor.timeout_seconds", "must be positive")
	}

	switch cfg.UI.Mode {
	case ModeAuto, ModeLive, ModePlain:
	default:
		add("ui.mode", fmt.Sprintf("must be %q, %q or %q", ModeAuto, ModeLive, ModePlain))
	}

	if strings.TrimSpace(cfg.Serve.Listen) == "" {
		add("serve.listen", "is required")
	}

	if len(issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: issues}
}
