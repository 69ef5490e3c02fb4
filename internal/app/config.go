package app

import (
	"errors"
	"fmt"
	"slices"

	"github.com/hashicorp/go-multierror"
)

// Accepted values of the enumerated Config fields.
var (
	Formats    = []string{"auto", "hcl", "yaml"}
	LogFormats = []string{"auto", "text", "json"}
	LogLevels  = []string{"debug", "info", "warn", "error"}
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	GraphPath string // graph file or directory
	Format    string // authoring format; auto loads every known extension

	LogFormat         string
	LogLevel          string
	Workers           int
	MaxRecursionDepth int
	HealthcheckPort   int
	MetricsEnabled    bool
	// Cook reports graph errors as warnings, for batch builds.
	Cook bool
}

// NewConfig fills defaults and validates cfg.
func NewConfig(cfg Config) (*Config, error) {
	var result *multierror.Error
	if cfg.GraphPath == "" {
		result = multierror.Append(result, errors.New("GraphPath is a required configuration field and cannot be empty"))
	}
	if cfg.Format == "" {
		cfg.Format = "auto"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "auto"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	for _, f := range []struct {
		name, value string
		allowed     []string
	}{
		{"format", cfg.Format, Formats},
		{"log-format", cfg.LogFormat, LogFormats},
		{"log-level", cfg.LogLevel, LogLevels},
	} {
		if !slices.Contains(f.allowed, f.value) {
			result = multierror.Append(result, fmt.Errorf("invalid %s %q: must be one of %q", f.name, f.value, f.allowed))
		}
	}
	if cfg.Workers < 0 {
		result = multierror.Append(result, fmt.Errorf("workers must not be negative, got %d", cfg.Workers))
	}
	if cfg.MaxRecursionDepth < 0 {
		result = multierror.Append(result, fmt.Errorf("max recursion depth must not be negative, got %d", cfg.MaxRecursionDepth))
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		result = multierror.Append(result, fmt.Errorf("healthcheck port %d is out of range", cfg.HealthcheckPort))
	}
	if cfg.MetricsEnabled && cfg.HealthcheckPort == 0 {
		result = multierror.Append(result, errors.New("metrics are served on the healthcheck port, which is disabled"))
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
