// Package config loads and validates the buildsched CLI's configuration:
// which repository/branch/platform/builder to act on, and the ref/notes
// namespacing and dampening policy knobs that tune the scheduler.
package config

import (
	"errors"
	"time"
)

// Default namespace and policy values, used both as viper defaults and as
// the zero-config behavior when embedding Config directly.
const (
	DefaultRefPrefix            = "refs/buildsched/state"
	DefaultNotesPrefix          = "refs/notes/buildsched/history"
	DefaultMinEstimatedDuration = 4 * time.Hour
)

// Config is the top-level configuration for the buildsched CLI.
type Config struct {
	Repo     string `mapstructure:"repo"`
	Branch   string `mapstructure:"branch"`
	Platform string `mapstructure:"platform"`
	Builder  string `mapstructure:"builder"`

	RefPrefix            string        `mapstructure:"ref_prefix"`
	NotesPrefix          string        `mapstructure:"notes_prefix"`
	MinEstimatedDuration time.Duration `mapstructure:"min_estimated_duration"`

	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	PrometheusAddr string `mapstructure:"prometheus_addr"`
	LogJSON        bool   `mapstructure:"log_json"`
}

// Sentinel validation errors.
var (
	ErrMissingRepo      = errors.New("config: repo is required")
	ErrMissingBranch    = errors.New("config: branch is required")
	ErrMissingPlatform  = errors.New("config: platform is required")
	ErrNegativeEstimate = errors.New("config: min_estimated_duration must be non-negative")
)

// Validate checks Config invariants, returning the first error found.
func (c *Config) Validate() error {
	if c.Repo == "" {
		return ErrMissingRepo
	}

	if c.Branch == "" {
		return ErrMissingBranch
	}

	if c.Platform == "" {
		return ErrMissingPlatform
	}

	if c.MinEstimatedDuration < 0 {
		return ErrNegativeEstimate
	}

	return nil
}
