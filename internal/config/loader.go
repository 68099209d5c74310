package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// LoadConfig reads configuration from environment variables prefixed
// BUILDSCHED_, configPath (if non-empty), and finally the built-in defaults,
// in that order of precedence (highest first). configPath may be empty, in which
// case only env vars and defaults apply. LoadConfig does not validate the
// result: callers that still need to apply CLI flag overrides on top
// (cmd/buildsched/commands.newApp) must call Validate themselves once the
// final Config is assembled.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	applyDefaults(v)

	v.SetEnvPrefix("BUILDSCHED")
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("config: read %s: %w", configPath, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("ref_prefix", DefaultRefPrefix)
	v.SetDefault("notes_prefix", DefaultNotesPrefix)
	v.SetDefault("min_estimated_duration", DefaultMinEstimatedDuration)
	v.SetDefault("log_json", true)

	// Unmarshal only sees AutomaticEnv values for keys Viper already knows
	// about, so the no-default fields need an explicit BindEnv to make
	// BUILDSCHED_REPO etc. actually reach Config.
	for _, key := range []string{"repo", "branch", "platform", "builder", "otlp_endpoint", "prometheus_addr"} {
		_ = v.BindEnv(key)
	}
}
