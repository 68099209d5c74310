package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildsched/buildsched/internal/config"
)

func TestLoadConfig_MissingRequiredFieldsFailsValidation(t *testing.T) {
	cfg, err := config.LoadConfig("")
	require.NoError(t, err, "LoadConfig itself does not validate - callers still need to apply overrides first")
	assert.ErrorIs(t, cfg.Validate(), config.ErrMissingRepo)
}

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "buildsched.yaml")

	contents := "repo: /srv/repo.git\nbranch: main\nplatform: linux\nbuilder: box-1\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/repo.git", cfg.Repo)
	assert.Equal(t, config.DefaultRefPrefix, cfg.RefPrefix)
	assert.Equal(t, config.DefaultNotesPrefix, cfg.NotesPrefix)
	assert.Equal(t, config.DefaultMinEstimatedDuration, cfg.MinEstimatedDuration)
	assert.True(t, cfg.LogJSON)
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "buildsched.yaml")

	contents := "repo: /srv/repo.git\nbranch: main\nplatform: linux\nbuilder: box-1\n" +
		"min_estimated_duration: 1h\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, time.Hour, cfg.MinEstimatedDuration)
}

func TestLoadConfig_MissingConfigFileIsNotFatal(t *testing.T) {
	cfg, err := config.LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err, "a missing config file is not a read error")
	assert.ErrorIs(t, cfg.Validate(), config.ErrMissingRepo)
}

func TestLoadConfig_EnvVarsOverrideDefaults(t *testing.T) {
	t.Setenv("BUILDSCHED_REPO", "/srv/env-repo.git")
	t.Setenv("BUILDSCHED_BRANCH", "release")
	t.Setenv("BUILDSCHED_PLATFORM", "mac")
	t.Setenv("BUILDSCHED_BUILDER", "box-2")

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "/srv/env-repo.git", cfg.Repo)
	assert.Equal(t, "release", cfg.Branch)
	assert.Equal(t, "mac", cfg.Platform)
	assert.Equal(t, "box-2", cfg.Builder)
}

func TestLoadConfig_FlagsOnlyInvocationValidatesAfterOverrides(t *testing.T) {
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	cfg.Repo = "/r"
	cfg.Branch = "b"
	cfg.Platform = "p"

	assert.NoError(t, cfg.Validate(), "flags applied after LoadConfig must satisfy Validate with no env vars or config file")
}

func TestLoadConfig_EnvVarsOverrideObservabilityDefaults(t *testing.T) {
	t.Setenv("BUILDSCHED_REPO", "/srv/env-repo.git")
	t.Setenv("BUILDSCHED_BRANCH", "main")
	t.Setenv("BUILDSCHED_PLATFORM", "linux")
	t.Setenv("BUILDSCHED_OTLP_ENDPOINT", "otel-collector:4317")
	t.Setenv("BUILDSCHED_PROMETHEUS_ADDR", ":9090")

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "otel-collector:4317", cfg.OTLPEndpoint)
	assert.Equal(t, ":9090", cfg.PrometheusAddr)
}
