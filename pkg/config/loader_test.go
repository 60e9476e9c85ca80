package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoader_LoadDefaults(t *testing.T) {
	loader := NewLoader(WithConfigPaths(filepath.Join(t.TempDir(), "missing.yaml")))
	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, "middleman", cfg.App.Name)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, 500, cfg.Solver.MaxDimension)
	assert.True(t, cfg.Solver.RejectNonFinite)
	assert.Equal(t, 10*time.Minute, cfg.Cache.DefaultTTL)
	assert.Equal(t, uint32(5), cfg.Breaker.FailureThreshold)
	assert.Equal(t, "markdown", cfg.Report.DefaultFormat)
	assert.Equal(t, int32(2), cfg.Report.Precision)
	assert.Equal(t, []string{"GET", "POST", "OPTIONS"}, cfg.HTTP.CORS.AllowedMethods)
	assert.Empty(t, loader.ConfigFile())
}

func TestLoader_LoadFromFile(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
app:
  name: custom-service
  version: 2.0.0
  environment: staging
http:
  port: 9000
log:
  level: debug
solver:
  max_dimension: 50
  reject_non_finite: false
report:
  default_format: pdf
  pdf:
    orientation: portrait
`)

	loader := NewLoader(WithConfigPaths(configPath))
	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, "custom-service", cfg.App.Name)
	assert.Equal(t, "2.0.0", cfg.App.Version)
	assert.Equal(t, 9000, cfg.HTTP.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 50, cfg.Solver.MaxDimension)
	assert.False(t, cfg.Solver.RejectNonFinite)
	assert.Equal(t, "pdf", cfg.Report.DefaultFormat)
	assert.Equal(t, "portrait", cfg.Report.PDF.Orientation)
	// значения вне файла остаются по умолчанию
	assert.Equal(t, "A4", cfg.Report.PDF.PageSize)
	assert.Equal(t, configPath, loader.ConfigFile())
}

func TestLoader_LoadFromEnv(t *testing.T) {
	t.Setenv("MIDDLEMAN_APP_NAME", "env-service")
	t.Setenv("MIDDLEMAN_HTTP_PORT", "8181")
	t.Setenv("MIDDLEMAN_SOLVER_MAX_DIMENSION", "20")
	t.Setenv("MIDDLEMAN_CACHE_DEFAULT_TTL", "90s")
	t.Setenv("MIDDLEMAN_HTTP_CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := NewLoader(WithConfigPaths()).Load()
	require.NoError(t, err)

	assert.Equal(t, "env-service", cfg.App.Name)
	assert.Equal(t, 8181, cfg.HTTP.Port)
	assert.Equal(t, 20, cfg.Solver.MaxDimension)
	assert.Equal(t, 90*time.Second, cfg.Cache.DefaultTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.CORS.AllowedOrigins)
}

func TestLoader_EnvOverridesFile(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
app:
  name: file-service
http:
  port: 8282
`)

	t.Setenv("MIDDLEMAN_APP_NAME", "env-override")

	cfg, err := NewLoader(WithConfigPaths(configPath)).Load()
	require.NoError(t, err)

	assert.Equal(t, "env-override", cfg.App.Name)
	// порт берётся из файла
	assert.Equal(t, 8282, cfg.HTTP.Port)
}

func TestLoader_InvalidConfig(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
http:
  port: 0
`)

	_, err := NewLoader(WithConfigPaths(configPath)).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http.port")
}

func TestLoader_WithEnvPrefix(t *testing.T) {
	t.Setenv("CUSTOM_APP_NAME", "custom-prefix-service")

	cfg, err := NewLoader(WithEnvPrefix("CUSTOM_"), WithConfigPaths()).Load()
	require.NoError(t, err)
	assert.Equal(t, "custom-prefix-service", cfg.App.Name)
}

func TestLoader_ConfigEnvVar(t *testing.T) {
	configPath := writeConfig(t, "custom-config.yaml", `
app:
  name: config-env-var-service
`)
	t.Setenv("MIDDLEMAN_CONFIG", configPath)

	loader := NewLoader()
	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, "config-env-var-service", cfg.App.Name)
	assert.Equal(t, configPath, loader.ConfigFile())
}

func TestMustLoad_Success(t *testing.T) {
	assert.NotPanics(t, func() {
		cfg := MustLoad(WithConfigPaths())
		assert.NotNil(t, cfg)
	})
}

func TestMustLoad_Panics(t *testing.T) {
	t.Setenv("MIDDLEMAN_SOLVER_MAX_DIMENSION", "0")

	assert.Panics(t, func() {
		MustLoad(WithConfigPaths())
	})
}

func TestSplitAndTrim(t *testing.T) {
	assert.Nil(t, splitAndTrim(""))
	assert.Equal(t, []string{"a", "b"}, splitAndTrim(" a , ,b "))
}
