package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSAllowedOrigins)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Empty(t, cfg.Data.StaticConfigPath)
	assert.Empty(t, cfg.Data.BenchmarkPath)
	assert.Equal(t, "https://api.strompriser.no", cfg.Strompriser.BaseURL)
	assert.Equal(t, 15, cfg.Strompriser.TimeoutSecs)
	assert.InDelta(t, 5.0, cfg.Strompriser.RequestsPerSecond, 0.001)
	assert.Equal(t, "https://api.electricitymap.org", cfg.ElectricityMaps.BaseURL)
	assert.Equal(t, "NO", cfg.ElectricityMaps.CountryCode)
	assert.Equal(t, 5, cfg.ElectricityMaps.TimeoutSecs)
	assert.Equal(t, 5, cfg.Resilience.FailureThreshold)
	assert.Equal(t, 30, cfg.Resilience.ResetTimeoutSecs)
	assert.Equal(t, 8, cfg.Batch.Concurrency)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
  format: console
server:
  port: 9090
  cors_allowed_origins:
    - https://enviro.example.no
data:
  static_config_path: /etc/enviro/static.yaml
strompriser:
  timeout_secs: 3
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"https://enviro.example.no"}, cfg.Server.CORSAllowedOrigins)
	assert.Equal(t, "/etc/enviro/static.yaml", cfg.Data.StaticConfigPath)
	assert.Equal(t, 3, cfg.Strompriser.TimeoutSecs)
	// Defaults still apply for unset values
	assert.Equal(t, 5, cfg.ElectricityMaps.TimeoutSecs)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
electricitymaps:
  country_code: SE
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("ENVIRO_LOG_LEVEL", "warn")
	t.Setenv("ENVIRO_ELECTRICITYMAPS_COUNTRY_CODE", "NO")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "NO", cfg.ElectricityMaps.CountryCode)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("ENVIRO_SERVER_PORT", "3000")
	t.Setenv("ENVIRO_STROMPRISER_KEY", "sp-key")
	t.Setenv("ENVIRO_ELECTRICITYMAPS_KEY", "em-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "sp-key", cfg.Strompriser.Key)
	assert.Equal(t, "em-key", cfg.ElectricityMaps.Key)
}

func TestLoadMalformedFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [unclosed"), 0644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Server.Port = 8000
	cfg.Strompriser.TimeoutSecs = 15
	cfg.ElectricityMaps.TimeoutSecs = 5
	cfg.Resilience.FailureThreshold = 5
	cfg.Batch.Concurrency = 8
	return cfg
}

func TestValidateServe_ValidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 9090

	assert.NoError(t, cfg.Validate("serve"))
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")

	cfg.Server.Port = 70000
	assert.Error(t, cfg.Validate("serve"))
}

func TestValidateEstimate_IgnoresServerPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	assert.NoError(t, cfg.Validate("estimate"))
}

func TestValidateBatchConcurrencyBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Batch.Concurrency = 0
	err := cfg.Validate("batch")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "batch.concurrency must be between 1 and 64")

	cfg.Batch.Concurrency = 65
	assert.Error(t, cfg.Validate("batch"))

	cfg.Batch.Concurrency = 64
	assert.NoError(t, cfg.Validate("batch"))
}

func TestValidateProviderSettings(t *testing.T) {
	cfg := validDefaults()
	cfg.Strompriser.TimeoutSecs = -1
	cfg.ElectricityMaps.RequestsPerSecond = -2

	err := cfg.Validate("estimate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "strompriser.timeout_secs")
	assert.Contains(t, err.Error(), "requests_per_second")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
