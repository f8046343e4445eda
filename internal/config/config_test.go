package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "pricing.db", cfg.Store.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "https://api.ebay.com/ws/api.dll", cfg.Ebay.TradingURL)
	assert.Equal(t, 100, cfg.Ebay.EntriesPerPage)
	assert.Equal(t, 30, cfg.Oracles.TimeoutSecs)
	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.Oracles.Anthropic.Model)
	assert.Equal(t, "gpt-4o-mini", cfg.Oracles.OpenAI.Model)
	assert.Equal(t, "gemini-2.0-flash", cfg.Oracles.Gemini.Model)
	assert.Equal(t, "PRICING_RULES", cfg.Rules.SheetName)
	assert.Equal(t, 1, cfg.Rules.SkipRows)
	assert.Equal(t, "catalog.yaml", cfg.Rules.CatalogPath)
	assert.Equal(t, "primary", cfg.Calendar.CalendarID)
	assert.Equal(t, 7, cfg.Calendar.LeadDays)
	assert.Equal(t, "0 6 * * *", cfg.Schedule.Cron)
	assert.False(t, cfg.Schedule.Live)
}

func TestLoadFromYAML(t *testing.T) {
	chdirTemp(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/pricing
log:
  level: debug
  format: console
server:
  port: 9090
rules:
  sheet_name: RULES_2026
`
	dir, _ := os.Getwd()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/pricing", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "RULES_2026", cfg.Rules.SheetName)
	// Defaults still apply for unset values
	assert.Equal(t, 100, cfg.Ebay.EntriesPerPage)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	dir, _ := os.Getwd()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("DATERADAR_STORE_DRIVER", "postgres")
	t.Setenv("DATERADAR_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("DATERADAR_SERVER_PORT", "3000")
	t.Setenv("DATERADAR_EBAY_CLIENT_ID", "env-app-id")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "env-app-id", cfg.Ebay.ClientID)
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

// validDefaults returns a Config with enough populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "sqlite"
	cfg.Store.Path = "pricing.db"
	cfg.Server.Port = 8080
	return cfg
}

func TestValidateReprice_AllPresent(t *testing.T) {
	cfg := validDefaults()
	cfg.Ebay.ClientID = "app-id"
	cfg.Ebay.ClientSecret = "app-secret"
	cfg.Ebay.RefreshToken = "refresh"

	assert.NoError(t, cfg.Validate("reprice"))
}

func TestValidateReprice_MissingEbay(t *testing.T) {
	cfg := validDefaults()

	err := cfg.Validate("reprice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ebay.client_id is required")
	assert.Contains(t, err.Error(), "ebay.refresh_token is required")
}

func TestValidateStore_PostgresNeedsURL(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "postgres"
	cfg.Store.DatabaseURL = ""

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")
}

func TestValidateStore_UnknownDriver(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "oracle"

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite or postgres")
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateCalsync(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("calsync")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "calendar.client_id")

	cfg.Calendar.ClientID = "id"
	cfg.Calendar.ClientSecret = "secret"
	cfg.Calendar.RefreshToken = "refresh"
	assert.NoError(t, cfg.Validate("calsync"))
}

func TestValidateClassify_NoKeysStillValid(t *testing.T) {
	// Classification degrades to the fallback tier without keys, so the
	// config is warned about but not rejected.
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("classify"))
}

func TestValidateSchedule(t *testing.T) {
	cfg := validDefaults()
	cfg.Ebay.ClientID = "id"
	cfg.Ebay.ClientSecret = "secret"
	cfg.Ebay.RefreshToken = "refresh"
	cfg.Schedule.Cron = ""

	err := cfg.Validate("schedule")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schedule.cron is required")

	cfg.Schedule.Cron = "0 6 * * *"
	assert.NoError(t, cfg.Validate("schedule"))
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
