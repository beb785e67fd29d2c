package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadFromDefaultsWithoutFiles(t *testing.T) {
	t.Setenv("APP_ENV", "test")

	cfg, err := LoadFrom(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "abricot-ai-api", cfg.App.Name)
	assert.Equal(t, 8080, cfg.Server.HTTP.Port)
	assert.Equal(t, "mistral", cfg.TaskGen.Provider)

	p := cfg.LLM.Providers["mistral"]
	assert.Equal(t, "https://api.mistral.ai/v1", p.BaseURL)
	assert.Equal(t, "mistral-large-latest", p.Model)
	assert.InDelta(t, 0.2, p.Temperature, 1e-9)
	assert.Equal(t, "MISTRAL_API_KEY", p.APIKeyEnv)
	assert.Equal(t, time.Minute, cfg.TaskGen.RateLimit.Window)
	assert.False(t, cfg.Security.JWT.Enabled())
}

func TestLoadFromMergesEnvOverlayAndPlaceholders(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("APP_ENV", "staging")
	t.Setenv("ABRICOT_BACKEND", "https://api.abricot.test")

	writeFile(t, dir, "config.yaml", `
app:
  env: staging
backend:
  base_url: ${ABRICOT_BACKEND:http://fallback}
  timeout: 5s
server:
  http:
    port: ${ABRICOT_PORT:9090}
`)
	writeFile(t, dir, "config.staging.yaml", `
observability:
  logging:
    level: debug
`)

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, "https://api.abricot.test", cfg.Backend.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 9090, cfg.Server.HTTP.Port)
	assert.Equal(t, "debug", cfg.Observability.Logging.Level)
	assert.False(t, cfg.App.IsProduction())
}

func TestProviderResolveAPIKeyReadsEnvAtCallTime(t *testing.T) {
	p := ProviderConfig{APIKeyEnv: "ABRICOT_TEST_KEY", APIKey: "from-config"}

	t.Setenv("ABRICOT_TEST_KEY", "")
	assert.Equal(t, "from-config", p.ResolveAPIKey())

	t.Setenv("ABRICOT_TEST_KEY", "from-env")
	assert.Equal(t, "from-env", p.ResolveAPIKey())

	assert.Empty(t, ProviderConfig{APIKeyEnv: "ABRICOT_UNSET_KEY"}.ResolveAPIKey())
	assert.Equal(t, "ABRICOT_UNSET_KEY", ProviderConfig{APIKeyEnv: "ABRICOT_UNSET_KEY"}.CredentialName())
}

func TestExpandEnvKeepsUnknownPlaceholders(t *testing.T) {
	assert.Equal(t, "a=${ABRICOT_NOPE}", expandEnv("a=${ABRICOT_NOPE}"))
	assert.Equal(t, "a=", expandEnv("a=${ABRICOT_NOPE:}"))
}
