package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	err := os.WriteFile(configPath, []byte(content), 0644)
	assert.NoError(t, err)
	return configPath
}

func TestLoad(t *testing.T) {
	configPath := writeConfig(t, `
api:
  environment: "prod"
  version: "1.7"

auth:
  token_url: "https://login.example.com/tenant-id/oauth2/v2.0/token"
  client_id: "app-registration"
  client_secret: "hunter2"

client:
  timeout_seconds: 10
  rate_limit: 2.5
  rate_limit_burst: 5
  cache_size: 256
  max_attempts: 4
  backoff_base_ms: 250

logging:
  level: "debug"
  format: "json"
`)

	config, err := Load(configPath)
	assert.NoError(t, err)
	assert.NotNil(t, config)

	assert.Equal(t, "prod", config.API.Environment)
	assert.Equal(t, "1.7", config.API.Version)
	assert.Equal(t, "app-registration", config.Auth.ClientID)
	assert.Equal(t, 2.5, config.Client.RateLimit)
	assert.Equal(t, 256, config.Client.CacheSize)
	assert.Equal(t, 4, config.Client.MaxAttempts)
	assert.Equal(t, 250, config.Client.BackoffBaseMS)
	assert.Equal(t, "debug", config.Logging.Level)
}

func TestLoadAppliesDefaults(t *testing.T) {
	configPath := writeConfig(t, `
auth:
  client_id: "app-registration"
`)

	config, err := Load(configPath)
	assert.NoError(t, err)

	assert.Equal(t, "test", config.API.Environment)
	assert.Equal(t, "1.7", config.API.Version)
	assert.Equal(t, 30, config.Client.TimeoutSeconds)
	assert.Equal(t, 3, config.Client.MaxAttempts)
	assert.Equal(t, 500, config.Client.BackoffBaseMS)
	assert.Equal(t, "info", config.Logging.Level)
	assert.Equal(t, "json", config.Logging.Format)
}

func TestLoadWithEnvExpansion(t *testing.T) {
	t.Setenv("APP_CLIENT_ID", "env-client")
	t.Setenv("APP_CLIENT_SECRET", "env-secret")

	configPath := writeConfig(t, `
auth:
  token_url: "https://login.example.com/token"
  client_id: $APP_CLIENT_ID
  client_secret: $APP_CLIENT_SECRET
`)

	config, err := Load(configPath)
	assert.NoError(t, err)

	assert.Equal(t, "env-client", config.Auth.ClientID)
	assert.Equal(t, "env-secret", config.Auth.ClientSecret)
}

func TestLoadWithEnvOverride(t *testing.T) {
	t.Setenv("PLANTSERIES_API_ENVIRONMENT", "dev")
	t.Setenv("PLANTSERIES_AUTH_CLIENT_SECRET", "from-env")

	configPath := writeConfig(t, `
api:
  environment: "test"
`)

	config, err := Load(configPath)
	assert.NoError(t, err)

	assert.Equal(t, "dev", config.API.Environment)
	assert.Equal(t, "from-env", config.Auth.ClientSecret)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
