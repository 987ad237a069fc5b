package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DeploymentEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("APP_ENV", "test")
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("CLIENT_ID", "client")
	t.Setenv("CLIENT_SECRET_TOKEN", "secret")
	t.Setenv("DATABASE_HOST", "redis.internal")
	t.Setenv("DATABASE_PORT", "6380")
	t.Setenv("DATABASE_PASSWORD", "pw")

	cfg, v, err := Load()
	require.NoError(t, err)
	require.NotNil(t, v)

	assert.Equal(t, "test", cfg.AppEnv)
	assert.Equal(t, "123:abc", cfg.Bot.Token)
	assert.Equal(t, "client", cfg.Commerce.ClientID)
	assert.Equal(t, "secret", cfg.Commerce.ClientSecret)
	assert.Equal(t, "client_credentials", cfg.Commerce.GrantType())
	assert.Equal(t, "redis.internal", cfg.Redis.Host)
	assert.Equal(t, 6380, cfg.Redis.Port)
	assert.Equal(t, "pw", cfg.Redis.Password)
	assert.Equal(t, "redis.internal:6380", cfg.Redis.Addr())

	assert.Equal(t, "polling", cfg.Bot.Mode)
	assert.Equal(t, "silent", cfg.Bot.FailurePolicy)
	assert.Equal(t, 30*time.Second, cfg.Bot.HandlerTimeout)
	assert.Equal(t, 8, cfg.Bot.Workers)
	assert.Equal(t, "https://api.moltin.com", cfg.Commerce.BaseURL)
	assert.Equal(t, time.Duration(0), cfg.Session.TTL)
}

func TestLoad_ConfigFileAndOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "configs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "configs", "staging.yaml"), []byte(`
bot:
  failure_policy: notify
  workers: 2
commerce:
  timeout: 3s
logger:
  level: debug
`), 0o600))

	t.Setenv("APP_ENV", "staging")
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("CLIENT_ID", "client")
	t.Setenv("BOT_WORKERS", "4")

	cfg, _, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "notify", cfg.Bot.FailurePolicy)
	assert.Equal(t, 4, cfg.Bot.Workers)
	assert.Equal(t, 3*time.Second, cfg.Commerce.Timeout)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "implicit", cfg.Commerce.GrantType())
}

func TestLoad_MissingCredentials(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("APP_ENV", "test")
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("CLIENT_ID", "")

	_, _, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ClientID")
}

func TestLoad_InvalidFailurePolicy(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("APP_ENV", "test")
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("CLIENT_ID", "client")
	t.Setenv("BOT_FAILURE_POLICY", "shout")

	_, _, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FailurePolicy")
}

func TestPostgresConfig_DSN(t *testing.T) {
	cfg := PostgresConfig{Host: "db", Port: 5432, User: "shop", Password: "pw", Name: "shop", SSLMode: "disable"}
	assert.Equal(t, "postgres://shop:pw@db:5432/shop?sslmode=disable", cfg.DSN())
}
