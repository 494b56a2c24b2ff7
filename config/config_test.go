package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "boostgate", cfg.Database.DBName)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "NGN", cfg.Pricing.LocalCurrency)
	assert.Equal(t, 5*time.Minute, cfg.Reconcile.Interval)
	assert.Equal(t, 15*time.Minute, cfg.Reconcile.Cutoff)
}

func TestLoad_FromFile(t *testing.T) {
	yaml := `
server:
  port: 9090
  mode: release
session:
  secret: test-secret
  ttl: 2h
providers:
  - name: alpha
    base_url: https://alpha.example.com/api/v2
    api_key: key-a
    currency: USD
  - name: beta
    base_url: https://beta.example.com/api/v2
    api_key: ""
    currency: NGN
    timeout: 10s
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, "test-secret", cfg.Session.Secret)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)

	require.Len(t, cfg.Providers, 2)
	assert.Equal(t, "alpha", cfg.Providers[0].Name)
	assert.Equal(t, "USD", cfg.Providers[0].Currency)
	// Default timeout applied when omitted.
	assert.Equal(t, 30*time.Second, cfg.Providers[0].Timeout)
	assert.Equal(t, 10*time.Second, cfg.Providers[1].Timeout)
	assert.Empty(t, cfg.Providers[1].APIKey)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("BG_DATABASE_HOST", "db.internal")
	t.Setenv("BG_LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{
		Host: "localhost", Port: 5432, User: "app", Password: "pw",
		DBName: "boostgate", SSLMode: "disable",
	}
	assert.Equal(t, "postgres://app:pw@localhost:5432/boostgate?sslmode=disable", d.DSN())
}

func TestRedisConfig_Addr(t *testing.T) {
	r := RedisConfig{Host: "cache", Port: 6380}
	assert.Equal(t, "cache:6380", r.Addr())
}
