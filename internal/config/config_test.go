package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
jwt:
  secret: test-secret
database:
  host: db
  port: 5432
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, int32(10), cfg.Database.MaxConns)
	assert.Equal(t, 1, cfg.JWT.TTLDays)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "UTC", cfg.Streak.Timezone)
	assert.Equal(t, 3, cfg.Completion.MaxRetries)
	assert.Equal(t, 50*time.Millisecond, cfg.Completion.RetryBackoff)
	assert.Equal(t, "leaderboard", cfg.Archive.Prefix)
	assert.Equal(t, time.UTC, cfg.Streak.Location())
}

func TestLoad_FileValues(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
storage:
  driver: memory
redis:
  enabled: true
  addr: cache:6379
  top_ttl: 2m
jwt:
  secret: s
  ttl_days: 7
streak:
  timezone: Europe/Berlin
completion:
  max_retries: 5
  retry_backoff: 10ms
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, 2*time.Minute, cfg.Redis.TopTTL)
	assert.Equal(t, 7, cfg.JWT.TTLDays)
	assert.Equal(t, "Europe/Berlin", cfg.Streak.Location().String())
	assert.Equal(t, 5, cfg.Completion.MaxRetries)
	assert.Equal(t, 10*time.Millisecond, cfg.Completion.RetryBackoff)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("DATABASE_PASSWORD", "db-pass")
	t.Setenv("AWS_ACCESS_KEY_ID", "key")

	path := writeConfig(t, `
jwt:
  secret: from-file
database:
  password: file-pass
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, "db-pass", cfg.Database.Password)
	assert.Equal(t, "key", cfg.Archive.AccessKey)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	tests := []struct {
		name string
		body string
	}{
		{name: "missing secret", body: "server:\n  port: 8080\n"},
		{name: "unknown driver", body: "jwt:\n  secret: s\nstorage:\n  driver: sqlite\n"},
		{name: "bad timezone", body: "jwt:\n  secret: s\nstreak:\n  timezone: Mars/Olympus\n"},
		{name: "archive without bucket", body: "jwt:\n  secret: s\narchive:\n  enabled: true\n"},
		{name: "malformed yaml", body: "jwt: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	cfg := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "m", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=m sslmode=disable", cfg.DSN())
}
