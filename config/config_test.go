package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/nexus/datasource"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nexus.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(ConfigPathEnvVar, "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8085, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:8085", cfg.Server.Addr())
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 30*time.Second, cfg.Query.Timeout)
	assert.Equal(t, datasource.DefaultSettings(), cfg.Query.Settings())
	assert.Empty(t, cfg.Datasources)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := writeFile(t, `
server:
  port: 9000
  cors_origins: ["http://a.test"]
logging:
  level: debug
query:
  timeout: 5s
  max_rows: 50
datasources:
  - id: warehouse
    type: postgres
    host: db
    database: metrics
    user: app
    password: secret
  - id: local
    type: duckdb
    path: /tmp/local.duckdb
    query_timeout: 2s
`)
	t.Setenv("NEXUS_SERVER__PORT", "9100")
	t.Setenv("NEXUS_SERVER__CORS_ORIGINS", "http://x.test, http://y.test")
	t.Setenv("NEXUS_QUERY__BREAKER_MAX_FAILURES", "9")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, []string{"http://x.test", "http://y.test"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 5*time.Second, cfg.Query.Timeout)
	assert.Equal(t, 50, cfg.Query.MaxRows)
	assert.Equal(t, uint32(9), cfg.Query.BreakerMaxFailures)

	require.Len(t, cfg.Datasources, 2)
	assert.Equal(t, "warehouse", cfg.Datasources[0].ID)
	assert.Equal(t, datasource.TypePostgres, cfg.Datasources[0].Type)
	assert.Equal(t, "secret", cfg.Datasources[0].Password)
	assert.Equal(t, 2*time.Second, cfg.Datasources[1].QueryTimeout)
}

func TestConfigPathEnvVar(t *testing.T) {
	path := writeFile(t, "server:\n  port: 7001\n")
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7001, cfg.Server.Port)
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad port", "server:\n  port: 70000\n", "Port"},
		{"bad log level", "logging:\n  level: loud\n", "Level"},
		{"datasource missing host", "datasources:\n  - id: pg\n    type: postgres\n    database: x\n", "Host"},
		{"duplicate ids", "datasources:\n  - {id: a, type: duckdb}\n  - {id: a, type: duckdb}\n", `duplicate datasource id "a"`},
		{"zero timeout", "query:\n  timeout: 0s\n", "query.timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeFile(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEnvTransformFunc(t *testing.T) {
	assert.Equal(t, "query.max_rows", envTransformFunc("NEXUS_QUERY__MAX_ROWS"))
	assert.Equal(t, "server.rate_limit_window", envTransformFunc("NEXUS_SERVER__RATE_LIMIT_WINDOW"))
	assert.Equal(t, "", envTransformFunc("NEXUS_CONFIG"))
}
