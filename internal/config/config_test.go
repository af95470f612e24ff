package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFile_Defaults(t *testing.T) {
	cfg, err := LoadFile("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, BackendMemory, cfg.Storage.Backend)
	assert.Equal(t, DefaultRetentionCapacity, cfg.Storage.Capacity)
	assert.EqualValues(t, DefaultMaxUploadSize, cfg.Upload.MaxBytes)
	assert.Equal(t, "pdf", cfg.Report.DefaultFormat)
	assert.Equal(t, 30*time.Second, cfg.WebSocket.PingPeriod)
	assert.True(t, cfg.Telemetry.MetricsEnabled)
}

func TestLoadFile_YAMLOverlay(t *testing.T) {
	path := writeYAML(t, `
server:
  port: 9090
storage:
  backend: SQLite
  sqlite_path: /tmp/fp.db
  capacity: 3
report:
  default_format: xlsx
`)
	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, "/tmp/fp.db", cfg.Storage.SQLitePath)
	assert.Equal(t, 3, cfg.Storage.Capacity)
	assert.Equal(t, "xlsx", cfg.Report.DefaultFormat)
	// untouched sections keep defaults
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
}

func TestLoadFile_EnvOverridesFile(t *testing.T) {
	path := writeYAML(t, "server:\n  port: 9090\nlogging:\n  level: debug\n")
	t.Setenv("FLOWPULSE_SERVER_PORT", "7070")
	t.Setenv("FLOWPULSE_UPLOAD_MAX_BYTES", "2048")
	t.Setenv("FLOWPULSE_SECURITY_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.EqualValues(t, 2048, cfg.Upload.MaxBytes)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Security.AllowedOrigins)
}

func TestLoad_ConfigFileEnv(t *testing.T) {
	path := writeYAML(t, "storage:\n  capacity: 7\n")
	t.Setenv(ConfigFileEnv, path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Storage.Capacity)
}

func TestLoadFile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"bad port", "server:\n  port: 70000\n", "Port"},
		{"unknown backend", "storage:\n  backend: redis\n", "Backend"},
		{"zero capacity", "storage:\n  capacity: 0\n", "Capacity"},
		{"unknown format", "report:\n  default_format: docx\n", "DefaultFormat"},
		{"sqlite without path", "storage:\n  backend: sqlite\n  sqlite_path: \"\"\n", "sqlite_path"},
		{"postgres without dsn", "storage:\n  backend: postgres\n", "dsn"},
		{"ping not below pong", "websocket:\n  ping_period: 90s\n", "PingPeriod"},
		{"cors without origins", "security:\n  allowed_origins: []\n", "allowed origin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeYAML(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFile_MissingFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorContains(t, err, "failed to load config from file")
}

func TestServerAddress(t *testing.T) {
	assert.Equal(t, ":8080", Default().Server.Address())
	assert.Equal(t, "127.0.0.1:9000", ServerConfig{Host: "127.0.0.1", Port: 9000}.Address())
}

func TestRequiredColumns(t *testing.T) {
	assert.Equal(t,
		[]string{"Equipment Name", "Type", "Flowrate", "Pressure", "Temperature"},
		RequiredColumns())
}
