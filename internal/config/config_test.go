package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Client.Timeout)
	assert.Equal(t, "0", cfg.Client.Depth)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "davctl.yaml")
	content := `
client:
  base_url: https://dav.example.com/remote.php/webdav
  username: alice
  timeout: 5s
database:
  type: postgres
  postgres:
    host: db.internal
    database: dav
logging:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "https://dav.example.com/remote.php/webdav", cfg.Client.BaseURL)
	assert.Equal(t, "alice", cfg.Client.Username)
	assert.Equal(t, 5*time.Second, cfg.Client.Timeout)
	assert.Equal(t, "postgres", cfg.Database.Type)
	assert.Equal(t, "db.internal", cfg.Database.Postgres.Host)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DAV_BASE_URL", "http://override:9000")
	t.Setenv("DAV_USERNAME", "bob")
	t.Setenv("DAV_TIMEOUT", "90s")
	t.Setenv("POSTGRES_PORT", "6543")
	t.Setenv("SQLITE_PATH", "/tmp/export.db")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "http://override:9000", cfg.Client.BaseURL)
	assert.Equal(t, "bob", cfg.Client.Username)
	assert.Equal(t, 90*time.Second, cfg.Client.Timeout)
	assert.Equal(t, 6543, cfg.Database.Postgres.Port)
	assert.Equal(t, "/tmp/export.db", cfg.Database.SQLite.Path)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestGetDSN(t *testing.T) {
	tests := []struct {
		name       string
		database   DatabaseConfig
		wantDSN    string
		wantDriver string
	}{
		{
			name:       "sqlite",
			database:   DatabaseConfig{Type: "sqlite", SQLite: SQLiteConfig{Path: "/var/lib/dav.db"}},
			wantDSN:    "/var/lib/dav.db",
			wantDriver: "sqlite3",
		},
		{
			name: "postgres",
			database: DatabaseConfig{Type: "postgres", Postgres: PostgresConfig{
				Host: "db", Port: 5432, Username: "u", Password: "p", Database: "dav", SSLMode: "disable",
			}},
			wantDSN:    "host=db port=5432 user=u password=p dbname=dav sslmode=disable",
			wantDriver: "postgres",
		},
		{
			name:     "未知类型",
			database: DatabaseConfig{Type: "mysql"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Database: tt.database}
			assert.Equal(t, tt.wantDSN, cfg.GetDSN())
			assert.Equal(t, tt.wantDriver, cfg.GetDriverName())
		})
	}
}

func TestNewLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "davctl.log")
	cfg := &Config{Logging: LoggingConfig{Level: "debug", Format: "json", Output: path}}

	logger, closer, err := cfg.NewLogger()
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)

	logger.WithField("href", "/a").Info("propfind")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"href":"/a"`)
}

func TestNewLogger_InvalidLevelFallsBack(t *testing.T) {
	cfg := &Config{Logging: LoggingConfig{Level: "loud", Output: "stdout"}}

	logger, closer, err := cfg.NewLogger()
	require.NoError(t, err)
	defer closer.Close()
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)
}
