package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.Equal(t, DefaultDBPath, cfg.DBPath)
	require.Equal(t, DefaultServerPort, cfg.ServerPort)
	require.Equal(t, DefaultSourcePages, cfg.SourcePages)
	require.Equal(t, DefaultRecentLimit, cfg.RecentLimit)
	require.Equal(t, time.Duration(DefaultInterval)*time.Minute, cfg.Interval)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("INGESTOR_DB_PATH", "/tmp/other.db")
	t.Setenv("INGESTOR_PORT", "9090")
	t.Setenv("INGESTOR_LOG_LEVEL", "warn")
	t.Setenv("INGESTOR_INTERVAL", "30")

	cfg := DefaultConfig()

	require.Equal(t, "/tmp/other.db", cfg.DBPath)
	require.Equal(t, 9090, cfg.ServerPort)
	require.Equal(t, zerolog.WarnLevel, cfg.LogLevel)
	require.Equal(t, 30*time.Minute, cfg.Interval)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
db_path: /data/records.db
server:
  port: 9999
source:
  feeds:
    - https://example.com/a.xml
    - https://example.com/b.xml
  pages: 2
ingest:
  recent_limit: 50
log_level: error
`), 0644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFile(path))

	require.Equal(t, "/data/records.db", cfg.DBPath)
	require.Equal(t, 9999, cfg.ServerPort)
	require.Equal(t, []string{"https://example.com/a.xml", "https://example.com/b.xml"}, cfg.Feeds)
	require.Equal(t, 2, cfg.SourcePages)
	require.Equal(t, 50, cfg.RecentLimit)
	require.Equal(t, zerolog.ErrorLevel, cfg.LogLevel)
}

func TestLoadFileEnvWins(t *testing.T) {
	t.Setenv("INGESTOR_DB_PATH", "/env/records.db")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db_path: /file/records.db\n"), 0644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFile(path))

	require.Equal(t, "/env/records.db", cfg.DBPath)
}

func TestLoadFileMissing(t *testing.T) {
	cfg := DefaultConfig()
	require.Error(t, cfg.LoadFile(filepath.Join(t.TempDir(), "nope.yaml")))
}

func TestListenAddr(t *testing.T) {
	cfg := &Config{ServerHost: "127.0.0.1", ServerPort: 8080}
	require.Equal(t, "127.0.0.1:8080", cfg.ListenAddr())
}
