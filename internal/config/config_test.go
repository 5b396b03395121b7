package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.json5"))

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.ListenAddr)
	require.Equal(t, 15*time.Second, cfg.BadgeTimeout())
	require.Equal(t, 10*time.Second, cfg.StatsTimeout())
	require.Equal(t, time.Duration(0), cfg.FetchCacheTTL())
	require.Equal(t, 1, cfg.ExportConcurrency)
	require.Empty(t, cfg.DatabaseURL)
}

func TestLoadLayers(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "rollcall.json5")
	writeFile(t, name, `{
		// shared settings
		listen_addr: ":9000",
		roster_path: "students.csv",
		export_concurrency: 4,
		log_format: "json",
	}`)
	writeFile(t, filepath.Join(dir, "rollcall.local.json5"), `{
		roster_path: "local.csv",
	}`)

	t.Setenv("CONFIG_FILE", name)
	t.Setenv("EXPORT_CONCURRENCY", "2")
	t.Setenv("FETCH_CACHE_TTL_SECONDS", "300")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.ListenAddr)
	require.Equal(t, "local.csv", cfg.RosterPath)
	require.Equal(t, "json", cfg.LogFormat)
	require.Equal(t, 2, cfg.ExportConcurrency)
	require.Equal(t, 5*time.Minute, cfg.FetchCacheTTL())
	require.Equal(t, 15, cfg.BadgeTimeoutSeconds)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.json5"))
	t.Setenv("EXPORT_CONCURRENCY", "0")
	t.Setenv("BADGE_TIMEOUT_SECONDS", "-1")

	_, err := Load()
	require.ErrorContains(t, err, "export concurrency")
	require.ErrorContains(t, err, "badge timeout")
}

func TestLoadBadFile(t *testing.T) {
	name := filepath.Join(t.TempDir(), "rollcall.json5")
	writeFile(t, name, `{ listen_addr: `)
	t.Setenv("CONFIG_FILE", name)

	_, err := Load()
	require.Error(t, err)
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nothing.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
