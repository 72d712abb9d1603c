package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, k := range []string{
		"MCCHECK_CONFIG", "MCCHECK_STORE_URL", "MCCHECK_STORE_ANON_KEY", "MCCHECK_STORE_BACKEND",
		"MCCHECK_STORE_TIMEOUT", "SUPABASE_URL", "SUPABASE_ANON_KEY", "VITE_SUPABASE_URL", "VITE_SUPABASE_ANON_KEY",
	} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
	return home
}

func TestLoadDefaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, BackendREST, cfg.Store.Backend)
	require.Equal(t, "mc_verifications", cfg.Store.Table)
	require.Equal(t, 15*time.Second, cfg.Store.Timeout)
	require.False(t, cfg.Store.RESTConfigured())
	require.Equal(t, filepath.Join(home, ".local", "share", "mccheck", "mccheck.db"), cfg.Database.Path)
	require.Equal(t, "01/02/2006", cfg.UI.DateFormat)
}

func TestLoadSupabaseAliases(t *testing.T) {
	isolate(t)
	t.Setenv("VITE_SUPABASE_URL", "https://example.supabase.co")
	t.Setenv("SUPABASE_ANON_KEY", "anon")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "https://example.supabase.co", cfg.Store.URL)
	require.Equal(t, "anon", cfg.Store.AnonKey)
	require.True(t, cfg.Store.RESTConfigured())

	t.Setenv("MCCHECK_STORE_URL", "https://override.example")
	cfg, err = Load()
	require.NoError(t, err)
	require.Equal(t, "https://override.example", cfg.Store.URL)
}

func TestLoadFileAndEnv(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[store]
backend = "SQLite"
timeout = "3s"

[database]
path = "/tmp/mc.db"

[ui]
timezone = "UTC"
`), 0o644))
	t.Setenv("MCCHECK_CONFIG", path)
	t.Setenv("MCCHECK_STORE_TABLE", "verifications_test")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, BackendSQLite, cfg.Store.Backend)
	require.Equal(t, 3*time.Second, cfg.Store.Timeout)
	require.Equal(t, "/tmp/mc.db", cfg.Database.Path)
	require.Equal(t, "verifications_test", cfg.Store.Table)

	loc, err := cfg.UI.Location()
	require.NoError(t, err)
	require.Equal(t, "UTC", loc.String())
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	isolate(t)
	t.Setenv("MCCHECK_STORE_BACKEND", "mongo")

	_, err := Load()
	require.ErrorContains(t, err, "store.backend")
}

func TestLoadMissingExplicitFile(t *testing.T) {
	home := isolate(t)
	t.Setenv("MCCHECK_CONFIG", filepath.Join(home, "nope.toml"))

	_, err := Load()
	require.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	home := isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	cfg.Store.Backend = BackendSQLite
	cfg.Store.Timeout = 7 * time.Second
	cfg.UI.Timezone = "UTC"
	require.NoError(t, Save(cfg))
	require.FileExists(t, filepath.Join(home, ".config", "mccheck", "config.toml"))

	again, err := Load()
	require.NoError(t, err)
	require.Equal(t, BackendSQLite, again.Store.Backend)
	require.Equal(t, 7*time.Second, again.Store.Timeout)
	require.Equal(t, "UTC", again.UI.Timezone)
}

func TestLocationInvalid(t *testing.T) {
	t.Parallel()

	loc, err := UIConfig{Timezone: "Not/AZone"}.Location()
	require.Error(t, err)
	require.Equal(t, time.Local, loc)
}
