package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default("Test Biz")
	cfg.Storage.Backend = BackendSQLite
	cfg.Storage.Path = "books.sqlite"
	cfg.Ledger.Tolerance = "0.005"

	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestDefaults(t *testing.T) {
	cfg := Default("My Company")

	assert.Equal(t, "My Company", cfg.Business.Name)
	assert.Equal(t, BackendBolt, cfg.Storage.Backend)
	assert.Equal(t, "data/ponmo.db", cfg.Storage.Path)
	assert.Equal(t, "0.01", cfg.Ledger.Tolerance)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "default", cfg.Scope)
	require.NoError(t, cfg.Validate())
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("business:\n  name: Leather Co\nstorage:\n  backend: memory\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Leather Co", cfg.Business.Name)
	assert.Equal(t, BackendMemory, cfg.Storage.Backend)
	assert.Equal(t, "data/ponmo.db", cfg.Storage.Path)
	assert.Equal(t, "0.01", cfg.Ledger.Tolerance)
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{{not yaml"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadEnv_Overlay(t *testing.T) {
	chdir(t, t.TempDir())
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, Default("Env Biz")))

	t.Setenv("PONMO_STORAGE_BACKEND", "sqlite")
	t.Setenv("PONMO_STORAGE_PATH", "/tmp/ponmo.sqlite")
	t.Setenv("PONMO_LEDGER_TOLERANCE", "0.02")
	t.Setenv("PONMO_LOG_LEVEL", "debug")
	t.Setenv("PONMO_LOG_FORMAT", "console")
	t.Setenv("PONMO_SERVER_ADDR", "127.0.0.1:9000")
	t.Setenv("PONMO_SCOPE", "shop-2")

	cfg, err := LoadEnv(path)
	require.NoError(t, err)
	assert.Equal(t, "Env Biz", cfg.Business.Name)
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, "/tmp/ponmo.sqlite", cfg.Storage.Path)
	assert.Equal(t, "0.02", cfg.Ledger.Tolerance)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, "shop-2", cfg.Scope)
}

func TestLoadEnv_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PONMO_SCOPE=from-dotenv\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("PONMO_SCOPE") })

	cfg, err := LoadEnv(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Scope)
	assert.Equal(t, BackendBolt, cfg.Storage.Backend)
}

func TestLoadEnv_DotEnvBesideConfig(t *testing.T) {
	project := t.TempDir()
	elsewhere := t.TempDir()
	chdir(t, elsewhere)
	require.NoError(t, os.WriteFile(filepath.Join(elsewhere, ".env"), []byte("PONMO_SCOPE=from-cwd\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(project, ".env"), []byte("PONMO_SCOPE=from-project\n"), 0o644))
	os.Unsetenv("PONMO_SCOPE")
	t.Cleanup(func() { os.Unsetenv("PONMO_SCOPE") })

	cfg, err := LoadEnv(filepath.Join(project, FileName))
	require.NoError(t, err)
	assert.Equal(t, "from-project", cfg.Scope)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"sqlite", func(c *Config) { c.Storage.Backend = BackendSQLite }, true},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "mongo" }, false},
		{"bad tolerance", func(c *Config) { c.Ledger.Tolerance = "one cent" }, false},
		{"negative tolerance", func(c *Config) { c.Ledger.Tolerance = "-0.01" }, false},
		{"zero tolerance", func(c *Config) { c.Ledger.Tolerance = "0" }, true},
		{"empty scope", func(c *Config) { c.Scope = " " }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default("x")
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
