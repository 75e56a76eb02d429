package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefanpenner/twy/pkg/logging"
	"github.com/stefanpenner/twy/pkg/store"
	"github.com/stefanpenner/twy/pkg/store/sqlite"
)

// isolate points every lookup location at fresh temp dirs.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("TWY_DIR", dir)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.Dir)
	assert.Equal(t, BackendFiles, cfg.Backend)
	assert.False(t, cfg.JSON)
	assert.Equal(t, "AED", cfg.Currency)
	assert.Equal(t, 85, cfg.ExecutionTarget)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, filepath.Join(dir, "logs", "twy.log"), cfg.Log.File)
	assert.Equal(t, 10, cfg.Log.MaxSizeMB)
	assert.Empty(t, cfg.File)
}

func TestLoadPrecedence(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(`
backend: sqlite
currency: USD
execution_target: 80
log:
  level: debug
`), 0644))

	t.Setenv("TWY_CURRENCY", "EUR")
	t.Setenv("TWY_LOG_LEVEL", "warn")

	v := New()
	v.Set("execution_target", 90) // stands in for an explicit flag

	cfg, err := Load(v, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, FileName), cfg.File)
	assert.Equal(t, BackendSQLite, cfg.Backend, "file beats default")
	assert.Equal(t, "EUR", cfg.Currency, "env beats file")
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 90, cfg.ExecutionTarget, "flag beats file")
}

func TestLoadExplicitFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("json: true\n"), 0644))

	cfg, err := Load(New(), path)
	require.NoError(t, err)
	assert.True(t, cfg.JSON)

	_, err = Load(New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"backend", map[string]string{"TWY_BACKEND": "postgres"}},
		{"log level", map[string]string{"TWY_LOG_LEVEL": "loud"}},
		{"target", map[string]string{"TWY_EXECUTION_TARGET": "150"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(New(), "")
			assert.Error(t, err)
		})
	}
}

func TestOpenRepository(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	repo, err := cfg.OpenRepository(logging.Nop())
	require.NoError(t, err)
	assert.IsType(t, &store.Store{}, repo)
	require.NoError(t, repo.Close())

	cfg.Backend = BackendSQLite
	repo, err = cfg.OpenRepository(logging.Nop())
	require.NoError(t, err)
	assert.IsType(t, &sqlite.Store{}, repo)
	require.NoError(t, repo.Close())
	assert.FileExists(t, filepath.Join(dir, sqlite.DBFile))
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "twy"), expandHome("~/twy"))
	assert.Equal(t, "/srv/twy", expandHome("/srv/twy"))
}
