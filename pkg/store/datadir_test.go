package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDataDirForOS(t *testing.T) {
	home, _ := os.UserHomeDir()

	t.Run("darwin", func(t *testing.T) {
		assert.Equal(t, filepath.Join(home, "Library", "Application Support", "twy"), dataDirForOS("darwin"))
	})

	t.Run("linux", func(t *testing.T) {
		t.Setenv("XDG_DATA_HOME", "")
		assert.Equal(t, filepath.Join(home, ".local", "share", "twy"), dataDirForOS("linux"))

		t.Setenv("XDG_DATA_HOME", "/custom/data")
		assert.Equal(t, filepath.Join("/custom/data", "twy"), dataDirForOS("linux"))
	})

	t.Run("windows", func(t *testing.T) {
		t.Setenv("LOCALAPPDATA", `C:\Users\test\AppData\Local`)
		assert.Equal(t, filepath.Join(`C:\Users\test\AppData\Local`, "twy"), dataDirForOS("windows"))

		t.Setenv("LOCALAPPDATA", "")
		t.Setenv("APPDATA", `C:\Users\test\AppData\Roaming`)
		assert.Equal(t, filepath.Join(`C:\Users\test\AppData\Roaming`, "twy"), dataDirForOS("windows"))

		t.Setenv("APPDATA", "")
		assert.Equal(t, filepath.Join(home, "twy"), dataDirForOS("windows"))
	})
}

func TestDefaultCacheDirEndsWithApp(t *testing.T) {
	assert.Equal(t, "twy", filepath.Base(DefaultCacheDir()))
	assert.Equal(t, "twy", filepath.Base(DefaultConfigDir()))
}
