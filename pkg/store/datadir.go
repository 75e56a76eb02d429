package store

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName names the per-user directories.
const AppName = "twy"

// DefaultDataDir returns the OS-appropriate default data directory.
//
//   - macOS:   ~/Library/Application Support/twy
//   - Linux:   $XDG_DATA_HOME/twy (fallback ~/.local/share/twy)
//   - Windows: %LOCALAPPDATA%\twy (fallback %APPDATA%\twy)
func DefaultDataDir() string {
	return dataDirForOS(runtime.GOOS)
}

// DefaultConfigDir returns $XDG_CONFIG_HOME/twy or the platform equivalent.
func DefaultConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, AppName)
	}
	return DefaultDataDir()
}

// DefaultCacheDir returns the per-user cache directory, used for compiled
// SQLite WASM modules.
func DefaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, AppName)
	}
	return filepath.Join(DefaultDataDir(), "cache")
}

func dataDirForOS(goos string) string {
	home, _ := os.UserHomeDir()

	switch goos {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", AppName)
	case "windows":
		for _, env := range []string{"LOCALAPPDATA", "APPDATA"} {
			if dir := os.Getenv(env); dir != "" {
				return filepath.Join(dir, AppName)
			}
		}
		return filepath.Join(home, AppName)
	default:
		if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
			return filepath.Join(dir, AppName)
		}
		return filepath.Join(home, ".local", "share", AppName)
	}
}
