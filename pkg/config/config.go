// Package config resolves twy's settings from flags, TWY_* environment
// variables, an optional config.yaml and built-in defaults, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/stefanpenner/twy/pkg/logging"
	"github.com/stefanpenner/twy/pkg/score"
	"github.com/stefanpenner/twy/pkg/store"
	"github.com/stefanpenner/twy/pkg/store/sqlite"
)

// EnvPrefix prefixes every environment override, e.g. TWY_BACKEND.
const EnvPrefix = "TWY"

// FileName is the config file looked up in the data and config dirs.
const FileName = "config.yaml"

const (
	BackendFiles  = "files"
	BackendSQLite = "sqlite"
)

// Config is the resolved configuration.
type Config struct {
	Dir             string
	Backend         string
	JSON            bool
	Currency        string
	ExecutionTarget int
	Log             logging.Options

	// File is the config file that was read, empty when none was found.
	File string
}

// New returns a viper instance with defaults and environment binding set
// up. Callers bind their flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("dir", store.DefaultDataDir())
	v.SetDefault("backend", BackendFiles)
	v.SetDefault("json", false)
	v.SetDefault("currency", score.DefaultCurrency)
	v.SetDefault("execution_target", score.ExecutionTarget)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	return v
}

// Load reads the config file, if any, and returns the typed configuration.
// An explicit file must exist; otherwise config.yaml is looked up in the
// data dir and then the user config dir.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file == "" {
		for _, dir := range []string{v.GetString("dir"), store.DefaultConfigDir()} {
			candidate := filepath.Join(dir, FileName)
			if _, err := os.Stat(candidate); err == nil {
				file = candidate
				break
			}
		}
	}
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", file, err)
		}
	}

	cfg := &Config{
		Dir:             expandHome(v.GetString("dir")),
		Backend:         strings.ToLower(strings.TrimSpace(v.GetString("backend"))),
		JSON:            v.GetBool("json"),
		Currency:        v.GetString("currency"),
		ExecutionTarget: v.GetInt("execution_target"),
		Log: logging.Options{
			Level:      v.GetString("log.level"),
			File:       expandHome(v.GetString("log.file")),
			MaxSizeMB:  v.GetInt("log.max_size_mb"),
			MaxBackups: v.GetInt("log.max_backups"),
			MaxAgeDays: v.GetInt("log.max_age_days"),
		},
		File: file,
	}
	if cfg.Log.File == "" {
		cfg.Log.File = filepath.Join(cfg.Dir, "logs", "twy.log")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Dir == "" {
		return errors.New("config: dir must not be empty")
	}
	switch c.Backend {
	case BackendFiles, BackendSQLite:
	default:
		return fmt.Errorf("config: unknown backend %q (want %s or %s)", c.Backend, BackendFiles, BackendSQLite)
	}
	if c.ExecutionTarget < 0 || c.ExecutionTarget > 100 {
		return fmt.Errorf("config: execution_target %d outside 0..100", c.ExecutionTarget)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// OpenRepository opens the configured storage backend.
func (c *Config) OpenRepository(log *logging.Logger) (store.Repository, error) {
	if c.Backend == BackendSQLite {
		s, err := sqlite.Open(filepath.Join(c.Dir, sqlite.DBFile), log)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	s, err := store.NewStore(c.Dir, store.WithLogger(log))
	if err != nil {
		return nil, err
	}
	return s, nil
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
