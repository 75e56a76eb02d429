package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "twy.log")
	l, err := New(Options{Level: "info", File: path, MaxSizeMB: 1})
	require.NoError(t, err)

	l.Debug("hidden", "k", 1)
	l.With("cycle", "c1").Info("cycle created", "title", "Q1")
	l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"cycle created"`)
	assert.Contains(t, string(data), `"cycle":"c1"`)
	assert.NotContains(t, string(data), "hidden")
}

func TestNewWithoutFileIsNop(t *testing.T) {
	l, err := New(Options{Level: "bogus"})
	require.NoError(t, err)
	l.Error("dropped")
}

func TestLevelMethods(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.Debug("d", "n", 1)
	l.Info("i")
	l.Warn("w")
	l.With("cycle", "c1").Error("e", "error", "boom")

	entries := logs.AllUntimed()
	require.Len(t, entries, 4)
	levels := []zapcore.Level{zapcore.DebugLevel, zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel}
	for i, e := range entries {
		assert.Equal(t, levels[i], e.Level, e.Message)
	}
	assert.Equal(t, int64(1), entries[0].ContextMap()["n"])
	assert.Equal(t, map[string]interface{}{"cycle": "c1", "error": "boom"}, entries[3].ContextMap())
}
