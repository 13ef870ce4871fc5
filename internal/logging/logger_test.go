package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/bigbag/motorlink/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"bogus":   zapcore.InfoLevel,
	}
	for name, expected := range tests {
		assert.Equal(t, expected, ParseLevel(name), "level %q", name)
	}
}

func TestNew_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "motorlink.log")
	log := New(config.LoggingConfig{
		Level:  "debug",
		Format: "json",
		File:   config.FileConfig{Filename: path, MaxSizeMB: 1},
	})
	log.Debug("frame received")
	log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"frame received"`)
}

func TestNew_LevelFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "motorlink.log")
	log := New(config.LoggingConfig{
		Level:  "warn",
		Format: "json",
		File:   config.FileConfig{Filename: path, MaxSizeMB: 1},
	})
	log.Info("hidden")
	log.Warn("shown")
	log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
}

func TestNew_ConsoleFormatWritesPlainFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "motorlink.log")
	log := New(config.LoggingConfig{
		Level:  "info",
		Format: "console",
		File:   config.FileConfig{Filename: path, MaxSizeMB: 1},
	})
	log.Info("array ready")
	log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"level":"info"`)
	assert.NotContains(t, string(data), "\x1b[")
}
