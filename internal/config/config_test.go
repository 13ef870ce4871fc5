package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bigbag/motorlink/internal/frame"
	"github.com/bigbag/motorlink/internal/protocol"
	"github.com/bigbag/motorlink/internal/state"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyU*", cfg.Serial.Pattern)
	assert.Equal(t, protocol.DefaultBaudRate, cfg.Serial.Baud)
	assert.Equal(t, state.Limits{MaxArrays: 4, MaxMotors: 10, MaxTurns: 10}, cfg.StateLimits())
	assert.Equal(t, protocol.ResetTurns, cfg.Limits.ResetTurns)
	assert.Equal(t, frame.DefaultCapacity, cfg.Device.FrameCapacity)
	assert.Equal(t, "desired-state.csv", cfg.State.Desired)
	assert.Equal(t, "current-state.csv", cfg.State.Current)
	assert.Equal(t, 10*time.Second, cfg.Timeouts.Connect)
	assert.Equal(t, 100*time.Second, cfg.Timeouts.Execute)
	assert.Equal(t, 5*time.Millisecond, cfg.Device.PollInterval)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Logging.File.Filename)
}

func TestLoad_FileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "motorlink.yaml")
	content := "serial:\n  baud: 115200\nlimits:\n  maxTurns: 20\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 115200, cfg.Serial.Baud)
	assert.Equal(t, 20, cfg.Limits.MaxTurns)
	// Untouched keys keep their defaults.
	assert.Equal(t, 10, cfg.Limits.MaxMotors)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MOTORLINK_SERIAL_PATTERN", "/dev/ttyACM*")
	t.Setenv("MOTORLINK_TIMEOUTS_EXECUTE", "5s")
	t.Setenv("MOTORLINK_SERIAL_BAUD", "57600")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyACM*", cfg.Serial.Pattern)
	assert.Equal(t, 5*time.Second, cfg.Timeouts.Execute)
	assert.Equal(t, 57600, cfg.Serial.Baud)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("limits:\n  maxMotors: 0\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate_FrameCapacity(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.Device.FrameCapacity = protocol.MaxFrameCapacity
	assert.NoError(t, cfg.Validate())

	cfg.Device.FrameCapacity = protocol.MaxFrameCapacity + 1
	assert.Error(t, cfg.Validate())
}
