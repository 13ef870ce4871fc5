package config

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/bigbag/motorlink/embedded"
	"github.com/bigbag/motorlink/internal/frame"
	"github.com/bigbag/motorlink/internal/protocol"
	"github.com/bigbag/motorlink/internal/state"
)

// EnvPrefix prefixes environment overrides, e.g. MOTORLINK_SERIAL_BAUD.
const EnvPrefix = "MOTORLINK"

// SerialConfig selects and opens array ports.
type SerialConfig struct {
	Pattern     string `mapstructure:"pattern"`
	Baud        int    `mapstructure:"baud"`
	ResetOnOpen bool   `mapstructure:"resetOnOpen"`
}

// LimitsConfig bounds arrays, motors and turns.
type LimitsConfig struct {
	MaxArrays  int `mapstructure:"maxArrays"`
	MaxMotors  int `mapstructure:"maxMotors"`
	MaxTurns   int `mapstructure:"maxTurns"`
	ResetTurns int `mapstructure:"resetTurns"`
}

// StateConfig names the state CSV files.
type StateConfig struct {
	Desired string `mapstructure:"desired"`
	Current string `mapstructure:"current"`
}

// TimeoutsConfig bounds waits on arrays.
type TimeoutsConfig struct {
	Connect time.Duration `mapstructure:"connect"`
	Execute time.Duration `mapstructure:"execute"`
}

// DeviceConfig configures the simulated array.
type DeviceConfig struct {
	Array         int           `mapstructure:"array"`
	Motors        int           `mapstructure:"motors"`
	FrameCapacity int           `mapstructure:"frameCapacity"`
	PollInterval  time.Duration `mapstructure:"pollInterval"`
	TurnDuration  time.Duration `mapstructure:"turnDuration"`
	Settle        time.Duration `mapstructure:"settle"`
}

// FileConfig configures log file rotation. An empty Filename disables it.
type FileConfig struct {
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"maxSize"`
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAgeDays int    `mapstructure:"maxAge"`
	Compress   bool   `mapstructure:"compress"`
}

// LoggingConfig sets log level and output.
type LoggingConfig struct {
	Level  string     `mapstructure:"level"`
	Format string     `mapstructure:"format"`
	File   FileConfig `mapstructure:"file"`
}

// Config is the top-level configuration.
type Config struct {
	Serial   SerialConfig   `mapstructure:"serial"`
	Limits   LimitsConfig   `mapstructure:"limits"`
	State    StateConfig    `mapstructure:"state"`
	Timeouts TimeoutsConfig `mapstructure:"timeouts"`
	Device   DeviceConfig   `mapstructure:"device"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// StateLimits returns the limits the state grid is linted against.
func (c *Config) StateLimits() state.Limits {
	return state.Limits{
		MaxArrays: c.Limits.MaxArrays,
		MaxMotors: c.Limits.MaxMotors,
		MaxTurns:  c.Limits.MaxTurns,
	}
}

// Load reads the embedded defaults, merges the file at path over them when
// path is not empty, then applies MOTORLINK_* environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("serial.baud", protocol.DefaultBaudRate)
	v.SetDefault("limits.resetTurns", protocol.ResetTurns)
	v.SetDefault("device.frameCapacity", frame.DefaultCapacity)
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(embedded.DefaultConfig())); err != nil {
		return nil, fmt.Errorf("read default config: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the link cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Serial.Baud <= 0:
		return fmt.Errorf("serial.baud must be positive, got %d", c.Serial.Baud)
	case c.Limits.MaxArrays < 1:
		return fmt.Errorf("limits.maxArrays must be at least 1, got %d", c.Limits.MaxArrays)
	case c.Limits.MaxMotors < 1:
		return fmt.Errorf("limits.maxMotors must be at least 1, got %d", c.Limits.MaxMotors)
	case c.Limits.MaxTurns < 1:
		return fmt.Errorf("limits.maxTurns must be at least 1, got %d", c.Limits.MaxTurns)
	case c.Device.FrameCapacity < 2:
		return fmt.Errorf("device.frameCapacity must be at least 2, got %d", c.Device.FrameCapacity)
	case c.Device.FrameCapacity > protocol.MaxFrameCapacity:
		return fmt.Errorf("device.frameCapacity must be at most %d, got %d", protocol.MaxFrameCapacity, c.Device.FrameCapacity)
	}
	return nil
}
