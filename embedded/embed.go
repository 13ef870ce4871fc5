package embedded

import (
	_ "embed"
)

//go:embed config.yaml
var config []byte

// DefaultConfig returns the embedded default configuration (YAML).
func DefaultConfig() []byte {
	return config
}
