package config

import (
	_ "embed"
	"time"
)

//go:embed defaults/rsnake.yaml
var defaultYAML []byte

// Default returns the hardcoded configuration used when no YAML is readable.
func Default() Config {
	return Config{
		Board: BoardConfig{
			Width:        25,
			Height:       25,
			Checkerboard: true,
		},
		Engine: EngineConfig{
			TickRate: 10,
		},
		Display: DisplayConfig{
			FrameRate: 60,
		},
		Storage: StorageConfig{
			DBPath: "~/.rsnake/scores.db",
		},
		Server: ServerConfig{
			SSHAddr:     ":2222",
			HostKey:     ".ssh/rsnake_ed25519",
			IdleTimeout: 10 * time.Minute,
		},
	}
}

// DefaultYAML returns the embedded default configuration file.
func DefaultYAML() []byte {
	return defaultYAML
}
