// Package config provides YAML-based configuration loading, difficulty
// presets and validation for rsnake.
package config

import (
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the complete rsnake configuration.
type Config struct {
	Board   BoardConfig   `yaml:"board"`
	Engine  EngineConfig  `yaml:"engine"`
	Display DisplayConfig `yaml:"display"`
	Storage StorageConfig `yaml:"storage"`
	Server  ServerConfig  `yaml:"server"`
}

// BoardConfig defines the playing field.
type BoardConfig struct {
	Width        int  `yaml:"width"`
	Height       int  `yaml:"height"`
	Checkerboard bool `yaml:"checkerboard"`
}

// EngineConfig defines simulation parameters.
type EngineConfig struct {
	TickRate int   `yaml:"tick_rate"` // Ticks per second
	Seed     int64 `yaml:"seed"`      // 0 = seed from clock
}

// DisplayConfig defines presentation parameters.
type DisplayConfig struct {
	FrameRate int `yaml:"frame_rate"`
}

// StorageConfig defines where finished runs are persisted.
type StorageConfig struct {
	DBPath string `yaml:"db_path"`
}

// ServerConfig defines the network surfaces started by `rsnake serve`.
type ServerConfig struct {
	SSHAddr     string        `yaml:"ssh_addr"`
	HostKey     string        `yaml:"host_key"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
	WSAddr      string        `yaml:"ws_addr"` // Empty disables the WebSocket endpoint
}

// BoardName returns the board identifier used to bucket high scores.
func (c Config) BoardName() string {
	return fmt.Sprintf("%dx%d", c.Board.Width, c.Board.Height)
}

// Validate checks value ranges. Errors wrap ErrInvalidConfig.
func (c Config) Validate() error {
	switch {
	case c.Board.Width < 3:
		return fmt.Errorf("%w: board.width must be >= 3, got %d", ErrInvalidConfig, c.Board.Width)
	case c.Board.Height < 3:
		return fmt.Errorf("%w: board.height must be >= 3, got %d", ErrInvalidConfig, c.Board.Height)
	case c.Engine.TickRate < 1 || c.Engine.TickRate > 120:
		return fmt.Errorf("%w: engine.tick_rate must be in [1, 120], got %d", ErrInvalidConfig, c.Engine.TickRate)
	case c.Display.FrameRate < 1 || c.Display.FrameRate > 240:
		return fmt.Errorf("%w: display.frame_rate must be in [1, 240], got %d", ErrInvalidConfig, c.Display.FrameRate)
	case c.Server.IdleTimeout < 0:
		return fmt.Errorf("%w: server.idle_timeout must not be negative", ErrInvalidConfig)
	}
	return nil
}

// YAML returns the configuration serialized as YAML.
func (c Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return data, nil
}
