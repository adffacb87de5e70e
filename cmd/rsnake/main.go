// rsnake is a terminal snake game with a fixed-rate simulation engine.
//
// Usage:
//
//	rsnake play              - Play in this terminal
//	rsnake serve             - Serve games over SSH and WebSocket
//	rsnake scores            - Show high scores
//	rsnake config            - Print the effective configuration
//
// Global flags:
//
//	--config <path>    - Config file (default search: ~/.rsnake/config.yaml, ./configs/rsnake.yaml)
//	--db <path>        - Scores database (default: ~/.rsnake/scores.db)
//	--seed <value>     - RNG seed for reproducible games
//	--log-file <path>  - Write logs to a file
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/rsnake/internal/config"
	"github.com/vovakirdan/rsnake/internal/games/snake"
	"github.com/vovakirdan/rsnake/internal/storage"
)

var (
	// Global flags
	flagConfig  string
	flagDBPath  string
	flagSeed    int64
	flagLogFile string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "rsnake",
	Short: "rsnake - snake in your terminal",
	Long: `rsnake is a snake game for the terminal. The board advances at a fixed
tick rate; eat fruit to grow and avoid the walls and your own tail.

Available commands:
  play     - Play in this terminal
  serve    - Serve games over SSH (and optionally WebSocket)
  scores   - View high scores
  config   - Print the effective configuration

Examples:
  rsnake play
  rsnake play --difficulty hard --width 30 --height 20
  rsnake serve --ssh :2222 --ws :8080
  rsnake scores --board 25x25`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config YAML")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Path to scores database (overrides config)")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "Write logs to this file")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scoresCmd)
	rootCmd.AddCommand(configCmd)
}

// loadConfig loads the config file and applies the global flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, string, error) {
	cfg, source, err := config.LoadWithSource(flagConfig)
	if err != nil {
		return config.Config{}, "", err
	}
	if flagDBPath != "" {
		cfg.Storage.DBPath = flagDBPath
	}
	if cmd.Flags().Changed("seed") {
		cfg.Engine.Seed = flagSeed
	}
	return cfg, source, nil
}

// newLogger returns a logger writing to --log-file, or to fallback when no
// file is given. The returned closer must be called on exit.
func newLogger(prefix string, fallback io.Writer) (*log.Logger, func(), error) {
	w, closer := fallback, func() {}
	if flagLogFile != "" {
		f, err := os.OpenFile(flagLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("cannot open log file: %w", err)
		}
		w, closer = f, func() { _ = f.Close() }
	}
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
	})
	return logger, closer, nil
}

// openStore opens the scores database. Failure is logged and play continues
// without persistence.
func openStore(cfg config.Config, logger *log.Logger) *storage.Store {
	store, err := storage.Open(cfg.Storage.DBPath)
	if err != nil {
		logger.Warn("scores disabled", "db", cfg.Storage.DBPath, "err", err)
		return nil
	}
	return store
}

func engineConfig(cfg config.Config) snake.Config {
	return snake.Config{
		Width:        cfg.Board.Width,
		Height:       cfg.Board.Height,
		TickRate:     cfg.Engine.TickRate,
		Seed:         cfg.Engine.Seed,
		Checkerboard: cfg.Board.Checkerboard,
	}
}
