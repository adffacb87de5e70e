package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/rsnake/internal/config"
	"github.com/vovakirdan/rsnake/internal/games/snake"
	"github.com/vovakirdan/rsnake/internal/platform/tui"
)

var (
	flagWidth      int
	flagHeight     int
	flagDifficulty string
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play snake in this terminal",
	Long: `Start a game of snake.

Controls:
  Arrows/WASD - Steer
  P/Esc       - Pause / resume
  R           - Restart (after game over)
  ?           - Toggle help
  Q/Ctrl+C    - Quit

Difficulty options:
  easy   - 6 ticks per second
  normal - 10 ticks per second
  hard   - 15 ticks per second

Examples:
  rsnake play
  rsnake play --difficulty hard
  rsnake play --width 40 --height 20 --seed 42`,
	Args: cobra.NoArgs,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().IntVar(&flagWidth, "width", 0, "Board width in cells (overrides config)")
	playCmd.Flags().IntVar(&flagHeight, "height", 0, "Board height in cells (overrides config)")
	playCmd.Flags().StringVar(&flagDifficulty, "difficulty", "", "Difficulty preset: easy, normal, hard")
}

func runPlay(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if flagWidth > 0 {
		cfg.Board.Width = flagWidth
	}
	if flagHeight > 0 {
		cfg.Board.Height = flagHeight
	}
	if flagDifficulty != "" {
		preset, err := config.ParsePreset(flagDifficulty)
		if err != nil {
			return err
		}
		config.ApplyPreset(&cfg, preset)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Logs would corrupt the alt screen, so they go to --log-file or nowhere.
	logger, closeLog, err := newLogger("rsnake", io.Discard)
	if err != nil {
		return err
	}
	defer closeLog()

	width, height := 80, 24 // Defaults
	if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
		width, height = w, h
	}

	game := snake.New(engineConfig(cfg), snake.WithLogger(logger))
	defer func() {
		if err := game.Close(); err != nil {
			logger.Error("engine stopped with error", "err", err)
		}
	}()

	opts := tui.Options{
		Player:    os.Getenv("USER"),
		FrameRate: cfg.Display.FrameRate,
		Width:     width,
		Height:    height,
		Logger:    logger,
	}
	if store := openStore(cfg, logger); store != nil {
		defer store.Close()
		opts.Store = store
	}

	logger.Info("starting game", "board", cfg.BoardName(), "tick_rate", cfg.Engine.TickRate)
	return tui.Run(game, opts)
}
