package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/rsnake/internal/platform/tui"
	"github.com/vovakirdan/rsnake/internal/storage"
)

var (
	flagLimit int
	flagBoard string
	flagTUI   bool
	flagClear bool
)

var scoresCmd = &cobra.Command{
	Use:   "scores",
	Short: "Show high scores",
	Long: `Display the best recorded runs.

Runs are grouped by board size ("WxH"). Without --board every board is listed.

Examples:
  rsnake scores
  rsnake scores --board 25x25 --limit 20
  rsnake scores --tui
  rsnake scores --board 10x10 --clear`,
	Args: cobra.NoArgs,
	RunE: runScores,
}

func init() {
	scoresCmd.Flags().IntVar(&flagLimit, "limit", 10, "Number of runs to show")
	scoresCmd.Flags().StringVar(&flagBoard, "board", "", "Board to show (e.g. 25x25)")
	scoresCmd.Flags().BoolVar(&flagTUI, "tui", false, "Browse scores interactively")
	scoresCmd.Flags().BoolVar(&flagClear, "clear", false, "Delete the stored runs for --board (all boards if empty)")
}

func runScores(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	store, err := storage.Open(cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("cannot open scores database: %w", err)
	}
	defer store.Close()

	if flagClear {
		n, err := store.ClearRuns(flagBoard)
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %d runs.\n", n)
		return nil
	}

	if flagTUI {
		width, height := 80, 24
		if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
			width, height = w, h
		}
		return tui.RunScoreboard(store, flagBoard, width, height)
	}

	runs, err := store.TopRuns(flagBoard, flagLimit)
	if err != nil {
		return err
	}

	if flagBoard != "" {
		fmt.Printf("High Scores - %s\n", flagBoard)
	} else {
		fmt.Println("High Scores - all boards")
	}
	fmt.Println()

	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		fmt.Println()
		fmt.Println("Play 'rsnake play' to set the first high score!")
		return nil
	}

	fmt.Printf("  %-4s  %-7s  %-6s  %-6s  %-12s  %s\n", "Rank", "Board", "Score", "Length", "Player", "Date")
	fmt.Printf("  %-4s  %-7s  %-6s  %-6s  %-12s  %s\n", "----", "-----", "-----", "------", "------", "----")
	for i, r := range runs {
		player := r.Player
		if player == "" {
			player = "-"
		}
		fmt.Printf("  %-4d  %-7s  %-6d  %-6d  %-12s  %s\n",
			i+1, r.Board, r.Score, r.Length, player, r.CreatedAt.Format("2006-01-02 15:04"))
	}

	if flagBoard != "" {
		if stats, err := store.Stats(flagBoard); err == nil && stats.RunsCount > 0 {
			fmt.Println()
			fmt.Printf("Best: %d  Runs: %d  Avg: %.1f\n", stats.HighScore, stats.RunsCount, stats.AvgScore)
		}
	}
	return nil
}
