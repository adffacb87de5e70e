// Package tui provides the Bubble Tea presentation layer for rsnake.
// It polls the engine once per frame, maps keys to engine intents and turns
// the engine's one-shot events into short-lived visual effects.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// FrameMsg is sent to trigger a presentation frame.
type FrameMsg time.Time

// frameCmd returns a Bubble Tea command that sends a frame message after interval.
func frameCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return FrameMsg(t)
	})
}
