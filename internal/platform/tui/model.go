package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/rsnake/internal/core"
	"github.com/vovakirdan/rsnake/internal/games/snake"
	"github.com/vovakirdan/rsnake/internal/storage"
)

// RunStore persists finished runs. *storage.Store implements it.
type RunStore interface {
	SaveRun(run storage.Run) (storage.Run, error)
	HighScore(board string) (int, error)
}

// Options configures a play Model.
type Options struct {
	Player    string      // Recorded with each saved run
	FrameRate int         // Presentation frames per second
	Width     int         // Initial screen width until the first resize
	Height    int         // Initial screen height until the first resize
	Store     RunStore    // nil disables persistence
	Logger    *log.Logger // nil discards
}

type (
	engineErrMsg struct{ err error }
	bestMsg      int
	runSavedMsg  struct {
		run storage.Run
		err error
	}
)

// Model is the Bubble Tea model for one snake session.
// It owns no game state: every frame it reads a snapshot from the engine.
type Model struct {
	game     *snake.Game
	opts     Options
	runtime  core.RuntimeConfig
	screen   *core.Screen
	keys     KeyMap
	help     help.Model
	bursts   Bursts
	snap     snake.Snapshot
	best     int
	saved    bool // Whether the current game over has been persisted
	err      error
	quitting bool
}

// NewModel creates a play model driving game.
func NewModel(game *snake.Game, opts Options) Model {
	runtime := core.DefaultConfig()
	if opts.FrameRate > 0 {
		runtime.FrameRate = opts.FrameRate
	}
	if opts.Width > 0 && opts.Height > 0 {
		runtime.ScreenW, runtime.ScreenH = opts.Width, opts.Height
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	m := Model{
		game:    game,
		opts:    opts,
		runtime: runtime,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		snap:    game.Snapshot(),
	}
	m.screen = core.NewScreen(runtime.ScreenW, runtime.ScreenH-m.footerHeight())
	return m
}

// Init starts the engine and the frame loop.
func (m Model) Init() tea.Cmd {
	if err := m.game.Start(); err != nil {
		return func() tea.Msg { return engineErrMsg{err} }
	}
	return tea.Batch(frameCmd(m.runtime.FrameInterval()), m.loadBest())
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.runtime.ScreenW, m.runtime.ScreenH = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.resize()
		return m, nil

	case FrameMsg:
		return m.handleFrame()

	case engineErrMsg:
		return m.fail(msg.err)

	case bestMsg:
		m.best = max(m.best, int(msg))
		return m, nil

	case runSavedMsg:
		if msg.err != nil {
			m.opts.Logger.Warn("could not save run", "err", msg.err)
			return m, nil
		}
		m.best = max(m.best, msg.run.Score)
		m.opts.Logger.Info("run saved", "id", msg.run.RunID, "board", msg.run.Board, "score", msg.run.Score)
		return m, nil
	}

	return m, nil
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	action := m.keys.Action(msg)

	if d, ok := action.Direction(); ok {
		m.game.Input(d)
		return m, nil
	}

	switch action {
	case core.ActionQuit:
		m.quitting = true
		return m, tea.Quit

	case core.ActionPause:
		if m.snap.GameOver() {
			return m, nil
		}
		if err := m.game.TogglePause(); err != nil {
			return m.fail(err)
		}

	case core.ActionRestart:
		if !m.game.Snapshot().GameOver() {
			return m, nil
		}
		if err := m.game.Restart(); err != nil {
			return m.fail(err)
		}
		m.saved = false
		m.bursts.Clear()

	case core.ActionHelp:
		m.help.ShowAll = !m.help.ShowAll
		m.resize()
	}

	m.snap = m.game.Snapshot()
	return m, nil
}

// handleFrame polls the engine once per presentation frame.
func (m Model) handleFrame() (tea.Model, tea.Cmd) {
	if err := m.game.Err(); err != nil {
		return m.fail(err)
	}

	m.bursts.Advance()
	if p, ok := m.game.TakeFruitEaten(); ok {
		m.bursts.Spawn(p)
	}
	m.snap = m.game.Snapshot()

	next := frameCmd(m.runtime.FrameInterval())
	if m.snap.GameOver() && !m.saved {
		m.saved = true
		m.opts.Logger.Info("game over", "score", m.snap.Score, "length", m.snap.Growth, "ticks", m.snap.Tick)
		return m, tea.Batch(next, m.saveRun(m.snap))
	}
	return m, next
}

// fail records a fatal engine error and quits the program.
func (m Model) fail(err error) (tea.Model, tea.Cmd) {
	m.err = err
	m.opts.Logger.Error("engine failed", "err", err)
	return m, tea.Quit
}

// saveRun persists a finished run in the background.
func (m Model) saveRun(snap snake.Snapshot) tea.Cmd {
	store := m.opts.Store
	if store == nil || snap.Score == 0 {
		return nil
	}
	run := storage.Run{
		Board:  boardName(snap.Width, snap.Height),
		Score:  snap.Score,
		Length: snap.Growth,
		Ticks:  snap.Tick,
		Player: m.opts.Player,
	}
	return func() tea.Msg {
		saved, err := store.SaveRun(run)
		return runSavedMsg{run: saved, err: err}
	}
}

// loadBest fetches the board's high score for the HUD.
func (m Model) loadBest() tea.Cmd {
	store := m.opts.Store
	if store == nil {
		return nil
	}
	board := boardName(m.snap.Width, m.snap.Height)
	logger := m.opts.Logger
	return func() tea.Msg {
		best, err := store.HighScore(board)
		if err != nil {
			logger.Warn("could not load high score", "board", board, "err", err)
		}
		return bestMsg(best)
	}
}

func (m *Model) resize() {
	m.screen.Resize(m.runtime.ScreenW, max(m.runtime.ScreenH-m.footerHeight(), 0))
}

func (m Model) footerHeight() int {
	return lipgloss.Height(m.help.View(m.keys))
}

// View renders the current state to a string for display.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	snake.RenderSnapshot(m.screen, m.snap, m.game.Config().Checkerboard)
	m.bursts.Draw(m.screen, m.snap.Width, m.snap.Height)
	if m.opts.Store != nil {
		best := fmt.Sprintf("Best: %d ", max(m.best, m.snap.Score))
		m.screen.DrawTextColored(m.screen.Width()-len(best), 0, best, core.ColorBrightYellow)
	}

	return RenderFrame(m.screen, m.help.View(m.keys))
}

// Err returns the engine error that ended the session, if any.
func (m Model) Err() error {
	return m.err
}

// Run starts a Bubble Tea program for game and blocks until it exits.
// An engine failure is returned as the error.
func Run(game *snake.Game, opts Options, progOpts ...tea.ProgramOption) error {
	p := tea.NewProgram(
		NewModel(game, opts),
		append([]tea.ProgramOption{tea.WithAltScreen()}, progOpts...)...,
	)

	final, err := p.Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(Model); ok && fm.Err() != nil {
		return fm.Err()
	}
	return nil
}

func boardName(w, h int) string {
	return fmt.Sprintf("%dx%d", w, h)
}
