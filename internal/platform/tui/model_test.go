package tui

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/rsnake/internal/games/snake"
	"github.com/vovakirdan/rsnake/internal/storage"
)

type fakeStore struct {
	mu   sync.Mutex
	runs []storage.Run
	best int
}

func (f *fakeStore) SaveRun(run storage.Run) (storage.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	run.ID = int64(len(f.runs) + 1)
	f.runs = append(f.runs, run)
	return run, nil
}

func (f *fakeStore) HighScore(string) (int, error) {
	return f.best, nil
}

// finishedGame returns a running game on a tiny board that has already hit a wall.
func finishedGame(t *testing.T) *snake.Game {
	t.Helper()
	g := snake.New(snake.Config{Width: 3, Height: 3, TickRate: 20, Seed: 9})
	t.Cleanup(func() { _ = g.Close() })
	if err := g.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for g.Status() != snake.StatusGameOver {
		if time.Now().After(deadline) {
			t.Fatal("game did not end")
		}
		time.Sleep(time.Millisecond)
	}
	return g
}

func TestModelSavesOnceAndRestarts(t *testing.T) {
	g := finishedGame(t)
	m := NewModel(g, Options{Store: &fakeStore{}})

	next, _ := m.Update(FrameMsg(time.Now()))
	m = next.(Model)
	if !m.saved {
		t.Fatal("Frame after game over should mark the run as saved")
	}
	if !m.snap.GameOver() {
		t.Error("Model snapshot should report game over")
	}

	next, _ = m.Update(runeKey('p'))
	m = next.(Model)
	if g.Paused() {
		t.Error("Pause should be ignored after game over")
	}

	next, _ = m.Update(runeKey('r'))
	m = next.(Model)
	if m.saved {
		t.Error("Restart should allow the next game over to be saved")
	}
	if m.snap.Status != snake.StatusPlaying {
		t.Errorf("Status after restart = %v, expected playing", m.snap.Status)
	}
	if m.snap.Score != 0 {
		t.Errorf("Score after restart = %d, expected 0", m.snap.Score)
	}
}

func TestModelRestartIgnoredWhilePlaying(t *testing.T) {
	g := snake.New(snake.Config{Width: 50, Height: 50, TickRate: 1, Seed: 5})
	t.Cleanup(func() { _ = g.Close() })
	m := NewModel(g, Options{})

	before := g.Snapshot()
	next, _ := m.Update(runeKey('r'))
	m = next.(Model)
	if after := g.Snapshot(); after.Head != before.Head || after.Fruit != before.Fruit {
		t.Error("Restart during play should be ignored")
	}
	if !g.Paused() {
		t.Error("Restart during play should not start the engine")
	}
}

func TestModelSaveRun(t *testing.T) {
	store := &fakeStore{}
	m := NewModel(snake.New(snake.DefaultConfig()), Options{Player: "alice", Store: store})

	cmd := m.saveRun(snake.Snapshot{Width: 10, Height: 12, Score: 30, Growth: 3, Tick: 40, Status: snake.StatusGameOver})
	if cmd == nil {
		t.Fatal("saveRun should return a command")
	}
	msg, ok := cmd().(runSavedMsg)
	if !ok || msg.err != nil {
		t.Fatalf("unexpected result %#v", msg)
	}

	if len(store.runs) != 1 {
		t.Fatalf("Expected 1 saved run, got %d", len(store.runs))
	}
	run := store.runs[0]
	if run.Board != "10x12" || run.Score != 30 || run.Length != 3 || run.Ticks != 40 || run.Player != "alice" {
		t.Errorf("Saved run = %+v", run)
	}

	next, _ := m.Update(msg)
	if next.(Model).best != 30 {
		t.Error("Saved score should update the best score")
	}

	if m.saveRun(snake.Snapshot{Score: 0}) != nil {
		t.Error("Zero-score runs should not be saved")
	}
}

func TestModelWithoutStore(t *testing.T) {
	m := NewModel(snake.New(snake.DefaultConfig()), Options{})
	if m.saveRun(snake.Snapshot{Score: 10}) != nil {
		t.Error("saveRun without a store should be a no-op")
	}
	if m.loadBest() != nil {
		t.Error("loadBest without a store should be a no-op")
	}
}

func TestModelEngineError(t *testing.T) {
	m := NewModel(snake.New(snake.DefaultConfig()), Options{})
	boom := errors.New("boom")

	next, cmd := m.Update(engineErrMsg{boom})
	if !errors.Is(next.(Model).Err(), boom) {
		t.Errorf("Err() = %v, expected boom", next.(Model).Err())
	}
	if cmd == nil {
		t.Fatal("Engine error should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Engine error should return tea.Quit")
	}
}

func TestModelQuit(t *testing.T) {
	m := NewModel(snake.New(snake.DefaultConfig()), Options{})

	next, cmd := m.Update(runeKey('q'))
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if next.(Model).View() != "" {
		t.Error("View after quit should be empty")
	}
}

func TestModelResizeAndView(t *testing.T) {
	m := NewModel(snake.New(snake.DefaultConfig()), Options{Store: &fakeStore{best: 120}})

	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m = next.(Model)
	if m.screen.Width() != 100 || m.screen.Height() != 40-m.footerHeight() {
		t.Errorf("Screen = %dx%d after resize", m.screen.Width(), m.screen.Height())
	}

	next, _ = m.Update(bestMsg(120))
	m = next.(Model)
	view := m.View()
	if !strings.Contains(view, "Score: 0") || !strings.Contains(view, "Best: 120") {
		t.Errorf("View missing HUD:\n%s", view)
	}

	short := m.footerHeight()
	next, _ = m.Update(runeKey('?'))
	m = next.(Model)
	if m.footerHeight() <= short {
		t.Error("Help toggle should expand the footer")
	}
	if m.screen.Height() != 40-m.footerHeight() {
		t.Error("Help toggle should shrink the board area")
	}
}

func TestModelSteering(t *testing.T) {
	g := snake.New(snake.Config{Width: 20, Height: 20, TickRate: 1, Seed: 11})
	t.Cleanup(func() { _ = g.Close() })
	m := NewModel(g, Options{})

	_, _ = m.Update(runeKey('d'))
	if err := g.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	g.Step()
	if d := g.Snapshot().Dir.String(); d != "right" {
		t.Errorf("Direction after 'd' = %s, expected right", d)
	}
}
