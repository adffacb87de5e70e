package snake

import "github.com/vovakirdan/rsnake/internal/core"

// Snapshot is an immutable copy of the game state between two ticks.
type Snapshot struct {
	Tick   uint64
	Width  int
	Height int
	Head   core.Position
	Body   []core.Position // Head-to-tail, excluding Head
	Dir    core.Direction
	Color  core.Color
	Fruit  core.Position
	Status Status
	Score  int
	Growth int // Net growth since spawn
	Paused bool
}

// GameOver reports whether the snapshot was taken after a collision.
func (s Snapshot) GameOver() bool {
	return s.Status == StatusGameOver
}

// Snapshot returns a copy of the current state for rendering and tests.
func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := &g.state
	snap := Snapshot{
		Tick:   s.tick,
		Width:  g.cfg.Width,
		Height: g.cfg.Height,
		Fruit:  s.fruit,
		Status: s.status,
		Score:  s.score,
		Paused: s.paused,
	}
	// The snake is nil only after a corrupted tick; report what is left.
	if s.snake != nil {
		snap.Head = s.snake.Head()
		snap.Body = s.snake.Body()
		snap.Dir = s.snake.Direction()
		snap.Color = s.snake.Color()
		snap.Growth = s.snake.Length()
	}
	return snap
}
