// Package snake implements the real-time snake engine: a fixed-tick
// simulation goroutine and thread-safe accessors for the presentation layer.
//
// All mutable game state lives in a single aggregate guarded by one mutex.
// The tick goroutine and the foreground (input handling and rendering) take
// that lock for each access, so the foreground only ever observes the state
// between two complete ticks.
package snake

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"runtime/debug"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/rsnake/internal/core"
)

// ErrTickLoopCrashed is returned once the tick goroutine has panicked.
// The game cannot be resumed or restarted afterwards.
var ErrTickLoopCrashed = errors.New("snake: tick loop crashed")

// Status is the game's terminal-state flag.
type Status string

const (
	StatusPlaying  Status = "playing"
	StatusGameOver Status = "game_over"
)

// Config holds the construction-time parameters of a Game.
type Config struct {
	Width        int   // Board width in cells
	Height       int   // Board height in cells
	TickRate     int   // Simulation ticks per second
	Seed         int64 // RNG seed, 0 derives one from the clock
	Checkerboard bool  // Draw the background checkerboard in Render
}

// DefaultConfig returns the classic 25x25 board at 10 ticks per second.
func DefaultConfig() Config {
	return Config{
		Width:        25,
		Height:       25,
		TickRate:     10,
		Checkerboard: true,
	}
}

// TickInterval returns the simulation period.
func (c Config) TickInterval() time.Duration {
	if c.TickRate <= 0 {
		return time.Second / 10
	}
	return time.Second / time.Duration(c.TickRate)
}

// Option configures a Game.
type Option func(*Game)

// WithLogger sets the logger used for lifecycle and gameplay events.
func WithLogger(l *log.Logger) Option {
	return func(g *Game) {
		if l != nil {
			g.logger = l
		}
	}
}

// state is everything the tick goroutine and the foreground share.
type state struct {
	snake      *Snake
	fruit      core.Position
	score      int
	status     Status
	paused     bool
	pending    *core.Direction // Latest unconsumed input
	fruitEaten *core.Position  // One-shot notification slot
	tick       uint64
	rng        *rand.Rand
}

// Game is the snake state machine. All methods are safe for concurrent use.
type Game struct {
	cfg    Config
	logger *log.Logger

	mu    sync.Mutex
	state state

	// lifeMu serializes Start, Restart and Close around the loop handle.
	lifeMu sync.Mutex
	stop   chan struct{}
	done   chan struct{}

	faultMu sync.Mutex
	fault   error
}

// New creates a paused game. Call Start to launch the tick loop.
func New(cfg Config, opts ...Option) *Game {
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	g := &Game{
		cfg:    cfg,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(g)
	}

	g.state.rng = rand.New(rand.NewSource(cfg.Seed))
	g.reset()
	g.state.paused = true
	return g
}

// Config returns the construction-time parameters.
func (g *Game) Config() Config {
	return g.cfg
}

// reset reinitializes the session state. Caller holds mu or owns g exclusively.
func (g *Game) reset() {
	s := &g.state
	s.snake = NewSnake(g.spawnHead())
	s.fruit = g.randomCell()
	s.score = 0
	s.status = StatusPlaying
	s.paused = false
	s.pending = nil
	s.fruitEaten = nil
	s.tick = 0
}

// spawnHead picks a random head cell that keeps the initial tail on the board
// and leaves at least one free cell ahead. Tiny boards fall back to any cell.
func (g *Game) spawnHead() core.Position {
	rng := g.state.rng
	x := rng.Intn(g.cfg.Width)

	minY, maxY := InitialTailLength, g.cfg.Height-2
	if maxY < minY {
		return core.Position{X: x, Y: rng.Intn(g.cfg.Height)}
	}
	return core.Position{X: x, Y: minY + rng.Intn(maxY-minY+1)}
}

// randomCell returns a uniformly random cell on the board.
// Cells occupied by the snake are not excluded.
func (g *Game) randomCell() core.Position {
	rng := g.state.rng
	return core.Position{
		X: rng.Intn(g.cfg.Width),
		Y: rng.Intn(g.cfg.Height),
	}
}

// outcome describes what a single tick did, for logging outside the lock.
type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeMoved
	outcomeAte
	outcomeHitWall
	outcomeHitSelf
)

// Step runs one simulation tick. The tick loop calls it on every period;
// it is exported so callers can drive the simulation manually.
func (g *Game) Step() {
	res, info := g.lockedStep()

	switch res {
	case outcomeAte:
		g.logger.Debug("fruit eaten", "at", info.eatenAt, "score", info.score, "next", info.fruit)
	case outcomeHitWall:
		g.logger.Info("game over", "reason", "wall", "score", info.score, "tick", info.tick)
	case outcomeHitSelf:
		g.logger.Info("game over", "reason", "self", "score", info.score, "tick", info.tick)
	}
}

type stepInfo struct {
	eatenAt core.Position
	fruit   core.Position
	score   int
	tick    uint64
}

// lockedStep runs step under mu. The deferred unlock keeps the state usable
// for readers if step panics.
func (g *Game) lockedStep() (outcome, stepInfo) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.step()
}

// step is the per-tick transition. Caller holds mu.
func (g *Game) step() (outcome, stepInfo) {
	s := &g.state
	if s.status == StatusGameOver || s.paused {
		return outcomeSkipped, stepInfo{}
	}
	s.tick++

	if s.pending != nil {
		s.snake.SetDirection(*s.pending)
		s.pending = nil
	}

	if s.snake.WillHitWall(g.cfg.Width, g.cfg.Height) {
		s.status = StatusGameOver
		return outcomeHitWall, stepInfo{score: s.score, tick: s.tick}
	}
	if s.snake.IsOverlapping() || s.snake.WillSelfCollide() {
		s.status = StatusGameOver
		return outcomeHitSelf, stepInfo{score: s.score, tick: s.tick}
	}

	ate := s.snake.NextHead() == s.fruit
	s.snake.Advance()
	if !ate {
		return outcomeMoved, stepInfo{}
	}

	s.snake.Grow(s.rng)
	s.score = s.snake.Length() * 10
	eaten := s.fruit
	s.fruitEaten = &eaten
	s.fruit = g.randomCell()
	return outcomeAte, stepInfo{eatenAt: eaten, fruit: s.fruit, score: s.score, tick: s.tick}
}

// Start clears the pause flag and launches the tick loop if it is not running.
// A finished game stays over; use Restart to begin a new session.
func (g *Game) Start() error {
	g.lifeMu.Lock()
	defer g.lifeMu.Unlock()
	return g.startLocked()
}

// startLocked is Start with lifeMu held.
func (g *Game) startLocked() error {
	if err := g.Err(); err != nil {
		return err
	}

	g.mu.Lock()
	g.state.paused = false
	g.mu.Unlock()

	if g.stop != nil {
		return nil
	}

	g.stop = make(chan struct{})
	g.done = make(chan struct{})
	go g.run(g.stop, g.done)

	g.logger.Debug("tick loop started", "rate", g.cfg.TickRate, "board", fmt.Sprintf("%dx%d", g.cfg.Width, g.cfg.Height))
	return nil
}

// run is the tick goroutine. It exits when stop is closed or a tick panics.
func (g *Game) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: %v", ErrTickLoopCrashed, r)
			g.setFault(err)
			g.logger.Error("tick loop crashed", "err", err, "stack", string(debug.Stack()))
		}
	}()

	ticker := time.NewTicker(g.cfg.TickInterval())
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			g.Step()
		}
	}
}

// halt stops the tick loop and waits for it to exit. Caller holds lifeMu.
func (g *Game) halt() {
	if g.stop == nil {
		return
	}
	close(g.stop)
	<-g.done
	g.stop, g.done = nil, nil
	g.logger.Debug("tick loop stopped")
}

// Pause freezes the simulation. The tick loop keeps running but does nothing.
func (g *Game) Pause() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state.paused = true
}

// TogglePause pauses a running game or resumes a paused one.
func (g *Game) TogglePause() error {
	if g.Paused() {
		return g.Start()
	}
	g.Pause()
	return nil
}

// Restart stops the tick loop, starts a fresh session and runs it.
// It fails with ErrTickLoopCrashed if the previous loop died.
func (g *Game) Restart() error {
	g.lifeMu.Lock()
	defer g.lifeMu.Unlock()

	g.halt()
	if err := g.Err(); err != nil {
		return fmt.Errorf("restart: %w", err)
	}

	g.mu.Lock()
	g.reset()
	g.mu.Unlock()

	g.logger.Info("game restarted")
	return g.startLocked()
}

// Close stops the tick loop and waits for it to exit.
func (g *Game) Close() error {
	g.lifeMu.Lock()
	defer g.lifeMu.Unlock()

	g.halt()
	return g.Err()
}

// Input buffers a direction for the next tick, replacing any unconsumed one.
// Input is ignored once the game is over.
func (g *Game) Input(d core.Direction) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state.status == StatusGameOver {
		return
	}
	g.state.pending = &d
}

// Status returns the current status.
func (g *Game) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.status
}

// Score returns the current score.
func (g *Game) Score() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.score
}

// Paused reports whether the simulation is paused.
func (g *Game) Paused() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.paused
}

// TakeFruitEaten returns the position of the last eaten fruit and clears it.
// Each event is delivered at most once; events not drained before the next
// one are overwritten.
func (g *Game) TakeFruitEaten() (core.Position, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state.fruitEaten == nil {
		return core.Position{}, false
	}
	p := *g.state.fruitEaten
	g.state.fruitEaten = nil
	return p, true
}

// Err returns the tick loop fault, or nil while the engine is healthy.
func (g *Game) Err() error {
	g.faultMu.Lock()
	defer g.faultMu.Unlock()
	return g.fault
}

func (g *Game) setFault(err error) {
	g.faultMu.Lock()
	defer g.faultMu.Unlock()
	if g.fault == nil {
		g.fault = err
	}
}
