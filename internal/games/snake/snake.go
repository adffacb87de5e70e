package snake

import (
	"math/rand"

	"github.com/vovakirdan/rsnake/internal/core"
)

// InitialTailLength is the number of body segments a new snake starts with.
const InitialTailLength = 2

// Snake is a segmented body moving on the grid.
// It performs no collision checks on its own; callers validate moves with
// the prediction methods before calling Advance.
type Snake struct {
	head      core.Position
	body      []core.Position // Newest segment at index 0
	direction core.Direction
	color     core.Color

	// movedSinceTurn allows at most one accepted turn between two moves.
	movedSinceTurn bool
}

// NewSnake creates a snake facing down with its tail trailing directly above the head.
func NewSnake(head core.Position) *Snake {
	s := &Snake{
		head:           head,
		body:           make([]core.Position, 0, InitialTailLength+8),
		direction:      core.DirDown,
		color:          core.ColorBrightGreen,
		movedSinceTurn: true,
	}

	behind := s.direction.Opposite()
	p := head
	for range InitialTailLength {
		p = p.Add(behind)
		s.body = append(s.body, p)
	}
	return s
}

// SetDirection changes the heading unless d reverses it or a turn was already
// accepted since the last Advance.
func (s *Snake) SetDirection(d core.Direction) {
	if d == s.direction.Opposite() || !s.movedSinceTurn {
		return
	}
	s.direction = d
	s.movedSinceTurn = false
}

// NextHead returns where the head will be after the next Advance.
func (s *Snake) NextHead() core.Position {
	return s.head.Add(s.direction)
}

// WillHitWall reports whether the next head lies outside [0,width) x [0,height).
func (s *Snake) WillHitWall(width, height int) bool {
	return !s.NextHead().In(width, height)
}

// WillSelfCollide reports whether the next head lands on a body segment.
func (s *Snake) WillSelfCollide() bool {
	return s.occupies(s.NextHead())
}

// IsOverlapping reports whether the head currently sits on a body segment.
func (s *Snake) IsOverlapping() bool {
	return s.occupies(s.head)
}

func (s *Snake) occupies(p core.Position) bool {
	for _, seg := range s.body {
		if seg == p {
			return true
		}
	}
	return false
}

// Advance moves the snake one cell in its current direction.
func (s *Snake) Advance() {
	if len(s.body) > 0 {
		copy(s.body[1:], s.body[:len(s.body)-1])
		s.body[0] = s.head
	}
	s.head = s.NextHead()
	s.movedSinceTurn = true
}

// Grow duplicates the last segment so the next Advance lengthens the body,
// and picks a new color from the growth palette.
func (s *Snake) Grow(rng *rand.Rand) {
	last := s.head
	if n := len(s.body); n > 0 {
		last = s.body[n-1]
	}
	s.body = append(s.body, last)

	if rng != nil {
		s.color = core.GrowthPalette[rng.Intn(len(core.GrowthPalette))]
	}
}

// Length returns the net growth: segments beyond the initial tail.
func (s *Snake) Length() int {
	return len(s.body) - InitialTailLength
}

// Head returns the current head cell.
func (s *Snake) Head() core.Position {
	return s.head
}

// Body returns a copy of the body, head-to-tail.
func (s *Snake) Body() []core.Position {
	out := make([]core.Position, len(s.body))
	copy(out, s.body)
	return out
}

// Direction returns the current heading.
func (s *Snake) Direction() core.Direction {
	return s.direction
}

// Color returns the current cosmetic color.
func (s *Snake) Color() core.Color {
	return s.color
}
