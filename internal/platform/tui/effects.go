package tui

import (
	"github.com/vovakirdan/rsnake/internal/core"
	"github.com/vovakirdan/rsnake/internal/games/snake"
)

// BurstLifetime is how many frames a fruit burst stays on screen.
const BurstLifetime = 12

type burstStage struct {
	glyph   rune
	color   core.Color
	offsets []core.Position
}

// burstStages expand outward from the eaten cell.
var burstStages = []burstStage{
	{'✸', core.ColorBrightYellow, []core.Position{{X: 0, Y: 0}}},
	{'*', core.ColorOrange, []core.Position{{X: 0, Y: -1}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: -1, Y: 0}}},
	{'·', core.ColorGray, []core.Position{
		{X: -1, Y: -1}, {X: 1, Y: -1}, {X: 1, Y: 1}, {X: -1, Y: 1},
		{X: 0, Y: -2}, {X: 2, Y: 0}, {X: 0, Y: 2}, {X: -2, Y: 0},
	}},
}

type burst struct {
	at  core.Position
	age int
}

// Bursts tracks the fruit-eaten effects currently on screen.
type Bursts struct {
	active []burst
}

// Spawn starts a new burst centered on board cell p.
func (b *Bursts) Spawn(p core.Position) {
	b.active = append(b.active, burst{at: p})
}

// Advance ages every burst by one frame and drops expired ones.
func (b *Bursts) Advance() {
	kept := b.active[:0]
	for _, bu := range b.active {
		bu.age++
		if bu.age < BurstLifetime {
			kept = append(kept, bu)
		}
	}
	b.active = kept
}

// Len returns the number of live bursts.
func (b *Bursts) Len() int {
	return len(b.active)
}

// Clear removes all bursts.
func (b *Bursts) Clear() {
	b.active = b.active[:0]
}

// Draw overlays the bursts on a screen laid out for a width x height board.
func (b *Bursts) Draw(dst *core.Screen, width, height int) {
	l := snake.BoardLayout(dst.Width(), dst.Height(), width, height)
	if l.TooSmall {
		return
	}

	for _, bu := range b.active {
		stage := burstStages[bu.age*len(burstStages)/BurstLifetime]
		for _, off := range stage.offsets {
			p := core.Position{X: bu.at.X + off.X, Y: bu.at.Y + off.Y}
			if !p.In(width, height) {
				continue
			}
			x, y := l.CellOrigin(p)
			dst.SetColored(x, y, stage.glyph, stage.color)
			dst.SetColored(x+1, y, ' ', stage.color)
		}
	}
}
