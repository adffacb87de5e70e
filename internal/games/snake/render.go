package snake

import (
	"fmt"

	"github.com/vovakirdan/rsnake/internal/core"
)

const (
	hudHeight = 2 // Score line + separator
	cellWidth = 2 // Screen columns per board cell, keeps cells roughly square
)

// Layout maps board cells to screen coordinates.
type Layout struct {
	Board    core.Rect // Bordered board area on screen
	TooSmall bool
}

// BoardLayout centers a width x height board below the HUD on a screen of
// the given size.
func BoardLayout(screenW, screenH, width, height int) Layout {
	boxW := width*cellWidth + 2
	boxH := height + 2
	if screenW < boxW || screenH < boxH+hudHeight {
		return Layout{TooSmall: true}
	}

	x := (screenW - boxW) / 2
	y := hudHeight + (screenH-hudHeight-boxH)/2
	return Layout{Board: core.NewRect(x, y, boxW, boxH)}
}

// CellOrigin returns the screen position of the left column of board cell p.
func (l Layout) CellOrigin(p core.Position) (int, int) {
	return l.Board.X + 1 + p.X*cellWidth, l.Board.Y + 1 + p.Y
}

func (l Layout) setCell(dst *core.Screen, p core.Position, left, right rune, c core.Color) {
	x, y := l.CellOrigin(p)
	dst.SetColored(x, y, left, c)
	dst.SetColored(x+1, y, right, c)
}

var headGlyphs = map[core.Direction][2]rune{
	core.DirUp:    {'▲', '▲'},
	core.DirDown:  {'▼', '▼'},
	core.DirLeft:  {'◀', '█'},
	core.DirRight: {'█', '▶'},
}

// Render draws the current state into dst.
func (g *Game) Render(dst *core.Screen) {
	RenderSnapshot(dst, g.Snapshot(), g.cfg.Checkerboard)
}

// RenderSnapshot draws snap into dst: HUD, bordered board, fruit, snake and
// the pause or game-over overlay.
func RenderSnapshot(dst *core.Screen, snap Snapshot, checkerboard bool) {
	dst.Clear()

	hud := fmt.Sprintf(" Score: %d  Length: %d", snap.Score, snap.Growth)
	dst.DrawTextColored(0, 0, hud, core.ColorBrightWhite)
	dst.DrawHLine(0, 1, dst.Width(), '─', core.ColorGray)

	l := BoardLayout(dst.Width(), dst.Height(), snap.Width, snap.Height)
	if l.TooSmall {
		renderOverlay(dst, core.ColorYellow, "Window too small",
			fmt.Sprintf("Need %dx%d", snap.Width*cellWidth+2, snap.Height+2+hudHeight))
		return
	}

	border := core.ColorGray
	if snap.GameOver() {
		border = core.ColorRed
	}
	dst.DrawBox(l.Board, border)

	if checkerboard {
		for y := range snap.Height {
			for x := range snap.Width {
				if (x+y)%2 == 0 {
					l.setCell(dst, core.Position{X: x, Y: y}, '░', '░', core.ColorGray)
				}
			}
		}
	}

	l.setCell(dst, snap.Fruit, '◖', '◗', core.ColorBrightRed)

	color := snap.Color
	if snap.GameOver() {
		color = core.ColorGray
	}
	for _, seg := range snap.Body {
		if seg.In(snap.Width, snap.Height) {
			l.setCell(dst, seg, '█', '█', color)
		}
	}
	if snap.Head.In(snap.Width, snap.Height) {
		glyph := headGlyphs[snap.Dir]
		l.setCell(dst, snap.Head, glyph[0], glyph[1], color)
	}

	switch {
	case snap.GameOver():
		renderOverlay(dst, core.ColorBrightRed, "GAME OVER", "Press R to Restart")
	case snap.Paused:
		renderOverlay(dst, core.ColorYellow, "PAUSED", "Press P to continue")
	}
}

// renderOverlay draws a centered two-line message box.
func renderOverlay(dst *core.Screen, c core.Color, line1, line2 string) {
	textW := max(len([]rune(line1)), len([]rune(line2)))
	box := core.NewRect((dst.Width()-textW-4)/2, (dst.Height()-5)/2, textW+4, 5)

	dst.DrawRect(box, ' ', core.ColorDefault)
	dst.DrawBox(box, c)
	dst.DrawTextCentered(box.Y+1, line1, c)
	dst.DrawTextCentered(box.Y+3, line2, core.ColorWhite)
}
