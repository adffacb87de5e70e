// Package ws serves snake sessions over WebSocket.
//
// Every connection gets its own engine. The protocol is compact JSON text
// frames keyed by a single-character "t" field.
package ws

import (
	"github.com/vovakirdan/rsnake/internal/core"
	"github.com/vovakirdan/rsnake/internal/games/snake"
)

// Message types.
const (
	MsgDirection = "d" // client: steer
	MsgRestart   = "r" // client: restart after game over
	MsgPause     = "p" // client: toggle pause
	MsgState     = "s" // server: snapshot
	MsgEaten     = "e" // server: fruit eaten
	MsgFault     = "x" // server: engine fault, connection closes
)

// ClientMessage is any message sent by the browser.
type ClientMessage struct {
	Type string `json:"t"`
	Dir  string `json:"d,omitempty"`
}

// Point is a board cell on the wire.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// StateMsg carries one snapshot.
type StateMsg struct {
	Type   string  `json:"t"`
	Tick   uint64  `json:"tick"`
	Width  int     `json:"w"`
	Height int     `json:"h"`
	Head   Point   `json:"head"`
	Body   []Point `json:"body"`
	Dir    string  `json:"dir"`
	Fruit  Point   `json:"fruit"`
	Status string  `json:"status"`
	Score  int     `json:"score"`
	Length int     `json:"len"`
	Paused bool    `json:"paused"`
}

// EatenMsg reports the cell where a fruit was consumed.
type EatenMsg struct {
	Type string `json:"t"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

// FaultMsg is the last message before the server closes a crashed session.
type FaultMsg struct {
	Type  string `json:"t"`
	Error string `json:"error"`
}

func toPoint(p core.Position) Point {
	return Point{X: p.X, Y: p.Y}
}

func newStateMsg(snap snake.Snapshot) StateMsg {
	body := make([]Point, len(snap.Body))
	for i, p := range snap.Body {
		body[i] = toPoint(p)
	}
	return StateMsg{
		Type:   MsgState,
		Tick:   snap.Tick,
		Width:  snap.Width,
		Height: snap.Height,
		Head:   toPoint(snap.Head),
		Body:   body,
		Dir:    snap.Dir.String(),
		Fruit:  toPoint(snap.Fruit),
		Status: string(snap.Status),
		Score:  snap.Score,
		Length: snap.Growth,
		Paused: snap.Paused,
	}
}
