package ws

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/rsnake/internal/core"
	"github.com/vovakirdan/rsnake/internal/games/snake"
	"github.com/vovakirdan/rsnake/internal/storage"
)

const (
	maxMessageSize = 512
	writeWait      = 2 * time.Second
)

// Conn is one WebSocket player session and its engine.
type Conn struct {
	ID     uuid.UUID
	Player string

	ws     *websocket.Conn
	game   *snake.Game
	store  RunSaver
	logger *log.Logger
	saved  bool // Whether the current game over has been persisted
}

func newConn(id uuid.UUID, ws *websocket.Conn, game *snake.Game, store RunSaver, player string, logger *log.Logger) *Conn {
	return &Conn{
		ID:     id,
		Player: player,
		ws:     ws,
		game:   game,
		store:  store,
		logger: logger,
	}
}

// send serializes msg to JSON and writes it as a text frame.
// Only the write loop calls it.
func (c *Conn) send(msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// readLoop applies client messages until the peer disconnects.
func (c *Conn) readLoop() {
	c.ws.SetReadLimit(maxMessageSize)
	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("ws read failed", "err", err)
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.logger.Debug("bad message", "err", err)
			continue
		}
		c.handle(msg)
	}
}

// handle applies one client message to the engine.
func (c *Conn) handle(msg ClientMessage) {
	switch msg.Type {
	case MsgDirection:
		if d, ok := core.ParseDirection(msg.Dir); ok {
			c.game.Input(d)
		}

	case MsgRestart:
		if c.game.Status() != snake.StatusGameOver {
			return
		}
		// A failed restart leaves the fault set; the write loop reports it.
		if err := c.game.Restart(); err != nil {
			c.logger.Error("restart failed", "err", err)
		}

	case MsgPause:
		if c.game.Status() == snake.StatusGameOver {
			return
		}
		if err := c.game.TogglePause(); err != nil {
			c.logger.Error("pause toggle failed", "err", err)
		}
	}
}

// writeLoop pushes one frame per interval until done or quit is closed,
// a write fails, or the engine faults.
func (c *Conn) writeLoop(interval time.Duration, done, quit <-chan struct{}) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return nil
		case <-quit:
			c.closeWith(websocket.CloseGoingAway, "server shutting down")
			return nil
		case <-ticker.C:
		}

		if err := c.game.Err(); err != nil {
			_ = c.send(FaultMsg{Type: MsgFault, Error: err.Error()})
			c.closeWith(websocket.CloseInternalServerErr, "engine fault")
			return err
		}
		if err := c.frame(); err != nil {
			return fmt.Errorf("ws write: %w", err)
		}
	}
}

// frame sends the pending fruit event, if any, followed by a snapshot.
func (c *Conn) frame() error {
	if p, ok := c.game.TakeFruitEaten(); ok {
		if err := c.send(EatenMsg{Type: MsgEaten, X: p.X, Y: p.Y}); err != nil {
			return err
		}
	}

	snap := c.game.Snapshot()
	if snap.GameOver() {
		if !c.saved {
			c.saved = true
			c.saveRun(snap)
		}
	} else {
		c.saved = false
	}
	return c.send(newStateMsg(snap))
}

// saveRun persists a finished game. Zero-score runs are skipped.
func (c *Conn) saveRun(snap snake.Snapshot) {
	if c.store == nil || snap.Score == 0 {
		return
	}
	run, err := c.store.SaveRun(storage.Run{
		Board:  fmt.Sprintf("%dx%d", snap.Width, snap.Height),
		Score:  snap.Score,
		Length: snap.Growth,
		Ticks:  snap.Tick,
		Player: c.Player,
	})
	if err != nil {
		c.logger.Warn("could not save run", "err", err)
		return
	}
	c.logger.Info("run saved", "run", run.RunID, "score", run.Score)
}

func (c *Conn) closeWith(code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}
