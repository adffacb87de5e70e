package ws

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/rsnake/internal/core"
	"github.com/vovakirdan/rsnake/internal/games/snake"
	"github.com/vovakirdan/rsnake/internal/storage"
)

type fakeSaver struct {
	mu   sync.Mutex
	runs []storage.Run
}

func (f *fakeSaver) SaveRun(run storage.Run) (storage.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, run)
	return run, nil
}

func startServer(t *testing.T, engine snake.Config) (*Server, string) {
	t.Helper()
	srv := NewServer(ServerConfig{Engine: engine, FrameRate: 50}, nil, log.New(io.Discard))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	t.Cleanup(func() { _ = srv.Shutdown() })
	return srv, "ws" + strings.TrimPrefix(ts.URL, "http") + Path
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func sendJSON(t *testing.T, c *websocket.Conn, v any) {
	t.Helper()
	if err := c.WriteJSON(v); err != nil {
		t.Fatalf("WriteJSON() error: %v", err)
	}
}

// readUntil reads server frames until match accepts a snapshot.
func readUntil(t *testing.T, c *websocket.Conn, match func(StateMsg) bool) StateMsg {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	_ = c.SetReadDeadline(deadline)
	for {
		_, raw, err := c.ReadMessage()
		if err != nil {
			t.Fatalf("ReadMessage() error: %v", err)
		}
		var head struct {
			Type string `json:"t"`
		}
		if err := json.Unmarshal(raw, &head); err != nil {
			t.Fatalf("server sent invalid JSON %q: %v", raw, err)
		}
		if head.Type != MsgState {
			continue
		}
		var msg StateMsg
		if err := json.Unmarshal(raw, &msg); err != nil {
			t.Fatalf("bad state message %q: %v", raw, err)
		}
		if match(msg) {
			return msg
		}
	}
}

func anyState(StateMsg) bool { return true }

func TestServerStreamsSnapshots(t *testing.T) {
	_, url := startServer(t, snake.Config{Width: 20, Height: 20, TickRate: 10})
	c := dial(t, url)

	msg := readUntil(t, c, anyState)
	if msg.Width != 20 || msg.Height != 20 {
		t.Errorf("Board = %dx%d, expected 20x20", msg.Width, msg.Height)
	}
	if msg.Status != string(snake.StatusPlaying) {
		t.Errorf("Status = %q, expected playing", msg.Status)
	}
	if msg.Paused {
		t.Error("A connected session should be running")
	}
	if msg.Dir != "down" {
		t.Errorf("Dir = %q, expected down", msg.Dir)
	}
	if len(msg.Body) != snake.InitialTailLength {
		t.Errorf("Body has %d cells, expected %d", len(msg.Body), snake.InitialTailLength)
	}
}

func TestServerPauseToggle(t *testing.T) {
	_, url := startServer(t, snake.Config{Width: 50, Height: 50, TickRate: 10})
	c := dial(t, url)
	readUntil(t, c, anyState)

	sendJSON(t, c, ClientMessage{Type: MsgPause})
	paused := readUntil(t, c, func(m StateMsg) bool { return m.Paused })

	// Frozen: the tick counter stays put while paused.
	again := readUntil(t, c, anyState)
	if again.Tick != paused.Tick {
		t.Errorf("Tick moved from %d to %d while paused", paused.Tick, again.Tick)
	}

	sendJSON(t, c, ClientMessage{Type: MsgPause})
	readUntil(t, c, func(m StateMsg) bool { return !m.Paused })
}

func TestServerGameOverAndRestart(t *testing.T) {
	_, url := startServer(t, snake.Config{Width: 3, Height: 3, TickRate: 10})
	c := dial(t, url)

	readUntil(t, c, func(m StateMsg) bool { return m.Status == string(snake.StatusGameOver) })

	sendJSON(t, c, ClientMessage{Type: MsgPause})
	if m := readUntil(t, c, anyState); m.Paused {
		t.Error("Pause should be ignored after game over")
	}

	sendJSON(t, c, ClientMessage{Type: MsgRestart})
	fresh := readUntil(t, c, func(m StateMsg) bool { return m.Status == string(snake.StatusPlaying) })
	if fresh.Paused {
		t.Error("A restarted session should be running")
	}
}

func TestServerIgnoresBadMessages(t *testing.T) {
	_, url := startServer(t, snake.Config{Width: 20, Height: 20, TickRate: 10})
	c := dial(t, url)

	if err := c.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("WriteMessage() error: %v", err)
	}
	sendJSON(t, c, ClientMessage{Type: "z"})
	sendJSON(t, c, ClientMessage{Type: MsgDirection, Dir: "sideways"})
	sendJSON(t, c, ClientMessage{Type: MsgRestart})

	msg := readUntil(t, c, anyState)
	if msg.Status != string(snake.StatusPlaying) || msg.Paused {
		t.Errorf("Bad messages changed the session: %+v", msg)
	}
}

func waitCount(t *testing.T, srv *Server, n int) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for srv.Count() != n {
		if time.Now().After(deadline) {
			t.Fatalf("Count() = %d, expected %d", srv.Count(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestServerTracksSessions(t *testing.T) {
	srv, url := startServer(t, snake.Config{Width: 20, Height: 20, TickRate: 10})

	c := dial(t, url)
	waitCount(t, srv, 1)

	_ = c.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = c.Close()
	waitCount(t, srv, 0)
}

func TestServerShutdownClosesSessions(t *testing.T) {
	srv, url := startServer(t, snake.Config{Width: 20, Height: 20, TickRate: 10})
	c := dial(t, url)
	readUntil(t, c, anyState)

	if err := srv.Shutdown(); err != nil {
		t.Fatalf("Shutdown() error: %v", err)
	}

	_ = c.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		_, _, err := c.ReadMessage()
		if err == nil {
			continue
		}
		if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
			t.Errorf("Read after shutdown = %v, expected going away", err)
		}
		break
	}
	waitCount(t, srv, 0)
}

func TestConnHandle(t *testing.T) {
	game := snake.New(snake.Config{Width: 20, Height: 20, TickRate: 1, Seed: 3})
	t.Cleanup(func() { _ = game.Close() })
	c := &Conn{game: game, logger: log.New(io.Discard)}

	c.handle(ClientMessage{Type: MsgPause})
	if game.Paused() {
		t.Fatal("Pause toggle should resume a fresh game")
	}

	before := game.Snapshot()
	c.handle(ClientMessage{Type: MsgRestart})
	if after := game.Snapshot(); after.Head != before.Head || after.Fruit != before.Fruit {
		t.Error("Restart while playing should be ignored")
	}

	c.handle(ClientMessage{Type: MsgDirection, Dir: "left"})
	game.Step()
	if d := game.Snapshot().Dir; d != core.DirLeft {
		t.Errorf("Dir = %v, expected left", d)
	}
}

func TestConnSaveRun(t *testing.T) {
	saver := &fakeSaver{}
	c := &Conn{Player: "bob", store: saver, logger: log.New(io.Discard)}

	c.saveRun(snake.Snapshot{Width: 12, Height: 8, Score: 20, Growth: 2, Tick: 55})
	c.saveRun(snake.Snapshot{Width: 12, Height: 8, Score: 0})

	if len(saver.runs) != 1 {
		t.Fatalf("Saved %d runs, expected 1", len(saver.runs))
	}
	run := saver.runs[0]
	if run.Board != "12x8" || run.Score != 20 || run.Length != 2 || run.Ticks != 55 || run.Player != "bob" {
		t.Errorf("Saved run = %+v", run)
	}
}

func TestNewStateMsg(t *testing.T) {
	snap := snake.Snapshot{
		Tick:   7,
		Width:  10,
		Height: 10,
		Head:   core.Position{X: 4, Y: 5},
		Body:   []core.Position{{X: 4, Y: 4}, {X: 4, Y: 3}},
		Dir:    core.DirRight,
		Fruit:  core.Position{X: 1, Y: 2},
		Status: snake.StatusGameOver,
		Score:  10,
		Growth: 1,
	}

	msg := newStateMsg(snap)
	if msg.Type != MsgState || msg.Dir != "right" || msg.Status != "game_over" {
		t.Errorf("newStateMsg() = %+v", msg)
	}
	if msg.Head != (Point{X: 4, Y: 5}) || msg.Fruit != (Point{X: 1, Y: 2}) {
		t.Errorf("Head/Fruit = %+v/%+v", msg.Head, msg.Fruit)
	}
	if len(msg.Body) != 2 || msg.Body[1] != (Point{X: 4, Y: 3}) {
		t.Errorf("Body = %+v", msg.Body)
	}

	data, err := json.Marshal(EatenMsg{Type: MsgEaten, X: 3, Y: 9})
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	if string(data) != `{"t":"e","x":3,"y":9}` {
		t.Errorf("EatenMsg JSON = %s", data)
	}
}
