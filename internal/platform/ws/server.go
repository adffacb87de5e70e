package ws

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/rsnake/internal/games/snake"
	"github.com/vovakirdan/rsnake/internal/storage"
)

// Path is the WebSocket endpoint.
const Path = "/ws"

// RunSaver persists finished runs. *storage.Store implements it.
type RunSaver interface {
	SaveRun(run storage.Run) (storage.Run, error)
}

// ServerConfig holds configuration for the WebSocket server.
type ServerConfig struct {
	// Address is the host:port to listen on (e.g., ":8080").
	Address string

	// Engine is the game configuration for every connection. Seed is
	// ignored: each connection gets its own clock-derived seed.
	Engine snake.Config

	// FrameRate is how many snapshots per second are pushed to clients.
	FrameRate int
}

// Server runs one engine per WebSocket connection.
type Server struct {
	config   ServerConfig
	store    RunSaver
	logger   *log.Logger
	upgrader websocket.Upgrader
	http     *http.Server

	mu    sync.Mutex
	conns map[uuid.UUID]*Conn
	quit  chan struct{}
	once  sync.Once
}

// NewServer creates a WebSocket server. store may be nil.
func NewServer(cfg ServerConfig, store RunSaver, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "rsnake-ws",
		})
	}
	if cfg.FrameRate <= 0 {
		cfg.FrameRate = 30
	}

	s := &Server{
		config: cfg,
		store:  store,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Browser clients are served from anywhere.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		conns: make(map[uuid.UUID]*Conn),
		quit:  make(chan struct{}),
	}
	s.http = &http.Server{
		Addr:              cfg.Address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the HTTP handler serving Path.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(Path, s.serveWS)
	return mux
}

// serveWS upgrades the request and runs a session until either side leaves.
// The optional "player" query parameter is recorded with saved runs.
func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	defer ws.Close()

	engineCfg := s.config.Engine
	engineCfg.Seed = time.Now().UnixNano()

	id := uuid.New()
	logger := s.logger.With("conn", id.String())
	game := snake.New(engineCfg, snake.WithLogger(logger))
	c := newConn(id, ws, game, s.store, r.URL.Query().Get("player"), logger)
	defer func() {
		if err := c.game.Close(); err != nil {
			c.logger.Error("session engine failed", "err", err)
		}
	}()

	s.add(c)
	defer s.remove(c.ID)

	start := time.Now()
	c.logger.Info("session started", "remote", r.RemoteAddr, "player", c.Player)
	defer func() {
		c.logger.Info("session ended", "duration", time.Since(start).Round(time.Second))
	}()

	if err := c.game.Start(); err != nil {
		_ = c.send(FaultMsg{Type: MsgFault, Error: err.Error()})
		return
	}

	done := make(chan struct{})
	go func() {
		c.readLoop()
		close(done)
	}()

	interval := time.Second / time.Duration(s.config.FrameRate)
	if err := c.writeLoop(interval, done, s.quit); err != nil {
		c.logger.Warn("session closed", "err", err)
	}

	// Unblock the reader and wait for it before the engine goes away.
	_ = ws.Close()
	<-done
}

func (s *Server) add(c *Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[c.ID] = c
}

func (s *Server) remove(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, id)
}

// Count returns the number of open sessions.
func (s *Server) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// ListenAndServe starts the WebSocket server and blocks until ctx is
// canceled or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("ws server: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is canceled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info("starting WebSocket server", "address", ln.Addr().String(), "path", Path)

	errCh := make(chan error, 1)
	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ws server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down WebSocket server")
	return s.Shutdown()
}

// Shutdown stops accepting connections and ends every open session.
func (s *Server) Shutdown() error {
	s.once.Do(func() { close(s.quit) })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.http.Shutdown(ctx)
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.config.Address
}
