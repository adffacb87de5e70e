package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/rsnake/internal/platform/tui"
	"github.com/vovakirdan/rsnake/internal/platform/ws"
)

var (
	flagSSHAddr     string
	flagHostKey     string
	flagIdleTimeout int
	flagWSAddr      string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the rsnake SSH server",
	Long: `Start an SSH server that lets users connect and play snake.

Each SSH connection gets its own game engine. Runs are stored per-server
(all users share the same leaderboard). With --ws, the same games are also
served over WebSocket at /ws using a compact JSON protocol.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, the key from the config (generated on first start)

Examples:
  rsnake serve                        # SSH on the configured address
  rsnake serve --ssh :2222            # Listen on port 2222
  rsnake serve --ws :8080             # Also serve ws://host:8080/ws
  rsnake serve --idle-timeout 5       # Disconnect after 5 idle minutes

Users can connect with:
  ssh localhost -p 2222`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", "", "SSH server address (host:port, overrides config)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (overrides config)")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 0, "Idle timeout in minutes (overrides config)")
	serveCmd.Flags().StringVar(&flagWSAddr, "ws", "", "WebSocket server address (disabled if empty)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, source, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if flagSSHAddr != "" {
		cfg.Server.SSHAddr = flagSSHAddr
	}
	if flagHostKey != "" {
		cfg.Server.HostKey = flagHostKey
	}
	if flagIdleTimeout > 0 {
		cfg.Server.IdleTimeout = time.Duration(flagIdleTimeout) * time.Minute
	}
	if flagWSAddr != "" {
		cfg.Server.WSAddr = flagWSAddr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, closeLog, err := newLogger("rsnake", os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()
	logger.Info("config loaded", "source", source, "board", cfg.BoardName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var runStore tui.RunStore
	var wsStore ws.RunSaver
	if store := openStore(cfg, logger); store != nil {
		defer store.Close()
		runStore, wsStore = store, store
	}

	sshServer, err := tui.NewSSHServer(tui.SSHServerConfig{
		Address:     cfg.Server.SSHAddr,
		HostKeyPath: cfg.Server.HostKey,
		IdleTimeout: cfg.Server.IdleTimeout,
		Engine:      engineConfig(cfg),
		FrameRate:   cfg.Display.FrameRate,
	}, runStore, logger.WithPrefix("rsnake-ssh"))
	if err != nil {
		return err
	}

	servers := []func(context.Context) error{sshServer.ListenAndServe}
	if cfg.Server.WSAddr != "" {
		wsServer := ws.NewServer(ws.ServerConfig{
			Address:   cfg.Server.WSAddr,
			Engine:    engineConfig(cfg),
			FrameRate: cfg.Display.FrameRate,
		}, wsStore, logger.WithPrefix("rsnake-ws"))
		servers = append(servers, wsServer.ListenAndServe)
	}

	// The first server to fail takes the others down with it.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	for _, serve := range servers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := serve(ctx); err != nil {
				errOnce.Do(func() { firstErr = err })
				cancel()
			}
		}()
	}
	wg.Wait()
	return firstErr
}
