package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"github.com/Tyrowin/roomrelay/internal/server"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
	}
	os.Exit(code)
}

// run wires the relay and blocks until a shutdown signal or a server failure.
// It returns the process exit code.
func run() (int, error) {
	// A missing .env file is fine.
	_ = godotenv.Load()

	cfg, err := server.NewConfigFromEnv()
	if err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(cfg.LogLevel)

	hub, err := server.NewChatHub(*cfg, log)
	if err != nil {
		return exitConfig, err
	}
	go hub.Run()

	httpServer := server.CreateServer(cfg.Port, server.SetupRoutes(hub))
	errCh := make(chan error, 1)
	go func() {
		if err := server.StartServer(httpServer, log); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	log.Info("Room relay started",
		"rooms", cfg.DefaultRoomNames(),
		"collision_policy", cfg.RoomCollision,
		"health", "http://localhost"+cfg.Port+"/",
		"test_page", "http://localhost"+cfg.Port+"/test")

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"http": func(ctx context.Context) error {
				return server.ShutdownServer(ctx, httpServer, log)
			},
			"hub": func(ctx context.Context) error {
				return hub.Shutdown(remaining(ctx, cfg.ShutdownTimeout))
			},
		},
	)

	select {
	case err := <-errCh:
		_ = hub.Shutdown(cfg.ShutdownTimeout)
		return exitRuntime, fmt.Errorf("http server: %w", err)
	case code := <-wait:
		log.Info("Room relay exited", "code", code)
		if code != exitOK {
			return exitRuntime, errors.New("shutdown did not complete cleanly")
		}
		return exitOK, nil
	}
}

// remaining is the time left before ctx expires, or fallback without a deadline.
func remaining(ctx context.Context, fallback time.Duration) time.Duration {
	if deadline, ok := ctx.Deadline(); ok {
		return time.Until(deadline)
	}
	return fallback
}
