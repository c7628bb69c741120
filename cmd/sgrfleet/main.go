package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sglre6355/sgrfleet/internal/bot"
	_ "github.com/sglre6355/sgrfleet/internal/modules/music_player"
)

// version is set at build time via ldflags:
// go build -ldflags "-X main.version=1.0.0" ./cmd/sgrfleet
var version = "dev"

// startTimeout bounds connecting every session and Lavalink node.
const startTimeout = time.Minute

func main() {
	level := new(slog.LevelVar)
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	if err := run(level); err != nil {
		slog.Error("sgrfleet exited with error", "error", err)
		os.Exit(1)
	}
}

func run(level *slog.LevelVar) error {
	slog.Info("starting sgrfleet", "version", version)

	if err := bot.LoadDotEnv(); err != nil {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	cfg, err := bot.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	level.Set(cfg.LogLevel)

	b := bot.NewBot(cfg)
	b.LoadModules()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, startTimeout)
	err = b.Start(startCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	slog.Info("sgrfleet is running", "workers", len(cfg.WorkerTokens))

	<-ctx.Done()
	slog.Info("received termination signal, shutting down")

	if err := b.Stop(); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	slog.Info("completed shutdown")
	return nil
}
