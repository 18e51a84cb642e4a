package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/smartbulldog-pro/TeamFlow/internal/api/routes"
	"github.com/smartbulldog-pro/TeamFlow/internal/config"
	"github.com/smartbulldog-pro/TeamFlow/internal/realtime"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	setupLogger(cfg)
	slog.Info("starting relay", "port", cfg.Port, "env", cfg.Env)

	hub := realtime.NewHub()

	// Optional cross-instance fan-out; the relay is single-instance without it.
	if cfg.RedisURL != "" {
		bridge, err := realtime.NewRedisBridge(context.Background(), cfg.RedisURL)
		if err != nil {
			slog.Error("failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer bridge.Close()
		hub.AttachBridge(bridge)
		slog.Info("redis bridge attached")
	}

	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()
	go hub.Run(runCtx)

	router := routes.NewRouter(cfg, hub)
	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("listener failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")

	// Stop accepting new connections, then close every live one.
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	hub.Shutdown()
	cancelRun()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("stopped")
}

func setupLogger(cfg *config.Config) {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.Env == "prod" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(handler))
}
