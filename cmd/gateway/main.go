package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storyboarder/internal/gateway/app"
	"storyboarder/internal/gateway/config"
	"storyboarder/internal/logging"
)

func main() {
	// Load reads .env, so the logger is built after it.
	cfg, err := config.Load()
	logger := logging.FromEnv()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	a, err := app.NewWithConfig(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to initialize app", "error", err)
		os.Exit(1)
	}

	go func() {
		if err := a.Start(); err != nil {
			logger.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server exiting")
}
