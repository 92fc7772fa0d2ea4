package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/junedali-patel/codemind1/backend/internal/infrastructure/config"
	"github.com/junedali-patel/codemind1/backend/internal/infrastructure/logging"
	"github.com/junedali-patel/codemind1/backend/internal/infrastructure/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Falling back to default configuration: %v", err)
		cfg = config.Default()
	}

	// Parse flags (override environment)
	port := flag.String("port", cfg.Server.Port, "Server port")
	dev := flag.Bool("dev", cfg.Logging.Development, "Development mode (colored logs, debug level)")
	terminalEnabled := flag.Bool("terminal", cfg.Terminal.Enabled, "Enable interactive terminal sessions")
	workspacesFile := flag.String("workspaces", cfg.Workspace.File, "YAML or TOML file of workspace sessions")
	flag.Parse()

	cfg.Server.Port = *port
	cfg.Logging.Development = *dev
	if *dev {
		cfg.Logging.Level = "debug"
	}
	cfg.Terminal.Enabled = *terminalEnabled
	cfg.Workspace.File = *workspacesFile

	logger := logging.FromSettings(cfg.Logging.Level, cfg.Logging.Development)

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create server", zap.Error(err))
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := srv.Run(); err != nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case sig := <-sigChan:
		logger.Info("Shutting down gracefully...", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Error during shutdown", zap.Error(err))
		}
	case err := <-errChan:
		logger.Fatal("Server error", zap.Error(err))
	}
}
