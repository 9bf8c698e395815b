// Package main is the entry point for the notes API server.
//
// MAIN PACKAGE IN GO:
// The main package should be kept minimal. Its job is to:
// 1. Read configuration (env vars, optionally from a .env file)
// 2. Create the logger and make sure data directories exist
// 3. Start the application
//
// All actual logic lives in imported packages (internal/server, internal/service, etc.).
//
// WHY cmd/server/?
// The cmd/ directory is a Go convention for executable entry points.
// Each executable gets its own directory with its own main.go.
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/notes-api/internal/config"
	"github.com/sakif/notes-api/internal/server"
)

func main() {
	// === 1. READ CONFIGURATION ===
	// .env is optional; real environment variables take precedence over it.
	cfg, err := config.Load(".env")
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. SET UP LOGGING ===
	// JSON lines in production so log shippers can parse them; readable text
	// with debug level when DEBUG=true.
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	if cfg.Debug {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	// === 3. DATA DIRECTORIES ===
	// os.MkdirAll is `mkdir -p`. 0755 = owner rwx, others r-x.
	for _, dir := range []string{filepath.Dir(cfg.DBPath), cfg.Upload.Dir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Error("failed to create data directory",
				slog.String("dir", dir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	if cfg.MailFrom != "" {
		// Nothing sends mail yet; the sender is only reported.
		logger.Info("mail sender configured", slog.String("from", cfg.MailFrom))
	}

	// === 4. CREATE AND START THE SERVER ===
	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
