// Package main is the entry point for the users/tasks API server.
//
// MAIN STAYS MINIMAL:
// Its whole job is to
//  1. read configuration from the environment (internal/config)
//  2. build the logger every other package receives
//  3. make sure a file-backed SQLite database has a directory to live in
//  4. hand everything to internal/server and block until shutdown
//
// All request handling, validation and storage lives in internal/, so the
// same server can be built from tests without going through main.
package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/sakif/taskapi/internal/config"
	"github.com/sakif/taskapi/internal/repository/sqlstore"
	"github.com/sakif/taskapi/internal/server"
)

func main() {
	// === 1. READ CONFIGURATION ===
	// config.Load validates every variable and reports all problems at once
	// (errors.Join), so a bad deployment fails here with one message instead
	// of one restart per typo. The logger does not exist yet, so the default
	// slog logger prints the error.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. SET UP LOGGING ===
	// LOG_LEVEL and LOG_FORMAT pick the level and text/JSON output.
	// SetDefault routes package-level slog calls through the same handler.
	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	// === 3. DATABASE DIRECTORY ===
	// A file-backed SQLite database needs its directory to exist.
	// os.MkdirAll is like `mkdir -p` and is a no-op when it already does.
	// PostgreSQL and MySQL DSNs, ":memory:" and "file:" URIs are left alone.
	if cfg.DBDriver == sqlstore.DriverSQLite && isFilePath(cfg.DBDSN) {
		dbDir := filepath.Dir(cfg.DBDSN)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dbDir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	// === 4. CREATE AND START THE SERVER ===
	// server.New opens the database, creates missing tables and wires the
	// routes. The context only bounds that startup work.
	srv, err := server.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until the server is shut down (Ctrl+C or SIGTERM).
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// isFilePath reports whether a SQLite DSN names a plain file, as opposed
// to ":memory:" or a "file:" URI.
func isFilePath(dsn string) bool {
	return dsn != ":memory:" && !strings.HasPrefix(dsn, "file:")
}
