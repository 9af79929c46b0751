// Package main is the entry point for the Well Wishers API server.
//
// The main package stays minimal. It:
//  1. builds the logger
//  2. loads configuration (env, .env, optional YAML)
//  3. makes sure the database directory exists
//  4. hands everything to internal/server
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/wellwishers/internal/config"
	"github.com/sakif/wellwishers/internal/server"
)

func main() {
	// === 1. SET UP LOGGING ===
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	// === 2. READ CONFIGURATION ===
	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 3. DATABASE DIRECTORY ===
	// Like `mkdir -p`. Skipped for in-memory databases.
	if cfg.DBPath != ":memory:" {
		dbDir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dbDir, 0o755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dbDir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	schedule, _ := cfg.Schedule()
	logger.Info("reveal window configured",
		slog.Int("month", int(schedule.Month)),
		slog.Int("day", schedule.Day),
		slog.Int("year", schedule.Year),
		slog.Duration("length", schedule.Length),
		slog.String("timezone", schedule.Location.String()),
		slog.Bool("rollover", schedule.Rollover),
	)

	// === 4. CREATE AND START THE SERVER ===
	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT or SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
