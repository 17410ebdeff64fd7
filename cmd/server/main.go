// Package main is the entry point for the codevault server.
//
// The main package is kept minimal — its job is to:
// 1. Read configuration (from env vars)
// 2. Create dependencies (logger)
// 3. Start the application
//
// All actual logic lives in imported packages (internal/server,
// internal/handler, etc.). This separation makes the app testable and its
// components reusable.
//
// WHY cmd/server/?
// The cmd/ directory is a Go convention for executable entry points.
// A project might have multiple executables (e.g., cmd/server, cmd/migrate).
// Each gets its own directory with its own main.go.
package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sakif/codevault/internal/server"
)

// CONFIGURATION (all via env vars):
//
//	PORT          HTTP port (default 8080)
//	STORE_BACKEND "sqlite" (default) or "jsonfile"
//	DB_PATH       sqlite database file (default data/codevault.db)
//	STORE_DIR     jsonfile directory (default data/store)
//	JWT_SECRET    HMAC key for session tokens — required, ≥16 chars.
//	              Generate one with: openssl rand -hex 32
//	SESSION_TTL   session lifetime, Go duration syntax (default 24h)
//	LOG_LEVEL     debug, info, warn, or error (default info)
func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(os.Getenv("LOG_LEVEL")),
	}))

	port := 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		var err error
		port, err = strconv.Atoi(portStr)
		if err != nil {
			logger.Error("invalid PORT value", slog.String("value", portStr))
			os.Exit(1)
		}
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Error("JWT_SECRET is required (openssl rand -hex 32)")
		os.Exit(1)
	}

	var sessionTTL time.Duration
	if ttlStr := os.Getenv("SESSION_TTL"); ttlStr != "" {
		var err error
		sessionTTL, err = time.ParseDuration(ttlStr)
		if err != nil {
			logger.Error("invalid SESSION_TTL value", slog.String("value", ttlStr))
			os.Exit(1)
		}
	}

	backend := os.Getenv("STORE_BACKEND")

	dbPath := "data/codevault.db"
	if envDB := os.Getenv("DB_PATH"); envDB != "" {
		dbPath = envDB
	}

	storeDir := "data/store"
	if envDir := os.Getenv("STORE_DIR"); envDir != "" {
		storeDir = envDir
	}

	// Both backends live under data/ by default; create it up front so the
	// first open doesn't fail on a fresh checkout.
	for _, dir := range []string{filepath.Dir(dbPath), storeDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Error("failed to create data directory",
				slog.String("dir", dir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	cfg := server.Config{
		Port:         port,
		StoreBackend: backend,
		DBPath:       dbPath,
		StoreDir:     storeDir,
		JWTSecret:    jwtSecret,
		SessionTTL:   sessionTTL,
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM).
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
