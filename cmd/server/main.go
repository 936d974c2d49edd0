// Package main is the entry point for the CodeMaster API server.
//
// main only reads configuration from the environment (optionally seeded from
// a .env file), builds the logger and the Java syntax checker, and hands
// everything to internal/server.
//
// Environment:
//
//	PORT                listen port (default 8080)
//	DB_PATH             SQLite file (default data/codemaster.db)
//	JWT_SECRET          HS256 signing key, at least 16 characters (required)
//	TOKEN_TTL           session token lifetime, e.g. 10h (default 10h)
//	LOG_LEVEL           debug, info, warn or error (default info)
//	GITHUB_API          GitHub REST base URL (default https://api.github.com)
//	COMPILER_IMAGE      JDK image for syntax checks
//	COMPILER_POOL_SIZE  pre-warmed compiler containers
package main

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/sakif/codemaster/internal/compiler"
	"github.com/sakif/codemaster/internal/compiler/docker"
	"github.com/sakif/codemaster/internal/server"
)

func main() {
	// A missing .env is normal in production.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env", slog.String("error", err.Error()))
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(os.Getenv("LOG_LEVEL")),
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

	var tokenTTL time.Duration
	if ttlStr := os.Getenv("TOKEN_TTL"); ttlStr != "" {
		var err error
		tokenTTL, err = time.ParseDuration(ttlStr)
		if err != nil {
			logger.Error("invalid TOKEN_TTL value", slog.String("value", ttlStr))
			os.Exit(1)
		}
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Error("JWT_SECRET is required; generate one with: openssl rand -hex 32")
		os.Exit(1)
	}

	dbPath := "data/codemaster.db"
	if envDB := os.Getenv("DB_PATH"); envDB != "" {
		dbPath = envDB
	}
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", dbDir),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// The compiler is optional: without Docker the server still starts and
	// /snippets/validate answers with compiler.UnavailableMessage.
	dockerCfg := docker.DefaultConfig()
	if image := os.Getenv("COMPILER_IMAGE"); image != "" {
		dockerCfg.Image = image
	}
	if sizeStr := os.Getenv("COMPILER_POOL_SIZE"); sizeStr != "" {
		size, err := strconv.Atoi(sizeStr)
		if err != nil || size < 1 {
			logger.Error("invalid COMPILER_POOL_SIZE value", slog.String("value", sizeStr))
			os.Exit(1)
		}
		dockerCfg.PoolSize = size
	}

	var checker compiler.Checker = compiler.Unavailable{}
	compilerName := "unavailable"
	dockerChecker, err := docker.New(dockerCfg, logger)
	if err != nil {
		logger.Warn("Docker compiler unavailable, syntax validation is disabled",
			slog.String("error", err.Error()),
		)
	} else {
		defer dockerChecker.Close()
		checker = dockerChecker
		compilerName = "docker"
	}

	srv, err := server.New(server.Config{
		Port:         port,
		DBPath:       dbPath,
		JWTSecret:    jwtSecret,
		TokenTTL:     tokenTTL,
		GitHubAPI:    os.Getenv("GITHUB_API"),
		CompilerName: compilerName,
	}, logger, checker)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
