// Command codemaster is the terminal client for the CodeMaster snippet
// service.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sakif/codemaster/internal/client"
	"github.com/sakif/codemaster/internal/config"
	"github.com/sakif/codemaster/internal/session"
	"github.com/sakif/codemaster/internal/ui"
	"github.com/sakif/codemaster/internal/workspace"
)

var version = "dev"

func main() {
	defaultPath, err := config.DefaultPath()
	if err != nil {
		defaultPath = "config.yaml"
	}
	configPath := flag.String("config", defaultPath, "path to the config file")
	baseURL := flag.String("base-url", "", "API base URL, overrides the config file")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("codemaster", version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *baseURL != "" {
		cfg.BaseURL = *baseURL
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := session.Open(ctx, session.Options{
		Backend:       cfg.Session.Backend,
		Path:          cfg.Session.Path,
		RedisAddr:     cfg.Session.RedisAddr,
		RedisPassword: cfg.Session.RedisPassword,
		RedisPrefix:   cfg.Session.RedisPrefix,
	})
	if err != nil {
		logger.Error("failed to open session store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if closer, ok := store.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	api := client.New(cfg.BaseURL,
		client.WithTimeout(cfg.Timeout),
		client.WithLogger(logger),
	)
	ctrl := workspace.New(api, store,
		ui.NewNotifier(ui.WithTTL(cfg.Notifications.TTL), ui.WithMax(cfg.Notifications.Max)),
		ui.NewModal(),
		workspace.Options{Language: cfg.Language, Logger: logger},
	)

	sh := &shell{
		ctrl:     ctrl,
		flow:     client.NewDeviceFlow(cfg.GitHub.ClientID, nil),
		out:      os.Stdout,
		renderer: ui.NewRenderer(os.Stdout),
	}

	if err := ctrl.Start(ctx); err != nil {
		logger.Debug("initial load failed", slog.String("error", err.Error()))
	}
	sh.render()

	if err := sh.run(ctx, bufio.NewScanner(os.Stdin)); err != nil && ctx.Err() == nil {
		logger.Error("input error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	}
	return slog.LevelWarn
}
