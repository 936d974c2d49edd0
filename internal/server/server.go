// Package server sets up the HTTP server, router, and all route definitions.
//
// It is the composition root of the API: New opens the database and builds
// repository → service → handler chains, and setupRoutes decides which URL
// patterns map to which handlers and which middleware guards them.
// Keeping this out of main.go means tests can build the full router with an
// in-memory database and a fake compiler.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/codemaster/internal/auth"
	"github.com/sakif/codemaster/internal/compiler"
	"github.com/sakif/codemaster/internal/handler"
	"github.com/sakif/codemaster/internal/middleware"
	sqliteRepo "github.com/sakif/codemaster/internal/repository/sqlite"
	"github.com/sakif/codemaster/internal/service"
)

// Config holds server configuration. main.go fills it from the environment.
type Config struct {
	Port      int
	DBPath    string
	JWTSecret string
	TokenTTL  time.Duration // zero means auth.DefaultTokenTTL

	// GitHubAPI overrides the GitHub REST base URL used to verify tokens
	// posted to /auth/github. Empty means https://api.github.com.
	GitHubAPI string

	// CompilerName is reported by /healthz ("docker" or "unavailable").
	CompilerName string
}

// Server owns the router and the database connection. The database is closed
// when Start returns, or by Close for servers that were never started.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New opens the database and wires every route. checker validates Java
// source for POST /snippets/validate; pass compiler.Unavailable{} when no
// Docker daemon is reachable.
func New(cfg Config, logger *slog.Logger, checker compiler.Checker) (*Server, error) {
	if checker == nil {
		checker = compiler.Unavailable{}
	}
	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("server: configuring tokens: %w", err)
	}

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}
	s.setupRoutes(tokens, checker)

	return s, nil
}

// setupRoutes configures middleware and handlers.
//
//	GET    /healthz
//	POST   /api/v1/auth/login
//	POST   /api/v1/auth/register
//	POST   /api/v1/auth/github
//	GET    /api/v1/snippets                              (bearer)
//	POST   /api/v1/snippets                              (bearer)
//	POST   /api/v1/snippets/validate                     (bearer)
//	GET    /api/v1/snippets/{id}                         (bearer)
//	PUT    /api/v1/snippets/{id}                         (bearer)
//	DELETE /api/v1/snippets/{id}                         (bearer)
//	GET    /api/v1/snippets/{id}/versions                (bearer)
//	POST   /api/v1/snippets/{id}/rollback                (bearer)
//	GET    /api/v1/snippets/{id}/diff?v1=&v2=            (bearer)
//	GET    /api/v1/snippets/{id}/versions/{number}/metrics (bearer)
//	DELETE /api/v1/snippets/{id}/versions/{number}       (bearer)
//	DELETE /api/v1/versions/{versionID}                  (bearer)
//
// Middleware runs in the order it is added: request id first so the
// logger can report it.
func (s *Server) setupRoutes(tokens *auth.TokenService, checker compiler.Checker) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	authService := service.NewAuthService(
		s.db,
		tokens,
		auth.NewPasswordService(),
		auth.NewGitHubVerifier(s.config.GitHubAPI),
		s.logger,
	)
	snippetService := service.NewSnippetService(s.db, s.db, checker, s.logger)

	authHandler := handler.NewAuthHandler(authService, s.logger)
	snippetHandler := handler.NewSnippetHandler(snippetService, s.logger)
	compilerName := s.config.CompilerName
	if compilerName == "" {
		compilerName = "unknown"
	}
	healthHandler := handler.NewHealthHandler(s.db, compilerName, s.logger)

	s.router.Get("/healthz", healthHandler.HandleHealth)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", authHandler.HandleLogin)
		r.Post("/auth/register", authHandler.HandleRegister)
		r.Post("/auth/github", authHandler.HandleGitHub)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens, s.db, s.logger))

			r.Route("/snippets", func(r chi.Router) {
				r.Get("/", snippetHandler.HandleList)
				r.Post("/", snippetHandler.HandleCreate)
				r.Post("/validate", snippetHandler.HandleValidate)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", snippetHandler.HandleGet)
					r.Put("/", snippetHandler.HandleUpdate)
					r.Delete("/", snippetHandler.HandleDelete)
					r.Get("/versions", snippetHandler.HandleVersions)
					r.Post("/rollback", snippetHandler.HandleRollback)
					r.Get("/diff", snippetHandler.HandleDiff)
					r.Get("/versions/{number}/metrics", snippetHandler.HandleMetrics)
					r.Delete("/versions/{number}", snippetHandler.HandleDeleteVersionByNumber)
				})
			})

			r.Delete("/versions/{versionID}", snippetHandler.HandleDeleteVersion)
		})
	})
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database. Start closes it itself on return.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests for
// up to 30 seconds and closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second, // validate may wait on javac
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d/api/v1", s.config.Port)),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
