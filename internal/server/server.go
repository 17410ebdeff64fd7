// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the "wiring" layer — the composition root where handlers,
// middleware, services, and the storage backend are connected in one place.
//
// WHY SEPARATE FROM main.go?
// Keeping server setup in its own package makes it:
// - Testable (we can create a test server without running main)
// - Reusable (multiple entry points could use the same server config)
// - Clean (main.go stays minimal — just "start the server")
package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/codevault/internal/auth"
	"github.com/sakif/codevault/internal/handler"
	"github.com/sakif/codevault/internal/middleware"
	"github.com/sakif/codevault/internal/repository"
	"github.com/sakif/codevault/internal/repository/jsonfile"
	sqliteRepo "github.com/sakif/codevault/internal/repository/sqlite"
	"github.com/sakif/codevault/internal/service"
)

// Storage backend names accepted in Config.StoreBackend.
const (
	BackendSQLite   = "sqlite"
	BackendJSONFile = "jsonfile"
)

// Config holds server configuration. Using a struct (instead of individual
// parameters) makes it easy to add options without changing signatures and
// to load everything from env vars in one place.
type Config struct {
	Port         int
	StoreBackend string        // "sqlite" or "jsonfile"
	DBPath       string        // sqlite backend: path to the database file
	StoreDir     string        // jsonfile backend: directory for the JSON files
	JWTSecret    string        // HMAC key for session tokens
	SessionTTL   time.Duration // 0 means auth.DefaultTTL
}

// repos bundles the four repository interfaces a backend provides. Both
// backends fill this the same way, so everything past this point is
// backend-agnostic.
type repos struct {
	users       repository.UserRepository
	snippets    repository.SnippetRepository
	likes       repository.LikeRepository
	collections repository.CollectionRepository
}

// Server represents the HTTP server and all its dependencies.
//
// The Server owns the storage backend. When it shuts down it closes the
// backend to flush pending writes and release file locks; the jsonfile
// backend writes through on every mutation and has nothing to close.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	closer io.Closer
}

// New creates a Server with the given config, opening the storage backend
// named by cfg.StoreBackend and assembling the full dependency chain:
// backend → repository interfaces → services → handlers → routes.
//
// Each layer only receives what it needs: services get repository
// interfaces (not the concrete backend), handlers get services (not
// repositories). The handler never touches the database directly and the
// service never touches HTTP.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	var (
		r      repos
		closer io.Closer
	)

	switch cfg.StoreBackend {
	case BackendSQLite, "":
		db, err := sqliteRepo.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		r = repos{
			users:       db.Users(),
			snippets:    db.Snippets(),
			likes:       db.Likes(),
			collections: db.Collections(),
		}
		closer = db

	case BackendJSONFile:
		store, err := jsonfile.New(cfg.StoreDir)
		if err != nil {
			return nil, fmt.Errorf("opening store directory: %w", err)
		}
		r = repos{
			users:       store.Users(),
			snippets:    store.Snippets(),
			likes:       store.Likes(),
			collections: store.Collections(),
		}

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		closer: closer,
	}

	if err := s.setupRoutes(r); err != nil {
		if closer != nil {
			closer.Close()
		}
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	POST   /api/auth/signup                          → register, set session cookie
//	POST   /api/auth/login                           → log in, set session cookie
//	POST   /api/auth/logout                          → clear session cookie
//	GET    /api/me                                   → current profile or null
//	PUT    /api/me                                   → update username/bio       [auth]
//	GET    /api/snippets                             → search public snippets
//	POST   /api/snippets                             → create                    [auth]
//	GET    /api/snippets/{id}                        → fetch + count view
//	PUT    /api/snippets/{id}                        → partial update            [auth]
//	DELETE /api/snippets/{id}                        → delete                    [auth]
//	POST   /api/snippets/{id}/like                   → toggle like               [auth]
//	POST   /api/snippets/{id}/fork                   → fork                      [auth]
//	GET    /api/users/{id}/snippets                  → a user's snippets
//	GET    /api/collections                          → list own collections      [auth]
//	POST   /api/collections                          → create collection         [auth]
//	DELETE /api/collections/{id}                     → delete collection         [auth]
//	POST   /api/collections/{id}/snippets/{snippetID}   → add to collection      [auth]
//	DELETE /api/collections/{id}/snippets/{snippetID}   → remove from collection [auth]
//
// MIDDLEWARE ORDER MATTERS — ours runs in this order:
//  1. RequestID — assigns unique ID to each request (for tracing)
//  2. RealIP — extracts real client IP from proxy headers
//  3. Recoverer — catches panics and returns 500 instead of crashing
//  4. Logger — logs each request with timing info
func (s *Server) setupRoutes(r repos) error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.JWTSecret, s.config.SessionTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	sessionService := service.NewSessionService(r.users, tokens, passwords, s.logger)
	snippetService := service.NewSnippetService(r.snippets, r.likes, s.logger)
	collectionService := service.NewCollectionService(r.collections, r.snippets, s.logger)

	sessionHandler := handler.NewSessionHandler(sessionService, tokens, s.logger)
	snippetHandler := handler.NewSnippetHandler(snippetService, s.logger)
	collectionHandler := handler.NewCollectionHandler(collectionService, s.logger)

	requireAuth := auth.RequireAuth(tokens)
	optionalAuth := auth.OptionalAuth(tokens)

	s.router.Route("/api", func(api chi.Router) {
		api.Post("/auth/signup", sessionHandler.HandleSignup)
		api.Post("/auth/login", sessionHandler.HandleLogin)
		api.Post("/auth/logout", sessionHandler.HandleLogout)
		api.Get("/me", sessionHandler.HandleMe)

		// Public reads carry OptionalAuth so a logged-in owner sees their
		// private snippets where an anonymous visitor would not.
		api.Group(func(pub chi.Router) {
			pub.Use(optionalAuth)
			pub.Get("/snippets", snippetHandler.HandleSearch)
			pub.Get("/snippets/{id}", snippetHandler.HandleGet)
			pub.Get("/users/{id}/snippets", snippetHandler.HandleListForUser)
		})

		api.Group(func(priv chi.Router) {
			priv.Use(requireAuth)
			priv.Put("/me", sessionHandler.HandleUpdateProfile)

			priv.Post("/snippets", snippetHandler.HandleCreate)
			priv.Put("/snippets/{id}", snippetHandler.HandleUpdate)
			priv.Delete("/snippets/{id}", snippetHandler.HandleDelete)
			priv.Post("/snippets/{id}/like", snippetHandler.HandleToggleLike)
			priv.Post("/snippets/{id}/fork", snippetHandler.HandleFork)

			priv.Get("/collections", collectionHandler.HandleList)
			priv.Post("/collections", collectionHandler.HandleCreate)
			priv.Delete("/collections/{id}", collectionHandler.HandleDelete)
			priv.Post("/collections/{id}/snippets/{snippetID}", collectionHandler.HandleAddSnippet)
			priv.Delete("/collections/{id}/snippets/{snippetID}", collectionHandler.HandleRemoveSnippet)
		})
	})

	return nil
}

// Router exposes the configured routes for tests that drive the server
// with httptest instead of a real listener.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server and handles graceful shutdown:
//  1. Stop accepting new HTTP connections
//  2. Wait for in-flight requests to finish (30s timeout)
//  3. Close the storage backend (flushes WAL, releases the file lock)
func (s *Server) Start() error {
	if s.closer != nil {
		defer s.closer.Close()
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("backend", s.config.StoreBackend),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
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
