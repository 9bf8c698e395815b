// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer. It connects repositories, services,
// handlers and middleware, and decides which URL maps to which handler and
// how the process stops.
//
// WHY SEPARATE FROM main.go?
// Tests can build the whole server (router included) against an in-memory
// database without starting a listener, and main.go stays tiny.
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config → Server.New() creates:
//	  sqlite.DB → repositories
//	  prometheus.Registry → metrics.Metrics
//	  TokenService + PasswordService → AuthService
//	  repositories → NoteService, UserService, TagService, FileService
//	  services → handlers → routes
//
// This is the "composition root" pattern: all dependencies are wired in one
// place (New/setupRoutes), rather than scattered across the codebase.
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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sakif/notes-api/internal/auth"
	"github.com/sakif/notes-api/internal/config"
	"github.com/sakif/notes-api/internal/handler"
	"github.com/sakif/notes-api/internal/metrics"
	"github.com/sakif/notes-api/internal/middleware"
	sqliteRepo "github.com/sakif/notes-api/internal/repository/sqlite"
	"github.com/sakif/notes-api/internal/service"
)

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the database connection. Close (or a finished Start)
// releases it so pending writes are flushed and the file lock is dropped.
type Server struct {
	router   *chi.Mux
	config   *config.Config
	logger   *slog.Logger
	db       *sqliteRepo.DB
	registry *prometheus.Registry

	passwords *auth.PasswordService

	authService *service.AuthService
	notes       *service.NoteService
	users       *service.UserService
	tags        *service.TagService
	files       *service.FileService
}

// Option tweaks a Server before its routes are built.
type Option func(*Server)

// WithPasswordService replaces the default bcrypt cost. Tests pass a cheap one.
func WithPasswordService(p *auth.PasswordService) Option {
	return func(s *Server) { s.passwords = p }
}

// New creates a new Server from the loaded configuration.
//
// WIRING ORDER:
//  1. Open the database (runs migrations)
//  2. Create a private Prometheus registry and the metric set
//  3. Create the token and password services
//  4. Create the domain services on top of the repositories
//  5. Create the handlers and wire them to routes
//
// WHY A PRIVATE REGISTRY?
// The global default registry panics when the same collector is registered
// twice, which happens as soon as two servers exist in one test binary.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Server, error) {
	// === CREATE DATABASE ===
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	tokens, err := auth.NewTokenService(cfg.Auth.SecretKey, cfg.Auth.TokenTTL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	s := &Server{
		router:    chi.NewRouter(),
		config:    cfg,
		logger:    logger,
		db:        db,
		registry:  registry,
		passwords: auth.NewPasswordService(),
	}
	for _, opt := range opts {
		opt(s)
	}

	// === CREATE SERVICES ===
	// Each service receives repository interfaces, never the concrete *sqlite.DB.
	s.authService = service.NewAuthService(db.Users(), tokens, s.passwords, m, logger)
	s.notes = service.NewNoteService(db.Notes(), m, logger)
	s.users = service.NewUserService(db.Users(), db.Files(), s.passwords, logger)
	s.tags = service.NewTagService(db.Tags(), logger)
	s.files = service.NewFileService(db.Files(), cfg.Upload.Dir, cfg.Upload.URLPrefix, cfg.Upload.MaxBytes, logger)

	if cfg.Auth.AdminUsername != "" {
		if _, err := s.users.EnsureAdmin(context.Background(), cfg.Auth.AdminUsername, cfg.Auth.AdminPassword); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating bootstrap admin: %w", err)
		}
	}

	s.setupRoutes(m)
	return s, nil
}

// Handler exposes the router so tests can drive it with httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database. Start calls it on its own way out.
func (s *Server) Close() error {
	return s.db.Close()
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET    /healthz                → liveness (pings the database)
//	GET    /metrics                → Prometheus exposition
//	GET    /uploads/*              → stored upload files
//	GET    /auth/token             → JWT for the authenticated caller
//	PUT    /upload                 → multipart image upload
//	GET    /tags, /tags/{id}       → public tag reads
//	POST   /tags, PUT/DELETE /tags/{id}                → admin tag writes
//	GET    /users, /users/or, /users/{id}, POST /users → public
//	PUT    /users/{id}, PUT /users/{id}/photo, DELETE /users/{id} → authenticated
//	/notes/...                     → authenticated, see below
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID: assigns a unique ID to each request (for tracing)
// 2. RealIP: extracts the client IP from proxy headers
// 3. Recoverer: turns panics into 500s
// 4. Logger and Metrics: one log line and one observation per request
// 5. Authenticate: resolves the caller from the Authorization header.
// A missing header leaves the request anonymous; RequireAuth on a
// group rejects anonymous callers with 401.
func (s *Server) setupRoutes(m *metrics.Metrics) {
	// === Global Middleware ===
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Metrics(m))
	s.router.Use(auth.Authenticate(s.authService))

	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	// === Stored Uploads ===
	// GET /uploads/abc.png → serves {Upload.Dir}/abc.png
	prefix := s.config.Upload.URLPrefix
	fileServer := http.FileServer(http.Dir(s.config.Upload.Dir))
	s.router.Handle(prefix+"/*", http.StripPrefix(prefix+"/", fileServer))

	authHandler := handler.NewAuthHandler(s.authService, s.logger)
	noteHandler := handler.NewNoteHandler(s.notes, s.logger)
	userHandler := handler.NewUserHandler(s.users, s.logger)
	tagHandler := handler.NewTagHandler(s.tags, s.logger)
	uploadHandler := handler.NewUploadHandler(s.files, s.config.Upload.MaxBytes, s.logger)

	s.router.Route("/tags", func(r chi.Router) {
		r.Get("/", tagHandler.HandleList)
		r.Get("/{id}", tagHandler.HandleGet)

		// Admin checks happen in TagService; here we only need a caller.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth)
			r.Post("/", tagHandler.HandleCreate)
			r.Put("/{id}", tagHandler.HandleRename)
			r.Delete("/{id}", tagHandler.HandleDelete)
		})
	})

	s.router.Route("/users", func(r chi.Router) {
		r.Get("/", userHandler.HandleList)
		r.Get("/or", userHandler.HandleFindAny)
		r.Get("/{id}", userHandler.HandleGet)
		r.Post("/", userHandler.HandleRegister)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth)
			r.Put("/{id}", userHandler.HandleUpdate)
			r.Put("/{id}/photo", userHandler.HandleSetPhoto)
			r.Delete("/{id}", userHandler.HandleDelete)
		})
	})

	// STATIC SEGMENTS BEFORE {id}:
	// chi matches /notes/like and /notes/tags literally before trying the
	// {id} pattern, so registration order does not matter, but keeping them
	// first makes the table read the way it resolves.
	s.router.Route("/notes", func(r chi.Router) {
		r.Use(auth.RequireAuth)

		r.Get("/", noteHandler.HandleList)
		r.Post("/", noteHandler.HandleCreate)
		r.Get("/like", noteHandler.HandleSearch)
		r.Get("/tags", noteHandler.HandleFilterByTags)

		r.Get("/{id}", noteHandler.HandleGet)
		r.Put("/{id}", noteHandler.HandleUpdate)
		r.Delete("/{id}", noteHandler.HandleArchive)
		r.Put("/{id}/restore", noteHandler.HandleRestore)
		r.Put("/{id}/tags", noteHandler.HandleAttachTags)
		r.Delete("/{id}/tags", noteHandler.HandleDetachTags)
		r.Delete("/{id}/purge", noteHandler.HandlePurge)
	})

	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth)
		r.Get("/auth/token", authHandler.HandleToken)
		r.Put("/upload", uploadHandler.HandleUpload)
	})
}

type healthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := s.db.Ping(r.Context()); err != nil {
		s.logger.Error("health check failed", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"unavailable"}` + "\n"))
		return
	}
	w.Write([]byte(`{"status":"ok"}` + "\n"))
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Close the database connection (deferred)
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         s.config.Addr(),
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
			slog.String("addr", srv.Addr),
			slog.String("database", s.config.DBPath),
			slog.String("uploads", s.config.Upload.Dir),
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
