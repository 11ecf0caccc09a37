// Package api exposes the now-playing service over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/justestif/go-now-playing/internal/nowplaying"
)

const (
	// DefaultAddr is the default listen address.
	DefaultAddr = "127.0.0.1:8080"

	// DefaultPath is the now-playing route.
	DefaultPath = "/currently-playing"

	// APIKeyHeader carries the client key.
	APIKeyHeader = "x-api-key"
)

// NowPlayer answers one now-playing invocation.
type NowPlayer interface {
	GetNowPlaying(ctx context.Context) (nowplaying.Result, error)
}

// Config holds server configuration.
type Config struct {
	Addr string
	Path string
	// APIKey is the expected x-api-key value. Empty disables the check.
	APIKey         string
	AllowedOrigins []string
	// RateLimit is requests per second across all clients. Zero disables throttling.
	RateLimit float64
	RateBurst int
}

// Server is the HTTP server for the now-playing endpoint.
type Server struct {
	router   chi.Router
	server   *http.Server
	handlers *Handlers
	logger   *log.Logger
}

// NewServer creates a new API server.
func NewServer(cfg Config, svc NowPlayer, logger *log.Logger) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Path == "" {
		cfg.Path = DefaultPath
	}
	if logger == nil {
		logger = log.Default()
	}

	router := chi.NewRouter()

	s := &Server{
		router:   router,
		handlers: NewHandlers(svc, logger),
		logger:   logger,
	}

	s.setupMiddleware(cfg)
	s.setupRoutes(cfg)

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorLog:     logger.StandardLog(log.StandardLogOptions{ForceLevel: log.ErrorLevel}),
	}

	return s
}

// setupMiddleware configures middleware for the router.
func (s *Server) setupMiddleware(cfg Config) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  s.logger.StandardLog(),
		NoColor: true,
	}))
	s.router.Use(middleware.Recoverer)

	opts := cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{APIKeyHeader},
		MaxAge:         300,
	}
	// An empty list means "*" to cors; deny every origin instead.
	if len(cfg.AllowedOrigins) == 0 {
		s.logger.Warn("no allowed origins configured, cross-origin requests are denied")
		opts.AllowOriginFunc = func(*http.Request, string) bool { return false }
	}

	// CORS runs before the key check so preflight requests never need a key.
	s.router.Use(cors.Handler(opts))
}

// setupRoutes configures routes for the application.
func (s *Server) setupRoutes(cfg Config) {
	s.router.Get("/healthz", s.handlers.Health)

	s.router.Group(func(r chi.Router) {
		if cfg.RateLimit > 0 {
			burst := cfg.RateBurst
			if burst < 1 {
				burst = 1
			}
			r.Use(RateLimit(rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)))
		}
		r.Use(RequireAPIKey(cfg.APIKey))

		r.Get(cfg.Path, s.handlers.CurrentlyPlaying)
	})
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting API server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Run starts the server and handles graceful shutdown on interrupt signals
// or when ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down API server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info("API server stopped")
	return nil
}
