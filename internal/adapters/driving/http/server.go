package http

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	chonkitauth "github.com/custodia-labs/chonkit/internal/adapters/driven/auth"
	"github.com/custodia-labs/chonkit/internal/core/ports/driven"
	"github.com/custodia-labs/chonkit/internal/core/ports/driving"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server exposing the pipeline orchestrator as
// the "collaborator HTTP surface" named alongside the pipeline's domain.
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string

	pipeline    driving.Pipeline
	authAdapter *chonkitauth.Adapter
	credentials driven.CredentialStore

	db   Pinger // metadata store health check
	lock Pinger // distributed lock backend health check (optional)

	allowedOrigins []string
}

// Config holds server configuration
type Config struct {
	Host           string
	Port           int
	Version        string
	AllowedOrigins []string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:           "0.0.0.0",
		Port:           8080,
		Version:        "dev",
		AllowedOrigins: []string{"*"},
	}
}

// NewServer creates a new HTTP server
func NewServer(
	cfg Config,
	pipeline driving.Pipeline,
	authAdapter *chonkitauth.Adapter,
	credentials driven.CredentialStore,
	db Pinger,
	lock Pinger, // can be nil
) *Server {
	s := &Server{
		router:         http.NewServeMux(),
		version:        cfg.Version,
		pipeline:       pipeline,
		authAdapter:    authAdapter,
		credentials:    credentials,
		db:             db,
		lock:           lock,
		allowedOrigins: cfg.AllowedOrigins,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute, // embed requests can run long
		IdleTimeout:  60 * time.Second,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	authMiddleware := NewAuthMiddleware(s.authAdapter)
	logging := NewLoggingMiddleware()
	recovery := NewRecoveryMiddleware()
	cors := NewCORSMiddleware(s.allowedOrigins)

	wrap := func(h http.Handler) http.Handler {
		return recovery.Handler(logging.Handler(cors.Handler(h)))
	}
	auth := func(handler http.HandlerFunc) http.Handler {
		return wrap(authMiddleware.Authenticate(http.HandlerFunc(handler)))
	}

	// Health endpoints (no auth)
	s.router.Handle("GET /health", wrap(http.HandlerFunc(s.handleHealth)))
	s.router.Handle("GET /ready", wrap(http.HandlerFunc(s.handleReady)))
	s.router.Handle("GET /version", wrap(http.HandlerFunc(s.handleVersion)))

	// Auth endpoint (public - this is what's being exchanged for a token)
	s.router.Handle("POST /api/v1/auth/token", wrap(http.HandlerFunc(s.handleIssueToken)))

	// Document endpoints
	s.router.Handle("POST /api/v1/documents", auth(s.handleUploadDocument))
	s.router.Handle("POST /api/v1/documents/{id}/configure", auth(s.handleConfigureDocument))
	s.router.Handle("POST /api/v1/documents/{id}/preview", auth(s.handlePreviewDocument))
	s.router.Handle("POST /api/v1/documents/{id}/embed", auth(s.handleEmbedDocument))
	s.router.Handle("DELETE /api/v1/documents/{id}", auth(s.handleDeleteDocument))

	// Collection endpoints
	s.router.Handle("DELETE /api/v1/collections/{id}", auth(s.handleDeleteCollection))
	s.router.Handle("POST /api/v1/collections/{id}/search", auth(s.handleSearch))
}

// Start starts the HTTP server with graceful shutdown
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("starting server on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-stop
	log.Println("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Println("server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
