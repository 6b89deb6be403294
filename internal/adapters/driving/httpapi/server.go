package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-server/internal/logger"
)

// Config tunes request handling.
type Config struct {
	// MaxUploadBytes caps the accepted file size. Multipart framing is
	// allowed on top of this.
	MaxUploadBytes int64

	// RetryAfter is advertised when embedding capacity is exhausted.
	RetryAfter time.Duration

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns the configuration used when fields are zero.
func DefaultConfig() Config {
	return Config{
		MaxUploadBytes:  10 << 20,
		RetryAfter:      30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// multipartOverhead is the slack allowed for multipart boundaries and headers.
const multipartOverhead = 1 << 20

// Server is the HTTP API server.
type Server struct {
	mu       sync.Mutex
	ports    *Ports
	cfg      Config
	handler  http.Handler
	server   *http.Server
	listener net.Listener
}

// NewServer creates a server for the given ports.
func NewServer(ports *Ports, cfg Config) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	def := DefaultConfig()
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = def.MaxUploadBytes
	}
	if cfg.RetryAfter <= 0 {
		cfg.RetryAfter = def.RetryAfter
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = def.ShutdownTimeout
	}

	s := &Server{ports: ports, cfg: cfg}

	mux := http.NewServeMux()
	s.registerRoutes(mux)
	s.handler = recoverer(accessLog(mux))

	return s, nil
}

// Handler returns the root handler, including middleware.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens on addr and serves in the background.
// Use ":0" to pick a free port; Addr reports the bound address.
func (s *Server) Start(addr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return errors.New("httpapi: server already started")
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener

	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server: %v", err)
		}
	}()

	logger.Info("HTTP API listening on %s", listener.Addr())
	return nil
}

// Run starts the server and blocks until ctx is cancelled, then shuts down.
func (s *Server) Run(ctx context.Context, addr string) error {
	if err := s.Start(addr); err != nil {
		return err
	}
	<-ctx.Done()
	return s.Stop()
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop gracefully shuts the server down.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	err := s.server.Shutdown(ctx)
	s.server = nil
	return err
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /users", s.handleCreateUser)
	mux.HandleFunc("GET /users/{id}", s.handleGetUser)
	mux.HandleFunc("DELETE /users/{id}", s.handleDeleteUser)
	mux.HandleFunc("POST /users/{id}/notebooks", s.handleCreateNotebook)
	mux.HandleFunc("GET /users/{id}/notebooks", s.handleListNotebooks)
	mux.HandleFunc("POST /users/{id}/query", s.handleQueryUser)

	mux.HandleFunc("GET /notebooks/{id}", s.handleGetNotebook)
	mux.HandleFunc("PUT /notebooks/{id}", s.handleUpdateNotebook)
	mux.HandleFunc("DELETE /notebooks/{id}", s.handleDeleteNotebook)
	mux.HandleFunc("POST /notebooks/{id}/documents", s.handleUpload)
	mux.HandleFunc("GET /notebooks/{id}/documents", s.handleListDocuments)
	mux.HandleFunc("POST /notebooks/{id}/query", s.handleQueryNotebook)

	mux.HandleFunc("GET /documents/{id}", s.handleGetDocument)
	mux.HandleFunc("GET /documents/{id}/status", s.handleDocumentStatus)
	mux.HandleFunc("DELETE /documents/{id}", s.handleDeleteDocument)

	mux.HandleFunc("GET /queue/status", s.handleQueueStatus)
}
