// Package webui provides the HTTP surface for ReplyDesk.
// This file contains the Server organism that wires the API handlers,
// logging middleware, and graceful shutdown together.
package webui

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"replydesk/responder"
	"replydesk/shutdown"
	"replydesk/threadimport"
)

// ServerConfig configures the Server.
type ServerConfig struct {
	// Host to bind to (default: "localhost")
	Host string

	// Port to listen on (default: 8080)
	Port int

	// ReadTimeout for HTTP requests (default: 30s)
	ReadTimeout time.Duration

	// WriteTimeout for HTTP responses. Must exceed the AI timeout so a
	// slow completion does not sever the response (default: 90s).
	WriteTimeout time.Duration

	// IdleTimeout for keep-alive connections (default: 120s)
	IdleTimeout time.Duration

	// ShutdownTimeout for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration

	// MaxUploadBytes caps thread document uploads (default: 10 MiB)
	MaxUploadBytes int64

	// LogSkipPaths are paths excluded from request logging
	LogSkipPaths []string
}

// DefaultServerConfig returns a ServerConfig with sensible defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:            "localhost",
		Port:            8080,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    90 * time.Second,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		MaxUploadBytes:  10 << 20,
		LogSkipPaths:    []string{"/health"},
	}
}

// Server is the HTTP server organism. It wires together:
//   - the Responder for generate, adjust, and analyze
//   - the Importer for document thread import
//   - LoggingMiddleware for request logging
//   - the shutdown Manager for in-flight draining
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	config     ServerConfig

	logger    *zap.Logger
	responder *responder.Responder
	importer  *threadimport.Importer
	catalog   *responder.ToneCatalog
	manager   *shutdown.Manager
	loggingMw *LoggingMiddleware
}

// NewServer creates a Server with the given collaborators. manager may be
// nil, in which case requests are never rejected for shutdown.
func NewServer(
	config ServerConfig,
	rsp *responder.Responder,
	importer *threadimport.Importer,
	catalog *responder.ToneCatalog,
	manager *shutdown.Manager,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		mux:       http.NewServeMux(),
		config:    config,
		logger:    logger,
		responder: rsp,
		importer:  importer,
		catalog:   catalog,
		manager:   manager,
		loggingMw: NewLoggingMiddleware(logger, config.LogSkipPaths),
	}
	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.loggingMw.Handler(s.mux),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	logger.Info("API server created", zap.String("addr", addr))
	return s
}

// setupRoutes configures the HTTP routes.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/tones", s.handleTones)
	s.mux.HandleFunc("/api/generate", s.handleGenerate)
	s.mux.HandleFunc("/api/adjust", s.handleAdjust)
	s.mux.HandleFunc("/api/analyze", s.handleAnalyze)
	s.mux.HandleFunc("/api/import-thread", s.handleImportThread)
}

// Start begins listening. Blocks until the server is shut down.
func (s *Server) Start() error {
	s.logger.Info("API server starting", zap.String("addr", s.httpServer.Addr))
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown error: %w", err)
	}
	s.logger.Info("API server stopped")
	return nil
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Handler returns the root handler, for tests using httptest.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
