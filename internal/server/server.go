// Package server exposes the vault over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Aman-CERP/personalvault/internal/search"
	"github.com/Aman-CERP/personalvault/internal/store"
	"github.com/Aman-CERP/personalvault/internal/vault"
)

// DefaultShutdownTimeout bounds graceful shutdown.
const DefaultShutdownTimeout = 10 * time.Second

// Service is the vault behaviour the HTTP API needs.
type Service interface {
	AddNote(ctx context.Context, in vault.NoteInput) (*store.Note, error)
	AddVaultItem(ctx context.Context, in vault.VaultItemInput) (*store.VaultItem, error)
	ListNotes(ctx context.Context) ([]*store.Note, error)
	ListVaultItems(ctx context.Context) ([]*store.VaultItem, error)
	DeleteNote(ctx context.Context, id int64) error
	DeleteVaultItem(ctx context.Context, id int64) error
	Search(ctx context.Context, query string) ([]*search.Result, error)
	Chat(ctx context.Context, message string) (*search.ChatResponse, error)
	SuggestTags(title, content string) ([]string, error)
	Status(ctx context.Context) (*vault.Status, error)
}

// Verify interface implementation at compile time
var _ Service = (*vault.Service)(nil)

// Config configures the HTTP server.
type Config struct {
	// Addr is the listen address (default: 127.0.0.1:8765).
	Addr string

	// ShutdownTimeout bounds graceful shutdown (default: 10s).
	ShutdownTimeout time.Duration
}

// Server serves the vault HTTP API.
type Server struct {
	svc    Service
	cfg    Config
	router *gin.Engine
}

// New creates a server and registers its routes. The gin mode is a process
// global and is left to the caller.
func New(svc Service, cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8765"
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	s := &Server{svc: svc, cfg: cfg, router: router}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.GET("/healthz", s.health)

	api := s.router.Group("/api")
	{
		api.POST("/add-note", s.addNote)
		api.GET("/notes", s.listNotes)
		api.DELETE("/notes", s.deleteNote)

		api.POST("/vault", s.addVaultItem)
		api.GET("/vault", s.listVaultItems)
		api.DELETE("/vault", s.deleteVaultItem)

		api.POST("/search", s.search)
		api.POST("/chat", s.chat)
		api.POST("/generate-tags", s.generateTags)
	}
}

// Handler returns the HTTP handler (for tests and embedding).
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on the configured address and serves until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http_server_started", slog.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("http_server_shutdown_failed", slog.String("error", err.Error()))
		return err
	}
	slog.Info("http_server_stopped")
	return nil
}

// requestLogger logs one debug line per request.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("http_request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()))
	}
}
