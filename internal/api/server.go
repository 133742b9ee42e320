// Package api provides the dashboard HTTP API for chatarchive.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/wkerr/chatarchive/internal/archive"
	"github.com/wkerr/chatarchive/internal/config"
	"github.com/wkerr/chatarchive/internal/history"
	"github.com/wkerr/chatarchive/internal/thread"
)

// MessageArchive defines the archive operations the API needs.
type MessageArchive interface {
	Search(ctx context.Context, filters archive.Filters, page, pageSize int) (*archive.SearchResult, error)
	RecentMessages(ctx context.Context, handle string, limit int) ([]archive.Message, error)
	RecentChats(ctx context.Context, limit int) ([]archive.Chat, error)
	MessageCount(ctx context.Context) (int64, error)
}

// HistoryStore defines the search-history operations the API needs.
type HistoryStore interface {
	Recent(limit int) []history.Entry
	Popular(limit int) []history.Entry
}

// Server represents the dashboard HTTP API server.
type Server struct {
	cfg      *config.Config
	archive  MessageArchive
	detector *thread.Detector
	history  HistoryStore
	logger   *slog.Logger
	router   chi.Router
	server   *http.Server
}

// NewServer creates a new API server. history may be nil when no history
// store is configured.
func NewServer(cfg *config.Config, arch MessageArchive, det *thread.Detector, hist HistoryStore, logger *slog.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		archive:  arch,
		detector: det,
		history:  hist,
		logger:   logger,
	}
	s.router = s.setupRouter()
	return s
}

// setupRouter configures the chi router with all routes and middleware.
func (s *Server) setupRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(s.loggerMiddleware)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/search", s.handleSearch)
		r.Get("/messages/recent", s.handleRecentMessages)
		r.Get("/chats", s.handleChats)
		r.Get("/threads", s.handleThreads)
		r.Get("/stats", s.handleStats)
		r.Get("/history", s.handleHistory)
	})

	return r
}

// Handler returns the configured router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins serving on the configured port. Blocks until the server
// stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("127.0.0.1:%d", s.cfg.Server.APIPort)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("dashboard API listening", "addr", addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// loggerMiddleware logs each request with method, path, and duration.
func (s *Server) loggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}

// handleHealth returns a liveness response.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
