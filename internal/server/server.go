// Package server exposes the mirror over a JSON HTTP API. Reads are
// open; writes require a capability token minted from the admin
// password. The server owns no mirror state, it only drives the
// reconciliation service it is handed.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/memohq/memomirror/internal/cache"
	"github.com/memohq/memomirror/internal/log"
	"github.com/memohq/memomirror/internal/model"
	"github.com/memohq/memomirror/internal/reconcile"
	"github.com/memohq/memomirror/internal/secret"
)

// capabilityTTL bounds how long a minted write token stays valid.
const capabilityTTL = time.Hour

// Service is the reconciliation surface the server drives.
type Service interface {
	GetIssues(ctx context.Context, page int, labels []string, force bool) (reconcile.IssuesResult, error)
	GetIssue(ctx context.Context, number int) (model.Issue, error)
	CreateIssue(ctx context.Context, title string, body *string, labelNames []string) (model.Issue, error)
	UpdateIssue(ctx context.Context, number int, title, body, state *string, labelNames []string) (model.Issue, error)
	GetLabels(ctx context.Context) ([]model.Label, error)
	CreateLabel(ctx context.Context, name, color string, description *string) (model.Label, error)
	Config(ctx context.Context, includeToken bool) (model.RepoConfig, error)
	SyncStatus(ctx context.Context) (model.SyncStatus, error)
	SyncHistory(ctx context.Context, limit int) ([]model.SyncRecord, error)
	CacheStats() cache.Stats
	ClearCache()
}

// Server serves the mirror API over HTTP.
type Server struct {
	addr          string
	svc           Service
	keeper        *secret.Keeper
	adminPassword string

	listener net.Listener
	server   *http.Server
	wg       sync.WaitGroup
}

// Config holds server configuration.
type Config struct {
	// Addr to listen on, e.g. ":8799".
	Addr string

	// AdminPassword gates capability token minting. Empty disables
	// all write endpoints.
	AdminPassword string
}

// New creates a Server around the given service.
func New(cfg Config, svc Service, keeper *secret.Keeper) *Server {
	return &Server{
		addr:          cfg.Addr,
		svc:           svc,
		keeper:        keeper,
		adminPassword: cfg.AdminPassword,
	}
}

// Handler returns the route table. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/issues", s.handleGetIssues)
	mux.HandleFunc("POST /api/issues", s.requireWrite(s.handleCreateIssue))
	mux.HandleFunc("GET /api/issues/{number}", s.handleGetIssue)
	mux.HandleFunc("PATCH /api/issues/{number}", s.requireWrite(s.handleUpdateIssue))

	mux.HandleFunc("GET /api/labels", s.handleGetLabels)
	mux.HandleFunc("POST /api/labels", s.requireWrite(s.handleCreateLabel))

	mux.HandleFunc("GET /api/config", s.handleGetConfig)
	mux.HandleFunc("POST /api/auth/verify", s.handleAuthVerify)

	mux.HandleFunc("GET /api/sync/history", s.handleSyncHistory)
	mux.HandleFunc("GET /api/cache/stats", s.handleCacheStats)
	mux.HandleFunc("DELETE /api/cache", s.requireWrite(s.handleClearCache))

	mux.HandleFunc("GET /health", s.handleHealth)

	return mux
}

// Start begins serving. It returns once the listener is bound; request
// handling continues in the background until Stop.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = ln

	s.server = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		log.Info("server listening", "addr", ln.Addr().String())
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound listen address. Only valid after Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// Stop gracefully shuts the server down, waiting up to five seconds for
// in-flight requests.
func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	s.wg.Wait()

	log.Info("server stopped")
	return nil
}
