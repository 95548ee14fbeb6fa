// Package server provides the HTTP API for askme.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/askme/internal/config"
	"github.com/hyperjump/askme/internal/indexer"
	"github.com/hyperjump/askme/internal/keyword"
	"github.com/hyperjump/askme/internal/metrics"
	"github.com/hyperjump/askme/internal/search"
	"github.com/hyperjump/askme/internal/storage"
	"github.com/hyperjump/askme/internal/vector"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// HealthChecker is implemented by external services the status endpoint probes.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Server is the HTTP server for the askme API.
type Server struct {
	engine   *search.Engine
	indexer  *indexer.Indexer
	storage  storage.Storage
	vectors  vector.Store
	keywords keyword.Index
	rerank   HealthChecker

	mu     sync.RWMutex
	config *config.Config

	logger *zap.Logger
	server *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithVectorStore exposes the vector store size on /api/v1/status.
func WithVectorStore(v vector.Store) Option {
	return func(s *Server) { s.vectors = v }
}

// WithKeywordIndex exposes the keyword index size on /api/v1/status.
func WithKeywordIndex(k keyword.Index) Option {
	return func(s *Server) { s.keywords = k }
}

// WithRerankHealth probes the rerank service on /api/v1/status.
func WithRerankHealth(h HealthChecker) Option {
	return func(s *Server) { s.rerank = h }
}

// NewServer creates a server with the given dependencies.
func NewServer(
	engine *search.Engine,
	idx *indexer.Indexer,
	store storage.Storage,
	cfg *config.Config,
	opts ...Option,
) *Server {
	s := &Server{
		engine:  engine,
		indexer: idx,
		storage: store,
		config:  cfg,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the active configuration.
func (s *Server) Config() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// Reload swaps in a reloaded configuration. Only ranking weights and request defaults take
// effect without a restart.
func (s *Server) Reload(cfg *config.Config) {
	if cfg == nil {
		return
	}
	s.mu.Lock()
	s.config = cfg
	s.mu.Unlock()
	s.engine.Ranker().SetConfig(&cfg.Ranking)
	s.logger.Info("configuration reloaded",
		zap.Float64("similarity_weight", cfg.Ranking.SimilarityWeight),
		zap.Float64("recency_weight", cfg.Ranking.RecencyWeight),
		zap.Float64("popularity_weight", cfg.Ranking.PopularityWeight),
		zap.Float64("quality_weight", cfg.Ranking.QualityWeight))
}

// Handler builds the API router.
func (s *Server) Handler() http.Handler {
	cfg := s.Config()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware())
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", s.handleHealth)
	if cfg.Metrics.EnabledOrDefault() {
		r.Handle(cfg.Metrics.Path, promhttp.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/search", s.handleSearchQuery)
		r.Post("/search", s.handleSearch)
		r.Get("/status", s.handleStatus)

		r.Route("/documents", func(r chi.Router) {
			r.Get("/", s.handleListDocuments)
			r.Post("/", s.handleIndexDocuments)
			r.Post("/upload", s.handleUpload)
			r.Get("/{id}", s.handleGetDocument)
			r.Delete("/{id}", s.handleDeleteDocument)
		})
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	cfg := s.Config().Server
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
