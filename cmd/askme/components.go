package main

import (
	"context"
	"fmt"

	"github.com/hyperjump/askme/internal/config"
	"github.com/hyperjump/askme/internal/embedding"
	"github.com/hyperjump/askme/internal/indexer"
	"github.com/hyperjump/askme/internal/keyword"
	"github.com/hyperjump/askme/internal/query"
	"github.com/hyperjump/askme/internal/ranking"
	"github.com/hyperjump/askme/internal/rerank"
	"github.com/hyperjump/askme/internal/search"
	"github.com/hyperjump/askme/internal/storage"
	"github.com/hyperjump/askme/internal/vector"
	"go.uber.org/zap"
)

// Components holds initialized services.
type Components struct {
	Storage  storage.Storage
	Embedder embedding.Embedder
	Vectors  vector.Store
	Keywords keyword.Index // nil when storage.keyword_enabled is false
	Reranker *rerank.HTTPClient
	Engine   *search.Engine
	Indexer  *indexer.Indexer

	vectorPath string
	logger     *zap.Logger
}

// Close snapshots in-process vector stores and releases every component.
func (c *Components) Close() {
	if c.Indexer != nil {
		c.Indexer.Close()
	}
	if p, ok := c.Vectors.(vector.Persister); ok && c.vectorPath != "" {
		if err := p.Save(c.vectorPath); err != nil {
			c.logger.Warn("vector index save failed", zap.String("path", c.vectorPath), zap.Error(err))
		}
	}
	if c.Vectors != nil {
		_ = c.Vectors.Close()
	}
	if c.Keywords != nil {
		_ = c.Keywords.Close()
	}
	if c.Reranker != nil {
		_ = c.Reranker.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

func newEmbedder(cfg *config.Config, logger *zap.Logger) embedding.Embedder {
	var inner embedding.Embedder
	switch cfg.Embedding.Provider {
	case "mock":
		inner = embedding.NewMockEmbedder(cfg.Embedding.Dimensions)
	default:
		inner = embedding.NewOpenAIEmbedder(embedding.OpenAIConfig{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			Logger:     logger,
		})
	}
	if cfg.Embedding.CacheSize > 0 {
		return embedding.NewCachedEmbedder(inner, cfg.Embedding.CacheSize)
	}
	return inner
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	c := &Components{logger: logger}
	ok := false
	defer func() {
		if !ok {
			c.Close()
		}
	}()

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	c.Storage = store
	c.Embedder = newEmbedder(cfg, logger)

	vectors, err := vector.NewStore(ctx, vector.Options{
		Type:       cfg.Vector.Type,
		Dimensions: cfg.Embedding.Dimensions,
		HNSW:       vector.HNSWConfig{M: cfg.Vector.M, EfSearch: cfg.Vector.EfSearch},
		Milvus: vector.MilvusConfig{
			Address:            cfg.Milvus.Address,
			Username:           cfg.Milvus.Username,
			Password:           cfg.Milvus.Password,
			Collection:         cfg.Milvus.Collection,
			HNSWM:              cfg.Milvus.HNSWM,
			HNSWEfConstruction: cfg.Milvus.EfConstruction,
			EfSearch:           cfg.Milvus.EfSearch,
			Logger:             logger,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vector store: %w", err)
	}
	c.Vectors = vectors
	if p, isPersister := c.Vectors.(vector.Persister); isPersister {
		if err := p.Load(cfg.Storage.VectorIndexPath); err != nil {
			logger.Warn("vector index load skipped", zap.String("path", cfg.Storage.VectorIndexPath), zap.Error(err))
		}
	}
	logger.Info("vector store initialized", zap.String("type", cfg.Vector.Type), zap.Int("chunks", c.Vectors.Count()))

	if cfg.Storage.KeywordEnabledOrDefault() {
		kw, err := keyword.NewBleveIndex(cfg.Storage.BleveIndexPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize keyword index: %w", err)
		}
		c.Keywords = kw
	} else {
		logger.Warn("keyword channel disabled; searches will be marked degraded")
	}

	engineOpts := []search.Option{
		search.WithLogger(logger),
		search.WithRanker(ranking.NewRanker(&cfg.Ranking)),
		search.WithEnhancer(query.NewEnhancer(
			query.WithSynonyms(cfg.Query.Synonyms),
			query.WithStopwords(cfg.Query.Stopwords),
		)),
	}
	if cfg.Rerank.Endpoint != "" {
		c.Reranker = rerank.NewHTTPClient(rerank.HTTPConfig{
			Endpoint:  cfg.Rerank.Endpoint,
			Model:     cfg.Rerank.Model,
			Normalize: cfg.Rerank.Normalize,
			Timeout:   cfg.Rerank.Timeout,
			Logger:    logger,
		})
		engineOpts = append(engineOpts, search.WithReranker(c.Reranker))
	}

	c.Engine = search.NewEngine(store, c.Embedder, c.Vectors, c.Keywords, &cfg.Search, engineOpts...)

	c.Indexer, err = indexer.NewIndexer(store, c.Embedder, c.Vectors, c.Keywords, &cfg.Indexer, indexer.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	// snapshots are only written back once startup has succeeded
	c.vectorPath = cfg.Storage.VectorIndexPath
	ok = true
	return c, nil
}
