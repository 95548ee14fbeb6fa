package config

import (
	"errors"
	"fmt"

	"github.com/hyperjump/askme/internal/models"
)

// Validate checks the configuration for values no component can work with.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}

	switch c.Embedding.Provider {
	case "openai", "mock":
	default:
		errs = append(errs, fmt.Errorf("embedding.provider must be \"openai\" or \"mock\", got %q", c.Embedding.Provider))
	}
	if c.Embedding.Dimensions <= 0 {
		errs = append(errs, errors.New("embedding.dimensions must be positive"))
	}

	switch c.Vector.Type {
	case "memory", "hnsw":
	case "milvus":
		if c.Milvus.Address == "" {
			errs = append(errs, errors.New("milvus.address is required for vector.type milvus"))
		}
	default:
		errs = append(errs, fmt.Errorf("vector.type must be memory, hnsw or milvus, got %q", c.Vector.Type))
	}

	switch c.Rerank.Normalize {
	case "none", "sigmoid":
	default:
		errs = append(errs, fmt.Errorf("rerank.normalize must be \"none\" or \"sigmoid\", got %q", c.Rerank.Normalize))
	}

	s := c.Search
	switch s.Fusion {
	case "rrf", "weighted":
	default:
		errs = append(errs, fmt.Errorf("search.fusion must be \"rrf\" or \"weighted\", got %q", s.Fusion))
	}
	if s.RRFK <= 0 {
		errs = append(errs, errors.New("search.rrf_k must be positive"))
	}
	if s.VectorWeight < 0 || s.KeywordWeight < 0 {
		errs = append(errs, errors.New("search fusion weights must not be negative"))
	}
	if s.MaxSnippets > models.MaxMatchedSnippets {
		errs = append(errs, fmt.Errorf("search.max_snippets %d exceeds %d", s.MaxSnippets, models.MaxMatchedSnippets))
	}
	if s.DefaultLimit > s.MaxLimit {
		errs = append(errs, fmt.Errorf("search.default_limit %d exceeds max_limit %d", s.DefaultLimit, s.MaxLimit))
	}

	r := c.Ranking
	if r.SimilarityWeight < 0 || r.RecencyWeight < 0 || r.PopularityWeight < 0 || r.QualityWeight < 0 {
		errs = append(errs, errors.New("ranking weights must not be negative"))
	}

	if c.Indexer.ChunkOverlap >= c.Indexer.ChunkSize {
		errs = append(errs, fmt.Errorf("indexer.chunk_overlap %d must be smaller than chunk_size %d", c.Indexer.ChunkOverlap, c.Indexer.ChunkSize))
	}

	return errors.Join(errs...)
}
