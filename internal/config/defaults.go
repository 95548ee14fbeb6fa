package config

import "time"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Server.MaxUploadBytes == 0 {
		cfg.Server.MaxUploadBytes = 50 << 20
	}

	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "./data/askme.db"
	}
	if cfg.Storage.BleveIndexPath == "" {
		cfg.Storage.BleveIndexPath = "./data/indices/bleve"
	}
	if cfg.Storage.VectorIndexPath == "" {
		cfg.Storage.VectorIndexPath = "./data/indices/vectors"
	}

	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "openai"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-3-small"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 1536
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 1000
	}

	if cfg.Vector.Type == "" {
		cfg.Vector.Type = "hnsw"
	}
	if cfg.Vector.M == 0 {
		cfg.Vector.M = 16
	}
	if cfg.Vector.EfSearch == 0 {
		cfg.Vector.EfSearch = 64
	}

	if cfg.Milvus.Address == "" {
		cfg.Milvus.Address = "localhost:19530"
	}
	if cfg.Milvus.Collection == "" {
		cfg.Milvus.Collection = "askme_chunks"
	}
	if cfg.Milvus.HNSWM == 0 {
		cfg.Milvus.HNSWM = 16
	}
	if cfg.Milvus.EfConstruction == 0 {
		cfg.Milvus.EfConstruction = 200
	}
	if cfg.Milvus.EfSearch == 0 {
		cfg.Milvus.EfSearch = 64
	}

	if cfg.Rerank.Model == "" {
		cfg.Rerank.Model = "BAAI/bge-reranker-large"
	}
	if cfg.Rerank.Normalize == "" {
		cfg.Rerank.Normalize = "none"
	}
	if cfg.Rerank.Timeout == 0 {
		cfg.Rerank.Timeout = 10 * time.Second
	}

	applySearchDefaults(&cfg.Search)

	cfg.Ranking.ApplyDefaults()

	if cfg.Indexer.ChunkSize == 0 {
		cfg.Indexer.ChunkSize = 512
	}
	if cfg.Indexer.ChunkOverlap == 0 {
		cfg.Indexer.ChunkOverlap = 50
	}
	if cfg.Indexer.Workers == 0 {
		cfg.Indexer.Workers = 4
	}
	if cfg.Indexer.Extensions == nil {
		cfg.Indexer.Extensions = []string{".txt", ".md", ".rst", ".pdf", ".docx", ".xlsx", ".pptx", ".odp", ".ods", ".jsonl"}
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Indexer.WatchDirs) > 0 && cfg.Indexer.Recursive == nil {
		t := true
		cfg.Indexer.Recursive = &t
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

func applySearchDefaults(s *SearchConfig) {
	if s.DefaultLimit == 0 {
		s.DefaultLimit = 10
	}
	if s.MaxLimit == 0 {
		s.MaxLimit = 100
	}
	if s.RecallSize == 0 {
		s.RecallSize = 15
	}
	if s.Oversample == 0 {
		s.Oversample = 2.0
	}
	if s.MaxVariants == 0 {
		s.MaxVariants = 3
	}
	if s.Fusion == "" {
		s.Fusion = "rrf"
	}
	if s.RRFK == 0 {
		s.RRFK = 60
	}
	if s.VectorWeight == 0 && s.KeywordWeight == 0 {
		s.VectorWeight = 0.7
		s.KeywordWeight = 0.3
	}
	if s.RecallTimeout == 0 {
		s.RecallTimeout = 5 * time.Second
	}
	if s.RerankTimeout == 0 {
		s.RerankTimeout = 10 * time.Second
	}
	if s.RerankMaxRunes == 0 {
		s.RerankMaxRunes = 256
	}
	if s.MaxConcurrency == 0 {
		s.MaxConcurrency = 8
	}
	if s.MaxSnippets == 0 {
		s.MaxSnippets = 3
	}
	if s.SnippetLength == 0 {
		s.SnippetLength = 200
	}
}

// DefaultSearchConfig returns a SearchConfig with every default applied.
func DefaultSearchConfig() *SearchConfig {
	s := &SearchConfig{}
	applySearchDefaults(s)
	return s
}
