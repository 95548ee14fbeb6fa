// Package config provides configuration loading and structs for the askme server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyperjump/askme/internal/query"
	"github.com/hyperjump/askme/internal/ranking"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool                  `yaml:"debug"`
	LogLevel  string                `yaml:"log_level"`
	Server    ServerConfig          `yaml:"server"`
	Storage   StorageConfig         `yaml:"storage"`
	Embedding EmbeddingConfig       `yaml:"embedding"`
	Vector    VectorConfig          `yaml:"vector"`
	Milvus    MilvusConfig          `yaml:"milvus"`
	Rerank    RerankConfig          `yaml:"rerank"`
	Search    SearchConfig          `yaml:"search"`
	Query     QueryConfig           `yaml:"query"`
	Ranking   ranking.RankingConfig `yaml:"ranking"`
	Indexer   IndexerConfig         `yaml:"indexer"`
	Metrics   MetricsConfig         `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	// MaxUploadBytes caps multipart uploads and document index request bodies.
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
}

// StorageConfig holds paths for the metadata database and local indices.
type StorageConfig struct {
	DatabasePath    string `yaml:"database_path"`
	BleveIndexPath  string `yaml:"bleve_index_path"`
	VectorIndexPath string `yaml:"vector_index_path"`
	// KeywordEnabled turns the keyword recall channel on; defaults to true when unset.
	KeywordEnabled *bool `yaml:"keyword_enabled"`
}

// KeywordEnabledOrDefault reports whether the keyword index is enabled; defaults to true.
func (s *StorageConfig) KeywordEnabledOrDefault() bool {
	if s.KeywordEnabled != nil {
		return *s.KeywordEnabled
	}
	return true
}

// EmbeddingConfig holds embedding client settings.
type EmbeddingConfig struct {
	// Provider is "openai" (any OpenAI-compatible endpoint) or "mock".
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Dimensions int    `yaml:"dimensions"`
	CacheSize  int    `yaml:"cache_size"`
}

// VectorConfig selects and tunes the vector store.
type VectorConfig struct {
	// Type is "memory", "hnsw" or "milvus".
	Type     string `yaml:"type"`
	M        int    `yaml:"m"`
	EfSearch int    `yaml:"ef_search"`
}

// MilvusConfig holds Milvus connection settings, used when vector.type is "milvus".
type MilvusConfig struct {
	Address        string `yaml:"address"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	Collection     string `yaml:"collection"`
	HNSWM          int    `yaml:"hnsw_m"`
	EfConstruction int    `yaml:"ef_construction"`
	EfSearch       int    `yaml:"ef_search"`
}

// RerankConfig holds cross-encoder settings. An empty endpoint disables reranking.
type RerankConfig struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
	// Normalize is "none" or "sigmoid" (for servers returning raw logits).
	Normalize string        `yaml:"normalize"`
	Timeout   time.Duration `yaml:"timeout"`
}

// SearchConfig holds pipeline settings.
type SearchConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
	// RecallSize is the per-call recall depth, raised to limit * Oversample for large limits.
	RecallSize int     `yaml:"recall_size"`
	Oversample float64 `yaml:"oversample"`
	// MaxVariants bounds query variants, the normalized query included.
	MaxVariants   int     `yaml:"max_variants"`
	Fusion        string  `yaml:"fusion"`
	RRFK          float64 `yaml:"rrf_k"`
	VectorWeight  float64 `yaml:"vector_weight"`
	KeywordWeight float64 `yaml:"keyword_weight"`
	// Per-request stage defaults; each defaults to true when unset.
	UseRerank       *bool `yaml:"use_rerank"`
	UseQueryEnhance *bool `yaml:"use_query_enhance"`
	UseDiversity    *bool `yaml:"use_diversity"`

	RecallTimeout  time.Duration `yaml:"recall_timeout"`
	RerankTimeout  time.Duration `yaml:"rerank_timeout"`
	RerankMaxRunes int           `yaml:"rerank_max_runes"`
	MaxConcurrency int           `yaml:"max_concurrency"`
	FuzzyKeyword   bool          `yaml:"fuzzy_keyword"`

	MaxSnippets   int     `yaml:"max_snippets"`
	SnippetLength int     `yaml:"snippet_length"`
	MinScore      float64 `yaml:"min_score"`
	// Scopes are the known team/department names for "/<scope> query" prefixes.
	Scopes []string `yaml:"scopes"`
}

// UseRerankOrDefault returns whether to rerank by default; defaults to true when unset.
func (s *SearchConfig) UseRerankOrDefault() bool { return boolOrTrue(s.UseRerank) }

// UseQueryEnhanceOrDefault returns whether to enhance queries by default; defaults to true.
func (s *SearchConfig) UseQueryEnhanceOrDefault() bool { return boolOrTrue(s.UseQueryEnhance) }

// UseDiversityOrDefault returns whether to diversify by default; defaults to true.
func (s *SearchConfig) UseDiversityOrDefault() bool { return boolOrTrue(s.UseDiversity) }

func boolOrTrue(b *bool) bool {
	if b != nil {
		return *b
	}
	return true
}

// QueryConfig overrides the enhancer dictionary. Nil keeps the built-in lists.
type QueryConfig struct {
	Synonyms  []query.Synonym `yaml:"synonyms"`
	Stopwords []string        `yaml:"stopwords"`
}

// IndexerConfig holds chunking and ingestion settings.
type IndexerConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
	Workers      int `yaml:"workers"`
	// WatchDirs are import directories indexed on change.
	WatchDirs  []string `yaml:"watch_dirs"`
	Extensions []string `yaml:"extensions"`
	Recursive  *bool    `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (i *IndexerConfig) RecursiveOrDefault() bool { return boolOrTrue(i.Recursive) }

// MetricsConfig controls the /metrics endpoint.
type MetricsConfig struct {
	Enabled *bool  `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// EnabledOrDefault reports whether metrics are served; defaults to true when unset.
func (m *MetricsConfig) EnabledOrDefault() bool { return boolOrTrue(m.Enabled) }

// Load reads and parses the config file at path, applies defaults and environment overrides,
// expands paths and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	ApplyEnv(&cfg, os.LookupEnv)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.BleveIndexPath = expandPath(cfg.Storage.BleveIndexPath, configDir)
	cfg.Storage.VectorIndexPath = expandPath(cfg.Storage.VectorIndexPath, configDir)
	for i := range cfg.Indexer.WatchDirs {
		cfg.Indexer.WatchDirs[i] = expandPath(cfg.Indexer.WatchDirs[i], configDir)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory. ":memory:" and "" are kept.
func expandPath(path string, configDir string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
