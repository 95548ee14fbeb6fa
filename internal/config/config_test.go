package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "test.db"
search:
  recall_timeout: 2s
  use_rerank: false
ranking:
  similarity_weight: 0.7
  quality_weight: 0.3
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Storage.DatabasePath == "" {
		t.Error("database_path should be set")
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
	if cfg.Search.RecallTimeout != 2*time.Second {
		t.Errorf("recall_timeout = %v", cfg.Search.RecallTimeout)
	}
	if cfg.Search.UseRerankOrDefault() {
		t.Error("use_rerank: false should be kept")
	}
	if !cfg.Search.UseDiversityOrDefault() {
		t.Error("use_diversity should default to true")
	}
	if cfg.Ranking.SimilarityWeight != 0.7 || cfg.Ranking.RecencyWeight != 0 || cfg.Ranking.QualityWeight != 0.3 {
		t.Errorf("explicit ranking weights should be kept: %+v", cfg.Ranking)
	}
	if cfg.Ranking.DiversityFactor != 0.3 {
		t.Errorf("diversity_factor default = %v", cfg.Ranking.DiversityFactor)
	}
}

func TestLoad_debugTrue(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
debug: true
storage:
  database_path: "test.db"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
storage:
  database_path: "./data/db/documents.db"
indexer:
  watch_dirs: ["./dev/sample"]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	wantDB := filepath.Join(dir, "data", "db", "documents.db")
	if cfg.Storage.DatabasePath != wantDB {
		t.Errorf("database_path = %s, want %s", cfg.Storage.DatabasePath, wantDB)
	}
	if len(cfg.Indexer.WatchDirs) != 1 || cfg.Indexer.WatchDirs[0] != filepath.Join(dir, "dev", "sample") {
		t.Errorf("watch_dirs = %v", cfg.Indexer.WatchDirs)
	}
	if cfg.Indexer.Recursive == nil || !*cfg.Indexer.Recursive {
		t.Error("recursive should default to true when watch_dirs are set")
	}
}

func TestLoad_keepsMemoryDatabase(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
storage:
  database_path: ":memory:"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Storage.DatabasePath != ":memory:" {
		t.Errorf("database_path = %q", cfg.Storage.DatabasePath)
	}
}

func TestLoad_invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad fusion", "search:\n  fusion: borda\n", "search.fusion"},
		{"bad vector type", "vector:\n  type: faiss\n", "vector.type"},
		{"bad provider", "embedding:\n  provider: onnx\n", "embedding.provider"},
		{"overlap too large", "indexer:\n  chunk_size: 10\n  chunk_overlap: 10\n", "chunk_overlap"},
		{"negative weight", "ranking:\n  recency_weight: -1\n", "ranking weights"},
		{"too many snippets", "search:\n  max_snippets: 5\n", "search.max_snippets"},
		{"bad yaml", "server: [", "failed to parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.content)
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" || cfg.Server.Port != 8000 {
		t.Errorf("default server: %+v", cfg.Server)
	}
	if cfg.Search.DefaultLimit != 10 || cfg.Search.RecallSize != 15 {
		t.Errorf("default search: %+v", cfg.Search)
	}
	if cfg.Search.Fusion != "rrf" || cfg.Search.RRFK != 60 {
		t.Errorf("default fusion: %s k=%v", cfg.Search.Fusion, cfg.Search.RRFK)
	}
	if cfg.Search.VectorWeight != 0.7 || cfg.Search.KeywordWeight != 0.3 {
		t.Errorf("default fusion weights: %v/%v", cfg.Search.VectorWeight, cfg.Search.KeywordWeight)
	}
	if cfg.Search.RecallTimeout != 5*time.Second || cfg.Search.RerankTimeout != 10*time.Second {
		t.Errorf("default timeouts: %v/%v", cfg.Search.RecallTimeout, cfg.Search.RerankTimeout)
	}
	if cfg.Ranking.SimilarityWeight != 0.4 {
		t.Errorf("ranking defaults not applied: %+v", cfg.Ranking)
	}
	if cfg.Vector.Type != "hnsw" {
		t.Errorf("default vector type: %s", cfg.Vector.Type)
	}
	if len(cfg.Indexer.Extensions) == 0 || cfg.Indexer.Extensions[0] != ".txt" {
		t.Errorf("indexer extensions: %v", cfg.Indexer.Extensions)
	}
	if cfg.Indexer.Recursive != nil {
		t.Error("recursive should stay unset without watch_dirs")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvPort:           "9100",
		EnvEmbeddingKey:   "sk-test",
		EnvRerankEndpoint: "http://reranker:8080",
	}
	cfg := &Config{}
	ApplyDefaults(cfg)
	ApplyEnv(cfg, func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	if cfg.Server.Port != 9100 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Embedding.APIKey != "sk-test" {
		t.Errorf("api key = %q", cfg.Embedding.APIKey)
	}
	if cfg.Rerank.Endpoint != "http://reranker:8080" {
		t.Errorf("rerank endpoint = %q", cfg.Rerank.Endpoint)
	}

	env[EnvPort] = "not-a-port"
	ApplyEnv(cfg, func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	if cfg.Server.Port != 9100 {
		t.Errorf("invalid port should be ignored, got %d", cfg.Server.Port)
	}
}

func TestBoolDefaults(t *testing.T) {
	f := false
	s := &SearchConfig{UseQueryEnhance: &f}
	if !s.UseRerankOrDefault() {
		t.Error("nil use_rerank should default to true")
	}
	if s.UseQueryEnhanceOrDefault() {
		t.Error("explicit false should be kept")
	}
	st := &StorageConfig{}
	if !st.KeywordEnabledOrDefault() {
		t.Error("keyword index should default to enabled")
	}
	m := &MetricsConfig{Enabled: &f}
	if m.EnabledOrDefault() {
		t.Error("metrics explicitly disabled")
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.yaml")
	cfg := &Config{
		Server:  ServerConfig{Host: "localhost", Port: 9090},
		Storage: StorageConfig{DatabasePath: "/tmp/db"},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "ranking:\n  similarity_weight: 0.4\n")

	reloaded := make(chan *Config, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w, err := Watch(ctx, path, func(c *Config) { reloaded <- c }, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(path, []byte("ranking:\n  similarity_weight: 0.9\n"), 0600); err != nil {
		t.Fatal(err)
	}
	// Other files in the directory are ignored.
	if err := os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1"), 0600); err != nil {
		t.Fatal(err)
	}

	select {
	case c := <-reloaded:
		if c.Ranking.SimilarityWeight != 0.9 {
			t.Errorf("reloaded weight = %v", c.Ranking.SimilarityWeight)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("config was not reloaded")
	}
}
