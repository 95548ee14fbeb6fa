package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/hyperjump/askme/internal/models"
	"go.uber.org/zap"
)

func TestSearchArgsReorder(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "flags after query are moved first",
			args:     []string{"部署流程 文档", "-min-score", "0.5"},
			expected: []string{"-min-score", "0.5", "部署流程 文档"},
		},
		{
			name:     "flags first returns unchanged",
			args:     []string{"-min-score", "0.5", "部署流程 文档"},
			expected: []string{"-min-score", "0.5", "部署流程 文档"},
		},
		{
			name:     "query only returns unchanged",
			args:     []string{"部署流程 文档"},
			expected: []string{"部署流程 文档"},
		},
		{
			name:     "empty args returns unchanged",
			args:     []string{},
			expected: []string{},
		},
		{
			name:     "multiple positionals then flags",
			args:     []string{"one", "two", "-limit", "5"},
			expected: []string{"-limit", "5", "one", "two"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := searchArgsReorder(tt.args)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("searchArgsReorder() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBuildSearchQuery(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"single word", []string{"部署"}, "部署"},
		{"multiple words", []string{"deploy", "guide"}, "deploy guide"},
		{"single quoted phrase", []string{"deploy guide"}, "deploy guide"},
		{"three words", []string{"machine", "learning", "algorithms"}, "machine learning algorithms"},
		{"empty args", []string{}, ""},
		{"blank args", []string{"  ", "  "}, ""},
		{"one space", []string{" "}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildSearchQuery(tt.args)
			if got != tt.expected {
				t.Errorf("buildSearchQuery(%v) = %q, want %q", tt.args, got, tt.expected)
			}
		})
	}
}

func TestSearchConfigPathFromArgs(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		defaultPath string
		want   string
	}{
		{"no config flag", []string{"-limit", "5", "query"}, "/default.yaml", "/default.yaml"},
		{"-config present", []string{"-config", "/custom.yaml", "query"}, "/default.yaml", "/custom.yaml"},
		{"--config present", []string{"--config", "/other.yaml"}, "/default.yaml", "/other.yaml"},
		{"config at end", []string{"query", "-config", "/end.yaml"}, "/default.yaml", "/end.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := searchConfigPathFromArgs(tt.args, tt.defaultPath)
			if got != tt.want {
				t.Errorf("searchConfigPathFromArgs() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSearchMinScoreFromConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
embedding:
  provider: mock
  dimensions: 8
search:
  min_score: 0.25
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	if got := searchMinScoreFromConfig(configPath); got != 0.25 {
		t.Errorf("searchMinScoreFromConfig() = %f, want 0.25", got)
	}
	if got := searchMinScoreFromConfig(filepath.Join(dir, "nonexistent.yaml")); got != 0 {
		t.Errorf("searchMinScoreFromConfig(nonexistent) = %f, want 0", got)
	}
}

func TestOptionalBool(t *testing.T) {
	tests := []struct {
		in      string
		want    *bool
		wantErr bool
	}{
		{"", nil, false},
		{"true", models.Bool(true), false},
		{"0", models.Bool(false), false},
		{"maybe", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := optionalBool(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("optionalBool(%q) error = %v", tt.in, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("optionalBool(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestWriteStatusText(t *testing.T) {
	var buf bytes.Buffer
	writeStatusText(&buf, "", map[string]interface{}{
		"documents": 3,
		"config":    map[string]interface{}{"fusion": "rrf", "chunk_size": 512},
	})
	want := "config:\n  chunk_size: 512\n  fusion: rrf\ndocuments: 3\n"
	if buf.String() != want {
		t.Errorf("writeStatusText =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestInitializeComponents(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
embedding:
  provider: mock
  dimensions: 8
vector:
  type: memory
storage:
  database_path: askme.db
  bleve_index_path: bleve
  vector_index_path: vectors.json
indexer:
  chunk_size: 32
  chunk_overlap: 4
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	c, err := initializeComponents(ctx, cfg, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if c.Reranker != nil || c.Engine.HasReranker() {
		t.Error("no rerank endpoint configured, expected no reranker")
	}
	if !c.Engine.HasKeywordChannel() {
		t.Error("keyword channel should be enabled by default")
	}
	if _, err := c.Indexer.IndexDocument(ctx, &models.DocumentInput{ID: "d1", Content: "部署流程说明"}); err != nil {
		t.Fatal(err)
	}
	c.Close()

	if _, err := os.Stat(filepath.Join(dir, "vectors.json")); err != nil {
		t.Errorf("vector snapshot not written on close: %v", err)
	}

	// reopening restores the snapshot
	c, err = initializeComponents(ctx, cfg, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if c.Vectors.Count() == 0 {
		t.Error("expected vectors to be loaded from snapshot")
	}
}

func TestLoadConfig_prefersCwdConfigWhenDefaultPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  host: "localhost"
  port: 8080
storage:
  database_path: "test.db"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(origWd) }()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	// On macOS, cwd can be /private/var/... while configPath from t.TempDir() is /var/...; compare canonical paths.
	resolvedCanon, _ := filepath.EvalSymlinks(resolved)
	configPathCanon, _ := filepath.EvalSymlinks(configPath)
	if resolvedCanon != configPathCanon {
		t.Errorf("resolved path = %s (canon %s), want %s (canon %s)", resolved, resolvedCanon, configPath, configPathCanon)
	}
	if !cfg.Debug {
		t.Error("debug should be true from cwd config.yaml")
	}
}

func TestLoadConfig_usesExplicitPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "test.db"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != configPath {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
}
