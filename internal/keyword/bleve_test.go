package keyword

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/askme/internal/models"
)

func sampleChunks() []*models.DocumentChunk {
	return []*models.DocumentChunk{
		{ID: "c1", DocumentID: "doc1", TeamID: "研发部", Content: "部署流程说明：先构建镜像，再发布到集群。", Metadata: map[string]interface{}{"category": "ops"}},
		{ID: "c2", DocumentID: "doc1", TeamID: "研发部", Content: "This report mentions Omnisyan and the Bayes app."},
		{ID: "c3", DocumentID: "doc2", TeamID: "sales", Content: "季度销售报告与部署无关的内容"},
	}
}

func newTestIndex(t *testing.T) *BleveIndex {
	t.Helper()
	idx, err := NewBleveIndex("")
	if err != nil {
		t.Fatalf("NewBleveIndex: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	if err := idx.Index(context.Background(), sampleChunks()); err != nil {
		t.Fatalf("Index: %v", err)
	}
	return idx
}

func TestBleveIndex_SearchFindsEnglishContent(t *testing.T) {
	idx := newTestIndex(t)
	results, err := idx.Search(context.Background(), "Omnisyan", 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 {
		t.Fatal("expected a hit for Omnisyan")
	}
	if results[0].ChunkID != "c2" || results[0].DocumentID != "doc1" {
		t.Errorf("first result = %+v", results[0])
	}
	if results[0].Content == "" {
		t.Error("content should be stored and returned")
	}
}

func TestBleveIndex_SearchFindsChineseContent(t *testing.T) {
	idx := newTestIndex(t)
	results, err := idx.Search(context.Background(), "部署流程", 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 || results[0].ChunkID != "c1" {
		t.Fatalf("results = %+v", results)
	}
	if results[0].Metadata["category"] != "ops" {
		t.Errorf("metadata = %v", results[0].Metadata)
	}
}

func TestBleveIndex_TeamFilter(t *testing.T) {
	idx := newTestIndex(t)
	results, err := idx.Search(context.Background(), "部署", 10, &SearchOptions{TeamID: "sales"})
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range results {
		if r.DocumentID != "doc2" {
			t.Errorf("team filter leaked %+v", r)
		}
	}
	if len(results) != 1 {
		t.Errorf("len = %d, want 1", len(results))
	}
}

func TestBleveIndex_Fuzzy(t *testing.T) {
	idx := newTestIndex(t)
	results, err := idx.Search(context.Background(), "omnisyn", 10, &SearchOptions{FuzzyEnabled: true, Fuzziness: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 || results[0].ChunkID != "c2" {
		t.Errorf("results = %+v", results)
	}
}

func TestBleveIndex_EmptyQuery(t *testing.T) {
	idx := newTestIndex(t)
	results, err := idx.Search(context.Background(), "  ", 10, nil)
	if err != nil || len(results) != 0 {
		t.Errorf("got %v, %v", results, err)
	}
}

func TestBleveIndex_DeleteDocument(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	if err := idx.DeleteDocument(ctx, "doc1"); err != nil {
		t.Fatal(err)
	}
	n, err := idx.DocCount()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("DocCount = %d, want 1", n)
	}
	results, _ := idx.Search(ctx, "Omnisyan", 10, nil)
	if len(results) != 0 {
		t.Errorf("deleted chunk still found: %+v", results)
	}
}

func TestNewBleveIndex_ReopensExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bleve")
	idx, err := NewBleveIndex(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := idx.Index(context.Background(), sampleChunks()); err != nil {
		t.Fatal(err)
	}
	_ = idx.Close()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("index dir not created: %v", err)
	}

	reopened, err := NewBleveIndex(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	n, _ := reopened.DocCount()
	if n != 3 {
		t.Errorf("DocCount after reopen = %d, want 3", n)
	}
}
