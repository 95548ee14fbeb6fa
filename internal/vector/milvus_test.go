package vector

import (
	"testing"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

func TestFilterExpr(t *testing.T) {
	tests := []struct {
		filter *Filter
		want   string
	}{
		{nil, ""},
		{&Filter{}, ""},
		{&Filter{TeamID: "研发部"}, `team_id == "研发部"`},
		{&Filter{TeamID: `a"b`}, `team_id == "a\"b"`},
	}
	for _, tt := range tests {
		if got := FilterExpr(tt.filter); got != tt.want {
			t.Errorf("FilterExpr(%+v) = %q, want %q", tt.filter, got, tt.want)
		}
	}
}

func TestHitsFromResults(t *testing.T) {
	res := client.SearchResult{
		ResultCount: 2,
		Scores:      []float32{0.9, 0.5},
		Fields: client.ResultSet{
			entity.NewColumnVarChar(fieldID, []string{"c1", "c2"}),
			entity.NewColumnVarChar(fieldDocumentID, []string{"doc1", "doc2"}),
			entity.NewColumnVarChar(fieldTeamID, []string{"t", "t"}),
			entity.NewColumnVarChar(fieldContent, []string{"one", "two"}),
			entity.NewColumnJSONBytes(fieldMetadata, [][]byte{[]byte(`{"category":"ops"}`), nil}),
		},
	}
	hits := hitsFromResults([]client.SearchResult{res})
	if len(hits) != 2 {
		t.Fatalf("len = %d", len(hits))
	}
	if hits[0].ChunkID != "c1" || hits[0].DocumentID != "doc1" || hits[0].Content != "one" {
		t.Errorf("hit 0 = %+v", hits[0])
	}
	if hits[0].Metadata["category"] != "ops" || hits[1].Metadata != nil {
		t.Errorf("metadata = %v / %v", hits[0].Metadata, hits[1].Metadata)
	}
	if hits[1].Score < 0.49 || hits[1].Score > 0.51 {
		t.Errorf("score = %v", hits[1].Score)
	}
	if empty := hitsFromResults(nil); empty == nil || len(empty) != 0 {
		t.Errorf("empty = %v", empty)
	}
}

func TestChunkSchema(t *testing.T) {
	s := chunkSchema("c", 8)
	if s.CollectionName != "c" || len(s.Fields) != 7 {
		t.Fatalf("schema = %+v", s)
	}
	if !s.Fields[0].PrimaryKey || s.Fields[4].TypeParams["dim"] != "8" {
		t.Error("unexpected field params")
	}
}
