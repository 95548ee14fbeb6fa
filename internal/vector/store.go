// Package vector stores chunk embeddings and answers cosine-similarity queries with an optional
// team filter.
package vector

import (
	"context"
	"errors"

	"github.com/hyperjump/askme/internal/models"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("vector store is closed")

// Store is a chunk-level vector store.
type Store interface {
	// Upsert writes chunks; each chunk must carry an Embedding of the store's dimension.
	Upsert(ctx context.Context, chunks []*models.DocumentChunk) error
	// Search returns at most topK hits ordered by descending cosine similarity. A store with no
	// data (or no collection) returns an empty slice and no error.
	Search(ctx context.Context, query []float32, topK int, filter *Filter) ([]*Hit, error)
	DeleteDocument(ctx context.Context, documentID string) error
	Count() int
	Close() error
}

// Persister is implemented by in-process stores that snapshot to disk.
type Persister interface {
	Save(path string) error
	Load(path string) error
}

// Hit is a single vector search hit.
type Hit struct {
	DocumentID string
	ChunkID    string
	TeamID     string
	Content    string
	Score      float64 // cosine similarity
	Metadata   map[string]interface{}
}

// Filter restricts search to an equality match on team id. A nil filter or empty TeamID
// matches everything.
type Filter struct {
	TeamID string
}

// Matches reports whether a record with teamID passes the filter.
func (f *Filter) Matches(teamID string) bool {
	return f == nil || f.TeamID == "" || f.TeamID == teamID
}

// record is the stored form of a chunk.
type record struct {
	ChunkID    string                 `json:"chunk_id"`
	DocumentID string                 `json:"document_id"`
	TeamID     string                 `json:"team_id,omitempty"`
	Content    string                 `json:"content"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	Vector     []float32              `json:"vector"`
}

func newRecord(c *models.DocumentChunk) *record {
	vec := make([]float32, len(c.Embedding))
	copy(vec, c.Embedding)
	return &record{
		ChunkID:    c.ID,
		DocumentID: c.DocumentID,
		TeamID:     c.TeamID,
		Content:    c.Content,
		Metadata:   c.Metadata,
		Vector:     vec,
	}
}

func (r *record) hit(score float64) *Hit {
	return &Hit{
		DocumentID: r.DocumentID,
		ChunkID:    r.ChunkID,
		TeamID:     r.TeamID,
		Content:    r.Content,
		Score:      score,
		Metadata:   r.Metadata,
	}
}
