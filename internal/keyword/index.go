// Package keyword provides lexical (BM25) indexing and search over document chunks.
package keyword

import (
	"context"

	"github.com/hyperjump/askme/internal/models"
)

// SearchOptions optional parameters for keyword search. Nil means use defaults.
type SearchOptions struct {
	// TeamID restricts hits to chunks of one team. Empty means no restriction.
	TeamID string
	// FuzzyEnabled enables fuzzy matching for typo tolerance.
	FuzzyEnabled bool
	// Fuzziness is the maximum Levenshtein edit distance for fuzzy matching (1 or 2).
	// Default is 2 when FuzzyEnabled is true.
	Fuzziness int
}

// Index is a chunk-level keyword index.
type Index interface {
	Index(ctx context.Context, chunks []*models.DocumentChunk) error
	Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*Result, error)
	DeleteDocument(ctx context.Context, documentID string) error
	// DocCount returns the total number of chunks in the index.
	DocCount() (uint64, error)
	Close() error
}

// Result is a single keyword search hit. Score is the raw BM25 score.
type Result struct {
	DocumentID string
	ChunkID    string
	Content    string
	Score      float64
	Metadata   map[string]interface{}
}
