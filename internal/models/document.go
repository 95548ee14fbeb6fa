// Package models defines core data structures for documents, queries, candidates, and search results.
package models

import "time"

// Document represents a stored document. Only the fields needed to describe a search hit are
// persisted; chunk content lives in the vector and keyword indices.
type Document struct {
	ID        string                 `json:"id" db:"id"`
	Filename  string                 `json:"filename" db:"filename"`
	TeamID    string                 `json:"team_id,omitempty" db:"team_id"`
	Metadata  map[string]interface{} `json:"metadata,omitempty" db:"metadata"`
	CreatedAt time.Time              `json:"created_at" db:"created_at"`
}

// DocumentInfo is what the metadata store returns for a document id.
type DocumentInfo struct {
	Filename  string    `json:"filename"`
	CreatedAt time.Time `json:"created_at"`
}

// DocumentChunk represents a chunk of a document, the unit of recall.
type DocumentChunk struct {
	ID         string                 `json:"id"`
	DocumentID string                 `json:"document_id"`
	TeamID     string                 `json:"team_id,omitempty"`
	Content    string                 `json:"content"`
	ChunkIndex int                    `json:"chunk_index"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	Embedding  []float32              `json:"-"`
}

// DocumentInput is the input for indexing a document.
type DocumentInput struct {
	ID       string                 `json:"id,omitempty"`
	Filename string                 `json:"filename"`
	TeamID   string                 `json:"team_id,omitempty"`
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}
