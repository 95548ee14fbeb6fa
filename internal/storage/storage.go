// Package storage persists document-level metadata used to describe search hits.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/askme/internal/models"
)

// ErrNotFound is returned when no document has the requested id.
var ErrNotFound = errors.New("document not found")

// MetadataStore resolves document ids to display metadata.
type MetadataStore interface {
	// Lookup returns ErrNotFound (wrapped) when the document is unknown.
	Lookup(ctx context.Context, documentID string) (*models.DocumentInfo, error)
}

// Storage is the full document store used by the indexer and the API.
type Storage interface {
	MetadataStore

	CreateDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	DeleteDocument(ctx context.Context, id string) error
	ListDocuments(ctx context.Context, teamID string, offset, limit int) ([]*models.Document, error)
	CountDocuments(ctx context.Context) (int64, error)

	Close() error
}
