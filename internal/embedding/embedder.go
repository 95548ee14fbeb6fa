// Package embedding turns query and chunk text into dense vectors.
package embedding

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when a provider answers without vectors.
var ErrEmptyResponse = errors.New("embedding provider returned no vectors")

// Embedder produces vector embeddings for text. Implementations must be safe for concurrent use.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	ModelName() string
	Close() error
}
