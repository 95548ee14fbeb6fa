package vector

import (
	"context"
	"fmt"
)

// StoreType selects a vector store backend.
type StoreType string

const (
	// StoreTypeMemory uses in-memory brute-force search. Good for small corpora and tests.
	StoreTypeMemory StoreType = "memory"
	// StoreTypeHNSW uses an in-process HNSW graph.
	StoreTypeHNSW StoreType = "hnsw"
	// StoreTypeMilvus uses a remote Milvus collection.
	StoreTypeMilvus StoreType = "milvus"
)

// Options selects and configures a backend.
type Options struct {
	Type       string
	Dimensions int
	HNSW       HNSWConfig
	Milvus     MilvusConfig
}

// NewStore creates a store of the requested type. Supported types: "memory" (default),
// "hnsw", "milvus".
func NewStore(ctx context.Context, opts Options) (Store, error) {
	switch StoreType(opts.Type) {
	case StoreTypeMemory, "":
		return NewMemoryStore(opts.Dimensions)
	case StoreTypeHNSW:
		cfg := opts.HNSW
		cfg.Dimensions = opts.Dimensions
		return NewHNSWStore(cfg)
	case StoreTypeMilvus:
		cfg := opts.Milvus
		cfg.Dimensions = opts.Dimensions
		return NewMilvusStore(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown vector store type: %s (supported: memory, hnsw, milvus)", opts.Type)
	}
}
