// Package indexer chunks documents, embeds the chunks and writes them to the vector store, the
// keyword index and the metadata store.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hyperjump/askme/internal/config"
	"github.com/hyperjump/askme/internal/embedding"
	"github.com/hyperjump/askme/internal/extract"
	"github.com/hyperjump/askme/internal/keyword"
	"github.com/hyperjump/askme/internal/metrics"
	"github.com/hyperjump/askme/internal/models"
	"github.com/hyperjump/askme/internal/ranking"
	"github.com/hyperjump/askme/internal/storage"
	"github.com/hyperjump/askme/internal/vector"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

// ErrEmptyContent is returned for documents with no indexable text.
var ErrEmptyContent = errors.New("document content is empty")

// Chunk metadata keys written by the indexer. Profile keys come from extract.Profile.
const (
	MetaCreatedAt = ranking.MetaCreatedAt
	MetaFilename  = "filename"
)

// Indexer indexes documents into the metadata store, the vector store and the keyword index.
type Indexer struct {
	storage   storage.Storage
	embedder  embedding.Embedder
	vectors   vector.Store
	keywords  keyword.Index // optional
	chunker   *Chunker
	extractor *extract.Extractor
	pool      *ants.Pool
	logger    *zap.Logger
	now       func() time.Time
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithLogger sets the indexer logger.
func WithLogger(l *zap.Logger) Option {
	return func(idx *Indexer) {
		if l != nil {
			idx.logger = l
		}
	}
}

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(idx *Indexer) { idx.now = now }
}

// NewIndexer creates an indexer. keywords may be nil when the keyword channel is disabled.
// Bulk operations run on a pool of cfg.Workers goroutines; call Close to release it.
func NewIndexer(
	store storage.Storage,
	embedder embedding.Embedder,
	vectors vector.Store,
	keywords keyword.Index,
	cfg *config.IndexerConfig,
	opts ...Option,
) (*Indexer, error) {
	if cfg == nil {
		cfg = &config.IndexerConfig{}
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("create indexing pool: %w", err)
	}
	idx := &Indexer{
		storage:   store,
		embedder:  embedder,
		vectors:   vectors,
		keywords:  keywords,
		chunker:   NewChunker(cfg.ChunkSize, cfg.ChunkOverlap),
		extractor: extract.NewExtractor(),
		pool:      pool,
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx, nil
}

// Close releases the worker pool.
func (idx *Indexer) Close() {
	idx.pool.Release()
}

// IndexDocument indexes one document, replacing any document with the same id. Chunks carry
// the document metadata, its content profile and created_at.
func (idx *Indexer) IndexDocument(ctx context.Context, input *models.DocumentInput) (*models.Document, error) {
	content := Preprocess(input.Content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	if input.ID == "" {
		input.ID = uuid.New().String()
	}
	filename := input.Filename
	if filename == "" {
		filename = input.ID
	}

	if _, err := idx.storage.GetDocument(ctx, input.ID); err == nil {
		if err := idx.removeChunks(ctx, input.ID); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up document: %w", err)
	}

	doc := &models.Document{
		ID:        input.ID,
		Filename:  filename,
		TeamID:    input.TeamID,
		Metadata:  input.Metadata,
		CreatedAt: idx.now().UTC(),
	}
	chunkMeta := chunkMetadata(doc, extract.Analyze(content))

	chunks := idx.chunker.Chunk(doc.ID, content)
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		c.TeamID = doc.TeamID
		c.Metadata = chunkMeta
		texts[i] = c.Content
	}
	embeddings, err := idx.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return nil, fmt.Errorf("failed to generate embeddings: got %d for %d chunks", len(embeddings), len(chunks))
	}
	for i := range chunks {
		chunks[i].Embedding = embeddings[i]
	}

	if err := idx.vectors.Upsert(ctx, chunks); err != nil {
		return nil, fmt.Errorf("failed to index vectors: %w", err)
	}
	if idx.keywords != nil {
		if err := idx.keywords.Index(ctx, chunks); err != nil {
			return nil, fmt.Errorf("failed to index keywords: %w", err)
		}
	}
	if err := idx.storage.CreateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to store document: %w", err)
	}

	metrics.DocumentsIndexed.Inc()
	idx.logger.Debug("document indexed",
		zap.String("document_id", doc.ID),
		zap.String("filename", doc.Filename),
		zap.String("team_id", doc.TeamID),
		zap.Int("chunks", len(chunks)))
	return doc, nil
}

// chunkMetadata merges the document metadata with the content profile. Document keys win so
// callers can pin content_type or language explicitly.
func chunkMetadata(doc *models.Document, profile extract.Profile) map[string]interface{} {
	meta := profile.Metadata()
	for k, v := range doc.Metadata {
		meta[k] = v
	}
	meta[MetaFilename] = doc.Filename
	if _, ok := doc.Metadata[MetaCreatedAt]; !ok {
		meta[MetaCreatedAt] = doc.CreatedAt.Format(time.RFC3339)
	}
	return meta
}

// BatchError is a failed document of a batch.
type BatchError struct {
	Index int    `json:"index"`
	ID    string `json:"id,omitempty"`
	Err   string `json:"error"`
}

// BatchResult summarises a bulk indexing run.
type BatchResult struct {
	Indexed []*models.Document `json:"documents"`
	Failed  []BatchError       `json:"failed,omitempty"`
}

// IndexBatch indexes inputs concurrently on the worker pool. Per-document failures are
// collected; the returned error is non-nil only when ctx is cancelled.
func (idx *Indexer) IndexBatch(ctx context.Context, inputs []*models.DocumentInput) (*BatchResult, error) {
	docs := make([]*models.Document, len(inputs))
	errs := make([]error, len(inputs))
	var wg sync.WaitGroup
	for i, in := range inputs {
		if err := ctx.Err(); err != nil {
			errs[i] = err
			continue
		}
		wg.Add(1)
		if err := idx.pool.Submit(func() {
			defer wg.Done()
			docs[i], errs[i] = idx.IndexDocument(ctx, in)
		}); err != nil {
			wg.Done()
			errs[i] = fmt.Errorf("submit: %w", err)
		}
	}
	wg.Wait()

	res := &BatchResult{Indexed: make([]*models.Document, 0, len(inputs))}
	for i, err := range errs {
		if err != nil {
			res.Failed = append(res.Failed, BatchError{Index: i, ID: inputs[i].ID, Err: err.Error()})
			idx.logger.Warn("document not indexed", zap.Int("index", i), zap.String("document_id", inputs[i].ID), zap.Error(err))
			continue
		}
		res.Indexed = append(res.Indexed, docs[i])
	}
	return res, ctx.Err()
}

// IndexUpload extracts an uploaded file by its extension and indexes it.
func (idx *Indexer) IndexUpload(ctx context.Context, filename, teamID string, content []byte, meta map[string]interface{}) (*models.Document, error) {
	extracted, err := idx.extractor.ExtractBytes(content, filepath.Ext(filename))
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", filename, err)
	}
	return idx.IndexDocument(ctx, &models.DocumentInput{
		Filename: filepath.Base(filename),
		TeamID:   teamID,
		Content:  extracted.Text,
		Metadata: withFormat(meta, extracted.Format),
	})
}

func withFormat(meta map[string]interface{}, format extract.Format) map[string]interface{} {
	out := make(map[string]interface{}, len(meta)+1)
	for k, v := range meta {
		out[k] = v
	}
	out["source_format"] = string(format)
	return out
}

// DeleteDocument removes a document from every index and the metadata store. Returns
// storage.ErrNotFound (wrapped) for unknown ids.
func (idx *Indexer) DeleteDocument(ctx context.Context, id string) error {
	if _, err := idx.storage.GetDocument(ctx, id); err != nil {
		return err
	}
	if err := idx.removeChunks(ctx, id); err != nil {
		return err
	}
	if err := idx.storage.DeleteDocument(ctx, id); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	idx.logger.Debug("document deleted", zap.String("document_id", id))
	return nil
}

func (idx *Indexer) removeChunks(ctx context.Context, id string) error {
	if err := idx.vectors.DeleteDocument(ctx, id); err != nil {
		return fmt.Errorf("failed to delete from vector store: %w", err)
	}
	if idx.keywords != nil {
		if err := idx.keywords.DeleteDocument(ctx, id); err != nil {
			return fmt.Errorf("failed to delete from keyword index: %w", err)
		}
	}
	return nil
}

func extensionAllowed(ext string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == ext {
			return true
		}
	}
	return false
}
