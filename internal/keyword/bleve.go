package keyword

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/blevesearch/bleve/v2"
	keywordanalyzer "github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/cjk"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/hyperjump/askme/internal/models"
)

// Stored field names.
const (
	fieldDocumentID = "document_id"
	fieldChunkID    = "chunk_id"
	fieldTeamID     = "team_id"
	fieldContent    = "content"
	fieldMetadata   = "metadata_json"
)

// chunkDoc is the bleve document for one chunk.
type chunkDoc struct {
	DocumentID string `json:"document_id"`
	ChunkID    string `json:"chunk_id"`
	TeamID     string `json:"team_id"`
	Content    string `json:"content"`
	Metadata   string `json:"metadata_json"`
}

// BleveIndex implements Index using Bleve.
type BleveIndex struct {
	index bleve.Index
}

func newMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	doc := bleve.NewDocumentMapping()

	// cjk: unicode tokenizer, width folding, lowercase and CJK bigrams, so Chinese text
	// matches without a dictionary segmenter and English words match exactly.
	content := bleve.NewTextFieldMapping()
	content.Analyzer = cjk.AnalyzerName
	content.Store = true
	doc.AddFieldMappingsAt(fieldContent, content)

	for _, name := range []string{fieldDocumentID, fieldChunkID, fieldTeamID} {
		kw := bleve.NewTextFieldMapping()
		kw.Analyzer = keywordanalyzer.Name
		kw.Store = true
		doc.AddFieldMappingsAt(name, kw)
	}

	meta := bleve.NewTextFieldMapping()
	meta.Index = false
	meta.Store = true
	meta.IncludeInAll = false
	doc.AddFieldMappingsAt(fieldMetadata, meta)

	im.AddDocumentMapping("chunk", doc)
	im.DefaultType = "chunk"
	im.DefaultMapping = doc
	return im
}

// NewBleveIndex creates or opens a Bleve index at path. An empty path creates an in-memory
// index. If you change the index mapping in code, remove the index directory to force a full
// re-index.
func NewBleveIndex(path string) (*BleveIndex, error) {
	if path == "" {
		index, err := bleve.NewMemOnly(newMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory Bleve index: %w", err)
		}
		return &BleveIndex{index: index}, nil
	}

	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &BleveIndex{index: index}, nil
	}

	index, err := bleve.New(path, newMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// Index adds or replaces chunks in one batch, keyed by chunk id.
func (b *BleveIndex) Index(ctx context.Context, chunks []*models.DocumentChunk) error {
	batch := b.index.NewBatch()
	for _, c := range chunks {
		meta := ""
		if len(c.Metadata) > 0 {
			raw, err := json.Marshal(c.Metadata)
			if err != nil {
				return fmt.Errorf("encode metadata for chunk %s: %w", c.ID, err)
			}
			meta = string(raw)
		}
		doc := chunkDoc{
			DocumentID: c.DocumentID,
			ChunkID:    c.ID,
			TeamID:     c.TeamID,
			Content:    c.Content,
			Metadata:   meta,
		}
		if err := batch.Index(c.ID, doc); err != nil {
			return fmt.Errorf("batch chunk %s: %w", c.ID, err)
		}
	}
	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("Bleve batch failed: %w", err)
	}
	return nil
}

// Search runs a match (or fuzzy) query over chunk content and returns up to limit hits,
// restricted to opts.TeamID when set.
func (b *BleveIndex) Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*Result, error) {
	if limit <= 0 || strings.TrimSpace(query) == "" {
		return []*Result{}, nil
	}
	var teamID string
	fuzzyEnabled := false
	fuzziness := 2
	if opts != nil {
		teamID = opts.TeamID
		fuzzyEnabled = opts.FuzzyEnabled
		if opts.Fuzziness > 0 {
			fuzziness = opts.Fuzziness
		}
	}

	var q blevequery.Query
	if fuzzyEnabled {
		q = buildFuzzyQuery(query, fuzziness)
	} else {
		mq := bleve.NewMatchQuery(query)
		mq.SetField(fieldContent)
		q = mq
	}
	if teamID != "" {
		tq := bleve.NewTermQuery(teamID)
		tq.SetField(fieldTeamID)
		q = bleve.NewConjunctionQuery(q, tq)
	}

	req := bleve.NewSearchRequest(q)
	req.Size = limit
	req.Fields = []string{fieldDocumentID, fieldChunkID, fieldContent, fieldMetadata}
	results, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	out := make([]*Result, 0, len(results.Hits))
	for _, hit := range results.Hits {
		r := &Result{
			DocumentID: stringField(hit.Fields, fieldDocumentID),
			ChunkID:    stringField(hit.Fields, fieldChunkID),
			Content:    stringField(hit.Fields, fieldContent),
			Score:      hit.Score,
		}
		if r.ChunkID == "" {
			r.ChunkID = hit.ID
		}
		if raw := stringField(hit.Fields, fieldMetadata); raw != "" {
			var m map[string]interface{}
			if json.Unmarshal([]byte(raw), &m) == nil {
				r.Metadata = m
			}
		}
		out = append(out, r)
	}
	return out, nil
}

func stringField(fields map[string]interface{}, name string) string {
	if v, ok := fields[name].(string); ok {
		return v
	}
	return ""
}

// tokenizeQuery splits query into lowercase terms, filtering out empty strings.
func tokenizeQuery(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// buildFuzzyQuery creates a disjunction of FuzzyQueries over content, one per query term.
func buildFuzzyQuery(queryStr string, fuzziness int) blevequery.Query {
	terms := tokenizeQuery(queryStr)
	if len(terms) == 0 {
		mq := bleve.NewMatchQuery(queryStr)
		mq.SetField(fieldContent)
		return mq
	}
	queries := make([]blevequery.Query, 0, len(terms))
	for _, term := range terms {
		fq := bleve.NewFuzzyQuery(term)
		fq.SetFuzziness(fuzziness)
		fq.SetField(fieldContent)
		queries = append(queries, fq)
	}
	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewDisjunctionQuery(queries...)
}

// DeleteDocument removes every chunk of documentID.
func (b *BleveIndex) DeleteDocument(ctx context.Context, documentID string) error {
	tq := bleve.NewTermQuery(documentID)
	tq.SetField(fieldDocumentID)
	for {
		req := bleve.NewSearchRequest(tq)
		req.Size = 1000
		res, err := b.index.SearchInContext(ctx, req)
		if err != nil {
			return fmt.Errorf("Bleve search failed: %w", err)
		}
		if len(res.Hits) == 0 {
			return nil
		}
		batch := b.index.NewBatch()
		for _, hit := range res.Hits {
			batch.Delete(hit.ID)
		}
		if err := b.index.Batch(batch); err != nil {
			return fmt.Errorf("Bleve delete failed: %w", err)
		}
	}
}

// DocCount returns the total number of chunks in the index.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}
