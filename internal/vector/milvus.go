package vector

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/hyperjump/askme/internal/models"
	"github.com/hyperjump/askme/pkg/utils"
)

var tracer = otel.Tracer("askme/vector")

// Milvus field names.
const (
	fieldID         = "id"
	fieldDocumentID = "document_id"
	fieldTeamID     = "team_id"
	fieldContent    = "content"
	fieldEmbedding  = "embedding"
	fieldMetadata   = "metadata"
	fieldCreatedAt  = "created_at"

	maxContentRunes = 16000
)

var outputFields = []string{fieldID, fieldDocumentID, fieldTeamID, fieldContent, fieldMetadata}

// MilvusConfig configures the Milvus store.
type MilvusConfig struct {
	Address            string
	Username           string
	Password           string
	Collection         string
	Dimensions         int
	HNSWM              int
	HNSWEfConstruction int
	EfSearch           int
	Logger             *zap.Logger
}

// MilvusStore stores chunks in a Milvus collection, one entity per chunk.
type MilvusStore struct {
	client client.Client
	cfg    MilvusConfig
	logger *zap.Logger
}

// NewMilvusStore connects to Milvus and makes sure the collection exists and is loaded.
func NewMilvusStore(ctx context.Context, cfg MilvusConfig) (*MilvusStore, error) {
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	if cfg.Collection == "" {
		cfg.Collection = "askme_chunks"
	}
	if cfg.HNSWM == 0 {
		cfg.HNSWM = 16
	}
	if cfg.HNSWEfConstruction == 0 {
		cfg.HNSWEfConstruction = 200
	}
	if cfg.EfSearch == 0 {
		cfg.EfSearch = 64
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	c, err := client.NewClient(ctx, client.Config{
		Address:  cfg.Address,
		Username: cfg.Username,
		Password: cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to milvus: %w", err)
	}
	s := &MilvusStore{client: c, cfg: cfg, logger: logger}
	if err := s.ensureCollection(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return s, nil
}

// Schema returns the chunk collection schema.
func (s *MilvusStore) Schema() *entity.Schema {
	return chunkSchema(s.cfg.Collection, s.cfg.Dimensions)
}

func chunkSchema(collection string, dims int) *entity.Schema {
	varchar := func(name string, maxLen int, primary bool) *entity.Field {
		return &entity.Field{
			Name:       name,
			DataType:   entity.FieldTypeVarChar,
			PrimaryKey: primary,
			TypeParams: map[string]string{"max_length": strconv.Itoa(maxLen)},
		}
	}
	return &entity.Schema{
		CollectionName: collection,
		Description:    "document chunks for semantic search",
		Fields: []*entity.Field{
			varchar(fieldID, 128, true),
			varchar(fieldDocumentID, 128, false),
			varchar(fieldTeamID, 256, false),
			varchar(fieldContent, 65535, false),
			{
				Name:       fieldEmbedding,
				DataType:   entity.FieldTypeFloatVector,
				TypeParams: map[string]string{"dim": strconv.Itoa(dims)},
			},
			{Name: fieldMetadata, DataType: entity.FieldTypeJSON},
			{Name: fieldCreatedAt, DataType: entity.FieldTypeInt64},
		},
	}
}

func (s *MilvusStore) ensureCollection(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "milvus.EnsureCollection",
		trace.WithAttributes(attribute.String("collection", s.cfg.Collection)))
	defer span.End()

	has, err := s.client.HasCollection(ctx, s.cfg.Collection)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("check collection: %w", err)
	}
	if !has {
		if err := s.client.CreateCollection(ctx, s.Schema(), entity.DefaultShardNumber); err != nil {
			span.RecordError(err)
			return fmt.Errorf("create collection: %w", err)
		}
		idx, err := entity.NewIndexHNSW(entity.COSINE, s.cfg.HNSWM, s.cfg.HNSWEfConstruction)
		if err != nil {
			return fmt.Errorf("build index params: %w", err)
		}
		if err := s.client.CreateIndex(ctx, s.cfg.Collection, fieldEmbedding, idx, false); err != nil {
			span.RecordError(err)
			return fmt.Errorf("create index: %w", err)
		}
		s.logger.Info("created milvus collection", zap.String("collection", s.cfg.Collection))
	}
	if err := s.client.LoadCollection(ctx, s.cfg.Collection, false); err != nil {
		span.RecordError(err)
		return fmt.Errorf("load collection: %w", err)
	}
	return nil
}

// Upsert writes chunks as entities keyed by chunk id.
func (s *MilvusStore) Upsert(ctx context.Context, chunks []*models.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	ctx, span := tracer.Start(ctx, "milvus.Upsert",
		trace.WithAttributes(attribute.Int("count", len(chunks))))
	defer span.End()

	n := len(chunks)
	ids := make([]string, n)
	docIDs := make([]string, n)
	teams := make([]string, n)
	contents := make([]string, n)
	vectors := make([][]float32, n)
	metas := make([][]byte, n)
	created := make([]int64, n)
	now := time.Now().Unix()
	for i, c := range chunks {
		if err := checkDims(s.cfg.Dimensions, c.Embedding); err != nil {
			return fmt.Errorf("chunk %s: %w", c.ID, err)
		}
		meta := c.Metadata
		if meta == nil {
			meta = map[string]interface{}{}
		}
		b, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("encode metadata for chunk %s: %w", c.ID, err)
		}
		ids[i] = c.ID
		docIDs[i] = c.DocumentID
		teams[i] = c.TeamID
		contents[i] = utils.TruncateRunes(c.Content, maxContentRunes)
		vectors[i] = c.Embedding
		metas[i] = b
		created[i] = now
	}

	_, err := s.client.Upsert(ctx, s.cfg.Collection, "",
		entity.NewColumnVarChar(fieldID, ids),
		entity.NewColumnVarChar(fieldDocumentID, docIDs),
		entity.NewColumnVarChar(fieldTeamID, teams),
		entity.NewColumnVarChar(fieldContent, contents),
		entity.NewColumnFloatVector(fieldEmbedding, s.cfg.Dimensions, vectors),
		entity.NewColumnJSONBytes(fieldMetadata, metas),
		entity.NewColumnInt64(fieldCreatedAt, created),
	)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("upsert chunks: %w", err)
	}
	return nil
}

// Search runs a COSINE HNSW search. A missing collection yields no hits.
func (s *MilvusStore) Search(ctx context.Context, query []float32, topK int, filter *Filter) ([]*Hit, error) {
	if err := checkDims(s.cfg.Dimensions, query); err != nil {
		return nil, err
	}
	if topK <= 0 {
		return []*Hit{}, nil
	}
	ctx, span := tracer.Start(ctx, "milvus.Search",
		trace.WithAttributes(
			attribute.String("collection", s.cfg.Collection),
			attribute.Int("top_k", topK),
		))
	defer span.End()

	has, err := s.client.HasCollection(ctx, s.cfg.Collection)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("check collection: %w", err)
	}
	if !has {
		return []*Hit{}, nil
	}

	sp, err := entity.NewIndexHNSWSearchParam(s.cfg.EfSearch)
	if err != nil {
		return nil, fmt.Errorf("build search params: %w", err)
	}
	results, err := s.client.Search(ctx,
		s.cfg.Collection,
		nil,
		FilterExpr(filter),
		outputFields,
		[]entity.Vector{entity.FloatVector(query)},
		fieldEmbedding,
		entity.COSINE,
		topK,
		sp,
	)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("search: %w", err)
	}
	hits := hitsFromResults(results)
	span.SetAttributes(attribute.Int("result_count", len(hits)))
	return hits, nil
}

// FilterExpr renders filter as a Milvus boolean expression.
func FilterExpr(filter *Filter) string {
	if filter == nil || filter.TeamID == "" {
		return ""
	}
	return fmt.Sprintf(`%s == "%s"`, fieldTeamID, escapeExprString(filter.TeamID))
}

func escapeExprString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

func hitsFromResults(results []client.SearchResult) []*Hit {
	var hits []*Hit
	for _, res := range results {
		if res.Err != nil {
			continue
		}
		ids := varcharColumn(res.Fields, fieldID)
		docIDs := varcharColumn(res.Fields, fieldDocumentID)
		teams := varcharColumn(res.Fields, fieldTeamID)
		contents := varcharColumn(res.Fields, fieldContent)
		var metas [][]byte
		if col, ok := res.Fields.GetColumn(fieldMetadata).(*entity.ColumnJSONBytes); ok {
			metas = col.Data()
		}
		for i := 0; i < res.ResultCount && i < len(res.Scores); i++ {
			h := &Hit{
				ChunkID:    at(ids, i),
				DocumentID: at(docIDs, i),
				TeamID:     at(teams, i),
				Content:    at(contents, i),
				Score:      float64(res.Scores[i]),
			}
			if i < len(metas) && len(metas[i]) > 0 {
				var m map[string]interface{}
				if json.Unmarshal(metas[i], &m) == nil {
					h.Metadata = m
				}
			}
			hits = append(hits, h)
		}
	}
	if hits == nil {
		hits = []*Hit{}
	}
	return hits
}

func varcharColumn(rs client.ResultSet, name string) []string {
	if col, ok := rs.GetColumn(name).(*entity.ColumnVarChar); ok {
		return col.Data()
	}
	return nil
}

func at(vals []string, i int) string {
	if i < len(vals) {
		return vals[i]
	}
	return ""
}

// DeleteDocument deletes every chunk entity of documentID.
func (s *MilvusStore) DeleteDocument(ctx context.Context, documentID string) error {
	ctx, span := tracer.Start(ctx, "milvus.DeleteDocument",
		trace.WithAttributes(attribute.String("document_id", documentID)))
	defer span.End()

	expr := fmt.Sprintf(`%s == "%s"`, fieldDocumentID, escapeExprString(documentID))
	if err := s.client.Delete(ctx, s.cfg.Collection, "", expr); err != nil {
		span.RecordError(err)
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// Count returns the collection row count, or 0 if statistics are unavailable.
func (s *MilvusStore) Count() int {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	stats, err := s.client.GetCollectionStatistics(ctx, s.cfg.Collection)
	if err != nil {
		s.logger.Debug("collection statistics unavailable", zap.Error(err))
		return 0
	}
	n, _ := strconv.Atoi(stats["row_count"])
	return n
}

// Close closes the Milvus connection.
func (s *MilvusStore) Close() error {
	return s.client.Close()
}
