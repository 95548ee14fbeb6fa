package search

import (
	"context"

	"github.com/hyperjump/askme/internal/embedding"
	"github.com/hyperjump/askme/internal/keyword"
	"github.com/hyperjump/askme/internal/models"
	"github.com/hyperjump/askme/internal/vector"
)

// Channel recalls candidates for one query variant.
type Channel interface {
	Name() models.Channel
	Recall(ctx context.Context, variant string, topK int, filter *vector.Filter) ([]*models.Candidate, error)
}

// RecallList is the ordered output of one channel for one variant.
type RecallList struct {
	Channel    models.Channel
	Variant    int
	Candidates []*models.Candidate
}

// VectorChannel embeds the variant and queries the vector store.
type VectorChannel struct {
	embedder embedding.Embedder
	store    vector.Store
}

// NewVectorChannel creates the dense recall channel.
func NewVectorChannel(embedder embedding.Embedder, store vector.Store) *VectorChannel {
	return &VectorChannel{embedder: embedder, store: store}
}

// Name returns models.ChannelVector.
func (c *VectorChannel) Name() models.Channel {
	return models.ChannelVector
}

// Recall returns up to topK candidates with cosine scores clamped to [0, 1].
func (c *VectorChannel) Recall(ctx context.Context, variant string, topK int, filter *vector.Filter) ([]*models.Candidate, error) {
	vec, err := c.embedder.Embed(ctx, variant)
	if err != nil {
		return nil, newStageError(StageVector, KindEmbeddingFailure, err)
	}
	hits, err := c.store.Search(ctx, vec, topK, filter)
	if err != nil {
		return nil, newStageError(StageVector, KindChannelUnavailable, err)
	}
	out := make([]*models.Candidate, 0, len(hits))
	for _, h := range hits {
		out = append(out, &models.Candidate{
			Key:           models.CandidateKey{DocumentID: h.DocumentID, ChunkID: h.ChunkID},
			Content:       h.Content,
			ChannelScores: map[models.Channel]float64{models.ChannelVector: models.Clamp01(h.Score)},
			Metadata:      h.Metadata,
		})
	}
	return out, nil
}

// KeywordChannel queries the lexical index. Scores are raw BM25 values.
type KeywordChannel struct {
	index keyword.Index
	fuzzy bool
}

// NewKeywordChannel creates the lexical recall channel.
func NewKeywordChannel(index keyword.Index, fuzzy bool) *KeywordChannel {
	return &KeywordChannel{index: index, fuzzy: fuzzy}
}

// Name returns models.ChannelKeyword.
func (c *KeywordChannel) Name() models.Channel {
	return models.ChannelKeyword
}

// Recall returns up to topK candidates restricted to the filter's team.
func (c *KeywordChannel) Recall(ctx context.Context, variant string, topK int, filter *vector.Filter) ([]*models.Candidate, error) {
	opts := &keyword.SearchOptions{FuzzyEnabled: c.fuzzy}
	if filter != nil {
		opts.TeamID = filter.TeamID
	}
	results, err := c.index.Search(ctx, variant, topK, opts)
	if err != nil {
		return nil, newStageError(StageKeyword, KindChannelUnavailable, err)
	}
	out := make([]*models.Candidate, 0, len(results))
	for _, r := range results {
		out = append(out, &models.Candidate{
			Key:           models.CandidateKey{DocumentID: r.DocumentID, ChunkID: r.ChunkID},
			Content:       r.Content,
			ChannelScores: map[models.Channel]float64{models.ChannelKeyword: models.SanitizeScore(r.Score)},
			Metadata:      r.Metadata,
		})
	}
	return out, nil
}
