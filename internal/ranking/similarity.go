package ranking

import "github.com/hyperjump/askme/internal/models"

// SimilarityScorer uses the rerank score when present, else the fusion score relative to the
// best fusion score in the batch.
type SimilarityScorer struct{}

// NewSimilarityScorer creates a SimilarityScorer.
func NewSimilarityScorer() *SimilarityScorer {
	return &SimilarityScorer{}
}

// Name returns the scorer name.
func (s *SimilarityScorer) Name() string {
	return ScorerSimilarity
}

// Score returns the similarity component.
func (s *SimilarityScorer) Score(ctx *ScoringContext) float64 {
	c := ctx.Candidate
	if c == nil {
		return 0
	}
	if c.RerankScore != nil {
		return models.Clamp01(*c.RerankScore)
	}
	if c.FusedCandidate == nil || ctx.MaxFusionScore <= 0 {
		return 0
	}
	return models.Clamp01(c.FusionScore / ctx.MaxFusionScore)
}
