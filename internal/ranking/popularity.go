package ranking

import "math"

// Engagement metadata keys.
const (
	MetaViewCount  = "view_count"
	MetaLikeCount  = "like_count"
	MetaShareCount = "share_count"
)

// PopularityScorer rewards engagement: views count once, likes twice, shares three times.
type PopularityScorer struct {
	scale float64
}

// NewPopularityScorer creates a PopularityScorer from config.
func NewPopularityScorer(config *RankingConfig) *PopularityScorer {
	return &PopularityScorer{scale: config.PopularityScale}
}

// Name returns the scorer name.
func (s *PopularityScorer) Name() string {
	return ScorerPopularity
}

// Score returns log1p(engagement)/scale capped at 1, or 0.1 without positive engagement.
func (s *PopularityScorer) Score(ctx *ScoringContext) float64 {
	meta := ctx.Metadata()
	views, _ := metaFloat(meta, MetaViewCount)
	likes, _ := metaFloat(meta, MetaLikeCount)
	shares, _ := metaFloat(meta, MetaShareCount)

	engagement := views + 2*likes + 3*shares
	if engagement <= 0 || s.scale <= 0 {
		return 0.1
	}
	return clamp(math.Log1p(engagement)/s.scale, 0, 1)
}
