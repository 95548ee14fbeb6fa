package ranking

import "math"

// MetaCreatedAt is the metadata key holding a chunk's creation time.
const MetaCreatedAt = "created_at"

// RecencyScorer decays exponentially with document age.
type RecencyScorer struct {
	decay float64
}

// NewRecencyScorer creates a RecencyScorer from config.
func NewRecencyScorer(config *RankingConfig) *RecencyScorer {
	return &RecencyScorer{decay: config.RecencyDecay}
}

// Name returns the scorer name.
func (s *RecencyScorer) Name() string {
	return ScorerRecency
}

// Score returns exp(-decay * age_seconds), or 0.5 when no timestamp is known.
func (s *RecencyScorer) Score(ctx *ScoringContext) float64 {
	created, ok := metaTime(ctx.Metadata(), MetaCreatedAt)
	if !ok {
		return 0.5
	}
	age := ctx.Now.Sub(created).Seconds()
	if age < 0 {
		age = 0
	}
	return clamp(math.Exp(-s.decay*age), 0, 1)
}
