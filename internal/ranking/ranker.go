package ranking

import (
	"sort"
	"sync/atomic"
	"time"

	"github.com/hyperjump/askme/internal/models"
)

// Ranker combines the four scorers into a weighted final score. The configuration can be
// swapped at runtime with SetConfig; each Rank call sees one consistent snapshot.
type Ranker struct {
	state atomic.Pointer[rankerState]
	now   func() time.Time
}

type rankerState struct {
	config     *RankingConfig
	similarity Scorer
	recency    Scorer
	popularity Scorer
	quality    Scorer
}

// NewRanker creates a new Ranker with the given configuration.
func NewRanker(config *RankingConfig) *Ranker {
	r := &Ranker{now: time.Now}
	r.SetConfig(config)
	return r
}

// WithClock overrides the reference time used for recency.
func (r *Ranker) WithClock(now func() time.Time) *Ranker {
	r.now = now
	return r
}

// SetConfig replaces the ranking configuration. A nil config restores the defaults.
func (r *Ranker) SetConfig(config *RankingConfig) {
	if config == nil {
		config = DefaultRankingConfig()
	}
	cp := *config
	cp.ApplyDefaults()
	r.state.Store(&rankerState{
		config:     &cp,
		similarity: NewSimilarityScorer(),
		recency:    NewRecencyScorer(&cp),
		popularity: NewPopularityScorer(&cp),
		quality:    NewQualityScorer(&cp),
	})
}

// Config returns a copy of the active configuration.
func (r *Ranker) Config() RankingConfig {
	return *r.state.Load().config
}

// Rank scores every candidate, sorts descending by final score (ties by key) and assigns
// contiguous 1-based ranks. The slice is sorted in place and returned.
func (r *Ranker) Rank(candidates []*models.RankedCandidate) []*models.RankedCandidate {
	st := r.state.Load()
	now := r.now()

	var maxFusion float64
	for _, c := range candidates {
		if c.FusedCandidate != nil && c.FusionScore > maxFusion {
			maxFusion = c.FusionScore
		}
	}

	for _, c := range candidates {
		ctx := NewScoringContext(c, maxFusion, now)
		c.Breakdown = models.ScoreBreakdown{
			Similarity: st.similarity.Score(ctx),
			Recency:    st.recency.Score(ctx),
			Popularity: st.popularity.Score(ctx),
			Quality:    st.quality.Score(ctx),
		}
		c.FinalScore = st.combine(c.Breakdown)
	}

	SortByFinalScore(candidates)
	return candidates
}

// combine applies the formula:
// Score = (Ws*Ss + Wr*Sr + Wp*Sp + Wq*Sq) / (Ws + Wr + Wp + Wq)
func (st *rankerState) combine(b models.ScoreBreakdown) float64 {
	cfg := st.config
	total := cfg.SimilarityWeight + cfg.RecencyWeight + cfg.PopularityWeight + cfg.QualityWeight
	if total <= 0 {
		return models.SanitizeScore(b.Similarity)
	}
	score := cfg.SimilarityWeight*b.Similarity +
		cfg.RecencyWeight*b.Recency +
		cfg.PopularityWeight*b.Popularity +
		cfg.QualityWeight*b.Quality
	return models.SanitizeScore(score / total)
}

// SortByFinalScore sorts descending by FinalScore, ties by candidate key ascending, and
// renumbers ranks from 1.
func SortByFinalScore(candidates []*models.RankedCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.FinalScore != b.FinalScore {
			return a.FinalScore > b.FinalScore
		}
		return a.Key.Less(b.Key)
	})
	for i, c := range candidates {
		c.Rank = i + 1
	}
}
