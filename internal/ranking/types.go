// Package ranking scores fused candidates on similarity, recency, popularity and quality, and
// applies the diversity penalty.
package ranking

import (
	"time"

	"github.com/hyperjump/askme/internal/models"
)

// Scorer names.
const (
	ScorerSimilarity = "similarity"
	ScorerRecency    = "recency"
	ScorerPopularity = "popularity"
	ScorerQuality    = "quality"
)

// ScoringContext provides all the context needed for scoring a candidate.
type ScoringContext struct {
	// Candidate is the candidate being scored.
	Candidate *models.RankedCandidate
	// MaxFusionScore is the highest fusion score in the batch.
	MaxFusionScore float64
	// Now is the reference time for recency.
	Now time.Time
}

// NewScoringContext creates a ScoringContext for c.
func NewScoringContext(c *models.RankedCandidate, maxFusion float64, now time.Time) *ScoringContext {
	return &ScoringContext{
		Candidate:      c,
		MaxFusionScore: maxFusion,
		Now:            now,
	}
}

// Content returns the candidate's chunk text.
func (ctx *ScoringContext) Content() string {
	if ctx.Candidate == nil || ctx.Candidate.FusedCandidate == nil || ctx.Candidate.Candidate == nil {
		return ""
	}
	return ctx.Candidate.Content
}

// Metadata returns the candidate's metadata map, possibly nil.
func (ctx *ScoringContext) Metadata() map[string]interface{} {
	if ctx.Candidate == nil || ctx.Candidate.FusedCandidate == nil || ctx.Candidate.Candidate == nil {
		return nil
	}
	return ctx.Candidate.Metadata
}

// Scorer is the interface for all scoring components.
type Scorer interface {
	// Score returns a value in [0, 1] for the candidate in ctx.
	Score(ctx *ScoringContext) float64
	// Name returns the name of the scorer for debugging/logging.
	Name() string
}
