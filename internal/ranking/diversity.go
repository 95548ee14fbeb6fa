package ranking

import (
	"github.com/hyperjump/askme/internal/models"
)

// Category metadata key. Content type shares MetaContentType with the quality scorer.
const MetaCategory = "category"

// Diversify penalizes candidates whose category key was already seen earlier in the current
// order: each repeat is multiplied by (1 - factor). Candidates are then re-sorted and re-ranked.
// factor is clamped to [0, 1].
func Diversify(candidates []*models.RankedCandidate, factor float64) []*models.RankedCandidate {
	factor = clamp(factor, 0, 1)
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		key := CategoryKey(c)
		if _, dup := seen[key]; dup {
			c.FinalScore *= 1 - factor
			continue
		}
		seen[key] = struct{}{}
	}
	SortByFinalScore(candidates)
	return candidates
}

// Diversify applies the configured diversity factor.
func (r *Ranker) Diversify(candidates []*models.RankedCandidate) []*models.RankedCandidate {
	return Diversify(candidates, r.state.Load().config.DiversityFactor)
}

// CategoryKey returns "<category>_<content_type>" with "uncategorized" and "general" as
// fallbacks.
func CategoryKey(c *models.RankedCandidate) string {
	var meta map[string]interface{}
	if c.FusedCandidate != nil && c.Candidate != nil {
		meta = c.Metadata
	}
	category, ok := metaString(meta, MetaCategory)
	if !ok {
		category = "uncategorized"
	}
	contentType, ok := metaString(meta, MetaContentType)
	if !ok {
		contentType = "general"
	}
	return category + "_" + contentType
}
