package search

import (
	"sort"

	"github.com/hyperjump/askme/internal/models"
)

// Aggregate merges recall lists into unique candidates keyed by (document, chunk). The first
// occurrence supplies content and metadata; each channel keeps its best score. Output is
// ordered by key.
func Aggregate(lists []RecallList) []*models.Candidate {
	byKey := make(map[models.CandidateKey]*models.Candidate)
	for _, list := range lists {
		for _, c := range list.Candidates {
			if c == nil {
				continue
			}
			agg, ok := byKey[c.Key]
			if !ok {
				agg = &models.Candidate{
					Key:           c.Key,
					Content:       c.Content,
					Metadata:      c.Metadata,
					ChannelScores: make(map[models.Channel]float64, 2),
				}
				byKey[c.Key] = agg
			}
			for ch, score := range c.ChannelScores {
				score = models.SanitizeScore(score)
				if prev, seen := agg.ChannelScores[ch]; !seen || score > prev {
					agg.ChannelScores[ch] = score
				}
			}
		}
	}

	out := make([]*models.Candidate, 0, len(byKey))
	for _, c := range byKey {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.Less(out[j].Key) })
	return out
}
