// Package search runs the retrieval pipeline: recall, fusion, rerank, ranking and diversity.
package search

import (
	"sort"

	"github.com/hyperjump/askme/internal/models"
)

// DefaultRRFK is the reciprocal rank fusion constant.
const DefaultRRFK = 60.0

// FusionWeights are per-channel weights for weighted fusion.
type FusionWeights map[models.Channel]float64

// DefaultFusionWeights returns vector 0.7, keyword 0.3.
func DefaultFusionWeights() FusionWeights {
	return FusionWeights{
		models.ChannelVector:  0.7,
		models.ChannelKeyword: 0.3,
	}
}

// FuseRRF scores each aggregated candidate with sum(1 / (k + rank)) over channels, rank being
// its 1-based position in the channel's union of variant lists. k <= 0 uses DefaultRRFK.
func FuseRRF(lists []RecallList, agg []*models.Candidate, k float64) []*models.FusedCandidate {
	if k <= 0 {
		k = DefaultRRFK
	}
	scores := make(map[models.CandidateKey]float64, len(agg))
	for _, keys := range unionByChannel(lists) {
		for i, key := range keys {
			scores[key] += 1.0 / (k + float64(i+1))
		}
	}

	out := make([]*models.FusedCandidate, 0, len(agg))
	for _, c := range agg {
		out = append(out, &models.FusedCandidate{
			Candidate:   c,
			FusionScore: models.SanitizeScore(scores[c.Key]),
			Channels:    c.ChannelSet(),
		})
	}
	sortFused(out)
	return out
}

// unionByChannel merges every channel's variant lists into one ranking. A key keeps its best
// rank over the variants; ties go to the earlier variant, then key order.
func unionByChannel(lists []RecallList) [][]models.CandidateKey {
	type pos struct{ rank, variant int }
	best := make(map[models.Channel]map[models.CandidateKey]pos)
	var channels []models.Channel
	for _, list := range lists {
		seen, ok := best[list.Channel]
		if !ok {
			seen = make(map[models.CandidateKey]pos)
			best[list.Channel] = seen
			channels = append(channels, list.Channel)
		}
		inList := make(map[models.CandidateKey]struct{}, len(list.Candidates))
		rank := 0
		for _, c := range list.Candidates {
			if c == nil {
				continue
			}
			if _, dup := inList[c.Key]; dup {
				continue
			}
			inList[c.Key] = struct{}{}
			rank++
			p := pos{rank: rank, variant: list.Variant}
			if prev, ok := seen[c.Key]; !ok || p.rank < prev.rank || (p.rank == prev.rank && p.variant < prev.variant) {
				seen[c.Key] = p
			}
		}
	}
	sort.Slice(channels, func(i, j int) bool { return channels[i] < channels[j] })

	out := make([][]models.CandidateKey, 0, len(channels))
	for _, ch := range channels {
		seen := best[ch]
		keys := make([]models.CandidateKey, 0, len(seen))
		for key := range seen {
			keys = append(keys, key)
		}
		sort.Slice(keys, func(i, j int) bool {
			a, b := seen[keys[i]], seen[keys[j]]
			if a.rank != b.rank {
				return a.rank < b.rank
			}
			if a.variant != b.variant {
				return a.variant < b.variant
			}
			return keys[i].Less(keys[j])
		})
		out = append(out, keys)
	}
	return out
}

// FuseWeighted min-max normalizes each channel's scores over the candidates that have them and
// combines them as sum(weight * normalized). A channel whose scores are all equal normalizes
// to 1.0. Missing channels contribute 0.
func FuseWeighted(agg []*models.Candidate, weights FusionWeights) []*models.FusedCandidate {
	if weights == nil {
		weights = DefaultFusionWeights()
	}
	type bounds struct{ min, max float64 }
	ranges := make(map[models.Channel]*bounds)
	for _, c := range agg {
		for ch, s := range c.ChannelScores {
			b, ok := ranges[ch]
			if !ok {
				ranges[ch] = &bounds{min: s, max: s}
				continue
			}
			if s < b.min {
				b.min = s
			}
			if s > b.max {
				b.max = s
			}
		}
	}

	out := make([]*models.FusedCandidate, 0, len(agg))
	for _, c := range agg {
		var score float64
		for ch, s := range c.ChannelScores {
			b := ranges[ch]
			norm := 1.0
			if b.max > b.min {
				norm = (s - b.min) / (b.max - b.min)
			}
			score += weights[ch] * norm
		}
		out = append(out, &models.FusedCandidate{
			Candidate:   c,
			FusionScore: models.SanitizeScore(score),
			Channels:    c.ChannelSet(),
		})
	}
	sortFused(out)
	return out
}

// sortFused orders by fusion score descending, ties by key ascending.
func sortFused(fused []*models.FusedCandidate) {
	sort.SliceStable(fused, func(i, j int) bool {
		if fused[i].FusionScore != fused[j].FusionScore {
			return fused[i].FusionScore > fused[j].FusionScore
		}
		return fused[i].Key.Less(fused[j].Key)
	})
}
