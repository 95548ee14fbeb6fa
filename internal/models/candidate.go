package models

import (
	"math"
	"sort"
)

// Channel names a recall channel.
type Channel string

const (
	// ChannelVector is the dense-vector recall channel.
	ChannelVector Channel = "vector"
	// ChannelKeyword is the lexical recall channel.
	ChannelKeyword Channel = "keyword"
)

// CandidateKey identifies a chunk uniquely across channels.
type CandidateKey struct {
	DocumentID string `json:"document_id"`
	ChunkID    string `json:"chunk_id"`
}

// Less orders keys by document id, then chunk id.
func (k CandidateKey) Less(other CandidateKey) bool {
	if k.DocumentID != other.DocumentID {
		return k.DocumentID < other.DocumentID
	}
	return k.ChunkID < other.ChunkID
}

func (k CandidateKey) String() string {
	return k.DocumentID + "#" + k.ChunkID
}

// Candidate is one recalled chunk with the best score each channel gave it.
type Candidate struct {
	Key           CandidateKey
	Content       string
	ChannelScores map[Channel]float64
	Metadata      map[string]interface{}
}

// FusedCandidate is a Candidate with a single fused score.
type FusedCandidate struct {
	*Candidate
	FusionScore float64
	// Channels is sorted by name.
	Channels []Channel
}

// ChannelSet returns the channels of c's score map in sorted order.
func (c *Candidate) ChannelSet() []Channel {
	out := make([]Channel, 0, len(c.ChannelScores))
	for ch := range c.ChannelScores {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ScoreBreakdown explains a final score.
type ScoreBreakdown struct {
	Similarity float64 `json:"similarity"`
	Recency    float64 `json:"recency"`
	Popularity float64 `json:"popularity"`
	Quality    float64 `json:"quality"`
}

// RankedCandidate is the output of rerank, ranking and diversity.
type RankedCandidate struct {
	*FusedCandidate
	// RerankScore is nil when rerank was skipped or failed.
	RerankScore *float64
	Breakdown   ScoreBreakdown
	FinalScore  float64
	Rank        int
}

// SanitizeScore maps NaN and infinities to 0 and clamps negatives to 0.
func SanitizeScore(s float64) float64 {
	if math.IsNaN(s) || math.IsInf(s, 0) || s < 0 {
		return 0
	}
	return s
}

// Clamp01 sanitizes s and caps it at 1.
func Clamp01(s float64) float64 {
	s = SanitizeScore(s)
	if s > 1 {
		return 1
	}
	return s
}
