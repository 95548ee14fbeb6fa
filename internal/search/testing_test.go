package search

import (
	"context"
	"sync"

	"github.com/hyperjump/askme/internal/models"
	"github.com/hyperjump/askme/internal/vector"
)

func cand(doc, chunk string, ch models.Channel, score float64) *models.Candidate {
	return &models.Candidate{
		Key:           models.CandidateKey{DocumentID: doc, ChunkID: chunk},
		Content:       "content of " + doc + " " + chunk,
		ChannelScores: map[models.Channel]float64{ch: score},
	}
}

func list(ch models.Channel, variant int, cands ...*models.Candidate) RecallList {
	return RecallList{Channel: ch, Variant: variant, Candidates: cands}
}

func fusedKeys(fused []*models.FusedCandidate) []string {
	out := make([]string, len(fused))
	for i, f := range fused {
		out[i] = f.Key.String()
	}
	return out
}

func rankedKeys(ranked []*models.RankedCandidate) []string {
	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.Key.String()
	}
	return out
}

// fakeChannel returns canned candidates per variant, or err for every call.
type fakeChannel struct {
	name     models.Channel
	byText   map[string][]*models.Candidate
	fallback []*models.Candidate
	err      error
	// failFor fails only the listed variants.
	failFor map[string]error
	block   bool

	mu      sync.Mutex
	calls   []string
	filters []*vector.Filter
}

func (f *fakeChannel) Name() models.Channel { return f.name }

func (f *fakeChannel) Recall(ctx context.Context, variant string, topK int, filter *vector.Filter) ([]*models.Candidate, error) {
	f.mu.Lock()
	f.calls = append(f.calls, variant)
	f.filters = append(f.filters, filter)
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	if err, ok := f.failFor[variant]; ok {
		return nil, err
	}
	cands, ok := f.byText[variant]
	if !ok {
		cands = f.fallback
	}
	if len(cands) > topK {
		cands = cands[:topK]
	}
	return cands, nil
}

func (f *fakeChannel) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}
