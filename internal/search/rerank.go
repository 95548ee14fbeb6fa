package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/hyperjump/askme/internal/models"
	"github.com/hyperjump/askme/internal/rerank"
	"github.com/hyperjump/askme/pkg/utils"
)

// DefaultRerankMaxRunes is the front-anchored passage budget sent to the cross-encoder.
const DefaultRerankMaxRunes = 256

// Reranker scores fused candidates with a cross-encoder in one batched call.
type Reranker struct {
	service  rerank.Service
	maxRunes int
	timeout  time.Duration
}

// NewReranker wraps service. maxRunes <= 0 uses DefaultRerankMaxRunes; timeout <= 0 means
// the caller's context deadline only.
func NewReranker(service rerank.Service, maxRunes int, timeout time.Duration) *Reranker {
	if maxRunes <= 0 {
		maxRunes = DefaultRerankMaxRunes
	}
	return &Reranker{service: service, maxRunes: maxRunes, timeout: timeout}
}

// Rerank returns candidates sorted by rerank score descending, ties keeping fusion order. On
// any failure it returns the candidates in input order with RerankScore nil, plus the error.
func (r *Reranker) Rerank(ctx context.Context, query string, fused []*models.FusedCandidate) ([]*models.RankedCandidate, error) {
	ranked := toRanked(fused)
	if len(fused) == 0 {
		return ranked, nil
	}
	if r == nil || r.service == nil {
		return ranked, newStageError(StageRerank, KindRerankFailure, errors.New("no rerank service"))
	}

	passages := make([]string, len(fused))
	for i, c := range fused {
		passages[i] = utils.TruncateRunes(c.Content, r.maxRunes)
	}

	callCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	scores, err := r.service.Score(callCtx, query, passages)
	if err != nil {
		return ranked, newStageError(StageRerank, KindRerankFailure, err)
	}
	if len(scores) != len(passages) {
		err := fmt.Errorf("%w: got %d scores for %d passages", rerank.ErrLengthMismatch, len(scores), len(passages))
		return ranked, newStageError(StageRerank, KindRerankFailure, err)
	}

	for i, c := range ranked {
		s := models.SanitizeScore(scores[i])
		c.RerankScore = &s
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return *ranked[i].RerankScore > *ranked[j].RerankScore
	})
	return ranked, nil
}

// toRanked wraps fused candidates without rerank scores, preserving order.
func toRanked(fused []*models.FusedCandidate) []*models.RankedCandidate {
	out := make([]*models.RankedCandidate, len(fused))
	for i, f := range fused {
		out[i] = &models.RankedCandidate{FusedCandidate: f}
	}
	return out
}
