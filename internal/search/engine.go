package search

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/hyperjump/askme/internal/config"
	"github.com/hyperjump/askme/internal/embedding"
	"github.com/hyperjump/askme/internal/keyword"
	"github.com/hyperjump/askme/internal/metrics"
	"github.com/hyperjump/askme/internal/models"
	"github.com/hyperjump/askme/internal/query"
	"github.com/hyperjump/askme/internal/ranking"
	"github.com/hyperjump/askme/internal/rerank"
	"github.com/hyperjump/askme/internal/storage"
	"github.com/hyperjump/askme/internal/vector"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// UnknownFilename is reported for documents missing from the metadata store.
const UnknownFilename = "Unknown"

// Search types reported in responses.
const (
	SearchTypeVector   = "vector"
	SearchTypeHybrid   = "hybrid"
	rerankedTypeSuffix = "_reranked"
)

var tracer = otel.Tracer("askme/search")

// Engine runs the retrieval pipeline: recall, fusion, rerank, ranking and diversity.
type Engine struct {
	meta           storage.MetadataStore
	vectorChannel  Channel
	keywordChannel Channel
	rerankService  rerank.Service
	reranker       *Reranker
	ranker         *ranking.Ranker
	normalizer     *query.Normalizer
	enhancer       *query.Enhancer
	config         *config.SearchConfig
	logger         *zap.Logger
	onTransition   func(State)
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithReranker enables the rerank stage with service.
func WithReranker(service rerank.Service) Option {
	return func(e *Engine) { e.rerankService = service }
}

// WithRanker replaces the default ranker.
func WithRanker(r *ranking.Ranker) Option {
	return func(e *Engine) {
		if r != nil {
			e.ranker = r
		}
	}
}

// WithEnhancer replaces the default query enhancer.
func WithEnhancer(en *query.Enhancer) Option {
	return func(e *Engine) {
		if en != nil {
			e.enhancer = en
		}
	}
}

// WithVectorChannel replaces the vector channel built from the embedder and store.
func WithVectorChannel(ch Channel) Option {
	return func(e *Engine) { e.vectorChannel = ch }
}

// WithKeywordChannel replaces the keyword channel. A nil channel disables keyword recall.
func WithKeywordChannel(ch Channel) Option {
	return func(e *Engine) { e.keywordChannel = ch }
}

// WithStateHook is called on every pipeline state transition.
func WithStateHook(fn func(State)) Option {
	return func(e *Engine) { e.onTransition = fn }
}

// NewEngine creates a search engine. keywordIndex may be nil, in which case every response is
// marked degraded for the keyword stage. meta may be nil; filenames are then "Unknown".
func NewEngine(
	meta storage.MetadataStore,
	embedder embedding.Embedder,
	vectorStore vector.Store,
	keywordIndex keyword.Index,
	cfg *config.SearchConfig,
	opts ...Option,
) *Engine {
	if cfg == nil {
		cfg = config.DefaultSearchConfig()
	}
	e := &Engine{
		meta:       meta,
		ranker:     ranking.NewRanker(nil),
		normalizer: query.NewNormalizer(cfg.Scopes),
		enhancer:   query.NewEnhancer(),
		config:     cfg,
		logger:     zap.NewNop(),
	}
	if embedder != nil && vectorStore != nil {
		e.vectorChannel = NewVectorChannel(embedder, vectorStore)
	}
	if keywordIndex != nil {
		e.keywordChannel = NewKeywordChannel(keywordIndex, cfg.FuzzyKeyword)
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rerankService != nil {
		e.reranker = NewReranker(e.rerankService, cfg.RerankMaxRunes, cfg.RerankTimeout)
	}
	return e
}

// Ranker returns the engine's ranker, whose weights can be swapped at runtime.
func (e *Engine) Ranker() *ranking.Ranker {
	return e.ranker
}

// HasKeywordChannel reports whether keyword recall is configured.
func (e *Engine) HasKeywordChannel() bool {
	return e.keywordChannel != nil
}

// HasReranker reports whether the rerank stage is configured.
func (e *Engine) HasReranker() bool {
	return e.reranker != nil
}

// RecallSize returns the per-call recall depth for a validated request. An explicit request
// value is used as given, never below the limit. Otherwise the configured value applies, raised
// to at least limit * oversample with oversample clamped to [1.5, 3].
func (e *Engine) RecallSize(req *models.SearchRequest) int {
	limit := req.Limit
	if req.RecallSize > 0 {
		return max(req.RecallSize, limit)
	}
	over := math.Min(math.Max(e.config.Oversample, 1.5), 3.0)
	return max(e.config.RecallSize, int(math.Ceil(float64(limit)*over)), limit)
}

// run tracks one request through the pipeline.
type run struct {
	engine   *Engine
	state    State
	degraded []string
}

func (r *run) transition(next State) {
	if !CanTransition(r.state, next) {
		r.engine.logger.Warn("unexpected pipeline transition",
			zap.Stringer("from", r.state), zap.Stringer("to", next))
	}
	r.engine.logger.Debug("pipeline transition", zap.Stringer("from", r.state), zap.Stringer("to", next))
	r.state = next
	if r.engine.onTransition != nil {
		r.engine.onTransition(next)
	}
}

// degrade records a failed or skipped optional stage.
func (r *run) degrade(res StageResult) {
	for _, s := range r.degraded {
		if s == res.Stage {
			return
		}
	}
	r.degraded = append(r.degraded, res.Stage)
	metrics.StageFailuresTotal.WithLabelValues(res.Stage, res.Kind.String()).Inc()
	if res.Err != nil {
		r.engine.logger.Warn("search stage degraded",
			zap.String("stage", res.Stage),
			zap.String("kind", res.Kind.String()),
			zap.Error(res.Err))
	} else {
		r.engine.logger.Debug("search stage skipped",
			zap.String("stage", res.Stage),
			zap.String("kind", res.Kind.String()))
	}
}

// Search runs the pipeline. Only invalid queries and parent context cancellation are returned
// as errors; every other failure degrades the response.
func (e *Engine) Search(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse, error) {
	startTime := time.Now()
	ctx, span := tracer.Start(ctx, "search.Search")
	defer span.End()

	r := &run{engine: e, state: StateReceived}
	if e.onTransition != nil {
		e.onTransition(StateReceived)
	}

	if req.Limit <= 0 && e.config.DefaultLimit > 0 {
		req.Limit = e.config.DefaultLimit
	}
	if err := req.Validate(); err != nil {
		return nil, e.reject(span, err)
	}
	if e.config.MaxLimit > 0 && req.Limit > e.config.MaxLimit {
		req.Limit = e.config.MaxLimit
	}
	q, err := e.normalizer.Normalize(req.Query)
	if err != nil {
		return nil, e.reject(span, err)
	}
	if scope := strings.TrimSpace(req.Scope); scope != "" {
		q.Scope = e.normalizer.ResolveScope(scope)
	}
	if boolOr(req.UseQueryEnhance, e.config.UseQueryEnhanceOrDefault()) {
		q.Variants = e.enhancer.Enhance(q.Normalized, e.config.MaxVariants)
	}
	span.SetAttributes(
		attribute.String("query", q.Normalized),
		attribute.String("scope", q.Scope),
		attribute.Int("variants", len(q.Variants)),
	)

	resp := &models.SearchResponse{
		Query:           req.Query,
		ActualQuery:     q.Normalized,
		Scope:           q.Scope,
		Results:         []*models.SearchResult{},
		SearchType:      SearchTypeVector,
		QueryVariations: q.Variants,
	}
	finish := func(outcome string) (*models.SearchResponse, error) {
		resp.DegradedStages = r.degraded
		resp.Degraded = len(r.degraded) > 0
		if outcome == "ok" && resp.Degraded {
			outcome = "degraded"
		}
		resp.QueryTime = time.Since(startTime).Milliseconds()
		metrics.SearchesTotal.WithLabelValues(outcome).Inc()
		span.SetAttributes(attribute.Bool("degraded", resp.Degraded), attribute.Int("results", len(resp.Results)))
		e.logger.Debug("search finished",
			zap.String("query", q.Normalized),
			zap.String("outcome", outcome),
			zap.Int("results", len(resp.Results)),
			zap.Strings("degraded_stages", r.degraded),
			zap.Int64("query_time_ms", resp.QueryTime))
		return resp, nil
	}

	// Recall
	r.transition(StateRecalling)
	recallStart := time.Now()
	lists, results := e.recall(ctx, q, e.RecallSize(req))
	metrics.ObserveStage(StageRecall, recallStart)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vectorFailures := 0
	keywordHits := false
	for i, res := range results {
		if !res.OK() {
			if lists[i].Channel == models.ChannelVector {
				vectorFailures++
			}
			r.degrade(res)
			continue
		}
		if lists[i].Channel == models.ChannelKeyword && len(lists[i].Candidates) > 0 {
			keywordHits = true
		}
	}
	if e.keywordChannel == nil {
		r.degrade(StageResult{Stage: StageKeyword, Kind: KindChannelUnavailable})
	}
	if e.vectorChannel == nil || vectorFailures == len(q.Variants) {
		r.transition(StateFailed)
		r.degrade(StageResult{Stage: StageRecall, Kind: KindEmbeddingFailure})
		return finish("failed")
	}
	if keywordHits {
		resp.SearchType = SearchTypeHybrid
	}

	agg := Aggregate(lists)
	resp.TotalCandidates = len(agg)
	metrics.CandidatesRecalled.Observe(float64(len(agg)))
	if len(agg) == 0 {
		r.transition(StateResponded)
		return finish("ok")
	}

	// Fusion
	r.transition(StateFusing)
	fused := e.fuse(ctx, req, lists, agg)

	// Rerank
	var ranked []*models.RankedCandidate
	if boolOr(req.UseRerank, e.config.UseRerankOrDefault()) {
		r.transition(StateReranking)
		if e.reranker == nil {
			ranked = toRanked(fused)
			r.degrade(StageResult{Stage: StageRerank, Kind: KindRerankFailure})
		} else {
			var rerankErr error
			ranked, rerankErr = e.rerank(ctx, q.Normalized, fused, e.RecallSize(req))
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if rerankErr != nil {
				r.degrade(resultOf(StageRerank, rerankErr))
			} else {
				resp.SearchType += rerankedTypeSuffix
			}
		}
	} else {
		ranked = toRanked(fused)
	}

	// Ranking
	r.transition(StateRanking)
	stageStart := time.Now()
	e.ranker.Rank(ranked)
	metrics.ObserveStage(StageRanking, stageStart)

	if boolOr(req.UseDiversity, e.config.UseDiversityOrDefault()) {
		r.transition(StateDiversifying)
		stageStart = time.Now()
		e.ranker.Diversify(ranked)
		metrics.ObserveStage(StageDiversity, stageStart)
	}

	ranked = filterMinScore(ranked, e.minScore(req))

	r.transition(StateResponded)
	resp.Results = e.assemble(ctx, ranked, q, req.Limit, req.Explain, resp.SearchType)
	return finish("ok")
}

func (e *Engine) reject(span trace.Span, err error) error {
	metrics.SearchesTotal.WithLabelValues("invalid").Inc()
	span.RecordError(err)
	return &StageError{Stage: StageQuery, Kind: KindInvalidQuery, Err: err}
}

// recall fans out one call per (channel, variant). Goroutines never return errors to the
// group; each slot records its own result.
func (e *Engine) recall(ctx context.Context, q *models.Query, topK int) ([]RecallList, []StageResult) {
	ctx, span := tracer.Start(ctx, "search.recall", trace.WithAttributes(attribute.Int("top_k", topK)))
	defer span.End()

	var channels []Channel
	if e.vectorChannel != nil {
		channels = append(channels, e.vectorChannel)
	}
	if e.keywordChannel != nil {
		channels = append(channels, e.keywordChannel)
	}
	var filter *vector.Filter
	if q.Scope != "" {
		filter = &vector.Filter{TeamID: q.Scope}
	}

	n := len(q.Variants)
	lists := make([]RecallList, len(channels)*n)
	results := make([]StageResult, len(channels)*n)

	var g errgroup.Group
	if e.config.MaxConcurrency > 0 {
		g.SetLimit(e.config.MaxConcurrency)
	}
	for ci, ch := range channels {
		for vi, variant := range q.Variants {
			slot := ci*n + vi
			g.Go(func() error {
				callCtx := ctx
				if e.config.RecallTimeout > 0 {
					var cancel context.CancelFunc
					callCtx, cancel = context.WithTimeout(ctx, e.config.RecallTimeout)
					defer cancel()
				}
				start := time.Now()
				cands, err := ch.Recall(callCtx, variant, topK, filter)
				metrics.ObserveStage(string(ch.Name()), start)
				lists[slot] = RecallList{Channel: ch.Name(), Variant: vi, Candidates: cands}
				results[slot] = resultOf(string(ch.Name()), err)
				return nil
			})
		}
	}
	_ = g.Wait()
	return lists, results
}

func (e *Engine) fuse(ctx context.Context, req *models.SearchRequest, lists []RecallList, agg []*models.Candidate) []*models.FusedCandidate {
	_, span := tracer.Start(ctx, "search.fuse")
	defer span.End()
	start := time.Now()
	defer metrics.ObserveStage(StageFusion, start)

	algo := req.Fusion
	if algo == "" {
		algo = e.config.Fusion
	}
	span.SetAttributes(attribute.String("algorithm", algo))
	if algo == models.FusionWeighted {
		return FuseWeighted(agg, FusionWeights{
			models.ChannelVector:  e.config.VectorWeight,
			models.ChannelKeyword: e.config.KeywordWeight,
		})
	}
	return FuseRRF(lists, agg, e.config.RRFK)
}

// rerank sends at most limit fused candidates to the cross-encoder. The remainder follows the
// reranked head in fusion order without rerank scores.
func (e *Engine) rerank(ctx context.Context, query string, fused []*models.FusedCandidate, limit int) ([]*models.RankedCandidate, error) {
	head, tail := fused, []*models.FusedCandidate(nil)
	if limit > 0 && len(fused) > limit {
		head, tail = fused[:limit], fused[limit:]
	}
	ctx, span := tracer.Start(ctx, "search.rerank", trace.WithAttributes(
		attribute.Int("candidates", len(head)),
		attribute.Int("skipped", len(tail)),
	))
	defer span.End()
	start := time.Now()
	defer metrics.ObserveStage(StageRerank, start)

	ranked, err := e.reranker.Rerank(ctx, query, head)
	if err != nil {
		span.RecordError(err)
	}
	return append(ranked, toRanked(tail)...), err
}

func (e *Engine) minScore(req *models.SearchRequest) float64 {
	if req.MinScore > 0 {
		return req.MinScore
	}
	return e.config.MinScore
}

func filterMinScore(ranked []*models.RankedCandidate, minScore float64) []*models.RankedCandidate {
	if minScore <= 0 {
		return ranked
	}
	kept := ranked[:0]
	for _, c := range ranked {
		if c.FinalScore >= minScore {
			kept = append(kept, c)
		}
	}
	return kept
}

// assemble groups ranked chunks by document. The first chunk of a document represents it; its
// later chunks only add snippets.
func (e *Engine) assemble(ctx context.Context, ranked []*models.RankedCandidate, q *models.Query, limit int, explain bool, searchType string) []*models.SearchResult {
	terms := append(strings.Fields(q.Normalized), q.Normalized)
	maxSnippets := e.config.MaxSnippets
	if maxSnippets <= 0 || maxSnippets > models.MaxMatchedSnippets {
		maxSnippets = models.MaxMatchedSnippets
	}

	byDoc := make(map[string]*models.SearchResult)
	results := make([]*models.SearchResult, 0, limit)
	for _, c := range ranked {
		snippet := Highlight(c.Content, terms, e.config.SnippetLength)
		if res, ok := byDoc[c.Key.DocumentID]; ok {
			if len(res.MatchedSnippets) < maxSnippets && !contains(res.MatchedSnippets, snippet) {
				res.MatchedSnippets = append(res.MatchedSnippets, snippet)
			}
			continue
		}
		if len(results) >= limit {
			continue
		}
		res := &models.SearchResult{
			DocumentID:      c.Key.DocumentID,
			ChunkID:         c.Key.ChunkID,
			Score:           c.FinalScore,
			MatchedSnippets: []string{snippet},
			SearchType:      searchType,
		}
		if explain {
			b := c.Breakdown
			res.Breakdown = &b
		}
		byDoc[c.Key.DocumentID] = res
		results = append(results, res)
	}

	for i, res := range results {
		res.Rank = i + 1
		res.Filename = UnknownFilename
		info := e.lookup(ctx, res.DocumentID)
		if info == nil {
			continue
		}
		if info.Filename != "" {
			res.Filename = info.Filename
		}
		if !info.CreatedAt.IsZero() {
			t := info.CreatedAt
			res.CreatedAt = &t
		}
	}
	return results
}

func (e *Engine) lookup(ctx context.Context, documentID string) *models.DocumentInfo {
	if e.meta == nil {
		return nil
	}
	info, err := e.meta.Lookup(ctx, documentID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			e.logger.Warn("metadata lookup failed",
				zap.String("stage", StageResponse),
				zap.String("document_id", documentID),
				zap.Error(err))
		}
		return nil
	}
	return info
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func boolOr(b *bool, def bool) bool {
	if b != nil {
		return *b
	}
	return def
}
