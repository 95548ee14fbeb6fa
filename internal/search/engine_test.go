package search

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hyperjump/askme/internal/config"
	"github.com/hyperjump/askme/internal/embedding"
	"github.com/hyperjump/askme/internal/keyword"
	"github.com/hyperjump/askme/internal/models"
	"github.com/hyperjump/askme/internal/rerank"
	"github.com/hyperjump/askme/internal/storage"
	"github.com/hyperjump/askme/internal/vector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMeta map[string]*models.DocumentInfo

func (m fakeMeta) Lookup(_ context.Context, id string) (*models.DocumentInfo, error) {
	if info, ok := m[id]; ok {
		return info, nil
	}
	return nil, storage.ErrNotFound
}

func testConfig() *config.SearchConfig {
	cfg := config.DefaultSearchConfig()
	cfg.UseRerank = models.Bool(false)
	cfg.UseQueryEnhance = models.Bool(false)
	cfg.UseDiversity = models.Bool(false)
	cfg.RecallTimeout = time.Second
	return cfg
}

func newTestEngine(cfg *config.SearchConfig, vch, kch Channel, opts ...Option) *Engine {
	opts = append([]Option{WithVectorChannel(vch), WithKeywordChannel(kch)}, opts...)
	return NewEngine(fakeMeta{
		"a": {Filename: "a.md", CreatedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)},
		"b": {Filename: "b.md"},
	}, nil, nil, nil, cfg, opts...)
}

func TestEngine_HybridSearch(t *testing.T) {
	vch := &fakeChannel{name: vec, fallback: []*models.Candidate{
		cand("a", "1", vec, 0.9), cand("b", "1", vec, 0.8), cand("c", "1", vec, 0.1),
	}}
	kch := &fakeChannel{name: kw, fallback: []*models.Candidate{cand("a", "1", kw, 8)}}

	resp, err := newTestEngine(testConfig(), vch, kch).Search(context.Background(), &models.SearchRequest{Query: "deploy"})
	require.NoError(t, err)

	assert.Equal(t, SearchTypeHybrid, resp.SearchType)
	assert.False(t, resp.Degraded)
	assert.Empty(t, resp.DegradedStages)
	assert.Equal(t, 3, resp.TotalCandidates)
	require.Len(t, resp.Results, 3)

	top := resp.Results[0]
	assert.Equal(t, "a", top.DocumentID)
	assert.Equal(t, "a.md", top.Filename)
	require.NotNil(t, top.CreatedAt)
	assert.Equal(t, 2026, top.CreatedAt.Year())
	assert.Equal(t, SearchTypeHybrid, top.SearchType)
	assert.Nil(t, top.Breakdown)
	assert.Equal(t, UnknownFilename, resp.Results[2].Filename)
	for i, r := range resp.Results {
		assert.Equal(t, i+1, r.Rank)
		assert.NotEmpty(t, r.MatchedSnippets)
	}
}

func TestEngine_NoKeywordChannelDegrades(t *testing.T) {
	ctx := context.Background()
	emb := embedding.NewMockEmbedder(8)
	store, err := vector.NewMemoryStore(8)
	require.NoError(t, err)
	chunk := &models.DocumentChunk{ID: "c1", DocumentID: "doc1", Content: "部署流程"}
	chunk.Embedding, err = emb.Embed(ctx, chunk.Content)
	require.NoError(t, err)
	require.NoError(t, store.Upsert(ctx, []*models.DocumentChunk{chunk}))

	engine := NewEngine(nil, emb, store, nil, testConfig())
	assert.False(t, engine.HasKeywordChannel())

	resp, err := engine.Search(ctx, &models.SearchRequest{Query: "部署流程"})
	require.NoError(t, err)
	assert.True(t, resp.Degraded)
	assert.Equal(t, []string{StageKeyword}, resp.DegradedStages)
	assert.Equal(t, SearchTypeVector, resp.SearchType)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "doc1", resp.Results[0].DocumentID)
	assert.Equal(t, UnknownFilename, resp.Results[0].Filename)
}

func TestEngine_Degradation(t *testing.T) {
	tests := []struct {
		name         string
		keywordErr   error
		vectorFailOn map[string]error
		cfg          func(*config.SearchConfig)
		req          *models.SearchRequest
		opts         []Option
		wantStages   []string
		wantType     string
	}{
		{
			name:       "keyword failure",
			keywordErr: errors.New("index closed"),
			req:        &models.SearchRequest{Query: "部署流程"},
			wantStages: []string{StageKeyword},
			wantType:   SearchTypeVector,
		},
		{
			name:         "partial vector failure",
			vectorFailOn: map[string]error{"系统配置问题": errors.New("embedding 503")},
			cfg:          func(c *config.SearchConfig) { c.UseQueryEnhance = models.Bool(true) },
			req:          &models.SearchRequest{Query: "系统的配置问题"},
			wantStages:   []string{StageVector},
			wantType:     SearchTypeHybrid,
		},
		{
			name:       "rerank requested without reranker",
			req:        &models.SearchRequest{Query: "部署流程", UseRerank: models.Bool(true)},
			wantStages: []string{StageRerank},
			wantType:   SearchTypeHybrid,
		},
		{
			name: "rerank service failure",
			req:  &models.SearchRequest{Query: "部署流程", UseRerank: models.Bool(true)},
			opts: []Option{WithReranker(rerank.Func(func(context.Context, string, []string) ([]float64, error) {
				return nil, errors.New("502")
			}))},
			wantStages: []string{StageRerank},
			wantType:   SearchTypeHybrid,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			if tt.cfg != nil {
				tt.cfg(cfg)
			}
			vch := &fakeChannel{name: vec, failFor: tt.vectorFailOn, fallback: []*models.Candidate{
				cand("a", "1", vec, 0.9), cand("b", "1", vec, 0.5),
			}}
			kch := &fakeChannel{name: kw, err: tt.keywordErr, fallback: []*models.Candidate{cand("b", "1", kw, 3)}}

			resp, err := newTestEngine(cfg, vch, kch, tt.opts...).Search(context.Background(), tt.req)
			require.NoError(t, err)
			assert.True(t, resp.Degraded)
			assert.Equal(t, tt.wantStages, resp.DegradedStages)
			assert.Equal(t, tt.wantType, resp.SearchType)
			assert.Len(t, resp.Results, 2)
		})
	}
}

func TestEngine_AllVectorCallsFail(t *testing.T) {
	var mu sync.Mutex
	var states []State
	hook := WithStateHook(func(s State) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	})
	vch := &fakeChannel{name: vec, err: errors.New("embedding service down")}
	kch := &fakeChannel{name: kw, fallback: []*models.Candidate{cand("a", "1", kw, 3)}}

	resp, err := newTestEngine(testConfig(), vch, kch, hook).Search(context.Background(), &models.SearchRequest{Query: "部署"})
	require.NoError(t, err)
	assert.True(t, resp.Degraded)
	assert.Contains(t, resp.DegradedStages, StageRecall)
	assert.Empty(t, resp.Results)
	assert.Equal(t, []State{StateReceived, StateRecalling, StateFailed}, states)
}

func TestEngine_InvalidQuery(t *testing.T) {
	vch := &fakeChannel{name: vec}
	engine := newTestEngine(testConfig(), vch, nil)

	for _, q := range []string{"", "   ", "/研发部"} {
		resp, err := engine.Search(context.Background(), &models.SearchRequest{Query: q})
		require.Error(t, err, "query %q", q)
		assert.Nil(t, resp)
		assert.ErrorIs(t, err, models.ErrInvalidQuery)
		assert.Equal(t, KindInvalidQuery, KindOf(err))
	}
	_, err := engine.Search(context.Background(), &models.SearchRequest{Query: "x", Fusion: "borda"})
	assert.ErrorIs(t, err, models.ErrInvalidQuery)
	assert.Zero(t, vch.callCount())
}

func TestEngine_ParentCancellation(t *testing.T) {
	cfg := testConfig()
	cfg.RecallTimeout = 0
	vch := &fakeChannel{name: vec, block: true}
	engine := newTestEngine(cfg, vch, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	resp, err := engine.Search(ctx, &models.SearchRequest{Query: "部署"})
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_RecallTimeoutIsPerCall(t *testing.T) {
	cfg := testConfig()
	cfg.RecallTimeout = 20 * time.Millisecond
	vch := &fakeChannel{name: vec, fallback: []*models.Candidate{cand("a", "1", vec, 0.9)}}
	kch := &fakeChannel{name: kw, block: true}

	resp, err := newTestEngine(cfg, vch, kch).Search(context.Background(), &models.SearchRequest{Query: "部署"})
	require.NoError(t, err)
	assert.Equal(t, []string{StageKeyword}, resp.DegradedStages)
	require.Len(t, resp.Results, 1)
}

func TestEngine_NoCandidates(t *testing.T) {
	var last State
	hook := WithStateHook(func(s State) { last = s })
	resp, err := newTestEngine(testConfig(), &fakeChannel{name: vec}, &fakeChannel{name: kw}, hook).
		Search(context.Background(), &models.SearchRequest{Query: "nothing matches"})
	require.NoError(t, err)
	assert.False(t, resp.Degraded)
	assert.Empty(t, resp.Results)
	assert.NotNil(t, resp.Results)
	assert.Equal(t, SearchTypeVector, resp.SearchType)
	assert.Equal(t, StateResponded, last)
}

func TestEngine_RerankReordersResults(t *testing.T) {
	// score[i] = i promotes the last fused candidate.
	svc := rerank.Func(func(_ context.Context, _ string, passages []string) ([]float64, error) {
		out := make([]float64, len(passages))
		for i := range out {
			out[i] = float64(i) / float64(len(passages))
		}
		return out, nil
	})
	vch := &fakeChannel{name: vec, fallback: []*models.Candidate{
		cand("a", "1", vec, 0.9), cand("b", "1", vec, 0.8), cand("c", "1", vec, 0.7),
	}}
	kch := &fakeChannel{name: kw, fallback: []*models.Candidate{cand("a", "1", kw, 1)}}

	engine := newTestEngine(testConfig(), vch, kch, WithReranker(svc))
	require.True(t, engine.HasReranker())
	resp, err := engine.Search(context.Background(), &models.SearchRequest{
		Query: "部署", UseRerank: models.Bool(true), Explain: true,
	})
	require.NoError(t, err)
	assert.Equal(t, SearchTypeHybrid+"_reranked", resp.SearchType)
	require.Len(t, resp.Results, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{
		resp.Results[0].DocumentID, resp.Results[1].DocumentID, resp.Results[2].DocumentID,
	})
	require.NotNil(t, resp.Results[0].Breakdown)
	assert.InDelta(t, 2.0/3.0, resp.Results[0].Breakdown.Similarity, 1e-9)
}

func TestEngine_ScopeFilter(t *testing.T) {
	cfg := testConfig()
	cfg.Scopes = []string{"研发部", "市场部"}
	vch := &fakeChannel{name: vec, fallback: []*models.Candidate{cand("a", "1", vec, 0.9)}}
	kch := &fakeChannel{name: kw}
	engine := newTestEngine(cfg, vch, kch)

	resp, err := engine.Search(context.Background(), &models.SearchRequest{Query: "/研发 部署流程"})
	require.NoError(t, err)
	assert.Equal(t, "研发部", resp.Scope)
	assert.Equal(t, "部署流程", resp.ActualQuery)
	require.Len(t, vch.filters, 1)
	assert.Equal(t, "研发部", vch.filters[0].TeamID)
	assert.Equal(t, []string{"部署流程"}, vch.calls)

	// An explicit scope field overrides the prefix.
	resp, err = engine.Search(context.Background(), &models.SearchRequest{Query: "/研发部 部署流程", Scope: "市场"})
	require.NoError(t, err)
	assert.Equal(t, "市场部", resp.Scope)

	vch.filters = nil
	_, err = engine.Search(context.Background(), &models.SearchRequest{Query: "部署流程"})
	require.NoError(t, err)
	assert.Nil(t, vch.filters[0])
}

func TestEngine_QueryVariants(t *testing.T) {
	cfg := testConfig()
	cfg.UseQueryEnhance = models.Bool(true)
	cfg.MaxVariants = 3
	vch := &fakeChannel{name: vec}
	kch := &fakeChannel{name: kw}

	resp, err := newTestEngine(cfg, vch, kch).Search(context.Background(), &models.SearchRequest{Query: "系统的配置问题"})
	require.NoError(t, err)
	assert.Equal(t, []string{"系统的配置问题", "系统的配置疑问", "系统配置问题"}, resp.QueryVariations)
	assert.Equal(t, 3, vch.callCount())
	assert.Equal(t, 3, kch.callCount())

	resp, err = newTestEngine(cfg, &fakeChannel{name: vec}, nil).Search(context.Background(), &models.SearchRequest{
		Query: "系统的配置问题", UseQueryEnhance: models.Bool(false),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"系统的配置问题"}, resp.QueryVariations)
}

func TestEngine_GroupsChunksByDocument(t *testing.T) {
	cfg := testConfig()
	cfg.MaxSnippets = 2
	a1 := cand("a", "1", vec, 0.9)
	a1.Content = "first chunk"
	a2 := cand("a", "2", vec, 0.85)
	a2.Content = "second chunk"
	a3 := cand("a", "3", vec, 0.8)
	a3.Content = "third chunk"
	vch := &fakeChannel{name: vec, fallback: []*models.Candidate{a1, a2, a3, cand("b", "1", vec, 0.7), cand("c", "1", vec, 0.6)}}

	resp, err := newTestEngine(cfg, vch, &fakeChannel{name: kw}).Search(context.Background(), &models.SearchRequest{Query: "chunk", Limit: 2})
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "a", resp.Results[0].DocumentID)
	assert.Equal(t, "1", resp.Results[0].ChunkID)
	assert.Equal(t, []string{"first chunk", "second chunk"}, resp.Results[0].MatchedSnippets)
	assert.Equal(t, "b", resp.Results[1].DocumentID)
	assert.Equal(t, 2, resp.Results[1].Rank)
	assert.Equal(t, 5, resp.TotalCandidates)
}

func TestEngine_MinScore(t *testing.T) {
	vch := &fakeChannel{name: vec, fallback: []*models.Candidate{cand("a", "1", vec, 0.9), cand("b", "1", vec, 0.8)}}
	resp, err := newTestEngine(testConfig(), vch, &fakeChannel{name: kw}).
		Search(context.Background(), &models.SearchRequest{Query: "x", MinScore: 0.99})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.Equal(t, 2, resp.TotalCandidates)
}

func TestEngine_RecallSize(t *testing.T) {
	tests := []struct {
		name       string
		cfgRecall  int
		oversample float64
		req        models.SearchRequest
		want       int
	}{
		{"request wins", 15, 2, models.SearchRequest{Limit: 5, RecallSize: 40}, 40},
		{"request never below limit", 15, 2, models.SearchRequest{Limit: 5, RecallSize: 3}, 5},
		{"configured", 15, 2, models.SearchRequest{Limit: 5}, 15},
		{"configured raised to oversample", 15, 2, models.SearchRequest{Limit: 50}, 100},
		{"configured raised to clamped oversample", 15, 1, models.SearchRequest{Limit: 20}, 30},
		{"derived from oversample", 0, 2, models.SearchRequest{Limit: 10}, 20},
		{"oversample clamped low", 0, 1, models.SearchRequest{Limit: 10}, 15},
		{"oversample clamped high", 0, 10, models.SearchRequest{Limit: 10}, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.RecallSize = tt.cfgRecall
			cfg.Oversample = tt.oversample
			engine := newTestEngine(cfg, &fakeChannel{name: vec}, nil)
			assert.Equal(t, tt.want, engine.RecallSize(&tt.req))
		})
	}
}

func TestEngine_WeightedFusionAndDiversity(t *testing.T) {
	cfg := testConfig()
	cfg.UseDiversity = models.Bool(true)
	meta := map[string]interface{}{"category": "ops", "content_type": "technical"}
	var cands []*models.Candidate
	for _, id := range []string{"a", "b"} {
		c := cand(id, "1", vec, 0.9)
		c.Metadata = meta
		cands = append(cands, c)
	}
	other := cand("c", "1", vec, 0.89)
	other.Metadata = map[string]interface{}{"category": "sales"}
	cands = append(cands, other, cand("d", "1", vec, 0.1))

	vch := &fakeChannel{name: vec, fallback: cands}
	resp, err := newTestEngine(cfg, vch, &fakeChannel{name: kw}).
		Search(context.Background(), &models.SearchRequest{Query: "x", Fusion: models.FusionWeighted})
	require.NoError(t, err)
	require.Len(t, resp.Results, 4)
	// b repeats a's category and drops below c.
	got := make([]string, len(resp.Results))
	for i, r := range resp.Results {
		got[i] = r.DocumentID
	}
	assert.Equal(t, []string{"a", "c", "b", "d"}, got)
}

func TestEngine_EndToEndScopedSearch(t *testing.T) {
	ctx := context.Background()
	emb := embedding.NewMockEmbedder(16)
	store, err := vector.NewMemoryStore(16)
	require.NoError(t, err)
	kwIndex, err := keyword.NewBleveIndex("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = kwIndex.Close() })
	meta, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = meta.Close() })

	chunks := []*models.DocumentChunk{
		{ID: "c1", DocumentID: "doc1", TeamID: "研发部", Content: "部署流程说明：先构建镜像，再发布到集群。"},
		{ID: "c2", DocumentID: "doc3", TeamID: "研发部", Content: "代码评审规范与分支管理。"},
		{ID: "c3", DocumentID: "doc2", TeamID: "市场部", Content: "市场部的部署流程与活动排期。"},
	}
	for _, c := range chunks {
		c.Embedding, err = emb.Embed(ctx, c.Content)
		require.NoError(t, err)
		require.NoError(t, meta.CreateDocument(ctx, &models.Document{ID: c.DocumentID, Filename: c.DocumentID + ".md", TeamID: c.TeamID}))
	}
	require.NoError(t, store.Upsert(ctx, chunks))
	require.NoError(t, kwIndex.Index(ctx, chunks))

	cfg := testConfig()
	cfg.Scopes = []string{"研发部", "市场部"}
	engine := NewEngine(meta, emb, store, kwIndex, cfg)

	resp, err := engine.Search(ctx, &models.SearchRequest{Query: "/研发部 部署流程"})
	require.NoError(t, err)
	assert.Equal(t, "研发部", resp.Scope)
	assert.Equal(t, "部署流程", resp.ActualQuery)
	assert.Equal(t, SearchTypeHybrid, resp.SearchType)
	assert.False(t, resp.Degraded)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "doc1", resp.Results[0].DocumentID)
	assert.Equal(t, "doc1.md", resp.Results[0].Filename)
	for _, r := range resp.Results {
		assert.NotEqual(t, "doc2", r.DocumentID, "scope filter must exclude other teams")
	}
}

func TestEngine_RerankInputCappedAtRecallSize(t *testing.T) {
	var mu sync.Mutex
	var sent []int
	svc := rerank.Func(func(_ context.Context, _ string, passages []string) ([]float64, error) {
		mu.Lock()
		sent = append(sent, len(passages))
		mu.Unlock()
		return make([]float64, len(passages)), nil
	})
	cfg := testConfig()
	cfg.UseQueryEnhance = models.Bool(true)
	cfg.MaxVariants = 3
	vch := &fakeChannel{name: vec, byText: map[string][]*models.Candidate{
		"系统的配置问题": {cand("a", "1", vec, 0.9), cand("b", "1", vec, 0.8)},
		"系统的配置疑问": {cand("c", "1", vec, 0.9), cand("d", "1", vec, 0.8)},
		"系统配置问题":  {cand("e", "1", vec, 0.9), cand("f", "1", vec, 0.8)},
	}}
	engine := newTestEngine(cfg, vch, &fakeChannel{name: kw}, WithReranker(svc))

	req := &models.SearchRequest{Query: "系统的配置问题", Limit: 2, RecallSize: 2, UseRerank: models.Bool(true)}
	resp, err := engine.Search(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, resp.Degraded)
	assert.Equal(t, 6, resp.TotalCandidates)
	require.Len(t, sent, 1)
	assert.LessOrEqual(t, sent[0], engine.RecallSize(req))
	assert.Equal(t, 2, sent[0])
	assert.Len(t, resp.Results, 2)
}

func TestEngine_RerankTailKeepsFusionOrder(t *testing.T) {
	// score[i] = i reverses the head.
	svc := rerank.Func(func(_ context.Context, _ string, passages []string) ([]float64, error) {
		out := make([]float64, len(passages))
		for i := range out {
			out[i] = float64(i) / float64(len(passages))
		}
		return out, nil
	})
	engine := newTestEngine(testConfig(), &fakeChannel{name: vec}, nil, WithReranker(svc))

	var fused []*models.FusedCandidate
	for i, doc := range []string{"a", "b", "c", "d"} {
		fused = append(fused, &models.FusedCandidate{Candidate: cand(doc, "1", vec, 1), FusionScore: 1 / float64(i+1)})
	}
	ranked, err := engine.rerank(context.Background(), "q", fused, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"b#1", "a#1", "c#1", "d#1"}, rankedKeys(ranked))
	assert.NotNil(t, ranked[0].RerankScore)
	assert.NotNil(t, ranked[1].RerankScore)
	assert.Nil(t, ranked[2].RerankScore)
	assert.Nil(t, ranked[3].RerankScore)
}

func TestEngine_ScopedSearchOneResultPerDocument(t *testing.T) {
	cfg := testConfig()
	cfg.Scopes = []string{"研发部", "市场部"}
	vch := &fakeChannel{name: vec, fallback: []*models.Candidate{
		cand("doc1", "c1", vec, 0.92), cand("doc1", "c2", vec, 0.87), cand("doc2", "c3", vec, 0.81),
	}}
	engine := newTestEngine(cfg, vch, &fakeChannel{name: kw})

	resp, err := engine.Search(context.Background(), &models.SearchRequest{Query: "/研发部 部署流程", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, "研发部", resp.Scope)
	assert.Equal(t, "部署流程", resp.ActualQuery)
	require.NotEmpty(t, vch.filters)
	assert.Equal(t, "研发部", vch.filters[0].TeamID)
	assert.Equal(t, 3, resp.TotalCandidates)

	require.LessOrEqual(t, len(resp.Results), 2)
	require.Len(t, resp.Results, 2)
	seen := make(map[string]bool)
	for i, r := range resp.Results {
		assert.False(t, seen[r.DocumentID], "duplicate document %s", r.DocumentID)
		seen[r.DocumentID] = true
		if i > 0 {
			assert.Greater(t, resp.Results[i-1].Score, r.Score)
		}
	}
	assert.Equal(t, "doc1", resp.Results[0].DocumentID)
	assert.Equal(t, "doc2", resp.Results[1].DocumentID)
}

func TestEngine_MatchedSnippetsBounded(t *testing.T) {
	cfg := testConfig()
	cfg.MaxSnippets = 5
	var cands []*models.Candidate
	for _, chunk := range []string{"1", "2", "3", "4", "5"} {
		cands = append(cands, cand("a", chunk, vec, 0.9))
	}
	resp, err := newTestEngine(cfg, &fakeChannel{name: vec, fallback: cands}, &fakeChannel{name: kw}).
		Search(context.Background(), &models.SearchRequest{Query: "content"})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Len(t, resp.Results[0].MatchedSnippets, models.MaxMatchedSnippets)
}
