package embedding

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

type countingEmbedder struct {
	*MockEmbedder
	calls atomic.Int32
	fail  bool
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.calls.Add(1)
	if c.fail {
		return nil, errors.New("boom")
	}
	return c.MockEmbedder.Embed(ctx, text)
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.calls.Add(int32(len(texts)))
	if c.fail {
		return nil, errors.New("boom")
	}
	return c.MockEmbedder.EmbedBatch(ctx, texts)
}

func TestCachedEmbedder_Embed(t *testing.T) {
	inner := &countingEmbedder{MockEmbedder: NewMockEmbedder(8)}
	c := NewCachedEmbedder(inner, 2)
	ctx := context.Background()

	a1, err := c.Embed(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	a2, _ := c.Embed(ctx, "a")
	if inner.calls.Load() != 1 {
		t.Errorf("inner calls = %d, want 1", inner.calls.Load())
	}
	if a1[0] != a2[0] {
		t.Error("cached vector differs")
	}

	_, _ = c.Embed(ctx, "b")
	_, _ = c.Embed(ctx, "c") // evicts a
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
	_, _ = c.Embed(ctx, "a")
	if inner.calls.Load() != 4 {
		t.Errorf("inner calls = %d, want 4 after eviction", inner.calls.Load())
	}
}

func TestCachedEmbedder_EmbedBatchMixesHitsAndMisses(t *testing.T) {
	inner := &countingEmbedder{MockEmbedder: NewMockEmbedder(8)}
	c := NewCachedEmbedder(inner, 10)
	ctx := context.Background()

	if _, err := c.Embed(ctx, "x"); err != nil {
		t.Fatal(err)
	}
	out, err := c.EmbedBatch(ctx, []string{"x", "y", "z"})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 3 {
		t.Fatalf("len = %d", len(out))
	}
	if inner.calls.Load() != 3 {
		t.Errorf("inner calls = %d, want 3 (1 + 2 misses)", inner.calls.Load())
	}
	want, _ := inner.MockEmbedder.Embed(ctx, "y")
	if out[1][0] != want[0] {
		t.Error("batch result out of order")
	}
}

func TestCachedEmbedder_ErrorsAreNotCached(t *testing.T) {
	inner := &countingEmbedder{MockEmbedder: NewMockEmbedder(4), fail: true}
	c := NewCachedEmbedder(inner, 10)
	if _, err := c.Embed(context.Background(), "q"); err == nil {
		t.Fatal("expected error")
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0", c.Len())
	}
}

func TestMockEmbedder_Deterministic(t *testing.T) {
	e := NewMockEmbedder(16)
	a, _ := e.Embed(context.Background(), "部署流程")
	b, _ := e.Embed(context.Background(), "部署流程")
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("dimension %d differs", i)
		}
	}
	if e.Dimensions() != 16 || NewMockEmbedder(0).Dimensions() != 384 {
		t.Error("unexpected dimensions")
	}
}
