package search

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate_MergesAcrossChannels(t *testing.T) {
	first := cand("a", "1", vec, 0.6)
	first.Content = "first"
	first.Metadata = map[string]interface{}{"category": "ops"}
	later := cand("a", "1", kw, 7)
	later.Content = "later"

	agg := Aggregate([]RecallList{
		list(vec, 0, first, cand("b", "2", vec, 0.3)),
		list(vec, 1, cand("a", "1", vec, 0.8)),
		list(kw, 0, later),
	})

	require.Len(t, agg, 2)
	a := agg[0]
	assert.Equal(t, "a#1", a.Key.String())
	assert.Equal(t, "first", a.Content)
	assert.Equal(t, "ops", a.Metadata["category"])
	assert.Equal(t, 0.8, a.ChannelScores[vec])
	assert.Equal(t, 7.0, a.ChannelScores[kw])
	assert.Equal(t, "b#2", agg[1].Key.String())
}

func TestAggregate_Idempotent(t *testing.T) {
	lists := []RecallList{
		list(vec, 0, cand("b", "1", vec, 0.2), cand("a", "1", vec, 0.9)),
		list(kw, 0, cand("a", "1", kw, 1)),
	}
	once := Aggregate(lists)
	twice := Aggregate(append(lists, lists...))
	require.Len(t, twice, len(once))
	for i := range once {
		assert.Equal(t, once[i].Key, twice[i].Key)
		assert.Equal(t, once[i].ChannelScores, twice[i].ChannelScores)
	}
}

func TestAggregate_SanitizesScores(t *testing.T) {
	agg := Aggregate([]RecallList{
		list(kw, 0, cand("a", "1", kw, math.NaN()), nil),
	})
	require.Len(t, agg, 1)
	assert.Equal(t, 0.0, agg[0].ChannelScores[kw])
}

func TestAggregate_Empty(t *testing.T) {
	assert.Empty(t, Aggregate(nil))
	assert.Empty(t, Aggregate([]RecallList{list(vec, 0)}))
}

