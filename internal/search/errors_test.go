package search

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/hyperjump/askme/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, KindNone},
		{"invalid query", fmt.Errorf("wrap: %w", models.ErrInvalidQuery), KindInvalidQuery},
		{"deadline", context.DeadlineExceeded, KindExternalTimeout},
		{"stage error", newStageError(StageVector, KindEmbeddingFailure, errors.New("x")), KindEmbeddingFailure},
		{"stage deadline reclassified", newStageError(StageRerank, KindRerankFailure, context.DeadlineExceeded), KindExternalTimeout},
		{"plain error", errors.New("down"), KindChannelUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestStageError(t *testing.T) {
	inner := errors.New("connection refused")
	err := newStageError(StageKeyword, KindChannelUnavailable, inner)
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "keyword stage: channel_unavailable: connection refused", err.Error())

	res := resultOf(StageKeyword, err)
	assert.False(t, res.OK())
	assert.True(t, resultOf(StageKeyword, nil).OK())
}

func TestCanTransition(t *testing.T) {
	legal := [][2]State{
		{StateReceived, StateRecalling},
		{StateRecalling, StateFusing},
		{StateRecalling, StateFailed},
		{StateRecalling, StateResponded},
		{StateFusing, StateReranking},
		{StateFusing, StateRanking},
		{StateReranking, StateRanking},
		{StateRanking, StateDiversifying},
		{StateRanking, StateResponded},
		{StateDiversifying, StateResponded},
	}
	for _, tr := range legal {
		assert.True(t, CanTransition(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}
	assert.False(t, CanTransition(StateReceived, StateRanking))
	assert.False(t, CanTransition(StateResponded, StateRecalling))
	assert.False(t, CanTransition(StateFailed, StateResponded))
	assert.Equal(t, "DIVERSIFYING", StateDiversifying.String())
}
