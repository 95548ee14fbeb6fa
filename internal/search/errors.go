package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperjump/askme/internal/models"
)

// ErrorKind classifies a stage failure so the engine can decide between abort and degrade.
type ErrorKind int

const (
	// KindNone means the stage succeeded.
	KindNone ErrorKind = iota
	// KindInvalidQuery rejects the request before any external call.
	KindInvalidQuery
	// KindChannelUnavailable is an optional channel that is missing or erroring.
	KindChannelUnavailable
	// KindEmbeddingFailure means the query could not be embedded.
	KindEmbeddingFailure
	// KindRerankFailure falls back to fusion ordering.
	KindRerankFailure
	// KindExternalTimeout is a per-call deadline, charged to the owning stage.
	KindExternalTimeout
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindInvalidQuery:
		return "invalid_query"
	case KindChannelUnavailable:
		return "channel_unavailable"
	case KindEmbeddingFailure:
		return "embedding_failure"
	case KindRerankFailure:
		return "rerank_failure"
	case KindExternalTimeout:
		return "external_timeout"
	default:
		return "unknown"
	}
}

// Pipeline stage names, used in errors, logs, metrics and degraded_stages.
const (
	StageQuery     = "query"
	StageRecall    = "recall"
	StageVector    = "vector"
	StageKeyword   = "keyword"
	StageFusion    = "fusion"
	StageRerank    = "rerank"
	StageRanking   = "ranking"
	StageDiversity = "diversity"
	StageResponse  = "response"
)

// StageError is a failure attributed to a pipeline stage.
type StageError struct {
	Stage string
	Kind  ErrorKind
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %s: %v", e.Stage, e.Kind, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// newStageError wraps err for stage. Deadline errors are reclassified as KindExternalTimeout.
func newStageError(stage string, kind ErrorKind, err error) *StageError {
	if errors.Is(err, context.DeadlineExceeded) {
		kind = KindExternalTimeout
	}
	return &StageError{Stage: stage, Kind: kind, Err: err}
}

// KindOf classifies err. Errors that carry no kind of their own count as an unavailable
// channel.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	if errors.Is(err, models.ErrInvalidQuery) {
		return KindInvalidQuery
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindExternalTimeout
	}
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindChannelUnavailable
}

// StageResult is what every stage reports back to the engine.
type StageResult struct {
	Stage string
	Kind  ErrorKind
	Err   error
}

// OK reports whether the stage succeeded.
func (r StageResult) OK() bool {
	return r.Kind == KindNone
}

func resultOf(stage string, err error) StageResult {
	return StageResult{Stage: stage, Kind: KindOf(err), Err: err}
}
