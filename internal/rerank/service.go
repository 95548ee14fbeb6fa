// Package rerank scores (query, passage) pairs with a cross-encoder service.
package rerank

import (
	"context"
	"errors"
)

// ErrLengthMismatch is returned when a service answers with a different number of scores
// than passages were sent.
var ErrLengthMismatch = errors.New("rerank score count does not match passage count")

// ErrResponseTooLarge is returned when a service response exceeds the configured size cap.
var ErrResponseTooLarge = errors.New("rerank response too large")

// Service scores passages against a query. The returned slice has the same length and order
// as passages.
type Service interface {
	Score(ctx context.Context, query string, passages []string) ([]float64, error)
}

// Func adapts a plain function to Service.
type Func func(ctx context.Context, query string, passages []string) ([]float64, error)

// Score calls f.
func (f Func) Score(ctx context.Context, query string, passages []string) ([]float64, error) {
	return f(ctx, query, passages)
}
