package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidQuery is returned for empty or whitespace-only queries.
var ErrInvalidQuery = errors.New("query cannot be empty")

// Fusion algorithm names.
const (
	FusionRRF      = "rrf"
	FusionWeighted = "weighted"
)

// Query is a normalized user query with its recall variants.
type Query struct {
	Raw        string
	Normalized string
	// Variants always starts with Normalized.
	Variants []string
	Scope    string
}

// SearchRequest is a search request. Pointer booleans distinguish "unset" from false so
// that configured defaults apply.
type SearchRequest struct {
	Query           string  `json:"query"`
	Limit           int     `json:"limit,omitempty"`
	Scope           string  `json:"scope,omitempty"`
	UseRerank       *bool   `json:"use_rerank,omitempty"`
	UseQueryEnhance *bool   `json:"use_query_enhance,omitempty"`
	UseDiversity    *bool   `json:"use_diversity,omitempty"`
	RecallSize      int     `json:"recall_size,omitempty"`
	Fusion          string  `json:"fusion,omitempty"`
	MinScore        float64 `json:"min_score,omitempty"`
	Explain         bool    `json:"explain,omitempty"`
}

// Validate ensures the request has a non-empty query and sane limits. Every returned error
// wraps ErrInvalidQuery.
func (r *SearchRequest) Validate() error {
	r.Query = strings.TrimSpace(r.Query)
	if r.Query == "" {
		return ErrInvalidQuery
	}
	if r.Limit <= 0 {
		r.Limit = 10
	}
	if r.Limit > 100 {
		r.Limit = 100
	}
	if r.RecallSize < 0 {
		r.RecallSize = 0
	}
	switch strings.ToLower(r.Fusion) {
	case "":
	case FusionRRF, FusionWeighted:
		r.Fusion = strings.ToLower(r.Fusion)
	default:
		return fmt.Errorf("%w: fusion must be %q or %q", ErrInvalidQuery, FusionRRF, FusionWeighted)
	}
	return nil
}

// Bool returns a pointer to b, for building requests.
func Bool(b bool) *bool {
	return &b
}
