package models

import "time"

// MaxMatchedSnippets bounds SearchResult.MatchedSnippets.
const MaxMatchedSnippets = 3

// SearchResult is a single document-level hit.
type SearchResult struct {
	DocumentID      string          `json:"document_id"`
	Filename        string          `json:"filename"`
	Score           float64         `json:"score"`
	MatchedSnippets []string        `json:"matches"`
	SearchType      string          `json:"search_type"`
	ChunkID         string          `json:"chunk_id"`
	CreatedAt       *time.Time      `json:"created_at,omitempty"`
	Rank            int             `json:"rank"`
	Breakdown       *ScoreBreakdown `json:"breakdown,omitempty"`
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Query       string          `json:"query"`
	ActualQuery string          `json:"actual_query"`
	Scope       string          `json:"scope,omitempty"`
	Results     []*SearchResult `json:"results"`
	// TotalCandidates counts unique chunks after aggregation.
	TotalCandidates int    `json:"total_candidates"`
	SearchType      string `json:"search_type"`
	Degraded        bool   `json:"degraded"`
	// DegradedStages names every optional stage that was skipped or failed.
	DegradedStages  []string `json:"degraded_stages,omitempty"`
	QueryVariations []string `json:"query_variations,omitempty"`
	QueryTime       int64    `json:"query_time_ms"`
}
