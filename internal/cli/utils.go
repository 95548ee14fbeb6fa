// Package cli formats search and indexing results for the askme command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hyperjump/askme/internal/indexer"
	"github.com/hyperjump/askme/internal/models"
	"github.com/hyperjump/askme/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

const snippetRunes = 160

// WriteSearchResults writes a search response to w in the given format.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, response)
	}
	writeSearchResultsText(w, response)
	return nil
}

func writeSearchResultsText(w io.Writer, response *models.SearchResponse) {
	fmt.Fprintf(w, "\nFound %d results in %dms (%s, %d candidates)\n",
		len(response.Results), response.QueryTime, response.SearchType, response.TotalCandidates)
	if response.Scope != "" {
		fmt.Fprintf(w, "Scope: %s\n", response.Scope)
	}
	if len(response.QueryVariations) > 1 {
		fmt.Fprintf(w, "Variants: %s\n", strings.Join(response.QueryVariations, " | "))
	}
	if response.Degraded {
		fmt.Fprintf(w, "Degraded: %s\n", strings.Join(response.DegradedStages, ", "))
	}
	fmt.Fprintln(w)
	for _, result := range response.Results {
		writeOneResult(w, result)
	}
}

func writeOneResult(w io.Writer, result *models.SearchResult) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "Rank: %d | Score: %.4f | %s\n", result.Rank, result.Score, result.Filename)
	fmt.Fprintf(w, "ID: %s\n", result.DocumentID)
	if b := result.Breakdown; b != nil {
		fmt.Fprintf(w, "Breakdown: similarity=%.3f recency=%.3f popularity=%.3f quality=%.3f\n",
			b.Similarity, b.Recency, b.Popularity, b.Quality)
	}
	for _, s := range result.MatchedSnippets {
		fmt.Fprintf(w, "  %s\n", utils.Truncate(s, snippetRunes))
	}
	fmt.Fprintln(w)
}

// PrintSearchResults prints search results to stdout in text format.
func PrintSearchResults(response *models.SearchResponse) {
	_ = WriteSearchResults(os.Stdout, response, OutputText)
}

// WriteBatchResult summarizes a bulk indexing run.
func WriteBatchResult(w io.Writer, res *indexer.BatchResult, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, res)
	}
	fmt.Fprintf(w, "Indexed %d documents, %d failed\n", len(res.Indexed), len(res.Failed))
	for _, f := range res.Failed {
		id := f.ID
		if id == "" {
			id = fmt.Sprintf("#%d", f.Index)
		}
		fmt.Fprintf(w, "  %s: %s\n", id, f.Err)
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
