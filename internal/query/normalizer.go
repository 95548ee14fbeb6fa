// Package query prepares raw user queries: scope prefix parsing and bounded variant expansion.
package query

import (
	"strings"

	"github.com/hyperjump/askme/internal/models"
)

// ScopePrefix introduces a scope token at the start of a query ("/<scope> <text>").
const ScopePrefix = "/"

// Normalizer parses scope prefixes against a known scope list.
type Normalizer struct {
	scopes []string
}

// NewNormalizer returns a Normalizer that resolves scope tokens against scopes (in order).
func NewNormalizer(scopes []string) *Normalizer {
	cp := make([]string, 0, len(scopes))
	for _, s := range scopes {
		if s = strings.TrimSpace(s); s != "" {
			cp = append(cp, s)
		}
	}
	return &Normalizer{scopes: cp}
}

// Normalize trims raw, extracts an optional leading "/<scope> " token and returns the query with
// Variants set to just the normalized text. Returns models.ErrInvalidQuery when nothing
// searchable remains.
func (n *Normalizer) Normalize(raw string) (*models.Query, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, models.ErrInvalidQuery
	}

	var scope string
	if strings.HasPrefix(text, ScopePrefix) {
		token, rest := splitFirstField(text)
		token = strings.TrimPrefix(token, ScopePrefix)
		if token != "" {
			scope = n.ResolveScope(token)
			text = rest
		}
	}

	normalized := collapseSpaces(text)
	if normalized == "" {
		return nil, models.ErrInvalidQuery
	}
	return &models.Query{
		Raw:        raw,
		Normalized: normalized,
		Variants:   []string{normalized},
		Scope:      scope,
	}, nil
}

// ResolveScope maps token to a configured scope. An exact case-insensitive match wins, then the
// first scope containing token case-insensitively. Unmatched tokens are returned as-is.
func (n *Normalizer) ResolveScope(token string) string {
	lower := strings.ToLower(token)
	for _, s := range n.scopes {
		if strings.EqualFold(s, token) {
			return s
		}
	}
	for _, s := range n.scopes {
		if strings.Contains(strings.ToLower(s), lower) {
			return s
		}
	}
	return token
}

// Scopes returns the configured scope list.
func (n *Normalizer) Scopes() []string {
	return append([]string(nil), n.scopes...)
}

func splitFirstField(s string) (first, rest string) {
	idx := strings.IndexAny(s, " \t\n\r　")
	if idx < 0 {
		return s, ""
	}
	return s[:idx], strings.TrimSpace(s[idx:])
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
