package query

import (
	"strings"
	"unicode"
)

// Enhancer produces bounded query variants for multi-variant recall.
type Enhancer struct {
	synonyms  []Synonym
	stopwords []string
}

// EnhancerOption configures an Enhancer.
type EnhancerOption func(*Enhancer)

// WithSynonyms replaces the synonym dictionary. Order is lookup order.
func WithSynonyms(s []Synonym) EnhancerOption {
	return func(e *Enhancer) {
		if s != nil {
			e.synonyms = s
		}
	}
}

// WithStopwords replaces the stop-word list.
func WithStopwords(words []string) EnhancerOption {
	return func(e *Enhancer) {
		if words != nil {
			e.stopwords = words
		}
	}
}

// NewEnhancer creates an Enhancer with the default dictionary unless overridden.
func NewEnhancer(opts ...EnhancerOption) *Enhancer {
	e := &Enhancer{
		synonyms:  DefaultSynonyms,
		stopwords: DefaultStopwords,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enhance returns normalized followed by at most maxVariants-1 extra variants: one synonym
// substitution and one stop-word-stripped copy. Duplicates and empty strings are dropped.
// The result is never empty.
func (e *Enhancer) Enhance(normalized string, maxVariants int) []string {
	variants := []string{normalized}
	if maxVariants <= 1 {
		return variants
	}

	seen := map[string]struct{}{normalized: {}}
	add := func(v string) {
		v = collapseSpaces(v)
		if v == "" {
			return
		}
		if _, dup := seen[v]; dup {
			return
		}
		seen[v] = struct{}{}
		variants = append(variants, v)
	}

	add(e.SynonymVariant(normalized))
	add(e.StripStopwords(normalized))

	if len(variants) > maxVariants {
		variants = variants[:maxVariants]
	}
	return variants
}

// SynonymVariant replaces the first occurrence of the first dictionary term found in text with
// that term's first replacement. Returns text unchanged when nothing matches.
func (e *Enhancer) SynonymVariant(text string) string {
	for _, syn := range e.synonyms {
		if syn.Term == "" || len(syn.Replacements) == 0 {
			continue
		}
		if strings.Contains(text, syn.Term) {
			return strings.Replace(text, syn.Term, syn.Replacements[0], 1)
		}
	}
	return text
}

// StripStopwords removes stop words from text.
func (e *Enhancer) StripStopwords(text string) string {
	var words, fragments []string
	for _, sw := range e.stopwords {
		if sw == "" {
			continue
		}
		if isASCIIWord(sw) {
			words = append(words, strings.ToLower(sw))
		} else {
			fragments = append(fragments, sw)
		}
	}

	out := text
	for _, f := range fragments {
		out = strings.ReplaceAll(out, f, "")
	}
	if len(words) == 0 {
		return collapseSpaces(out)
	}

	fields := strings.Fields(out)
	kept := fields[:0]
	for _, f := range fields {
		if containsFold(words, f) {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

func isASCIIWord(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func containsFold(list []string, s string) bool {
	s = strings.ToLower(s)
	for _, w := range list {
		if w == s {
			return true
		}
	}
	return false
}
