package search

import (
	"strings"

	"github.com/hyperjump/askme/pkg/utils"
)

// Highlight returns a snippet of at most maxRunes runes (plus ellipses). When one of terms
// occurs in content the window starts shortly before the first match; otherwise it starts at
// the beginning.
func Highlight(content string, terms []string, maxRunes int) string {
	runes := []rune(content)
	if maxRunes <= 0 || len(runes) <= maxRunes {
		return content
	}

	start := 0
	if pos := firstMatch(content, terms); pos > 0 {
		start = pos - maxRunes/4
		if start < 0 {
			start = 0
		}
		if start+maxRunes > len(runes) {
			start = len(runes) - maxRunes
		}
	}

	snippet := utils.Truncate(string(runes[start:]), maxRunes)
	if start > 0 {
		snippet = "..." + snippet
	}
	return snippet
}

// firstMatch returns the rune offset of the earliest case-insensitive occurrence of any term,
// or -1.
func firstMatch(content string, terms []string) int {
	lower := strings.ToLower(content)
	best := -1
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if idx := strings.Index(lower, t); idx >= 0 {
			pos := len([]rune(lower[:idx]))
			if best < 0 || pos < best {
				best = pos
			}
		}
	}
	return best
}
