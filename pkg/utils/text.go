// Package utils provides shared utilities for text, math, and logging.
package utils

// Truncate returns s cut to at most maxRunes runes, with "..." appended if truncated.
// If maxRunes is 0 or negative, returns s unchanged.
func Truncate(s string, maxRunes int) string {
	cut := TruncateRunes(s, maxRunes)
	if len(cut) == len(s) {
		return s
	}
	return cut + "..."
}

// TruncateRunes keeps the first maxRunes runes of s without adding an ellipsis.
// Multi-byte characters are never split.
func TruncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 || len(s) <= maxRunes {
		return s
	}
	n := 0
	for i := range s {
		if n == maxRunes {
			return s[:i]
		}
		n++
	}
	return s
}
