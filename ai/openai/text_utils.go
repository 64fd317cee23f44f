package openai

import (
	"strings"
	"unicode/utf8"
)

// scrubString removes punctuation and trims whitespace from text.
func scrubString(s string) string {
	// Remove common punctuation
	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(".,!?;:\"'()[]{}—–-", r) {
			return -1
		}
		return r
	}, s)
	// Trim leading and trailing whitespace
	return strings.TrimSpace(s)
}

// normalizeCoreConcept reduces a model-supplied core concept to a single
// lowercase word. Models sometimes ignore the single-word instruction and
// return phrases like "Laser Cutting"; the first scrubbed word wins.
func normalizeCoreConcept(s string) string {
	s = strings.ToLower(scrubString(s))
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// truncateAtRuneBoundary cuts s to at most limit bytes without splitting a
// multi-byte rune at the cut point.
func truncateAtRuneBoundary(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

// isLetter returns true if the rune is an ASCII letter.
func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
