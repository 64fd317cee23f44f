package match

import (
	"regexp"
	"strings"
)

// tokenPattern extracts maximal alphanumeric runs; everything else is a
// separator.
var tokenPattern = regexp.MustCompile(`[a-zA-Z0-9]+`)

// Tokenize normalizes free text to a set of lowercase alphanumeric tokens.
// Duplicates within one string collapse. Empty or whitespace-only input
// yields an empty set.
func Tokenize(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, token := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		tokens[token] = struct{}{}
	}
	return tokens
}

// TokenizeAll unions the token sets of several strings into one aggregate
// set. Callers typically pass the query together with flattened profile
// fields.
func TokenizeAll(texts []string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, text := range texts {
		for _, token := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
			tokens[token] = struct{}{}
		}
	}
	return tokens
}
