// Package search implements the retrieval pipeline: fuzzy query correction
// against a corpus vocabulary, hybrid semantic+lexical scoring, per-file
// deduplication, and query-aware snippet extraction.
package search

import (
	"strings"
	"unicode"
)

// wordTokens lowercases text and splits it on any non-letter, non-digit
// rune. Used for lexical scoring and matched-term reporting.
func wordTokens(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// alphaTokens returns the lowercase alphabetic tokens of length >= minLen.
// Used to harvest the vocabulary.
func alphaTokens(text string, minLen int) []string {
	var out []string
	for _, tok := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	}) {
		if len([]rune(tok)) >= minLen {
			out = append(out, tok)
		}
	}
	return out
}

// tokenSet builds a membership set from wordTokens.
func tokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range wordTokens(text) {
		set[tok] = struct{}{}
	}
	return set
}
