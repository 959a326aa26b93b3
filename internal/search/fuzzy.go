package search

import (
	"context"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// Corrector rewrites likely typos in a query by snapping each token to the
// closest vocabulary word when the edit similarity clears the threshold.
// Tokens that already exist in the corpus, or are shorter than minLength,
// pass through untouched.
type Corrector struct {
	vocab     *Vocabulary
	minLength int
	threshold float64
}

// NewCorrector builds a corrector over the vocabulary.
func NewCorrector(vocab *Vocabulary, minLength int, threshold float64) *Corrector {
	return &Corrector{vocab: vocab, minLength: minLength, threshold: threshold}
}

// Correct returns the query with misspelled tokens replaced. Whitespace is
// collapsed to single spaces; everything else about the token order and
// casing style is preserved. An empty vocabulary leaves the query as-is.
func (c *Corrector) Correct(ctx context.Context, query string) (string, error) {
	tokens := strings.Fields(query)
	if len(tokens) == 0 {
		return "", nil
	}

	vocab, err := c.vocab.Tokens(ctx)
	if err != nil {
		return "", err
	}
	if len(vocab) == 0 {
		return strings.Join(tokens, " "), nil
	}

	for i, tok := range tokens {
		lower := strings.ToLower(tok)
		if len([]rune(lower)) < c.minLength {
			continue
		}
		if _, ok := vocab[lower]; ok {
			continue
		}

		best, score := "", 0.0
		for word := range vocab {
			if s := similarityRatio(lower, word); s > score {
				best, score = word, s
			}
		}
		if score >= c.threshold {
			tokens[i] = applyCaseStyle(tok, best)
		}
	}
	return strings.Join(tokens, " "), nil
}

// similarityRatio maps edit distance into [0, 1]: identical strings score 1,
// completely different strings score 0.
func similarityRatio(a, b string) float64 {
	longest := len([]rune(a))
	if n := len([]rune(b)); n > longest {
		longest = n
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

// applyCaseStyle transfers the casing style of the original token onto its
// replacement so corrections do not mangle capitalized queries.
func applyCaseStyle(original, replacement string) string {
	runes := []rune(original)
	if len(runes) == 0 {
		return replacement
	}
	allUpper := true
	for _, r := range runes {
		if unicode.IsLetter(r) && !unicode.IsUpper(r) {
			allUpper = false
			break
		}
	}
	if allUpper && len(runes) > 1 {
		return strings.ToUpper(replacement)
	}
	if unicode.IsUpper(runes[0]) {
		rep := []rune(replacement)
		rep[0] = unicode.ToUpper(rep[0])
		return string(rep)
	}
	return replacement
}
