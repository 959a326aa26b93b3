package search

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/bull/sage-search/internal/embedding"
)

const (
	// shortChunkLength is the chunk size below which the whole chunk is
	// returned verbatim instead of being trimmed to sentences.
	shortChunkLength = 240

	// minSentenceLength filters out fragments too short to stand alone.
	minSentenceLength = 20

	// snippetRelevanceFloor is the minimum sentence score for inclusion.
	snippetRelevanceFloor = 0.35

	// Sentence scoring blend, separate from the hit-level blend: sentence
	// embeddings are noisier, so the lexical signal carries more weight.
	sentenceSemanticWeight = 0.6
	sentenceLexicalWeight  = 0.4

	ellipsis = "…"
)

// Snippet is the extract shown for one search result.
type Snippet struct {
	Text         string
	MatchedTerms []string
}

// SnippetExtractor picks the sentences of a chunk most relevant to the
// query, preserving their original order and marking elided gaps.
type SnippetExtractor struct {
	embedder       embedding.Embedder
	maxSentences   int
	fuzzyThreshold float64
}

// NewSnippetExtractor creates an extractor returning at most maxSentences
// sentences per snippet.
func NewSnippetExtractor(embedder embedding.Embedder, maxSentences int, fuzzyThreshold float64) *SnippetExtractor {
	return &SnippetExtractor{
		embedder:       embedder,
		maxSentences:   maxSentences,
		fuzzyThreshold: fuzzyThreshold,
	}
}

// Extract builds the snippet for one chunk. queryVector is the embedding of
// the corrected query, reused across all results of a search.
func (e *SnippetExtractor) Extract(ctx context.Context, queryTokens []string, queryVector []float32, chunk string) (Snippet, error) {
	sentences := splitSentences(chunk)

	// Short chunks read better whole than trimmed.
	if len(sentences) < 2 || len([]rune(chunk)) <= shortChunkLength {
		return Snippet{
			Text:         strings.TrimSpace(chunk),
			MatchedTerms: matchedTerms(queryTokens, chunk, e.fuzzyThreshold),
		}, nil
	}

	texts := make([]string, len(sentences))
	for i, s := range sentences {
		texts[i] = s.text
	}
	vectors, err := e.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return Snippet{}, fmt.Errorf("embed sentences: %w", err)
	}

	scored := make([]scoredSentence, len(sentences))
	for i, s := range sentences {
		semantic := clamp01(cosineSimilarity(queryVector, vectors[i]))
		lexical := tokenFraction(queryTokens, s.text, e.fuzzyThreshold)
		scored[i] = scoredSentence{
			sentence: s,
			score:    sentenceSemanticWeight*semantic + sentenceLexicalWeight*lexical,
		}
	}

	picked := pickSentences(scored, e.maxSentences)
	text := assembleSnippet(picked, sentences[len(sentences)-1].index)
	return Snippet{
		Text:         text,
		MatchedTerms: matchedTerms(queryTokens, text, e.fuzzyThreshold),
	}, nil
}

type sentence struct {
	index int
	text  string
}

type scoredSentence struct {
	sentence
	score float64
}

// pickSentences selects up to max sentences above the relevance floor,
// falling back to the single best sentence when none clear it. The
// selection is returned in original chunk order.
func pickSentences(scored []scoredSentence, max int) []scoredSentence {
	byScore := make([]scoredSentence, len(scored))
	copy(byScore, scored)
	sort.SliceStable(byScore, func(i, j int) bool {
		return byScore[i].score > byScore[j].score
	})

	var picked []scoredSentence
	for _, s := range byScore {
		if len(picked) == max {
			break
		}
		if s.score < snippetRelevanceFloor {
			break
		}
		picked = append(picked, s)
	}
	if len(picked) == 0 {
		picked = byScore[:1]
	}

	sort.Slice(picked, func(i, j int) bool {
		return picked[i].index < picked[j].index
	})
	return picked
}

// assembleSnippet joins the picked sentences, inserting ellipsis markers
// between non-adjacent sentences and at truncated chunk boundaries.
func assembleSnippet(picked []scoredSentence, lastIndex int) string {
	var b strings.Builder
	if picked[0].index > 0 {
		b.WriteString(ellipsis)
		b.WriteString(" ")
	}
	for i, s := range picked {
		if i > 0 {
			if s.index > picked[i-1].index+1 {
				b.WriteString(" ")
				b.WriteString(ellipsis)
			}
			b.WriteString(" ")
		}
		b.WriteString(s.text)
	}
	if picked[len(picked)-1].index < lastIndex {
		b.WriteString(" ")
		b.WriteString(ellipsis)
	}
	return b.String()
}

// splitSentences segments normalized text on terminal punctuation followed
// by a capitalized word or end of text, dropping fragments shorter than
// minSentenceLength. The retained index is the sentence's position in the
// full split, so adjacency survives the length filter.
func splitSentences(text string) []sentence {
	runes := []rune(text)
	var out []sentence
	raw := 0
	start := 0

	emit := func(end int) {
		s := strings.TrimSpace(string(runes[start:end]))
		if len([]rune(s)) >= minSentenceLength {
			out = append(out, sentence{index: raw, text: s})
		}
		raw++
	}

	i := 0
	for i < len(runes) {
		r := runes[i]
		if r != '.' && r != '!' && r != '?' {
			i++
			continue
		}
		j := i + 1
		for j < len(runes) && (runes[j] == '.' || runes[j] == '!' || runes[j] == '?') {
			j++
		}
		k := j
		for k < len(runes) && unicode.IsSpace(runes[k]) {
			k++
		}
		if k >= len(runes) || (k > j && unicode.IsUpper(runes[k])) {
			emit(j)
			start = k
			i = k
			continue
		}
		i = j
	}
	if start < len(runes) {
		emit(len(runes))
	}
	return out
}

// tokenFraction is the share of query tokens present in the text, with
// fuzzy tolerance.
func tokenFraction(queryTokens []string, text string, threshold float64) float64 {
	if len(queryTokens) == 0 {
		return 0
	}
	set := tokenSet(text)
	found := 0
	for _, tok := range queryTokens {
		if containsToken(set, tok, threshold) {
			found++
		}
	}
	return float64(found) / float64(len(queryTokens))
}

// matchedTerms reports which query tokens appear in the snippet text.
func matchedTerms(queryTokens []string, text string, threshold float64) []string {
	set := tokenSet(text)
	var out []string
	for _, tok := range queryTokens {
		if containsToken(set, tok, threshold) {
			out = append(out, tok)
		}
	}
	return out
}

func containsToken(set map[string]struct{}, token string, threshold float64) bool {
	if _, ok := set[token]; ok {
		return true
	}
	for word := range set {
		if similarityRatio(token, word) >= threshold {
			return true
		}
	}
	return false
}

// cosineSimilarity of two vectors; 0 when either has zero magnitude.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
