// Package chunker splits normalized document text into overlapping
// fixed-size windows suitable for embedding.
package chunker

import (
	"fmt"
	"strings"
)

// Chunker produces overlapping windows over normalized text.
// It is pure and safe for concurrent use.
type Chunker struct {
	windowSize int
	overlap    int
	minLength  int
}

// New creates a Chunker. The overlap must be smaller than the window size,
// otherwise chunking could not advance.
func New(windowSize, overlap, minLength int) (*Chunker, error) {
	if windowSize <= 0 {
		return nil, fmt.Errorf("window size must be positive, got %d", windowSize)
	}
	if overlap < 0 || overlap >= windowSize {
		return nil, fmt.Errorf("overlap %d must be in [0, %d)", overlap, windowSize)
	}
	if minLength < 0 {
		return nil, fmt.Errorf("min length must be non-negative, got %d", minLength)
	}
	return &Chunker{
		windowSize: windowSize,
		overlap:    overlap,
		minLength:  minLength,
	}, nil
}

// Normalize collapses all whitespace runs to single spaces and trims the ends.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Split normalizes text and returns its overlapping windows in document
// order. Each window is at most windowSize characters; successive windows
// start windowSize-overlap characters apart. Fragments shorter than
// minLength are discarded, so a short text may yield zero chunks.
func (c *Chunker) Split(text string) []string {
	runes := []rune(Normalize(text))
	if len(runes) == 0 {
		return nil
	}

	var chunks []string
	if len(runes) <= c.windowSize {
		if len(runes) >= c.minLength {
			chunks = append(chunks, string(runes))
		}
		return chunks
	}

	start := 0
	for start < len(runes) {
		end := min(start+c.windowSize, len(runes))
		chunk := strings.TrimSpace(string(runes[start:end]))
		if len([]rune(chunk)) >= c.minLength {
			chunks = append(chunks, chunk)
		}
		if end >= len(runes) {
			break
		}
		start = end - c.overlap
	}
	return chunks
}

// WindowSize returns the configured window size.
func (c *Chunker) WindowSize() int { return c.windowSize }

// Overlap returns the configured overlap.
func (c *Chunker) Overlap() int { return c.overlap }
