// Package extract turns files into plain text for indexing. Extractors are
// registered per extension; formats without a registered extractor are
// reported as unsupported and skipped by the indexing pipeline.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Extractor reads a file and returns its textual content.
type Extractor interface {
	Extract(path string) (string, error)
}

// Registry dispatches extraction by file extension (lowercased, with dot).
type Registry struct {
	byExt map[string]Extractor
}

// NewRegistry creates a registry with the built-in extractors: plain text
// for .txt and markdown for .md. PDF, word, and slide formats are expected
// to be registered by the caller when a converter is available.
func NewRegistry() *Registry {
	r := &Registry{byExt: make(map[string]Extractor)}
	r.Register(".txt", PlainText{})
	r.Register(".md", NewMarkdown())
	return r
}

// Register installs an extractor for the given extension.
func (r *Registry) Register(ext string, e Extractor) {
	r.byExt[strings.ToLower(ext)] = e
}

// Supports reports whether an extractor is registered for the path.
func (r *Registry) Supports(path string) bool {
	_, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Extract dispatches to the extractor registered for the path's extension.
func (r *Registry) Extract(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	e, ok := r.byExt[ext]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupported, ext)
	}
	return e.Extract(path)
}

// PlainText reads a file verbatim as UTF-8 text.
type PlainText struct{}

// Extract returns the raw file content.
func (PlainText) Extract(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}
