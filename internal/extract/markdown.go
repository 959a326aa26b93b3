package extract

import (
	"bytes"
	"fmt"
	"os"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Markdown extracts plain text from markdown files by walking the parsed
// AST and collecting text segments, dropping formatting and link targets.
type Markdown struct {
	parser goldmark.Markdown
}

// NewMarkdown creates a markdown extractor backed by a goldmark parser.
func NewMarkdown() *Markdown {
	return &Markdown{parser: goldmark.New()}
}

// Extract reads the file and returns its text content with markdown
// structure flattened. Block boundaries become newlines so downstream
// sentence splitting still sees separation.
func (m *Markdown) Extract(path string) (string, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	doc := m.parser.Parser().Parse(text.NewReader(source))

	var buf bytes.Buffer
	err = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			// Separate block-level nodes so adjacent paragraphs don't fuse.
			if n.Type() == ast.TypeBlock {
				buf.WriteByte('\n')
			}
			return ast.WalkContinue, nil
		}

		switch v := n.(type) {
		case *ast.Text:
			buf.Write(v.Segment.Value(source))
			if v.SoftLineBreak() || v.HardLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.String:
			buf.Write(v.Value)
		case *ast.CodeBlock:
			writeLines(&buf, source, v)
		case *ast.FencedCodeBlock:
			writeLines(&buf, source, v)
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", fmt.Errorf("walk markdown %s: %w", path, err)
	}

	return buf.String(), nil
}

func writeLines(buf *bytes.Buffer, source []byte, n ast.Node) {
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
}
