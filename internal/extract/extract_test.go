package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRegistry_PlainText(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "notes.txt", "Q3 revenue increased by 12 percent.")

	r := NewRegistry()
	require.True(t, r.Supports(path))

	text, err := r.Extract(path)
	require.NoError(t, err)
	assert.Equal(t, "Q3 revenue increased by 12 percent.", text)
}

func TestRegistry_UnsupportedExtension(t *testing.T) {
	r := NewRegistry()
	assert.False(t, r.Supports("image.png"))

	_, err := r.Extract("image.png")
	require.ErrorIs(t, err, ErrUnsupported)
}

func TestRegistry_ExtensionCaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "REPORT.TXT", "upper case extension")

	r := NewRegistry()
	require.True(t, r.Supports(path))

	text, err := r.Extract(path)
	require.NoError(t, err)
	assert.Equal(t, "upper case extension", text)
}

func TestPlainText_MissingFile(t *testing.T) {
	_, err := PlainText{}.Extract(filepath.Join(t.TempDir(), "absent.txt"))
	require.Error(t, err)
}

func TestMarkdown_FlattensStructure(t *testing.T) {
	dir := t.TempDir()
	content := "# Budget Report\n\nQ3 revenue **increased** by 12 percent.\n\n- item one\n- item two\n\n```\ncode line\n```\n"
	path := writeFile(t, dir, "report.md", content)

	text, err := NewMarkdown().Extract(path)
	require.NoError(t, err)

	assert.Contains(t, text, "Budget Report")
	assert.Contains(t, text, "increased")
	assert.Contains(t, text, "item one")
	assert.Contains(t, text, "code line")
	assert.NotContains(t, text, "**")
	assert.NotContains(t, text, "#")
}

func TestMarkdown_ParagraphsStaySeparated(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "two.md", "first paragraph.\n\nsecond paragraph.")

	text, err := NewMarkdown().Extract(path)
	require.NoError(t, err)

	// Block boundaries must not fuse the trailing and leading words.
	assert.NotContains(t, text, "paragraph.second")
	assert.Contains(t, text, "first paragraph.")
	assert.Contains(t, text, "second paragraph.")
}
