package scan

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/sage-search/internal/ledger"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	abs, err := filepath.EvalSymlinks(path)
	require.NoError(t, err)
	return abs
}

func TestScan_FindsAllowedExtensionsRecursively(t *testing.T) {
	root := t.TempDir()
	txt := writeFile(t, root, "a.txt", "hello")
	nested := writeFile(t, root, filepath.Join("sub", "deep", "b.md"), "world")
	writeFile(t, root, "c.png", "binary")

	s := NewScanner([]string{".txt", ".md"}, nil)
	files, err := s.Scan([]string{root})
	require.NoError(t, err)

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	assert.ElementsMatch(t, []string{txt, nested}, paths)
}

func TestScan_MissingRootSkipped(t *testing.T) {
	root := t.TempDir()
	txt := writeFile(t, root, "a.txt", "hello")

	s := NewScanner([]string{".txt"}, nil)
	files, err := s.Scan([]string{root, filepath.Join(root, "does-not-exist")})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, txt, files[0].Path)
}

func TestScan_OverlappingRootsDeduplicate(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, filepath.Join("inner", "a.txt"), "hello")

	resolved, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)

	s := NewScanner([]string{".txt"}, nil)
	files, err := s.Scan([]string{root, filepath.Join(resolved, "inner")})
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestScan_CapturesMetadata(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "a.txt", "hello")

	s := NewScanner([]string{".txt"}, nil)
	files, err := s.Scan([]string{root})
	require.NoError(t, err)
	require.Len(t, files, 1)

	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, fi.Size(), files[0].Size)
	assert.Equal(t, fi.ModTime().UnixNano(), files[0].MTime)
}

func TestDetectChanges_Classification(t *testing.T) {
	now := time.Now().UnixNano()
	current := []FileInfo{
		{Path: "/docs/new.txt", MTime: now, Size: 10},
		{Path: "/docs/touched.txt", MTime: now, Size: 20},
		{Path: "/docs/grown.txt", MTime: now, Size: 31},
		{Path: "/docs/same.txt", MTime: 100, Size: 40},
	}
	known := map[string]ledger.Record{
		"/docs/touched.txt": {Path: "/docs/touched.txt", MTime: now - 1, Size: 20},
		"/docs/grown.txt":   {Path: "/docs/grown.txt", MTime: now, Size: 30},
		"/docs/same.txt":    {Path: "/docs/same.txt", MTime: 100, Size: 40},
		"/docs/gone.txt":    {Path: "/docs/gone.txt", MTime: 100, Size: 50},
	}

	cs := DetectChanges(current, known)

	require.Len(t, cs.New, 1)
	assert.Equal(t, "/docs/new.txt", cs.New[0].Path)

	changed := make([]string, len(cs.Changed))
	for i, f := range cs.Changed {
		changed[i] = f.Path
	}
	assert.ElementsMatch(t, []string{"/docs/touched.txt", "/docs/grown.txt"}, changed)

	assert.Equal(t, []string{"/docs/same.txt"}, cs.Unchanged)
	assert.Equal(t, []string{"/docs/gone.txt"}, cs.Deleted)
	assert.False(t, cs.Empty())
}

// Re-running detection on an unmodified file set yields no work.
func TestDetectChanges_StableBetweenRuns(t *testing.T) {
	current := []FileInfo{
		{Path: "/docs/a.txt", MTime: 1, Size: 10},
		{Path: "/docs/b.txt", MTime: 2, Size: 20},
	}
	known := map[string]ledger.Record{
		"/docs/a.txt": {Path: "/docs/a.txt", MTime: 1, Size: 10},
		"/docs/b.txt": {Path: "/docs/b.txt", MTime: 2, Size: 20},
	}

	cs := DetectChanges(current, known)
	assert.Empty(t, cs.New)
	assert.Empty(t, cs.Changed)
	assert.Empty(t, cs.Deleted)
	assert.Len(t, cs.Unchanged, 2)
	assert.True(t, cs.Empty())
}

func TestDetectChanges_EmptyInputs(t *testing.T) {
	cs := DetectChanges(nil, nil)
	assert.True(t, cs.Empty())
	assert.Empty(t, cs.Unchanged)
}
