package ledger

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open("", true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestRecordRoundTrip(t *testing.T) {
	l := openTestLedger(t)

	rec := Record{
		Path:      "/docs/report.txt",
		MTime:     time.Now().UnixNano(),
		Size:      1024,
		IndexedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, l.Upsert(rec))

	got, err := l.Get(rec.Path)
	require.NoError(t, err)
	assert.Equal(t, rec.Path, got.Path)
	assert.Equal(t, rec.MTime, got.MTime)
	assert.Equal(t, rec.Size, got.Size)
	assert.WithinDuration(t, rec.IndexedAt, got.IndexedAt, time.Second)
}

func TestGet_MissingPath(t *testing.T) {
	l := openTestLedger(t)

	_, err := l.Get("/nowhere.txt")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpsert_ReplacesExistingRow(t *testing.T) {
	l := openTestLedger(t)

	require.NoError(t, l.Upsert(Record{Path: "/a.txt", MTime: 1, Size: 10}))
	require.NoError(t, l.Upsert(Record{Path: "/a.txt", MTime: 2, Size: 20}))

	all, err := l.All()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, int64(2), all["/a.txt"].MTime)
	assert.Equal(t, int64(20), all["/a.txt"].Size)
}

func TestUpsert_EmptyPathRejected(t *testing.T) {
	l := openTestLedger(t)
	require.ErrorIs(t, l.Upsert(Record{}), ErrEmptyPath)
}

func TestDelete_RemovesRow(t *testing.T) {
	l := openTestLedger(t)

	require.NoError(t, l.Upsert(Record{Path: "/a.txt", MTime: 1, Size: 1}))
	require.NoError(t, l.Delete("/a.txt"))

	_, err := l.Get("/a.txt")
	require.ErrorIs(t, err, ErrNotFound)

	// Deleting again is still fine.
	require.NoError(t, l.Delete("/a.txt"))
}

func TestRoots_DeduplicatedAndNormalized(t *testing.T) {
	l := openTestLedger(t)

	base := t.TempDir()

	first, err := l.AddRoot(base)
	require.NoError(t, err)

	// Trailing separator and redundant components normalize to the same root.
	second, err := l.AddRoot(base + string(filepath.Separator))
	require.NoError(t, err)
	third, err := l.AddRoot(filepath.Join(base, "sub", ".."))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, first, third)

	roots, err := l.Roots()
	require.NoError(t, err)
	assert.Equal(t, []string{first}, roots)
}

func TestRemoveRoot(t *testing.T) {
	l := openTestLedger(t)

	base := t.TempDir()
	_, err := l.AddRoot(base)
	require.NoError(t, err)

	require.NoError(t, l.RemoveRoot(base))

	roots, err := l.Roots()
	require.NoError(t, err)
	assert.Empty(t, roots)
}

func TestAddRoot_EmptyRejected(t *testing.T) {
	l := openTestLedger(t)
	_, err := l.AddRoot("  ")
	require.ErrorIs(t, err, ErrEmptyPath)
}
