// Package scan lists indexable files under the watched roots and diffs the
// listing against the ledger to classify each path as new, changed,
// unchanged, or deleted.
package scan

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/bull/sage-search/internal/ledger"
)

// FileInfo is the scan-time identity of a file: its resolved path plus the
// metadata change detection compares on.
type FileInfo struct {
	Path  string
	MTime int64 // unix nanoseconds
	Size  int64
}

// Scanner lists files under roots restricted to allow-listed extensions.
type Scanner struct {
	extensions []string
	logger     *slog.Logger
}

// NewScanner creates a scanner for the given extensions (with leading dot).
func NewScanner(extensions []string, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	exts := make([]string, len(extensions))
	for i, ext := range extensions {
		exts[i] = strings.ToLower(ext)
	}
	return &Scanner{extensions: exts, logger: logger}
}

// Scan walks every root recursively and returns the deduplicated, sorted
// file listing. Unreadable entries are skipped with a warning; a missing
// root is skipped entirely.
func (s *Scanner) Scan(roots []string) ([]FileInfo, error) {
	seen := make(map[string]FileInfo)

	for _, root := range roots {
		if _, err := os.Stat(root); err != nil {
			s.logger.Warn("skipping unavailable root", "root", root, "error", err)
			continue
		}
		for _, ext := range s.extensions {
			pattern := filepath.Join(root, "**", "*"+ext)
			matches, err := doublestar.FilepathGlob(pattern)
			if err != nil {
				return nil, err
			}
			for _, match := range matches {
				info, ok := s.statFile(match)
				if !ok {
					continue
				}
				seen[info.Path] = info
			}
		}
	}

	files := make([]FileInfo, 0, len(seen))
	for _, info := range seen {
		files = append(files, info)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// statFile resolves symlinks and reads the metadata change detection needs.
func (s *Scanner) statFile(path string) (FileInfo, bool) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		resolved = path
	}
	abs, err := filepath.Abs(resolved)
	if err != nil {
		abs = resolved
	}
	fi, err := os.Stat(abs)
	if err != nil || fi.IsDir() {
		if err != nil {
			s.logger.Warn("skipping unreadable file", "path", path, "error", err)
		}
		return FileInfo{}, false
	}
	return FileInfo{Path: abs, MTime: fi.ModTime().UnixNano(), Size: fi.Size()}, true
}

// ChangeSet partitions paths into the four disjoint change classes.
// New and Changed carry full FileInfo because the indexing pipeline writes
// their metadata back into the ledger.
type ChangeSet struct {
	New       []FileInfo
	Changed   []FileInfo
	Unchanged []string
	Deleted   []string
}

// Empty reports whether no indexing work is required.
func (c ChangeSet) Empty() bool {
	return len(c.New) == 0 && len(c.Changed) == 0 && len(c.Deleted) == 0
}

// DetectChanges diffs the current listing against the ledger rows. Equality
// is on (mtime, size) only; a content change that preserves both goes
// undetected. That trade favors scan speed and is accepted by design.
func DetectChanges(current []FileInfo, known map[string]ledger.Record) ChangeSet {
	var cs ChangeSet
	present := make(map[string]bool, len(current))

	for _, file := range current {
		present[file.Path] = true
		rec, ok := known[file.Path]
		switch {
		case !ok:
			cs.New = append(cs.New, file)
		case rec.MTime != file.MTime || rec.Size != file.Size:
			cs.Changed = append(cs.Changed, file)
		default:
			cs.Unchanged = append(cs.Unchanged, file.Path)
		}
	}

	for path := range known {
		if !present[path] {
			cs.Deleted = append(cs.Deleted, path)
		}
	}
	sort.Strings(cs.Deleted)
	return cs
}
