// Package indexer keeps the vector store and ledger consistent with the
// files under the watched roots, reindexing only what changed.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/bull/sage-search/internal/chunker"
	"github.com/bull/sage-search/internal/embedding"
	"github.com/bull/sage-search/internal/extract"
	"github.com/bull/sage-search/internal/ledger"
	"github.com/bull/sage-search/internal/scan"
	"github.com/bull/sage-search/internal/storage"
)

// RunResult contains statistics about one indexing run.
type RunResult struct {
	ScannedFiles   int
	NewFiles       int
	ChangedFiles   int
	DeletedFiles   int
	IndexedChunks  int
	FilteredChunks int
	SkippedFiles   []SkippedFile
	Duration       time.Duration
}

// SkippedFile records a file left out of the index and why.
type SkippedFile struct {
	Path   string
	Reason string
}

// Pipeline orchestrates scan -> diff -> extract -> chunk -> embed -> store
// for each run. Per-file extraction failures skip the file; embedding or
// store failures abort the run with the ledger untouched for that path.
type Pipeline struct {
	scanner         *scan.Scanner
	extractor       *extract.Registry
	chunker         *chunker.Chunker
	embedder        embedding.Embedder
	store           storage.Store
	ledger          *ledger.Ledger
	filterSensitive bool
	logger          *slog.Logger
}

// NewPipeline creates an indexing pipeline from its collaborators.
func NewPipeline(
	scanner *scan.Scanner,
	extractor *extract.Registry,
	ch *chunker.Chunker,
	embedder embedding.Embedder,
	store storage.Store,
	led *ledger.Ledger,
	filterSensitive bool,
	logger *slog.Logger,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		scanner:         scanner,
		extractor:       extractor,
		chunker:         ch,
		embedder:        embedder,
		store:           store,
		ledger:          led,
		filterSensitive: filterSensitive,
		logger:          logger,
	}
}

// Run performs one incremental indexing pass over all watched roots.
func (p *Pipeline) Run(ctx context.Context) (*RunResult, error) {
	start := time.Now()
	result := &RunResult{}

	roots, err := p.ledger.Roots()
	if err != nil {
		return nil, fmt.Errorf("load roots: %w", err)
	}
	if len(roots) == 0 {
		p.logger.Info("no roots configured, nothing to index")
		result.Duration = time.Since(start)
		return result, nil
	}

	files, err := p.scanner.Scan(roots)
	if err != nil {
		return nil, fmt.Errorf("scan roots: %w", err)
	}
	result.ScannedFiles = len(files)

	known, err := p.ledger.All()
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}

	changes := scan.DetectChanges(files, known)
	p.logger.Info("change detection complete",
		"new", len(changes.New),
		"changed", len(changes.Changed),
		"unchanged", len(changes.Unchanged),
		"deleted", len(changes.Deleted),
	)

	for _, path := range changes.Deleted {
		if err := p.store.DeleteByPath(ctx, path); err != nil {
			return nil, fmt.Errorf("delete vectors for %s: %w", path, err)
		}
		if err := p.ledger.Delete(path); err != nil {
			return nil, fmt.Errorf("delete ledger row for %s: %w", path, err)
		}
		result.DeletedFiles++
		p.logger.Info("removed deleted file from index", "path", path)
	}

	index := func(files []scan.FileInfo, counter *int) error {
		for _, file := range files {
			chunks, filtered, skipReason, err := p.processFile(ctx, file)
			if err != nil {
				return err
			}
			result.FilteredChunks += filtered
			if skipReason != "" {
				p.logger.Warn("skipping file", "path", file.Path, "reason", skipReason)
				result.SkippedFiles = append(result.SkippedFiles, SkippedFile{Path: file.Path, Reason: skipReason})
				continue
			}
			*counter++
			result.IndexedChunks += chunks
		}
		return nil
	}

	if err := index(changes.New, &result.NewFiles); err != nil {
		return nil, err
	}
	if err := index(changes.Changed, &result.ChangedFiles); err != nil {
		return nil, err
	}

	result.Duration = time.Since(start)
	p.logger.Info("indexing run complete",
		"scanned", result.ScannedFiles,
		"new", result.NewFiles,
		"changed", result.ChangedFiles,
		"deleted", result.DeletedFiles,
		"chunks", result.IndexedChunks,
		"filtered", result.FilteredChunks,
		"skipped", len(result.SkippedFiles),
		"duration", result.Duration,
	)
	return result, nil
}

// processFile indexes one new or changed file. A non-empty skipReason means
// the file was left out without failing the run; a non-nil error aborts the
// whole run (external service failure), leaving the ledger row untouched so
// the next scan reconsiders the file.
func (p *Pipeline) processFile(ctx context.Context, file scan.FileInfo) (chunks, filtered int, skipReason string, err error) {
	text, extractErr := p.extractor.Extract(file.Path)
	if extractErr != nil {
		return 0, 0, fmt.Sprintf("extraction failed: %v", extractErr), nil
	}

	pieces := p.chunker.Split(text)
	if len(pieces) == 0 {
		return 0, 0, "no usable text", nil
	}

	if p.filterSensitive {
		safe := pieces[:0]
		for _, piece := range pieces {
			if isSensitive(piece) {
				filtered++
				continue
			}
			safe = append(safe, piece)
		}
		pieces = safe
		if len(pieces) == 0 {
			return 0, filtered, "all chunks filtered as sensitive", nil
		}
	}

	vectors, err := p.embedder.EmbedBatch(ctx, pieces)
	if err != nil {
		return 0, filtered, "", fmt.Errorf("embed %s: %w", file.Path, err)
	}

	// Delete-before-insert: no duplicate chunks can survive a reindex, at
	// the cost of a brief window where the path has no searchable chunks.
	if err := p.store.DeleteByPath(ctx, file.Path); err != nil {
		return 0, filtered, "", fmt.Errorf("clear stale vectors for %s: %w", file.Path, err)
	}

	records := make([]storage.Record, len(pieces))
	for i, piece := range pieces {
		records[i] = storage.Record{
			Path:       file.Path,
			File:       filepath.Base(file.Path),
			Chunk:      piece,
			ChunkIndex: i,
			Vector:     vectors[i],
		}
	}
	if err := p.store.InsertMany(ctx, records); err != nil {
		return 0, filtered, "", fmt.Errorf("insert vectors for %s: %w", file.Path, err)
	}

	err = p.ledger.Upsert(ledger.Record{
		Path:      file.Path,
		MTime:     file.MTime,
		Size:      file.Size,
		IndexedAt: time.Now().UTC(),
	})
	if err != nil {
		return 0, filtered, "", fmt.Errorf("update ledger for %s: %w", file.Path, err)
	}

	p.logger.Debug("indexed file", "path", file.Path, "chunks", len(pieces))
	return len(pieces), filtered, "", nil
}
