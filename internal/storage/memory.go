package storage

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// Memory is a brute-force in-memory Store. It backs hermetic tests and
// qdrant-less development runs; cosine distance matches the Qdrant
// configuration so scoring behaves identically.
type Memory struct {
	mu        sync.RWMutex
	dimension int
	records   []Record
}

var _ Store = (*Memory)(nil)

// NewMemory creates an in-memory store for vectors of the given dimension.
func NewMemory(dimension int) *Memory {
	return &Memory{dimension: dimension}
}

// InsertMany appends records after validating dimensions.
func (s *Memory) InsertMany(ctx context.Context, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, rec := range records {
		if len(rec.Vector) != s.dimension {
			return fmt.Errorf("%w: record %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(rec.Vector), s.dimension)
		}
	}
	s.records = append(s.records, records...)
	return nil
}

// DeleteByPath removes every record for the given source path.
func (s *Memory) DeleteByPath(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.records[:0]
	for _, rec := range s.records {
		if rec.Path != path {
			kept = append(kept, rec)
		}
	}
	s.records = kept
	return nil
}

// QueryNearest scans all records and returns the limit closest by cosine
// distance, ascending.
func (s *Memory) QueryNearest(ctx context.Context, vector []float32, limit int) ([]Hit, error) {
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(vector), s.dimension)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	hits := make([]Hit, 0, len(s.records))
	for _, rec := range s.records {
		hits = append(hits, Hit{
			Path:       rec.Path,
			File:       rec.File,
			Chunk:      rec.Chunk,
			ChunkIndex: rec.ChunkIndex,
			Distance:   cosineDistance(vector, rec.Vector),
		})
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// ScrollChunks visits every record's text metadata.
func (s *Memory) ScrollChunks(ctx context.Context, visit func(path, file, chunk string) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.records {
		if err := visit(rec.Path, rec.File, rec.Chunk); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of stored records.
func (s *Memory) Count(ctx context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.records)), nil
}

// Health always succeeds for the in-memory store.
func (s *Memory) Health(ctx context.Context) error { return nil }

// Close is a no-op.
func (s *Memory) Close() error { return nil }

// cosineDistance returns 1 - cosine similarity, clamped to [0, 2].
func cosineDistance(a, b []float32) float64 {
	var dot, normA, normB float64
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
