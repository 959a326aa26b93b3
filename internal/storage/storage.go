// Package storage provides the vector similarity store: persisted
// (text, vector, metadata) records with nearest-neighbor query and bulk
// delete by source path.
package storage

import "context"

// Store is the vector similarity store contract shared by the Qdrant
// implementation and the in-memory implementation.
type Store interface {
	// InsertMany persists records in bulk.
	InsertMany(ctx context.Context, records []Record) error
	// DeleteByPath removes every record whose source is path.
	DeleteByPath(ctx context.Context, path string) error
	// QueryNearest returns up to limit hits ordered ascending by distance.
	QueryNearest(ctx context.Context, vector []float32, limit int) ([]Hit, error)
	// ScrollChunks visits every stored record's text metadata. Used by the
	// vocabulary builder; vectors are not loaded.
	ScrollChunks(ctx context.Context, visit func(path, file, chunk string) error) error
	// Count returns the number of stored records.
	Count(ctx context.Context) (uint64, error)
	// Health reports whether the store is reachable.
	Health(ctx context.Context) error
	// Close releases the underlying connection.
	Close() error
}
