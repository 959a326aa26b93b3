package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/bull/sage-search/internal/retry"
)

// Qdrant implements Store on a Qdrant collection over gRPC.
type Qdrant struct {
	client     *qdrant.Client
	collection string
	dimension  int
	policy     retry.Policy
}

var _ Store = (*Qdrant)(nil)

// NewQdrant connects to Qdrant and verifies health with retry, failing fast
// if the server stays unreachable past the policy's elapsed-time bound.
func NewQdrant(host string, port int, collection string, dimension int, policy retry.Policy) (*Qdrant, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}

	if collection == "" {
		collection = DefaultCollection
	}

	s := &Qdrant{
		client:     client,
		collection: collection,
		dimension:  dimension,
		policy:     policy,
	}

	ctx := context.Background()
	if err := policy.Do(ctx, func() error { return s.Health(ctx) }); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	return s, nil
}

// Health performs a single health check.
func (s *Qdrant) Health(ctx context.Context) error {
	result, err := s.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}
	return nil
}

// EnsureCollection creates the chunk collection and its path payload index
// if they don't exist. Idempotent.
func (s *Qdrant) EnsureCollection(ctx context.Context) error {
	collections, err := s.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	for _, name := range collections {
		if name == s.collection {
			return nil
		}
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(s.dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}

	// Delete-by-path filters on this field for every reindexed file.
	_, err = s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: s.collection,
		FieldName:      "path",
		FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
	})
	if err != nil {
		return fmt.Errorf("create path index: %w", err)
	}

	return nil
}

// InsertMany stores records in batches of 100 with retry per batch.
func (s *Qdrant) InsertMany(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	for i, rec := range records {
		if len(rec.Vector) != s.dimension {
			return fmt.Errorf("%w: record %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(rec.Vector), s.dimension)
		}
	}

	const batchSize = 100
	for i := 0; i < len(records); i += batchSize {
		end := min(i+batchSize, len(records))
		batch := records[i:end]

		points := make([]*qdrant.PointStruct, len(batch))
		for j, rec := range batch {
			points[j] = &qdrant.PointStruct{
				Id:      qdrant.NewIDUUID(uuid.New().String()),
				Vectors: qdrant.NewVectors(rec.Vector...),
				Payload: qdrant.NewValueMap(map[string]any{
					"path":        rec.Path,
					"file":        rec.File,
					"chunk":       rec.Chunk,
					"chunk_index": rec.ChunkIndex,
				}),
			}
		}

		err := s.policy.Do(ctx, func() error {
			_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
				CollectionName: s.collection,
				Points:         points,
			})
			return err
		})
		if err != nil {
			return fmt.Errorf("insert batch %d-%d: %w", i, end, err)
		}
	}

	return nil
}

// DeleteByPath removes every record for the given source path.
func (s *Qdrant) DeleteByPath(ctx context.Context, path string) error {
	err := s.policy.Do(ctx, func() error {
		_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
			CollectionName: s.collection,
			Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
				Must: []*qdrant.Condition{
					qdrant.NewMatch("path", path),
				},
			}),
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("delete by path %s: %w", path, err)
	}
	return nil
}

// QueryNearest returns up to limit hits ordered ascending by distance.
// Qdrant reports cosine similarity; distance is 1 - similarity.
func (s *Qdrant) QueryNearest(ctx context.Context, vector []float32, limit int) ([]Hit, error) {
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(vector), s.dimension)
	}

	var results []*qdrant.ScoredPoint
	err := s.policy.Do(ctx, func() error {
		var err error
		results, err = s.client.Query(ctx, &qdrant.QueryPoints{
			CollectionName: s.collection,
			Query:          qdrant.NewQuery(vector...),
			Limit:          qdrant.PtrOf(uint64(limit)),
			WithPayload:    qdrant.NewWithPayload(true),
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("query nearest: %w", err)
	}

	hits := make([]Hit, 0, len(results))
	for _, result := range results {
		payload := result.Payload
		hits = append(hits, Hit{
			Path:       payload["path"].GetStringValue(),
			File:       payload["file"].GetStringValue(),
			Chunk:      payload["chunk"].GetStringValue(),
			ChunkIndex: int(payload["chunk_index"].GetIntegerValue()),
			Distance:   1 - float64(result.Score),
		})
	}
	return hits, nil
}

// ScrollChunks pages through all records, passing each record's text
// metadata to visit.
func (s *Qdrant) ScrollChunks(ctx context.Context, visit func(path, file, chunk string) error) error {
	var offset *qdrant.PointId
	batchSize := uint32(100)

	for {
		results, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: s.collection,
			Limit:          qdrant.PtrOf(batchSize),
			Offset:         offset,
			WithPayload:    qdrant.NewWithPayloadInclude("path", "file", "chunk"),
		})
		if err != nil {
			return fmt.Errorf("scroll chunks: %w", err)
		}

		// The scroll offset is inclusive, so after the first page the
		// leading point was already visited.
		page := results
		if offset != nil && len(page) > 0 {
			page = page[1:]
		}
		for _, result := range page {
			payload := result.Payload
			err := visit(
				payload["path"].GetStringValue(),
				payload["file"].GetStringValue(),
				payload["chunk"].GetStringValue(),
			)
			if err != nil {
				return err
			}
		}

		if uint32(len(results)) < batchSize {
			return nil
		}
		offset = results[len(results)-1].Id
	}
}

// Count returns the number of stored records.
func (s *Qdrant) Count(ctx context.Context) (uint64, error) {
	collection, err := s.client.GetCollectionInfo(ctx, s.collection)
	if err != nil {
		return 0, fmt.Errorf("get collection: %w", err)
	}
	return collection.GetPointsCount(), nil
}

// Close closes the client connection.
func (s *Qdrant) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
