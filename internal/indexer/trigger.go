package indexer

import (
	"context"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"
)

// Trigger serializes indexing runs on a single background worker. A request
// arriving while a run is in flight coalesces into exactly one follow-up
// run instead of spawning a concurrent one; interleaved delete/insert
// sequences on the same path would corrupt the per-path invariant.
type Trigger struct {
	pipeline   *Pipeline
	pool       *ants.Pool
	onComplete func()
	logger     *slog.Logger

	mu      sync.Mutex
	running bool
	pending bool
}

// NewTrigger creates a trigger around the pipeline. onComplete fires after
// every successfully completed run (the vocabulary cache hooks in here);
// it may be nil.
func NewTrigger(pipeline *Pipeline, onComplete func(), logger *slog.Logger) (*Trigger, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pool, err := ants.NewPool(1)
	if err != nil {
		return nil, err
	}
	return &Trigger{
		pipeline:   pipeline,
		pool:       pool,
		onComplete: onComplete,
		logger:     logger,
	}, nil
}

// Request asks for an indexing run and returns immediately. The first
// return is true when a new run was started; false means a run is already
// active and this request was folded into a follow-up run.
func (t *Trigger) Request(ctx context.Context) (bool, error) {
	t.mu.Lock()
	if t.running {
		t.pending = true
		t.mu.Unlock()
		return false, nil
	}
	t.running = true
	t.mu.Unlock()

	err := t.pool.Submit(func() { t.work(ctx) })
	if err != nil {
		t.mu.Lock()
		t.running = false
		t.mu.Unlock()
		return false, err
	}
	return true, nil
}

// Running reports whether a run is currently active.
func (t *Trigger) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Close releases the worker pool. Pending requests are dropped.
func (t *Trigger) Close() {
	t.pool.Release()
}

// work executes runs until no trigger arrived during the last one.
// Failures are logged and never propagate to the query path.
func (t *Trigger) work(ctx context.Context) {
	for {
		result, err := t.pipeline.Run(ctx)
		if err != nil {
			t.logger.Error("indexing run failed", "error", err)
		} else {
			t.logger.Info("indexing run finished",
				"chunks", result.IndexedChunks,
				"duration", result.Duration,
			)
			if t.onComplete != nil {
				t.onComplete()
			}
		}

		t.mu.Lock()
		if t.pending {
			t.pending = false
			t.mu.Unlock()
			continue
		}
		t.running = false
		t.mu.Unlock()
		return
	}
}
