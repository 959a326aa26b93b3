// Package retry provides the retry policy shared by all external-service
// calls (embedding, vector store). Parameterized once so every caller backs
// off the same way.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy describes a bounded exponential backoff schedule.
type Policy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
}

// DefaultPolicy matches the schedule used for all service calls:
// initial 500ms, capped at 10s, giving up after 30s elapsed.
func DefaultPolicy() Policy {
	return Policy{
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
		MaxElapsedTime:  30 * time.Second,
	}
}

// Do runs op, retrying transient failures per the policy. Context
// cancellation stops the retry loop. Errors wrapped with Permanent are
// surfaced immediately.
func (p Policy) Do(ctx context.Context, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.MaxInterval = p.MaxInterval
	b.MaxElapsedTime = p.MaxElapsedTime

	return backoff.Retry(op, backoff.WithContext(b, ctx))
}

// Permanent marks err as non-retryable so Do surfaces it without backoff.
func Permanent(err error) error {
	return backoff.Permanent(err)
}
