package sink

import (
	"context"

	"github.com/hazyhaar/timewatch/domwatch/mutation"
)

// BatchFunc is called for each batch (in-process, zero serialisation).
type BatchFunc func(ctx context.Context, batch mutation.Batch) error

// SnapshotFunc is called for each snapshot.
type SnapshotFunc func(ctx context.Context, snap mutation.Snapshot) error

// Callback delivers batches via Go function calls, for embedders that run
// the renderer in the same binary as the consumer.
type Callback struct {
	onBatch    BatchFunc
	onSnapshot SnapshotFunc
}

// NewCallback creates a Callback sink. Either handler may be nil.
func NewCallback(onBatch BatchFunc, onSnapshot SnapshotFunc) *Callback {
	return &Callback{onBatch: onBatch, onSnapshot: onSnapshot}
}

func (c *Callback) Send(ctx context.Context, batch mutation.Batch) error {
	if c.onBatch == nil {
		return nil
	}
	return c.onBatch(ctx, batch)
}

func (c *Callback) SendSnapshot(ctx context.Context, snap mutation.Snapshot) error {
	if c.onSnapshot == nil {
		return nil
	}
	return c.onSnapshot(ctx, snap)
}

func (c *Callback) Close() error { return nil }
