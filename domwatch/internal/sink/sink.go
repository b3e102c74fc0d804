// Package sink defines output backends for render reports.
package sink

import (
	"context"

	"github.com/hazyhaar/timewatch/domwatch/mutation"
)

// Sink is the output interface. Implementations deliver render batches and
// snapshots to different backends (stdout, webhook, SQLite, in-process
// callback).
type Sink interface {
	Send(ctx context.Context, batch mutation.Batch) error
	SendSnapshot(ctx context.Context, snap mutation.Snapshot) error
	Close() error
}
