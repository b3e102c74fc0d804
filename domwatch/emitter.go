package domwatch

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/hazyhaar/timewatch/domwatch/mutation"
	"github.com/hazyhaar/timewatch/idgen"
	"github.com/hazyhaar/timewatch/stamp"
)

// Emitter turns the scan reports of one page into numbered batches and
// sends them to a sink. Its Report method is a ReportFunc.
type Emitter struct {
	ctx     context.Context
	pageURL string
	pageID  string
	sink    Sink
	clock   stamp.Clock
	logger  *slog.Logger

	seq atomic.Uint64

	mu          sync.Mutex
	snapshotRef string
}

// NewEmitter returns an Emitter for one page. ctx bounds sink calls.
func NewEmitter(ctx context.Context, pageURL, pageID string, s Sink, clock stamp.Clock, logger *slog.Logger) *Emitter {
	if clock == nil {
		clock = stamp.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Emitter{ctx: ctx, pageURL: pageURL, pageID: pageID, sink: s, clock: clock, logger: logger}
}

// Report sends rep as a batch. Reports with nothing rendered, malformed or
// failed are dropped without consuming a sequence number.
func (e *Emitter) Report(trigger mutation.Trigger, rep stamp.Report) {
	if len(rep.Rendered) == 0 && rep.Malformed == 0 && rep.Failed == 0 {
		return
	}
	batch := e.Batch(trigger, rep)
	if err := e.sink.Send(e.ctx, batch); err != nil {
		e.logger.Error("domwatch: send batch failed", "page", e.pageID, "seq", batch.Seq, "error", err)
		return
	}
	e.logger.Debug("domwatch: batch emitted", "page", e.pageID, "seq", batch.Seq,
		"trigger", trigger, "rendered", len(batch.Records), "malformed", rep.Malformed)
}

// Batch numbers rep and converts it without sending it.
func (e *Emitter) Batch(trigger mutation.Trigger, rep stamp.Report) mutation.Batch {
	records := make([]mutation.Record, len(rep.Rendered))
	for i, r := range rep.Rendered {
		records[i] = mutation.Record{
			XPath:    r.Path,
			Tag:      r.Tag,
			Datetime: r.Datetime,
			Display:  r.Display,
			Tooltip:  r.Tooltip,
			Unit:     r.Unit.String(),
			Value:    r.Value,
		}
	}
	e.mu.Lock()
	ref := e.snapshotRef
	e.mu.Unlock()
	return mutation.Batch{
		ID:          idgen.New(),
		PageURL:     e.pageURL,
		PageID:      e.pageID,
		Seq:         e.seq.Add(1),
		Trigger:     trigger,
		Records:     records,
		Malformed:   rep.Malformed,
		Failed:      rep.Failed,
		Timestamp:   e.clock.Now().UnixMilli(),
		SnapshotRef: ref,
	}
}

// Snapshot sends the rendered document. Later batches reference it.
func (e *Emitter) Snapshot(html []byte) (mutation.Snapshot, error) {
	snap := mutation.Snapshot{
		ID:        idgen.Snapshot(),
		PageURL:   e.pageURL,
		PageID:    e.pageID,
		HTML:      html,
		HTMLHash:  mutation.HashHTML(html),
		Timestamp: e.clock.Now().UnixMilli(),
	}
	e.mu.Lock()
	e.snapshotRef = snap.ID
	e.mu.Unlock()
	if err := e.sink.SendSnapshot(e.ctx, snap); err != nil {
		return snap, err
	}
	e.logger.Info("domwatch: snapshot emitted", "page", e.pageID, "id", snap.ID, "size", len(html))
	return snap, nil
}

// Seq returns the last sequence number used.
func (e *Emitter) Seq() uint64 { return e.seq.Load() }
