package domwatch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/hazyhaar/timewatch/domwatch/internal/sink"
	"github.com/hazyhaar/timewatch/domwatch/mutation"
)

// Sink is the output interface for render batches and snapshots.
type Sink = sink.Sink

// NewStdoutSink creates a JSON-lines sink.
func NewStdoutSink(w io.Writer) Sink {
	return sink.NewStdout(w)
}

// NewWebhookSink creates a webhook POST sink with retry.
func NewWebhookSink(url string, logger *slog.Logger) Sink {
	if logger == nil {
		return sink.NewWebhook(url)
	}
	return sink.NewWebhook(url, sink.WithWebhookLogger(logger))
}

// OpenSQLiteSink opens (or creates) a render history database at path.
// The caller must blank-import modernc.org/sqlite.
func OpenSQLiteSink(path string) (Sink, error) {
	return sink.OpenSQLite(path)
}

// NewCallbackSink creates an in-process callback sink with zero
// serialisation. Either handler may be nil.
func NewCallbackSink(
	onBatch func(ctx context.Context, batch mutation.Batch) error,
	onSnapshot func(ctx context.Context, snap mutation.Snapshot) error,
) Sink {
	return sink.NewCallback(onBatch, onSnapshot)
}

// SinksFromConfig builds the sinks a configuration declares. Sinks opened
// before a failure are closed.
func SinksFromConfig(cfgs []SinkConfig, logger *slog.Logger) ([]Sink, error) {
	var out []Sink
	for _, c := range cfgs {
		var s Sink
		switch c.Type {
		case "stdout":
			s = NewStdoutSink(os.Stdout)
		case "webhook":
			s = NewWebhookSink(c.URL, logger)
		case "sqlite":
			db, err := OpenSQLiteSink(c.Path)
			if err != nil {
				for _, o := range out {
					o.Close()
				}
				return nil, fmt.Errorf("domwatch: %w", err)
			}
			s = db
		default:
			return nil, fmt.Errorf("domwatch: unknown sink type %q", c.Type)
		}
		out = append(out, s)
	}
	return out, nil
}
