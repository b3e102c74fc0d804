package sink

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/hazyhaar/timewatch/domwatch/mutation"
)

// Stdout writes one mutation.Envelope per line to an io.Writer (default
// os.Stdout).
type Stdout struct {
	mu sync.Mutex
	w  io.Writer
}

// NewStdout creates a Stdout sink. If w is nil, os.Stdout is used.
func NewStdout(w io.Writer) *Stdout {
	if w == nil {
		w = os.Stdout
	}
	return &Stdout{w: w}
}

func (s *Stdout) Send(_ context.Context, batch mutation.Batch) error {
	line, err := mutation.EncodeBatch(&batch)
	if err != nil {
		return err
	}
	return s.write(line)
}

// SendSnapshot writes the snapshot metadata only; the HTML is replaced by
// its size to keep lines readable.
func (s *Stdout) SendSnapshot(_ context.Context, snap mutation.Snapshot) error {
	line, err := mutation.Encode(mutation.KindSnapshot, snapshotLine{
		ID:        snap.ID,
		PageURL:   snap.PageURL,
		PageID:    snap.PageID,
		HTMLHash:  snap.HTMLHash,
		Size:      len(snap.HTML),
		Timestamp: snap.Timestamp,
	})
	if err != nil {
		return err
	}
	return s.write(line)
}

func (s *Stdout) Close() error { return nil }

func (s *Stdout) write(line []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.w.Write(append(line, '\n'))
	return err
}

type snapshotLine struct {
	ID        string `json:"id"`
	PageURL   string `json:"page_url"`
	PageID    string `json:"page_id"`
	HTMLHash  string `json:"html_hash"`
	Size      int    `json:"size"`
	Timestamp int64  `json:"timestamp"`
}
