// Package stamp finds timestamp elements in a document and renders them in
// place: localized relative text, an absolute tooltip, and a marker
// attribute that makes each element render exactly once.
package stamp

import (
	"time"

	"github.com/hazyhaar/timewatch/dom"
)

// DefaultMarker is the attribute set on rendered elements.
const DefaultMarker = "x-transformed"

// Tagger records which elements have been rendered.
type Tagger struct {
	marker string
}

// NewTagger returns a Tagger using marker, or DefaultMarker when empty.
func NewTagger(marker string) *Tagger {
	if marker == "" {
		marker = DefaultMarker
	}
	return &Tagger{marker: marker}
}

// Marker returns the attribute name used as the processed flag.
func (t *Tagger) Marker() string { return t.marker }

// IsProcessed reports whether el carries the marker.
func (t *Tagger) IsProcessed(el dom.Element) bool {
	_, ok := el.Attr(t.marker)
	return ok
}

// MarkProcessed sets the marker. A second call is a no-op and performs no
// write.
func (t *Tagger) MarkProcessed(el dom.Element) error {
	if t.IsProcessed(el) {
		return nil
	}
	return el.SetAttr(t.marker, "")
}

// Clock supplies the reference instant for relative rendering.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }
