package mutation

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
)

// Envelope kinds.
const (
	KindBatch    = "batch"
	KindSnapshot = "snapshot"
)

// Envelope is the JSON document sinks write: one kind tag and its payload.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Encode wraps v in an Envelope of the given kind.
func Encode(kind string, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("mutation: encode %s: %w", kind, err)
	}
	return json.Marshal(Envelope{Type: kind, Data: data})
}

// EncodeBatch wraps b in a batch Envelope.
func EncodeBatch(b *Batch) ([]byte, error) {
	return Encode(KindBatch, b)
}

// EncodeSnapshot wraps s in a snapshot Envelope. HTML is base64 encoded.
func EncodeSnapshot(s *Snapshot) ([]byte, error) {
	return Encode(KindSnapshot, s)
}

// HashHTML returns the SHA-256 hex digest of raw HTML bytes.
func HashHTML(html []byte) string {
	h := sha256.Sum256(html)
	return fmt.Sprintf("%x", h)
}
