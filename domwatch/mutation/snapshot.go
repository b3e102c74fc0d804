package mutation

// Snapshot is a complete DOM photo, taken after the bootstrap scan so the
// HTML carries the rendered timestamps.
type Snapshot struct {
	ID        string `json:"id"` // "snap_" + UUIDv7
	PageURL   string `json:"page_url"`
	PageID    string `json:"page_id"`
	HTML      []byte `json:"html"`      // full serialised DOM
	HTMLHash  string `json:"html_hash"` // SHA-256 hex
	Timestamp int64  `json:"timestamp"` // epoch milliseconds
}
