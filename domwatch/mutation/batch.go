// Package mutation defines the structured types emitted by the renderer.
// These are the public API contract: any consumer (report stores, custom
// pipelines) imports this package to receive render results.
package mutation

// Trigger names what caused a scan.
type Trigger string

const (
	TriggerInitial  Trigger = "initial"  // bootstrap scan of the whole document
	TriggerInsert   Trigger = "insert"   // structural insertion batch
	TriggerFragment Trigger = "fragment" // fragment-inserted event, whole-document rescan
)

// Record is a single rendered timestamp element.
type Record struct {
	XPath    string `json:"xpath"`
	Tag      string `json:"tag,omitempty"`
	Datetime string `json:"datetime"`          // raw attribute value
	Display  string `json:"display"`           // text written into the element
	Tooltip  string `json:"tooltip,omitempty"` // title attribute
	Unit     string `json:"unit"`              // year | month | day | hour | minute | second
	Value    int    `json:"value"`             // signed, negative = past
}

// Batch is the atomic unit emitted by the watcher. One batch = the elements
// rendered by a single scan.
type Batch struct {
	ID          string   `json:"id"` // UUIDv7
	PageURL     string   `json:"page_url"`
	PageID      string   `json:"page_id"` // stable identifier provided by caller
	Seq         uint64   `json:"seq"`     // monotonically increasing per page (gap detection)
	Trigger     Trigger  `json:"trigger"`
	Records     []Record `json:"records"`
	Malformed   int      `json:"malformed,omitempty"` // elements skipped for an unparseable instant
	Failed      int      `json:"failed,omitempty"`    // elements whose writes failed
	Timestamp   int64    `json:"timestamp"`           // epoch milliseconds at scan
	SnapshotRef string   `json:"snapshot_ref,omitempty"`
}
