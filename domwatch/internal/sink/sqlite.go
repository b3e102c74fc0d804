package sink

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hazyhaar/timewatch/dbopen"
	"github.com/hazyhaar/timewatch/domwatch/mutation"
)

// SQLiteSchema holds render history: one row per batch, one per rendered
// element, and the bootstrap snapshots.
const SQLiteSchema = `
CREATE TABLE IF NOT EXISTS render_batches (
	id           TEXT PRIMARY KEY,
	page_id      TEXT NOT NULL,
	page_url     TEXT NOT NULL,
	seq          INTEGER NOT NULL,
	trigger_kind TEXT NOT NULL,
	malformed    INTEGER NOT NULL DEFAULT 0,
	failed       INTEGER NOT NULL DEFAULT 0,
	snapshot_ref TEXT,
	created_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_render_batches_page ON render_batches(page_id, seq);

CREATE TABLE IF NOT EXISTS render_records (
	batch_id TEXT NOT NULL REFERENCES render_batches(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	xpath    TEXT NOT NULL,
	tag      TEXT,
	datetime TEXT NOT NULL,
	display  TEXT NOT NULL,
	tooltip  TEXT,
	unit     TEXT NOT NULL,
	value    INTEGER NOT NULL,
	PRIMARY KEY (batch_id, position)
);

CREATE TABLE IF NOT EXISTS snapshots (
	id         TEXT PRIMARY KEY,
	page_id    TEXT NOT NULL,
	page_url   TEXT NOT NULL,
	html       BLOB NOT NULL,
	html_hash  TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
`

// SQLite stores batches and snapshots in a database opened with dbopen.
type SQLite struct {
	db    *sql.DB
	owned bool
}

// OpenSQLite opens (or creates) the database at path and applies the
// schema. The caller must blank-import the driver.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := dbopen.Open(path, dbopen.WithMkdirAll(), dbopen.WithSchema(SQLiteSchema))
	if err != nil {
		return nil, fmt.Errorf("sink: sqlite: %w", err)
	}
	return &SQLite{db: db, owned: true}, nil
}

// NewSQLite wraps an existing database. The schema is applied; Close does
// not close db.
func NewSQLite(db *sql.DB) (*SQLite, error) {
	if _, err := db.Exec(SQLiteSchema); err != nil {
		return nil, fmt.Errorf("sink: sqlite schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Send(ctx context.Context, batch mutation.Batch) error {
	return dbopen.RunTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO render_batches
				(id, page_id, page_url, seq, trigger_kind, malformed, failed, snapshot_ref, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, NULLIF(?, ''), ?)`,
			batch.ID, batch.PageID, batch.PageURL, batch.Seq, string(batch.Trigger),
			batch.Malformed, batch.Failed, batch.SnapshotRef, batch.Timestamp,
		); err != nil {
			return fmt.Errorf("sink: insert batch: %w", err)
		}
		for i, r := range batch.Records {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO render_records
					(batch_id, position, xpath, tag, datetime, display, tooltip, unit, value)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				batch.ID, i, r.XPath, r.Tag, r.Datetime, r.Display, r.Tooltip, r.Unit, r.Value,
			); err != nil {
				return fmt.Errorf("sink: insert record: %w", err)
			}
		}
		return nil
	})
}

func (s *SQLite) SendSnapshot(ctx context.Context, snap mutation.Snapshot) error {
	_, err := dbopen.Exec(ctx, s.db, `
		INSERT OR REPLACE INTO snapshots (id, page_id, page_url, html, html_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.PageID, snap.PageURL, snap.HTML, snap.HTMLHash, snap.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("sink: insert snapshot: %w", err)
	}
	return nil
}

// Close closes the database when the sink opened it.
func (s *SQLite) Close() error {
	if s.owned {
		return s.db.Close()
	}
	return nil
}
