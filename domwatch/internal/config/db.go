package config

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema for the watch_pages table.
const Schema = `
CREATE TABLE IF NOT EXISTS watch_pages (
	id         TEXT PRIMARY KEY,
	url        TEXT NOT NULL,
	mode       TEXT NOT NULL DEFAULT 'auto',
	status     TEXT NOT NULL DEFAULT 'active',
	updated_at INTEGER NOT NULL
);
`

// LoadPages reads all active pages from the database.
func LoadPages(ctx context.Context, db *sql.DB) ([]PageConfig, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, url, mode
		FROM watch_pages
		WHERE status = 'active'
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("config: load pages: %w", err)
	}
	defer rows.Close()

	var pages []PageConfig
	for rows.Next() {
		var p PageConfig
		if err := rows.Scan(&p.ID, &p.URL, &p.Mode); err != nil {
			return nil, fmt.Errorf("config: scan page: %w", err)
		}
		switch p.Mode {
		case ModeStatic, ModeLive, ModeAuto:
		default:
			p.Mode = ModeAuto
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}
