package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hazyhaar/timewatch/dbopen"

	_ "modernc.org/sqlite"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(`
pages:
  - url: https://example.com/news
sinks:
  - type: stdout
`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Renderer.Selector != "time[datetime]" || cfg.Renderer.Marker != "x-transformed" {
		t.Errorf("renderer defaults: %+v", cfg.Renderer)
	}
	if cfg.Renderer.FragmentEvent != "up:fragment:inserted" {
		t.Errorf("fragment event: %q", cfg.Renderer.FragmentEvent)
	}
	if cfg.Browser.RecycleInterval != 4*time.Hour || cfg.Browser.Stealth != "headless" {
		t.Errorf("browser defaults: %+v", cfg.Browser)
	}
	p := cfg.Pages[0]
	if p.Mode != ModeAuto || p.ID != "https://example.com/news" {
		t.Errorf("page defaults: %+v", p)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := map[string]string{
		"missing url":     "pages:\n  - id: a\n",
		"bad mode":        "pages:\n  - url: https://x\n    mode: sometimes\n",
		"bad sink":        "sinks:\n  - type: nats\n",
		"webhook no url":  "sinks:\n  - type: webhook\n",
		"sqlite no path":  "sinks:\n  - type: sqlite\n",
		"not yaml at all": "pages: [",
	}
	for name, in := range tests {
		if _, err := Parse([]byte(in)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timewatch.yaml")
	data := []byte("renderer:\n  locale: fr-FR\n  timezone: UTC\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Renderer.Locale != "fr-FR" {
		t.Errorf("locale: %q", cfg.Renderer.Locale)
	}
	loc, err := cfg.Renderer.Location()
	if err != nil || loc != time.UTC {
		t.Errorf("location: %v, %v", loc, err)
	}
}

func TestRendererLocation_Unknown(t *testing.T) {
	if _, err := (RendererConfig{Timezone: "Mars/Olympus"}).Location(); err == nil {
		t.Fatal("expected error")
	}
}

func TestLoadPages(t *testing.T) {
	db := dbopen.OpenMemory(t, dbopen.WithSchema(Schema))
	ctx := context.Background()
	for _, q := range []string{
		`INSERT INTO watch_pages (id, url, mode, updated_at) VALUES ('b', 'https://b', 'live', 1)`,
		`INSERT INTO watch_pages (id, url, mode, updated_at) VALUES ('a', 'https://a', 'bogus', 1)`,
		`INSERT INTO watch_pages (id, url, status, updated_at) VALUES ('c', 'https://c', 'paused', 1)`,
	} {
		if _, err := db.ExecContext(ctx, q); err != nil {
			t.Fatal(err)
		}
	}
	pages, err := LoadPages(ctx, db)
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 2 {
		t.Fatalf("pages: got %d, want 2", len(pages))
	}
	if pages[0].ID != "a" || pages[0].Mode != ModeAuto {
		t.Errorf("page a: %+v", pages[0])
	}
	if pages[1].Mode != ModeLive {
		t.Errorf("page b: %+v", pages[1])
	}
}
