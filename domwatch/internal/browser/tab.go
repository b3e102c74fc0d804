package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// Tab wraps a Rod page opened on one configured URL.
type Tab struct {
	Page    *rod.Page
	PageURL string
	PageID  string

	router *rod.HijackRouter
}

// OpenTab creates a stealth tab, applies resource blocking and navigates to
// the URL, waiting for the load event.
func OpenTab(ctx context.Context, mgr *Manager, pageURL, pageID string) (*Tab, error) {
	b := mgr.Browser()
	if b == nil {
		return nil, fmt.Errorf("browser: no active browser")
	}

	page, err := stealth.Page(b)
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}

	tab := &Tab{Page: page, PageURL: pageURL, PageID: pageID}
	if len(mgr.cfg.ResourceBlocking) > 0 {
		set, unknown := newBlockSet(mgr.cfg.ResourceBlocking)
		if len(unknown) > 0 {
			mgr.cfg.Logger.Warn("browser: unknown resource types ignored", "types", unknown)
		}
		if len(set) > 0 {
			tab.router = set.install(page)
		}
	}

	navCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		tab.Close()
		return nil, fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		mgr.cfg.Logger.Warn("browser: wait load timeout", "url", pageURL, "error", err)
	}

	return tab, nil
}

// Reopen navigates a fresh tab to the same URL, after a browser recycle.
func (t *Tab) Reopen(ctx context.Context, mgr *Manager) (*Tab, error) {
	return OpenTab(ctx, mgr, t.PageURL, t.PageID)
}

// GetFullDOM serialises the complete DOM as outer HTML.
func (t *Tab) GetFullDOM(ctx context.Context) ([]byte, error) {
	res, err := t.Page.Context(ctx).Eval(`() => document.documentElement.outerHTML`)
	if err != nil {
		return nil, fmt.Errorf("browser: get DOM: %w", err)
	}
	return []byte(res.Value.Str()), nil
}

// EnableDOMTracking calls DOM.getDocument with depth=-1 so that CDP reports
// insertions under every node, not only the ones already requested.
func (t *Tab) EnableDOMTracking(ctx context.Context) error {
	if err := (proto.DOMEnable{}).Call(t.Page.Context(ctx)); err != nil {
		return fmt.Errorf("browser: DOM.enable: %w", err)
	}
	depth := -1
	if _, err := (proto.DOMGetDocument{Depth: &depth, Pierce: true}).Call(t.Page.Context(ctx)); err != nil {
		return fmt.Errorf("browser: DOM.getDocument: %w", err)
	}
	return nil
}

// Close stops request interception and closes the tab.
func (t *Tab) Close() error {
	if t.router != nil {
		t.router.Stop()
		t.router = nil
	}
	if t.Page != nil {
		return t.Page.Close()
	}
	return nil
}
