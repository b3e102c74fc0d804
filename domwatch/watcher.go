// Package domwatch renders relative timestamps ("3 minutes ago") into pages
// and keeps them rendered as content is added.
//
// A Bootstrapper scans a page once its structure is parsed, then leaves a
// ChangeWatcher on the body that re-scans inserted nodes and the whole
// document when a fragment-update library signals new content. Pages are
// either in-process documents (DocumentPage) or live browser tabs.
//
// Watcher is the daemon-level orchestrator: it fetches configured pages,
// renders static ones in process, opens a browser tab for pages that update
// themselves, and emits every scan to sinks (stdout, webhook, SQLite,
// callback).
package domwatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/microcosm-cc/bluemonday"

	"github.com/hazyhaar/timewatch/dom"
	"github.com/hazyhaar/timewatch/domwatch/internal/browser"
	"github.com/hazyhaar/timewatch/domwatch/internal/fetcher"
	"github.com/hazyhaar/timewatch/domwatch/internal/observer"
	"github.com/hazyhaar/timewatch/domwatch/internal/sink"
	"github.com/hazyhaar/timewatch/domwatch/mutation"
	"github.com/hazyhaar/timewatch/reltime"
	"github.com/hazyhaar/timewatch/stamp"
)

// ErrAlreadyObserved is returned by ObservePage for a page ID that already
// has a live tab.
var ErrAlreadyObserved = errors.New("domwatch: page already observed")

// Watcher manages the browser, live pages and sinks. Create one per
// timewatch instance.
type Watcher struct {
	cfg       *Config
	loc       *time.Location
	formatter *reltime.Formatter
	scanner   *stamp.Scanner
	mgr       *browser.Manager
	fetch     *fetcher.Fetcher
	sinkR     *sink.Router
	clock     stamp.Clock
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	live       map[string]*livePage          // keyed by page ID
	opening    map[string]bool               // page IDs whose tab is being opened
	emitters   map[string]*Emitter           // keyed by page ID, outlives tabs
	formatters map[string]*reltime.Formatter // keyed by resolved catalog locale
	scanners   map[string]*stamp.Scanner     // keyed by resolved catalog locale
	sanitizer  *bluemonday.Policy
}

type livePage struct {
	cfg     PageConfig
	tab     *browser.Tab
	page    *observer.Page
	watcher *ChangeWatcher
}

type watcherOptions struct {
	sinks  []Sink
	clock  stamp.Clock
	client *http.Client
}

// WatcherOption configures New.
type WatcherOption func(*watcherOptions)

// WithSinks adds output sinks.
func WithSinks(sinks ...Sink) WatcherOption {
	return func(o *watcherOptions) { o.sinks = append(o.sinks, sinks...) }
}

// WithClock replaces the wall clock used for rendering and batch timestamps.
func WithClock(c stamp.Clock) WatcherOption {
	return func(o *watcherOptions) { o.clock = c }
}

// WithHTTPClient sets the client used to fetch pages.
func WithHTTPClient(c *http.Client) WatcherOption {
	return func(o *watcherOptions) { o.client = c }
}

// New builds a Watcher from configuration. The browser is only started when
// a page needs it.
func New(cfg *Config, logger *slog.Logger, opts ...WatcherOption) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = DefaultConfig()
	} else {
		cfg.ApplyDefaults()
	}
	var o watcherOptions
	for _, fn := range opts {
		fn(&o)
	}
	if o.clock == nil {
		o.clock = stamp.SystemClock{}
	}

	loc, err := cfg.Renderer.Location()
	if err != nil {
		return nil, fmt.Errorf("domwatch: %w", err)
	}
	f, err := reltime.New(cfg.Renderer.Locale, reltime.WithLocation(loc))
	if err != nil {
		return nil, fmt.Errorf("domwatch: %w", err)
	}
	scanner, err := stamp.NewScanner(stamp.Config{
		Selector:  cfg.Renderer.Selector,
		Attribute: cfg.Renderer.Attribute,
		TitleAttr: cfg.Renderer.TitleAttribute,
		Marker:    cfg.Renderer.Marker,
		Formatter: f,
		Clock:     o.clock,
		Location:  loc,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("domwatch: %w", err)
	}

	fopts := []fetcher.Option{fetcher.WithLogger(logger)}
	if o.client != nil {
		fopts = append(fopts, fetcher.WithClient(o.client))
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		cfg:       cfg,
		loc:       loc,
		formatter: f,
		scanner:   scanner,
		mgr: browser.NewManager(browser.Config{
			RemoteURL:        cfg.Browser.Remote,
			RecycleInterval:  cfg.Browser.RecycleInterval,
			ResourceBlocking: cfg.Browser.ResourceBlocking,
			Stealth:          browser.ParseStealth(cfg.Browser.Stealth),
			XvfbDisplay:      cfg.Browser.XvfbDisplay,
			Logger:           logger,
		}),
		fetch:    fetcher.New(fopts...),
		sinkR:    sink.NewRouter(logger, o.sinks...),
		clock:    o.clock,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		live:       make(map[string]*livePage),
		opening:    make(map[string]bool),
		emitters:   make(map[string]*Emitter),
		formatters: make(map[string]*reltime.Formatter),
		scanners:   make(map[string]*stamp.Scanner),
	}
	w.mgr.OnRecycle(func(*rod.Browser) { w.reopenLive() })
	return w, nil
}

// Formatter returns the formatter pages are rendered with.
func (w *Watcher) Formatter() *reltime.Formatter { return w.formatter }

// Scanner returns the shared scanner.
func (w *Watcher) Scanner() *stamp.Scanner { return w.scanner }

// Start renders or observes every configured page. Failures are logged per
// page and do not stop the others.
func (w *Watcher) Start(ctx context.Context) error {
	for _, pc := range w.cfg.Pages {
		if err := w.ObservePage(ctx, pc); err != nil {
			w.logger.Error("domwatch: failed to observe page", "url", pc.URL, "error", err)
		}
	}
	return nil
}

// ObservePage renders a page according to its mode. Static pages are
// fetched and rendered once; live pages get a browser tab that stays
// observed until Unobserve or Stop; auto pages are fetched and escalated to
// live when they load a fragment-update library or are client-rendered.
func (w *Watcher) ObservePage(ctx context.Context, pc PageConfig) error {
	if pc.ID == "" {
		pc.ID = pc.URL
	}
	switch pc.Mode {
	case ModeLive:
		return w.observeLive(ctx, pc, nil)
	case ModeStatic, ModeAuto, "":
	default:
		return fmt.Errorf("domwatch: page %q: unknown mode %q", pc.ID, pc.Mode)
	}

	res, err := w.fetch.Fetch(ctx, pc.URL)
	if err != nil {
		if pc.Mode == ModeAuto || pc.Mode == "" {
			w.logger.Warn("domwatch: auto fetch failed, escalating to browser", "url", pc.URL, "error", err)
			return w.observeLive(ctx, pc, nil)
		}
		return fmt.Errorf("domwatch: %w", err)
	}
	if pc.Mode != ModeStatic && res.NeedsBrowser {
		w.logger.Info("domwatch: page updates itself, escalating to browser", "url", pc.URL)
		return w.observeLive(ctx, pc, nil)
	}

	out, err := w.RenderHTML(pc.URL, pc.ID, res.Body)
	if err != nil {
		return err
	}
	w.logger.Info("domwatch: static page rendered", "url", pc.URL,
		"rendered", len(out.Report.Rendered), "malformed", out.Report.Malformed)
	return nil
}

// RenderURL fetches pageURL over HTTP and renders it in process, whatever
// scripts the page loads. pageID selects emission as in RenderHTML.
func (w *Watcher) RenderURL(ctx context.Context, pageURL, pageID string) (*RenderResult, error) {
	res, err := w.fetch.Fetch(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("domwatch: %w", err)
	}
	if res.NeedsBrowser {
		w.logger.Warn("domwatch: page updates itself, later content will not be rendered", "url", pageURL)
	}
	return w.RenderHTML(res.URL, pageID, res.Body)
}

// RenderResult is the outcome of RenderHTML.
type RenderResult struct {
	HTML       []byte       `json:"html"`
	Body       []byte       `json:"-"` // inner HTML of the body
	Report     stamp.Report `json:"report"`
	SnapshotID string       `json:"snapshot_id,omitempty"`
}

// RenderHTML renders the timestamps of an HTML document in process. With a
// non-empty pageID the scan and the rendered snapshot are emitted to the
// sinks; otherwise nothing leaves the call.
func (w *Watcher) RenderHTML(pageURL, pageID string, html []byte) (*RenderResult, error) {
	return w.render(w.scanner, pageURL, pageID, html)
}

func (w *Watcher) render(scanner *stamp.Scanner, pageURL, pageID string, html []byte) (*RenderResult, error) {
	doc, err := dom.ParseBytes(html)
	if err != nil {
		return nil, fmt.Errorf("domwatch: parse: %w", err)
	}

	var em *Emitter
	if pageID != "" {
		em = w.emitter(pageURL, pageID)
	}
	var initial stamp.Report
	boot := NewBootstrapper(scanner,
		WithFragmentEvent(w.cfg.Renderer.FragmentEvent),
		WithLogger(w.logger),
		WithReportFunc(func(t mutation.Trigger, rep stamp.Report) {
			if t == mutation.TriggerInitial {
				initial = rep
			}
			if em != nil {
				em.Report(t, rep)
			}
		}),
	)
	if _, err := boot.Run(NewDocumentPage(doc)); err != nil {
		w.logger.Debug("domwatch: in-process watcher", "error", err)
	}

	out := &RenderResult{HTML: []byte(doc.String()), Report: initial}
	if b := doc.Body(); b != nil {
		out.Body = []byte(b.InnerHTML())
	}
	if em != nil {
		snap, err := em.Snapshot(out.HTML)
		if err != nil {
			w.logger.Error("domwatch: send snapshot failed", "page", pageID, "error", err)
		} else {
			out.SnapshotID = snap.ID
		}
	}
	return out, nil
}

// formatterFor returns the formatter for locale. Formatters are built once
// per catalog locale. An empty locale is the configured one.
func (w *Watcher) formatterFor(locale string) (*reltime.Formatter, error) {
	if locale == "" {
		return w.formatter, nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.formatterLocked(locale)
}

func (w *Watcher) formatterLocked(locale string) (*reltime.Formatter, error) {
	l, err := reltime.DefaultBundle().Match(locale)
	if err != nil {
		return nil, err
	}
	if f, ok := w.formatters[l.ID]; ok {
		return f, nil
	}
	f, err := reltime.New(l.ID, reltime.WithLocation(w.loc))
	if err != nil {
		return nil, err
	}
	w.formatters[l.ID] = f
	return f, nil
}

// scannerFor returns a scanner rendering in locale, sharing every other
// setting with the configured one. An empty locale is the configured one.
func (w *Watcher) scannerFor(locale string) (*stamp.Scanner, error) {
	if locale == "" {
		return w.scanner, nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	f, err := w.formatterLocked(locale)
	if err != nil {
		return nil, err
	}
	if s, ok := w.scanners[f.Locale()]; ok {
		return s, nil
	}
	r := w.cfg.Renderer
	s, err := stamp.NewScanner(stamp.Config{
		Selector:  r.Selector,
		Attribute: r.Attribute,
		TitleAttr: r.TitleAttribute,
		Marker:    r.Marker,
		Formatter: f,
		Clock:     w.clock,
		Location:  w.loc,
		Logger:    w.logger,
	})
	if err != nil {
		return nil, err
	}
	w.scanners[f.Locale()] = s
	return s, nil
}

func (w *Watcher) emitter(pageURL, pageID string) *Emitter {
	w.mu.Lock()
	defer w.mu.Unlock()
	em, ok := w.emitters[pageID]
	if !ok {
		em = NewEmitter(w.ctx, pageURL, pageID, w.sinkR, w.clock, w.logger)
		w.emitters[pageID] = em
	}
	return em
}

// observeLive opens a tab on pc and bootstraps it. prev, when set, is a tab
// lost to a browser recycle and is reopened in place of a new one.
func (w *Watcher) observeLive(ctx context.Context, pc PageConfig, prev *browser.Tab) error {
	if err := w.reserve(pc.ID); err != nil {
		return err
	}
	defer w.release(pc.ID)

	if _, err := w.mgr.Start(w.ctx); err != nil {
		return fmt.Errorf("domwatch: start browser: %w", err)
	}
	var tab *browser.Tab
	var err error
	if prev != nil {
		tab, err = prev.Reopen(ctx, w.mgr)
	} else {
		tab, err = browser.OpenTab(ctx, w.mgr, pc.URL, pc.ID)
	}
	if err != nil {
		return fmt.Errorf("domwatch: open tab: %w", err)
	}
	page, err := observer.New(w.ctx, tab, w.logger)
	if err != nil {
		tab.Close()
		return fmt.Errorf("domwatch: attach page: %w", err)
	}

	em := w.emitter(pc.URL, pc.ID)
	boot := NewBootstrapper(w.scanner,
		WithFragmentEvent(w.cfg.Renderer.FragmentEvent),
		WithReportFunc(em.Report),
		WithLogger(w.logger.With("page", pc.ID)),
	)
	cw, err := boot.Run(page)
	if err != nil {
		w.logger.Warn("domwatch: changes will not be rendered", "url", pc.URL, "error", err)
	}
	if html, err := page.Snapshot(); err != nil {
		w.logger.Warn("domwatch: snapshot failed", "url", pc.URL, "error", err)
	} else if _, err := em.Snapshot(html); err != nil {
		w.logger.Error("domwatch: send snapshot failed", "page", pc.ID, "error", err)
	}

	w.mu.Lock()
	w.live[pc.ID] = &livePage{cfg: pc, tab: tab, page: page, watcher: cw}
	w.mu.Unlock()

	w.logger.Info("domwatch: observing page", "url", pc.URL, "id", pc.ID)
	return nil
}

// reserve claims id for a tab about to be opened. It fails while id is live
// or already being opened.
func (w *Watcher) reserve(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.live[id]; ok || w.opening[id] {
		return fmt.Errorf("%w: %s", ErrAlreadyObserved, id)
	}
	w.opening[id] = true
	return nil
}

func (w *Watcher) release(id string) {
	w.mu.Lock()
	delete(w.opening, id)
	w.mu.Unlock()
}

// reopenLive runs after a browser recycle: the old tabs died with the
// process, so every live page is reopened and bootstrapped again. Sequence
// numbers continue.
func (w *Watcher) reopenLive() {
	w.mu.Lock()
	old := w.live
	w.live = make(map[string]*livePage)
	w.mu.Unlock()

	for id, lp := range old {
		lp.page.Close()
		if err := w.observeLive(w.ctx, lp.cfg, lp.tab); err != nil {
			w.logger.Error("domwatch: reopen page failed", "id", id, "error", err)
		}
	}
}

// Live returns the IDs of the pages observed in a browser tab, sorted.
func (w *Watcher) Live() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	ids := make([]string, 0, len(w.live))
	for id := range w.live {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Unobserve closes the tab of a live page.
func (w *Watcher) Unobserve(pageID string) error {
	w.mu.Lock()
	lp, ok := w.live[pageID]
	delete(w.live, pageID)
	w.mu.Unlock()
	if !ok {
		return fmt.Errorf("domwatch: page %q not observed", pageID)
	}
	return lp.page.Close()
}

// Stop closes every live page, the sinks and the browser.
func (w *Watcher) Stop() {
	w.mu.Lock()
	live := w.live
	w.live = make(map[string]*livePage)
	w.mu.Unlock()

	for id, lp := range live {
		if err := lp.page.Close(); err != nil {
			w.logger.Debug("domwatch: close page", "id", id, "error", err)
		}
		w.logger.Info("domwatch: stopped page", "id", id)
	}
	w.cancel()
	w.sinkR.Close()
	w.mgr.Close()
}
