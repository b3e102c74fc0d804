package domwatch

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hazyhaar/timewatch/dom"
	"github.com/hazyhaar/timewatch/domwatch/mutation"
	"github.com/hazyhaar/timewatch/stamp"
)

// DefaultFragmentEvent is the event Unpoly dispatches after splicing a
// server-rendered fragment into the page.
const DefaultFragmentEvent = "up:fragment:inserted"

// ReportFunc receives the report of every scan together with what caused
// it. Reports that rendered nothing are delivered too.
type ReportFunc func(trigger mutation.Trigger, rep stamp.Report)

type options struct {
	event  string
	report ReportFunc
	logger *slog.Logger
}

// Option configures a Bootstrapper or ChangeWatcher.
type Option func(*options)

// WithFragmentEvent sets the event that triggers a whole-document rescan.
func WithFragmentEvent(name string) Option { return func(o *options) { o.event = name } }

// WithReportFunc sets the receiver of scan reports.
func WithReportFunc(fn ReportFunc) Option { return func(o *options) { o.report = fn } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

func buildOptions(opts []Option) options {
	o := options{event: DefaultFragmentEvent}
	for _, fn := range opts {
		fn(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.report == nil {
		o.report = func(mutation.Trigger, stamp.Report) {}
	}
	return o
}

// ChangeWatcher re-scans a page whenever content is added to it. It
// subscribes to two independent channels: structural insertions under a
// scope, which scan each added node, and the fragment event, which scans
// the whole document. Triggers are handled one by one as they arrive; the
// scanner's marker makes overlapping scans harmless.
type ChangeWatcher struct {
	page    Page
	scanner *stamp.Scanner
	opts    options

	mu       sync.Mutex
	started  bool
	insert   bool
	fragment bool
}

// NewChangeWatcher builds a watcher for page. Nothing is observed until
// Start.
func NewChangeWatcher(page Page, scanner *stamp.Scanner, opts ...Option) *ChangeWatcher {
	return &ChangeWatcher{page: page, scanner: scanner, opts: buildOptions(opts)}
}

// Start installs both subscriptions. A channel that cannot be installed is
// logged and skipped; an error wrapping ErrNoChannels is returned only when
// neither could be. There is no Stop: the watcher lives as long as the page.
func (w *ChangeWatcher) Start(scope dom.Element) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return ErrAlreadyStarted
	}
	w.started = true
	log := w.opts.logger

	var insertErr, fragmentErr error
	if scope == nil {
		insertErr = errors.New("no observation scope")
	} else {
		insertErr = w.page.ObserveInsertions(scope, w.onInsert)
	}
	if insertErr != nil {
		log.Warn("domwatch: insertion observation unavailable", "error", insertErr)
	} else {
		w.insert = true
	}

	if fragmentErr = w.page.Listen(w.opts.event, w.onFragment); fragmentErr != nil {
		log.Warn("domwatch: fragment event unavailable", "event", w.opts.event, "error", fragmentErr)
	} else {
		w.fragment = true
	}

	if !w.insert && !w.fragment {
		return fmt.Errorf("%w: insertions: %v; %s: %v", ErrNoChannels, insertErr, w.opts.event, fragmentErr)
	}
	log.Debug("domwatch: watching", "insertions", w.insert, "fragment_event", w.fragment)
	return nil
}

// Channels reports which subscriptions Start installed.
func (w *ChangeWatcher) Channels() (insertions, fragmentEvent bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.insert, w.fragment
}

func (w *ChangeWatcher) onInsert(added []dom.Element) {
	w.opts.report(mutation.TriggerInsert, w.scanner.ScanAll(added))
}

func (w *ChangeWatcher) onFragment() {
	w.opts.report(mutation.TriggerFragment, w.scanner.Scan(w.page.Document()))
}

// Bootstrapper renders a page once it is parsed and leaves a ChangeWatcher
// running on its body.
type Bootstrapper struct {
	scanner *stamp.Scanner
	opts    []Option
}

// NewBootstrapper returns a Bootstrapper whose watchers share opts.
func NewBootstrapper(scanner *stamp.Scanner, opts ...Option) *Bootstrapper {
	return &Bootstrapper{scanner: scanner, opts: opts}
}

// Run scans the whole document, reports it as the initial scan and starts a
// ChangeWatcher on the body. The watcher is returned even when Start fails;
// the error is informational since the initial scan already rendered what
// the page contained.
func (b *Bootstrapper) Run(page Page) (*ChangeWatcher, error) {
	w := NewChangeWatcher(page, b.scanner, b.opts...)
	w.opts.report(mutation.TriggerInitial, b.scanner.Scan(page.Document()))
	if err := w.Start(page.Body()); err != nil {
		return w, err
	}
	return w, nil
}
