// Package observer exposes a live browser tab as a page the renderer can
// watch. CDP child-insertion events and a Runtime binding for named DOM
// events are funnelled into a single loop goroutine, so callbacks never run
// concurrently.
package observer

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod/lib/proto"

	"github.com/hazyhaar/timewatch/dom"
	"github.com/hazyhaar/timewatch/domwatch/internal/browser"
)

//go:embed bridge.js
var bridgeJS string

const (
	bindingName   = "__timewatch_event"
	lookupTimeout = 5 * time.Second
)

// ErrForeignScope is returned when an observation scope was not obtained
// from the same page.
var ErrForeignScope = errors.New("observer: scope does not belong to this page")

type eventKind int

const (
	evInsert eventKind = iota
	evNamed
	evReset
)

type pageEvent struct {
	kind eventKind
	node proto.DOMNode
	name string
}

type insertSub struct {
	scope *element
	path  string
	fn    func(added []dom.Element)
}

// Page is a live tab. Create it with New and release it with Close.
type Page struct {
	tab    *browser.Tab
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc

	events chan pageEvent
	done   chan struct{}

	mu       sync.Mutex
	inserts  []insertSub
	handlers map[string][]func()
	bound    bool
}

// New enables DOM tracking on the tab and starts the event loop. The page
// lives until ctx is cancelled or Close is called.
func New(ctx context.Context, tab *browser.Tab, logger *slog.Logger) (*Page, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(ctx)
	p := &Page{
		tab:      tab,
		logger:   logger.With("page", tab.PageID),
		ctx:      ctx,
		cancel:   cancel,
		events:   make(chan pageEvent, 4096),
		done:     make(chan struct{}),
		handlers: make(map[string][]func()),
	}
	if err := tab.EnableDOMTracking(ctx); err != nil {
		cancel()
		return nil, fmt.Errorf("observer: %w", err)
	}

	wait := tab.Page.Context(ctx).EachEvent(
		func(e *proto.DOMChildNodeInserted) {
			if e.Node.NodeType == 1 {
				p.push(pageEvent{kind: evInsert, node: *e.Node})
			}
		},
		func(e *proto.RuntimeBindingCalled) {
			if e.Name == bindingName {
				p.push(pageEvent{kind: evNamed, name: e.Payload})
			}
		},
		func(*proto.DOMDocumentUpdated) {
			p.push(pageEvent{kind: evReset})
		},
	)
	go wait()
	go p.loop()

	p.logger.Info("observer: page attached", "url", tab.PageURL)
	return p, nil
}

func (p *Page) push(ev pageEvent) {
	select {
	case p.events <- ev:
	case <-p.ctx.Done():
	}
}

// Document returns the root element of the tab, nil when it cannot be
// resolved.
func (p *Page) Document() dom.Element { return p.find("html") }

// Body returns the body element, nil when it cannot be resolved.
func (p *Page) Body() dom.Element { return p.find("body") }

func (p *Page) find(selector string) dom.Element {
	el, err := p.tab.Page.Context(p.ctx).Timeout(lookupTimeout).Element(selector)
	if err != nil {
		p.logger.Warn("observer: resolve element", "selector", selector, "error", err)
		return nil
	}
	return p.wrap(el)
}

// ObserveInsertions calls fn with every element inserted under scope.
// scope must come from Document, Body or a query on this page.
func (p *Page) ObserveInsertions(scope dom.Element, fn func(added []dom.Element)) error {
	s, ok := scope.(*element)
	if !ok || s == nil || s.page != p {
		return ErrForeignScope
	}
	p.mu.Lock()
	p.inserts = append(p.inserts, insertSub{scope: s, path: s.Path(), fn: fn})
	p.mu.Unlock()
	return nil
}

// Listen calls fn whenever the page document dispatches event.
func (p *Page) Listen(event string, fn func()) error {
	if err := p.ensureBinding(); err != nil {
		return err
	}
	if err := p.install(event); err != nil {
		return err
	}
	p.mu.Lock()
	p.handlers[event] = append(p.handlers[event], fn)
	p.mu.Unlock()
	return nil
}

func (p *Page) ensureBinding() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bound {
		return nil
	}
	if err := (proto.RuntimeAddBinding{Name: bindingName}).Call(p.tab.Page.Context(p.ctx)); err != nil {
		return fmt.Errorf("observer: add binding: %w", err)
	}
	p.bound = true
	return nil
}

func (p *Page) install(event string) error {
	if _, err := p.tab.Page.Context(p.ctx).Eval(bridgeJS, event, bindingName); err != nil {
		return fmt.Errorf("observer: listen %s: %w", event, err)
	}
	return nil
}

func (p *Page) loop() {
	defer close(p.done)
	for {
		select {
		case <-p.ctx.Done():
			return
		case ev := <-p.events:
			switch ev.kind {
			case evInsert:
				p.handleInsert(ev.node)
			case evNamed:
				p.handleNamed(ev.name)
			case evReset:
				p.handleReset()
			}
		}
	}
}

func (p *Page) handleInsert(node proto.DOMNode) {
	// Children of an inserted subtree are unknown to CDP until requested;
	// later insertions beneath them would otherwise go unreported.
	depth := -1
	if err := (proto.DOMRequestChildNodes{NodeID: node.NodeID, Depth: &depth, Pierce: true}).Call(p.tab.Page.Context(p.ctx)); err != nil {
		p.logger.Debug("observer: request child nodes", "error", err)
	}

	p.mu.Lock()
	subs := append([]insertSub(nil), p.inserts...)
	p.mu.Unlock()
	if len(subs) == 0 {
		return
	}

	rel, err := p.tab.Page.Context(p.ctx).ElementFromNode(&node)
	if err != nil {
		p.logger.Debug("observer: resolve inserted node", "error", err)
		return
	}
	added := p.wrap(rel)
	for _, s := range subs {
		if s.scope.contains(added) {
			s.fn([]dom.Element{added})
		}
	}
}

func (p *Page) handleNamed(name string) {
	p.mu.Lock()
	fns := append([]func(){}, p.handlers[name]...)
	p.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// handleReset re-arms tracking after the document was replaced. Insertion
// scopes are re-resolved by path and named-event handlers run once to cover
// the new content.
func (p *Page) handleReset() {
	p.logger.Info("observer: document replaced", "url", p.tab.PageURL)
	if err := p.tab.EnableDOMTracking(p.ctx); err != nil {
		p.logger.Warn("observer: re-enable DOM tracking", "error", err)
	}

	p.mu.Lock()
	subs := p.inserts
	p.inserts = nil
	p.mu.Unlock()
	for _, s := range subs {
		el, err := p.tab.Page.Context(p.ctx).Timeout(lookupTimeout).ElementX(s.path)
		if err != nil {
			p.logger.Warn("observer: scope lost after reset", "path", s.path, "error", err)
			continue
		}
		s.scope = p.wrap(el)
		p.mu.Lock()
		p.inserts = append(p.inserts, s)
		p.mu.Unlock()
	}

	p.mu.Lock()
	events := make([]string, 0, len(p.handlers))
	for name := range p.handlers {
		events = append(events, name)
	}
	p.mu.Unlock()

	for _, name := range events {
		if err := p.install(name); err != nil {
			p.logger.Warn("observer: reinstall listener", "event", name, "error", err)
			continue
		}
		p.handleNamed(name)
	}
}

// Snapshot serialises the current DOM.
func (p *Page) Snapshot() ([]byte, error) {
	return p.tab.GetFullDOM(p.ctx)
}

// Close stops the event loop and closes the tab.
func (p *Page) Close() error {
	p.cancel()
	<-p.done
	return p.tab.Close()
}
