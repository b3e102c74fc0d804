package observer

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/go-rod/rod"

	"github.com/hazyhaar/timewatch/dom"
)

//go:embed path.js
var pathJS string

// element adapts a Rod element of the live tab to dom.Element. Every call is
// a CDP round trip; the tag is cached after the first lookup.
type element struct {
	el   *rod.Element
	page *Page
	tag  string
}

var _ dom.Element = (*element)(nil)

// wrap rebinds el to the page context, dropping any lookup timeout.
func (p *Page) wrap(el *rod.Element) *element {
	return &element{el: el.Context(p.ctx), page: p}
}

// IsElement is always true: the page only wraps element nodes.
func (e *element) IsElement() bool { return true }

func (e *element) Tag() string {
	if e.tag != "" {
		return e.tag
	}
	node, err := e.el.Describe(0, false)
	if err != nil {
		e.page.logger.Debug("observer: describe element", "error", err)
		return ""
	}
	e.tag = strings.ToLower(node.LocalName)
	return e.tag
}

func (e *element) Attr(name string) (string, bool) {
	v, err := e.el.Attribute(name)
	if err != nil {
		e.page.logger.Debug("observer: read attribute", "name", name, "error", err)
		return "", false
	}
	if v == nil {
		return "", false
	}
	return *v, true
}

func (e *element) SetAttr(name, value string) error {
	if _, err := e.el.Eval(`function (n, v) { this.setAttribute(n, v) }`, name, value); err != nil {
		return fmt.Errorf("observer: set %s: %w", name, err)
	}
	return nil
}

func (e *element) SetText(text string) error {
	if _, err := e.el.Eval(`function (t) { this.textContent = t }`, text); err != nil {
		return fmt.Errorf("observer: set text: %w", err)
	}
	return nil
}

// Matches validates the selector locally first so that syntax errors surface
// as dom.ErrInvalidSelector, as they do for in-process nodes.
func (e *element) Matches(selector string) (bool, error) {
	if _, err := dom.CompileSelector(selector); err != nil {
		return false, err
	}
	ok, err := e.el.Matches(selector)
	if err != nil {
		return false, fmt.Errorf("observer: matches: %w", err)
	}
	return ok, nil
}

func (e *element) QueryAll(selector string) ([]dom.Element, error) {
	if _, err := dom.CompileSelector(selector); err != nil {
		return nil, err
	}
	els, err := e.el.Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("observer: query: %w", err)
	}
	out := make([]dom.Element, len(els))
	for i, el := range els {
		out[i] = e.page.wrap(el)
	}
	return out, nil
}

func (e *element) Path() string {
	res, err := e.el.Eval(pathJS)
	if err != nil {
		e.page.logger.Debug("observer: element path", "error", err)
		return ""
	}
	return res.Value.Str()
}

// contains reports whether n is e or one of its descendants.
func (e *element) contains(n *element) bool {
	res, err := n.el.Eval(`function (s) { return s.contains(this) }`, e.el.Object)
	if err != nil {
		return false
	}
	return res.Value.Bool()
}
