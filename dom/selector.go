package dom

import (
	"fmt"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// compiled caches selectors across documents. The renderer asks for the same
// one or two selectors on every scan.
var compiled sync.Map // string -> cascadia.Selector

// CompileSelector validates a CSS selector and caches the result.
func CompileSelector(selector string) (cascadia.Selector, error) {
	if v, ok := compiled.Load(selector); ok {
		return v.(cascadia.Selector), nil
	}
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidSelector, selector, err)
	}
	compiled.Store(selector, sel)
	return sel, nil
}

// queryAll returns matching descendants of n in document order.
func queryAll(n *html.Node, selector string) ([]*html.Node, error) {
	sel, err := CompileSelector(selector)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromNode(n).FindMatcher(sel).Nodes, nil
}

func matches(n *html.Node, selector string) (bool, error) {
	sel, err := CompileSelector(selector)
	if err != nil {
		return false, err
	}
	if n.Type != html.ElementNode {
		return false, nil
	}
	return sel.Match(n), nil
}
