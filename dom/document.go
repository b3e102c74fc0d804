package dom

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is an in-process HTML document.
//
// A Document is not safe for concurrent use: like a browser page it is meant
// to be driven from a single goroutine. Mutation records are delivered to
// observers at a checkpoint after each structural operation; records
// produced while observers run are queued and delivered by the same drain
// loop, never by a nested call.
type Document struct {
	root *html.Node

	observers  []*Observer
	delivering bool

	listeners map[string][]*listener
	nextID    int
}

// Parse reads a full HTML document. Missing html, head and body elements are
// synthesised by the parser.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("dom: parse: %w", err)
	}
	return &Document{root: root, listeners: make(map[string][]*listener)}, nil
}

// ParseString is Parse over a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// ParseBytes is Parse over a byte slice.
func ParseBytes(b []byte) (*Document, error) {
	return Parse(bytes.NewReader(b))
}

// Root returns the document node.
func (d *Document) Root() *Node { return d.wrap(d.root) }

// Body returns the body element, or the document node if there is none.
func (d *Document) Body() *Node {
	if b := findAtom(d.root, atom.Body); b != nil {
		return d.wrap(b)
	}
	return d.Root()
}

// Head returns the head element, or nil.
func (d *Document) Head() *Node { return d.wrap(findAtom(d.root, atom.Head)) }

// Wrap binds an html.Node from this document's tree to the document.
func (d *Document) Wrap(n *html.Node) *Node { return d.wrap(n) }

func (d *Document) wrap(n *html.Node) *Node {
	if n == nil {
		return nil
	}
	return &Node{n: n, doc: d}
}

// CreateElement returns a detached element.
func (d *Document) CreateElement(tag string, attrs ...html.Attribute) *Node {
	return d.wrap(&html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
		Attr:     attrs,
	})
}

// CreateText returns a detached text node.
func (d *Document) CreateText(text string) *Node {
	return d.wrap(&html.Node{Type: html.TextNode, Data: text})
}

// ParseFragment parses markup as the children of context and returns the
// detached nodes.
func (d *Document) ParseFragment(context *Node, markup string) ([]*Node, error) {
	var ctx *html.Node
	if context != nil && context.n.Type == html.ElementNode {
		ctx = context.n
	} else {
		ctx = &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	}
	nodes, err := html.ParseFragment(strings.NewReader(markup), ctx)
	if err != nil {
		return nil, fmt.Errorf("dom: parse fragment: %w", err)
	}
	out := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, d.wrap(n))
	}
	return out, nil
}

// Render writes the serialised document.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// String returns the serialised document.
func (d *Document) String() string {
	var sb strings.Builder
	_ = d.Render(&sb)
	return sb.String()
}

// detach removes n from its current parent, recording the removal.
func (d *Document) detach(n *html.Node) {
	p := n.Parent
	if p == nil {
		return
	}
	p.RemoveChild(n)
	d.record(p, nil, []*html.Node{n})
}

func findAtom(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if f := findAtom(c, a); f != nil {
			return f
		}
	}
	return nil
}
