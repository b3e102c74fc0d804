package dom

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Node is an in-process node bound to its Document. Structural changes made
// through Node methods are reported to the document's observers; changes
// made directly on the underlying html.Node are not.
type Node struct {
	n   *html.Node
	doc *Document
}

var _ Element = (*Node)(nil)

// HTML returns the underlying x/net/html node.
func (n *Node) HTML() *html.Node { return n.n }

// Document returns the owning document.
func (n *Node) Document() *Document { return n.doc }

func (n *Node) IsElement() bool { return n.n.Type == html.ElementNode }

func (n *Node) Tag() string {
	if n.n.Type != html.ElementNode {
		return ""
	}
	return n.n.Data
}

func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets an attribute. Attribute changes are not structural and are
// not reported to insertion observers.
func (n *Node) SetAttr(name, value string) error {
	if n.n.Type != html.ElementNode {
		return fmt.Errorf("%w: set %s on %s", ErrNotElement, name, n.Path())
	}
	for i, a := range n.n.Attr {
		if a.Namespace == "" && a.Key == name {
			n.n.Attr[i].Val = value
			return nil
		}
	}
	n.n.Attr = append(n.n.Attr, html.Attribute{Key: name, Val: value})
	return nil
}

// RemoveAttr deletes an attribute if present.
func (n *Node) RemoveAttr(name string) {
	attrs := n.n.Attr[:0]
	for _, a := range n.n.Attr {
		if a.Namespace == "" && a.Key == name {
			continue
		}
		attrs = append(attrs, a)
	}
	n.n.Attr = attrs
}

func (n *Node) SetText(text string) error {
	if n.n.Type != html.ElementNode {
		return fmt.Errorf("%w: set text on %s", ErrNotElement, n.Path())
	}
	return n.ReplaceChildren(n.doc.CreateText(text))
}

// Text returns the concatenated text of the node and its descendants.
func (n *Node) Text() string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		for k := c.FirstChild; k != nil; k = k.NextSibling {
			walk(k)
		}
	}
	walk(n.n)
	return sb.String()
}

func (n *Node) Matches(selector string) (bool, error) {
	return matches(n.n, selector)
}

func (n *Node) QueryAll(selector string) ([]Element, error) {
	found, err := queryAll(n.n, selector)
	if err != nil {
		return nil, err
	}
	out := make([]Element, 0, len(found))
	for _, f := range found {
		out = append(out, n.doc.wrap(f))
	}
	return out, nil
}

// Query returns the first matching descendant, or nil.
func (n *Node) Query(selector string) (*Node, error) {
	found, err := queryAll(n.n, selector)
	if err != nil || len(found) == 0 {
		return nil, err
	}
	return n.doc.wrap(found[0]), nil
}

func (n *Node) Path() string { return xpath(n.n) }

// Parent returns the parent node, or nil for detached nodes and the document.
func (n *Node) Parent() *Node { return n.doc.wrap(n.n.Parent) }

// Children returns the direct children.
func (n *Node) Children() []*Node {
	var out []*Node
	for c := n.n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, n.doc.wrap(c))
	}
	return out
}

// Contains reports whether o is n or one of its descendants.
func (n *Node) Contains(o *Node) bool {
	return o != nil && contains(n.n, o.n)
}

// InnerHTML renders the children of the node.
func (n *Node) InnerHTML() string {
	var sb strings.Builder
	for c := n.n.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&sb, c)
	}
	return sb.String()
}

// OuterHTML renders the node itself.
func (n *Node) OuterHTML() string {
	var sb strings.Builder
	_ = html.Render(&sb, n.n)
	return sb.String()
}

// AppendChild moves child to the end of n's children. A child that is
// already attached elsewhere is detached first, producing a removal record
// on its old parent.
func (n *Node) AppendChild(child *Node) error {
	return n.InsertBefore(child, nil)
}

// InsertBefore inserts child before ref; a nil ref appends.
func (n *Node) InsertBefore(child, ref *Node) error {
	if err := n.checkInsert(child); err != nil {
		return err
	}
	var refNode *html.Node
	if ref != nil {
		if ref.n.Parent != n.n {
			return fmt.Errorf("%w: reference is not a child of %s", ErrHierarchy, n.Path())
		}
		refNode = ref.n
	}
	n.doc.detach(child.n)
	n.n.InsertBefore(child.n, refNode)
	n.doc.record(n.n, []*html.Node{child.n}, nil)
	n.doc.checkpoint()
	return nil
}

// RemoveChild detaches child from n.
func (n *Node) RemoveChild(child *Node) error {
	if child == nil || child.n.Parent != n.n {
		return fmt.Errorf("%w: not a child of %s", ErrHierarchy, n.Path())
	}
	n.n.RemoveChild(child.n)
	n.doc.record(n.n, nil, []*html.Node{child.n})
	n.doc.checkpoint()
	return nil
}

// ReplaceChildren removes all children and appends the given nodes, as one
// mutation record.
func (n *Node) ReplaceChildren(children ...*Node) error {
	for _, c := range children {
		if err := n.checkInsert(c); err != nil {
			return err
		}
	}
	var removed []*html.Node
	for c := n.n.FirstChild; c != nil; {
		next := c.NextSibling
		n.n.RemoveChild(c)
		removed = append(removed, c)
		c = next
	}
	added := make([]*html.Node, 0, len(children))
	for _, c := range children {
		n.doc.detach(c.n)
		n.n.AppendChild(c.n)
		added = append(added, c.n)
	}
	if len(removed) > 0 || len(added) > 0 {
		n.doc.record(n.n, added, removed)
	}
	n.doc.checkpoint()
	return nil
}

// SetInnerHTML parses markup in the context of n and swaps it in as n's
// children. This is the operation fragment-update libraries perform.
func (n *Node) SetInnerHTML(markup string) error {
	nodes, err := n.doc.ParseFragment(n, markup)
	if err != nil {
		return err
	}
	return n.ReplaceChildren(nodes...)
}

func (n *Node) checkInsert(child *Node) error {
	if child == nil {
		return fmt.Errorf("%w: nil child", ErrHierarchy)
	}
	if child.doc != n.doc {
		return ErrForeignNode
	}
	if contains(child.n, n.n) {
		return fmt.Errorf("%w: %s would contain itself", ErrHierarchy, child.Path())
	}
	return nil
}

func contains(ancestor, n *html.Node) bool {
	for c := n; c != nil; c = c.Parent {
		if c == ancestor {
			return true
		}
	}
	return false
}
