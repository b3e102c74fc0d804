// Package dom is the document model the timestamp renderer works on.
//
// It has two halves. Element is the narrow view of a node the renderer
// needs (attributes, text, selector queries) and is implemented both by
// in-process nodes and by elements of a live browser tab. Document is the
// in-process implementation: an x/net/html tree whose structural changes are
// reported to insertion observers, and which dispatches named events such as
// a fragment-update library's "fragment inserted" signal.
package dom

// Element is a node the renderer can inspect and annotate.
//
// Writes may fail for elements backed by a remote page; in-process nodes
// only fail on programming errors (writing attributes on a text node).
type Element interface {
	// IsElement reports whether the node is an element node. Documents,
	// text and comments are not.
	IsElement() bool

	// Tag returns the lower-case tag name, or "" for non-elements.
	Tag() string

	// Attr returns the value of the named attribute and whether it is set.
	Attr(name string) (string, bool)

	// SetAttr creates or replaces an attribute.
	SetAttr(name, value string) error

	// SetText replaces all children with a single text node.
	SetText(text string) error

	// Matches reports whether the node itself matches a CSS selector.
	Matches(selector string) (bool, error)

	// QueryAll returns the descendants matching a CSS selector, in document
	// order. The node itself is never part of the result.
	QueryAll(selector string) ([]Element, error)

	// Path returns an XPath-like location used in reports and logs.
	Path() string
}
