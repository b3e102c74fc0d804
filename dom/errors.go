package dom

import "errors"

// ErrInvalidSelector is returned when a CSS selector does not compile.
var ErrInvalidSelector = errors.New("dom: invalid selector")

// ErrNotElement is returned when an element-only operation targets a text,
// comment or document node.
var ErrNotElement = errors.New("dom: not an element")

// ErrForeignNode is returned when a node from another document is passed to
// a tree operation.
var ErrForeignNode = errors.New("dom: node belongs to another document")

// ErrHierarchy is returned when an insertion would make a node its own
// ancestor, or when a reference node is not a child of the target.
var ErrHierarchy = errors.New("dom: hierarchy request error")
