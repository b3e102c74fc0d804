package domwatch

import (
	"github.com/hazyhaar/timewatch/dom"
)

// Page is a document the renderer can scan and watch. It is implemented by
// DocumentPage for in-process documents and by live browser tabs.
type Page interface {
	// Document returns the document root, or nil when it cannot be resolved.
	Document() dom.Element

	// Body returns the body element, or nil when the document has none.
	Body() dom.Element

	// ObserveInsertions calls fn with the nodes added by each structural
	// change under scope, including changes deep inside it. Attribute and
	// text changes are not reported.
	ObserveInsertions(scope dom.Element, fn func(added []dom.Element)) error

	// Listen calls fn each time the named event is dispatched on the
	// document.
	Listen(event string, fn func()) error
}

// DocumentPage is a Page over an in-process dom.Document. Like the document
// itself it is not safe for concurrent use.
type DocumentPage struct {
	doc *dom.Document
}

var _ Page = (*DocumentPage)(nil)

// NewDocumentPage wraps doc.
func NewDocumentPage(doc *dom.Document) *DocumentPage {
	return &DocumentPage{doc: doc}
}

// Doc returns the wrapped document.
func (p *DocumentPage) Doc() *dom.Document { return p.doc }

func (p *DocumentPage) Document() dom.Element { return p.doc.Root() }

func (p *DocumentPage) Body() dom.Element {
	if b := p.doc.Body(); b != nil {
		return b
	}
	return nil
}

func (p *DocumentPage) ObserveInsertions(scope dom.Element, fn func(added []dom.Element)) error {
	n, ok := scope.(*dom.Node)
	if !ok || n == nil || n.Document() != p.doc {
		return ErrForeignScope
	}
	_, err := p.doc.Observe(n, true, func(records []dom.MutationRecord) {
		var added []dom.Element
		for _, r := range records {
			for _, a := range r.Added {
				added = append(added, a)
			}
		}
		if len(added) > 0 {
			fn(added)
		}
	})
	return err
}

func (p *DocumentPage) Listen(event string, fn func()) error {
	p.doc.AddEventListener(event, func(dom.Event) { fn() })
	return nil
}
