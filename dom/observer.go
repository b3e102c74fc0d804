package dom

import "golang.org/x/net/html"

// MutationRecord describes one structural change: nodes added to and
// removed from Target's child list.
type MutationRecord struct {
	Target  *Node
	Added   []*Node
	Removed []*Node
}

// ObserverFunc receives the records collected since the last delivery.
type ObserverFunc func(records []MutationRecord)

// Observer watches child-list changes under a scope node. Attribute and
// text-content changes are not observed.
type Observer struct {
	doc     *Document
	scope   *html.Node
	subtree bool
	fn      ObserverFunc
	pending []MutationRecord
	active  bool
}

// Observe registers fn for child-list changes on scope, and on all of its
// descendants when subtree is true.
func (d *Document) Observe(scope *Node, subtree bool, fn ObserverFunc) (*Observer, error) {
	if scope == nil || scope.doc != d {
		return nil, ErrForeignNode
	}
	o := &Observer{doc: d, scope: scope.n, subtree: subtree, fn: fn, active: true}
	d.observers = append(d.observers, o)
	return o, nil
}

// Disconnect stops delivery and drops pending records.
func (o *Observer) Disconnect() {
	o.active = false
	o.pending = nil
	obs := o.doc.observers[:0]
	for _, other := range o.doc.observers {
		if other != o {
			obs = append(obs, other)
		}
	}
	o.doc.observers = obs
}

// TakeRecords returns and clears the records not yet delivered.
func (o *Observer) TakeRecords() []MutationRecord {
	recs := o.pending
	o.pending = nil
	return recs
}

func (o *Observer) interested(target *html.Node) bool {
	if target == o.scope {
		return true
	}
	return o.subtree && contains(o.scope, target)
}

// record queues a child-list record for every interested observer.
func (d *Document) record(target *html.Node, added, removed []*html.Node) {
	for _, o := range d.observers {
		if !o.active || !o.interested(target) {
			continue
		}
		o.pending = append(o.pending, MutationRecord{
			Target:  d.wrap(target),
			Added:   d.wrapAll(added),
			Removed: d.wrapAll(removed),
		})
	}
}

func (d *Document) wrapAll(nodes []*html.Node) []*Node {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]*Node, len(nodes))
	for i, n := range nodes {
		out[i] = d.wrap(n)
	}
	return out
}

// checkpoint drains pending records. Nested calls return immediately; the
// outer loop picks up whatever the callbacks produced.
func (d *Document) checkpoint() {
	if d.delivering {
		return
	}
	d.delivering = true
	defer func() { d.delivering = false }()

	for {
		delivered := false
		for _, o := range append([]*Observer(nil), d.observers...) {
			if !o.active || len(o.pending) == 0 {
				continue
			}
			batch := o.TakeRecords()
			o.fn(batch)
			delivered = true
		}
		if !delivered {
			return
		}
	}
}
