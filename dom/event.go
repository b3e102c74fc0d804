package dom

// Event is a named notification dispatched on a document, such as a
// fragment-update library's "fragment inserted" signal.
type Event struct {
	Name   string
	Target *Node
	Detail any
}

type listener struct {
	id int
	fn func(Event)
}

// AddEventListener registers fn for events with the given name and returns
// a function that removes it.
func (d *Document) AddEventListener(name string, fn func(Event)) (remove func()) {
	d.nextID++
	l := &listener{id: d.nextID, fn: fn}
	d.listeners[name] = append(d.listeners[name], l)
	return func() {
		ls := d.listeners[name]
		for i, other := range ls {
			if other.id == l.id {
				d.listeners[name] = append(ls[:i:i], ls[i+1:]...)
				return
			}
		}
	}
}

// Dispatch runs the listeners for ev.Name synchronously, in registration
// order, then delivers any mutation records they produced.
func (d *Document) Dispatch(ev Event) {
	if ev.Target == nil {
		ev.Target = d.Root()
	}
	for _, l := range append([]*listener(nil), d.listeners[ev.Name]...) {
		l.fn(ev)
	}
	d.checkpoint()
}
