package formmodel

import "slices"

// Handle identifies a registered listener for removal.
type Handle struct{ _ byte }

type listenerEntry[E any] struct {
	handle *Handle
	fn     func(E)
}

// listenerList keeps listeners in registration order.
type listenerList[E any] struct {
	entries []listenerEntry[E]
}

func (l *listenerList[E]) add(fn func(E)) *Handle {
	h := &Handle{}
	l.entries = append(l.entries, listenerEntry[E]{handle: h, fn: fn})
	return h
}

func (l *listenerList[E]) remove(h *Handle) bool {
	for i, e := range l.entries {
		if e.handle == h {
			l.entries = slices.Delete(l.entries, i, i+1)
			return true
		}
	}
	return false
}

// fire calls a snapshot of the listeners so that listeners may add or
// remove listeners while being notified.
func (l *listenerList[E]) fire(ev E) {
	for _, e := range slices.Clone(l.entries) {
		e.fn(ev)
	}
}

