package node

import "slices"

// listeners is an ordered listener set. Notification iterates over a
// stable snapshot of the registered ids so that subscribing or
// unsubscribing from within a callback cannot corrupt the in-progress
// iteration; a listener removed mid-dispatch is not called.
type listeners[T any] struct {
	fns  map[int]T
	next int
}

func (l *listeners[T]) add(fn T) func() {
	if l.fns == nil {
		l.fns = map[int]T{}
	}
	id := l.next
	l.next++
	l.fns[id] = fn
	return func() {
		delete(l.fns, id)
	}
}

func (l *listeners[T]) each(call func(T)) {
	if len(l.fns) == 0 {
		return
	}
	ids := make([]int, 0, len(l.fns))
	for id := range l.fns {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		if fn, ok := l.fns[id]; ok {
			call(fn)
		}
	}
}

func (l *listeners[T]) len() int {
	return len(l.fns)
}

func (l *listeners[T]) clear() {
	l.fns = nil
}
