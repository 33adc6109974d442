package reactive

// hookList is an ordered registry of callbacks. Registration order is call
// order; disposing an entry removes only that entry.
type hookList[T any] struct {
	entries []*hookEntry[T]
}

type hookEntry[T any] struct {
	fn T
}

// add registers fn and returns a Disposer that deregisters it.
func (l *hookList[T]) add(fn T) Disposer {
	e := &hookEntry[T]{fn: fn}
	l.entries = append(l.entries, e)
	return once(func() {
		for i, existing := range l.entries {
			if existing == e {
				l.entries = append(l.entries[:i:i], l.entries[i+1:]...)
				return
			}
		}
	})
}

// len returns the number of registered callbacks.
func (l *hookList[T]) len() int {
	return len(l.entries)
}

// snapshot copies the callbacks so they can be invoked while the list is
// being modified.
func (l *hookList[T]) snapshot() []T {
	fns := make([]T, len(l.entries))
	for i, e := range l.entries {
		fns[i] = e.fn
	}
	return fns
}

// interceptChange runs change through every interceptor in order, untracked.
// It returns nil as soon as one of them vetoes.
func interceptChange(rt *Runtime, interceptors *hookList[Interceptor], change *Change) *Change {
	rt.Untracked(func() {
		for _, fn := range interceptors.snapshot() {
			change = fn(change)
			if change == nil {
				return
			}
		}
	})
	return change
}

// notifyListeners delivers change to every listener registered now. Delivery
// is deferred to the end of the open batch, if any, and runs untracked.
func notifyListeners(rt *Runtime, listeners *hookList[ChangeListener], change Change) {
	fns := listeners.snapshot()
	if len(fns) == 0 {
		return
	}
	rt.deliver(func() {
		rt.Untracked(func() {
			for _, fn := range fns {
				fn(change)
			}
		})
	})
}
