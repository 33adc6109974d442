package reactive

// Atom is the smallest observable unit: it has no value of its own, it only
// records who read it and tells them when it changed. Stored cells, derived
// cells and the administration's key-set marker are all built on it.
type Atom struct {
	id   uint64
	name string
	rt   *Runtime

	// subs are the listeners subscribed to this atom, in subscription order.
	subs []Listener
}

// NewAtom creates an atom bound to rt. A nil rt uses the default runtime.
func NewAtom(rt *Runtime, name string) *Atom {
	if rt == nil {
		rt = defaultRuntime
	}
	return &Atom{id: nextID(), name: name, rt: rt}
}

// Name returns the atom's debug name.
func (a *Atom) Name() string {
	return a.name
}

// ID returns the unique identifier for this atom.
func (a *Atom) ID() uint64 {
	return a.id
}

// ReportObserved subscribes the runtime's current derivation, if any.
// It returns true when a dependency was recorded.
func (a *Atom) ReportObserved() bool {
	d := a.rt.current
	if d == nil {
		return false
	}
	a.subscribe(d)
	d.addSource(a)
	return true
}

// ReportChanged marks every subscriber dirty. Reactions triggered by the
// change run when the enclosing batch ends.
func (a *Atom) ReportChanged() {
	a.rt.StartBatch()
	defer a.rt.EndBatch()

	// Copy so subscribers can unsubscribe while being notified.
	subs := make([]Listener, len(a.subs))
	copy(subs, a.subs)
	for _, sub := range subs {
		sub.MarkDirty()
	}
}

// Observed reports whether anything is subscribed to the atom.
func (a *Atom) Observed() bool {
	return len(a.subs) > 0
}

// subscribe adds a listener, deduplicated by ID.
func (a *Atom) subscribe(l Listener) {
	lid := l.ID()
	for _, existing := range a.subs {
		if existing.ID() == lid {
			return
		}
	}
	a.subs = append(a.subs, l)
}

// unsubscribe removes a listener, keeping the order of the rest.
func (a *Atom) unsubscribe(l Listener) {
	lid := l.ID()
	for i, existing := range a.subs {
		if existing.ID() == lid {
			a.subs = append(a.subs[:i], a.subs[i+1:]...)
			return
		}
	}
}
