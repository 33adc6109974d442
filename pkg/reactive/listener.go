package reactive

// Listener is anything that can be notified when a dependency changes.
// Computed values and reactions implement it.
type Listener interface {
	// MarkDirty notifies the listener that one of its dependencies has changed.
	// For computed values this invalidates the cached result.
	// For reactions this schedules a re-run at the end of the current batch.
	MarkDirty()

	// ID returns a unique identifier for this listener.
	ID() uint64
}

// derivation is a Listener that records the atoms it reads while running.
type derivation interface {
	Listener
	addSource(a *Atom)
}

// Disposer cancels a registration. Calling it more than once is a no-op.
type Disposer func()

// once wraps fn so it runs at most one time.
func once(fn func()) Disposer {
	done := false
	return func() {
		if done {
			return
		}
		done = true
		fn()
	}
}
