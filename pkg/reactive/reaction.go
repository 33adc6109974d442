package reactive

import (
	"fmt"
	"time"
)

// Reaction is a side effect that re-runs when the cells it read change.
// Re-runs are queued and happen when the outermost batch ends, so a
// transaction touching several dependencies triggers a single re-run.
type Reaction struct {
	id   uint64
	name string
	rt   *Runtime

	// fn is the tracked body.
	fn func()

	// sources are the atoms read during the last run.
	sources []*Atom

	// scheduled indicates a re-run is queued.
	scheduled bool

	// disposed reactions never run again.
	disposed bool

	runs int
}

// NewReaction creates a reaction without running it. Call Run to perform the
// first tracked run.
func NewReaction(rt *Runtime, name string, fn func()) *Reaction {
	if rt == nil {
		rt = defaultRuntime
	}
	id := nextID()
	if name == "" {
		name = fmt.Sprintf("Reaction@%d", id)
	}
	return &Reaction{id: id, name: name, rt: rt, fn: fn}
}

// Autorun creates a reaction on rt and runs it immediately. The returned
// Disposer stops it.
//
// Example:
//
//	stop := reactive.Autorun(rt, func() {
//	    fmt.Println("has title:", adm.Has("title"))
//	})
//	defer stop()
func Autorun(rt *Runtime, fn func()) Disposer {
	r := NewReaction(rt, "", fn)
	r.Run()
	return r.Dispose
}

// Name returns the reaction's debug name.
func (r *Reaction) Name() string {
	return r.name
}

// Runs returns how many times the reaction body has executed.
func (r *Reaction) Runs() int {
	return r.runs
}

// MarkDirty queues the reaction for a re-run.
// Implements the Listener interface.
func (r *Reaction) MarkDirty() {
	if r.disposed || r.scheduled {
		return
	}
	r.scheduled = true
	r.rt.schedule(r.run, r.unschedule)
}

// unschedule forgets a queued re-run that was dropped, so the next change
// schedules the reaction again.
func (r *Reaction) unschedule() {
	r.scheduled = false
}

// ID returns the unique identifier for this reaction.
// Implements the Listener interface.
func (r *Reaction) ID() uint64 {
	return r.id
}

// Run executes the reaction now, inside a batch.
func (r *Reaction) Run() {
	r.rt.StartBatch()
	defer r.rt.EndBatch()
	r.run()
}

// Dispose stops the reaction and drops all subscriptions.
func (r *Reaction) Dispose() {
	if r.disposed {
		return
	}
	r.disposed = true
	r.clearSources()
}

// Disposed reports whether Dispose has been called.
func (r *Reaction) Disposed() bool {
	return r.disposed
}

// addSource records a dependency read during the run.
func (r *Reaction) addSource(a *Atom) {
	for _, s := range r.sources {
		if s == a {
			return
		}
	}
	r.sources = append(r.sources, a)
}

func (r *Reaction) clearSources() {
	for _, source := range r.sources {
		source.unsubscribe(r)
	}
	r.sources = nil
}

// run executes the body once. Panics are recovered and logged so one failing
// reaction does not stop the rest of the queue.
func (r *Reaction) run() {
	r.scheduled = false
	if r.disposed {
		return
	}
	r.clearSources()
	r.runs++

	r.rt.report(Event{Kind: EventReactionStart, Name: r.name})
	start := time.Now()

	var runErr error
	func() {
		defer func() {
			if p := recover(); p != nil {
				runErr = fmt.Errorf("reaction %s panicked: %v", r.name, p)
				r.rt.Logger().Error("uncaught panic in reaction", "reaction", r.name, "panic", p)
			}
		}()
		r.rt.track(r, r.fn)
	}()

	elapsed := time.Since(start)
	if Debug.LogReactions {
		r.rt.Logger().Debug("reaction ran", "reaction", r.name, "run", r.runs, "duration", elapsed)
	}
	r.rt.report(Event{Kind: EventReactionEnd, Name: r.name, Duration: elapsed, Err: runErr})
}

var _ derivation = (*Reaction)(nil)
