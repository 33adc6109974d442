package reactive

import (
	"log/slog"
)

// DefaultMaxFlushIterations bounds how many rounds of queued work a single
// outermost batch may flush. A reaction that keeps invalidating itself would
// otherwise loop forever.
const DefaultMaxFlushIterations = 100

// Runtime is the tracking context shared by every cell, reaction and
// administration created against it. It holds the derivation that is
// currently collecting dependencies and the batching coordinator state.
//
// A Runtime is not safe for concurrent use. All operations on cells and
// administrations bound to one Runtime must happen on one goroutine at a time;
// reentrancy (a listener writing from inside a notification) is supported.
type Runtime struct {
	// current is the derivation collecting dependencies.
	// nil means reads do not create subscriptions.
	current derivation

	// batchDepth tracks nested StartBatch calls.
	// While > 0, deliveries and reactions are queued instead of run.
	batchDepth int

	// pending holds queued work in the order it was scheduled.
	pending []queued

	// flushing is set while pending work is being drained.
	flushing bool

	maxIterations int
	spy           Spy
	logger        *slog.Logger
}

// queued is one unit of deferred work. drop, when set, is called instead of
// run if the flush bound discards the work.
type queued struct {
	run  func()
	drop func()
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithLogger sets the logger used for reaction failures and debug output.
func WithLogger(logger *slog.Logger) RuntimeOption {
	return func(rt *Runtime) {
		rt.logger = logger
	}
}

// WithSpy installs a spy receiving change, transaction and reaction events.
func WithSpy(spy Spy) RuntimeOption {
	return func(rt *Runtime) {
		rt.spy = spy
	}
}

// WithMaxFlushIterations overrides DefaultMaxFlushIterations.
func WithMaxFlushIterations(n int) RuntimeOption {
	return func(rt *Runtime) {
		if n > 0 {
			rt.maxIterations = n
		}
	}
}

// NewRuntime creates an independent tracking context.
func NewRuntime(opts ...RuntimeOption) *Runtime {
	rt := &Runtime{
		maxIterations: DefaultMaxFlushIterations,
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

var defaultRuntime = NewRuntime()

// DefaultRuntime returns the process-wide runtime used when no runtime is
// passed explicitly.
func DefaultRuntime() *Runtime {
	return defaultRuntime
}

// SetSpy replaces the runtime's spy. Passing nil disables spying.
func (rt *Runtime) SetSpy(spy Spy) {
	rt.spy = spy
}

// Logger returns the runtime's logger, falling back to slog.Default().
func (rt *Runtime) Logger() *slog.Logger {
	if rt.logger != nil {
		return rt.logger
	}
	return slog.Default()
}

// =============================================================================
// Dependency tracking
// =============================================================================

// track runs fn with d collecting dependencies.
func (rt *Runtime) track(d derivation, fn func()) {
	old := rt.current
	rt.current = d
	defer func() { rt.current = old }()
	fn()
}

// Untracked runs fn without recording reads as dependencies of the
// derivation that is currently running.
func (rt *Runtime) Untracked(fn func()) {
	old := rt.current
	rt.current = nil
	defer func() { rt.current = old }()
	fn()
}

// Tracking reports whether a derivation is currently collecting dependencies.
func (rt *Runtime) Tracking() bool {
	return rt.current != nil
}

// =============================================================================
// Batching coordinator
// =============================================================================

// StartBatch opens a (possibly nested) batch.
func (rt *Runtime) StartBatch() {
	rt.batchDepth++
}

// EndBatch closes a batch. When the outermost batch closes, all queued
// deliveries and reactions run in the order they were queued.
func (rt *Runtime) EndBatch() {
	if rt.batchDepth == 0 {
		return
	}
	rt.batchDepth--
	if rt.batchDepth == 0 {
		rt.flush()
	}
}

// BatchDepth returns the current batch nesting depth.
func (rt *Runtime) BatchDepth() int {
	return rt.batchDepth
}

// InBatch reports whether a batch is open.
func (rt *Runtime) InBatch() bool {
	return rt.batchDepth > 0
}

// Transaction runs fn inside a batch. Listener deliveries and reactions
// triggered by fn are deferred until the outermost transaction ends.
// Transactions can be nested.
//
// Example:
//
//	rt.Transaction(func() {
//	    _ = adm.Write("first", "John")
//	    _ = adm.Write("last", "Doe")
//	})
//	// listeners see both updates here, in order
func (rt *Runtime) Transaction(fn func()) {
	rt.TxNamed("", fn)
}

// TxNamed runs fn as a named transaction. The name is reported to the spy
// and logged when Debug.LogTransactions is set.
func (rt *Runtime) TxNamed(name string, fn func()) {
	rt.StartBatch()
	depth := rt.batchDepth
	if Debug.LogTransactions {
		rt.Logger().Debug("transaction start", "name", name, "depth", depth)
	}
	rt.report(Event{Kind: EventTransactionStart, Name: name, Depth: depth})

	defer func() {
		rt.report(Event{Kind: EventTransactionEnd, Name: name, Depth: depth - 1})
		if Debug.LogTransactions {
			rt.Logger().Debug("transaction end", "name", name, "depth", depth-1)
		}
		rt.EndBatch()
	}()

	fn()
}

// schedule queues work for the end of the current batch. Outside a batch the
// work runs immediately. drop is called if the flush bound discards the work.
func (rt *Runtime) schedule(fn func(), drop func()) {
	if rt.batchDepth > 0 || rt.flushing {
		rt.pending = append(rt.pending, queued{run: fn, drop: drop})
		return
	}
	fn()
}

// deliver runs fn now, or at the end of the open batch if there is one.
func (rt *Runtime) deliver(fn func()) {
	if rt.batchDepth > 0 {
		rt.pending = append(rt.pending, queued{run: fn})
		return
	}
	fn()
}

// flush drains the pending queue. Work scheduled while flushing is picked up
// by the next round. A panicking item is logged and the rest of the queue
// still runs.
func (rt *Runtime) flush() {
	if rt.flushing {
		return
	}
	rt.flushing = true
	defer func() { rt.flushing = false }()

	for round := 0; len(rt.pending) > 0; round++ {
		if round >= rt.maxIterations {
			dropped := rt.pending
			rt.pending = nil
			rt.Logger().Error("reactions did not converge, dropping queued work",
				"iterations", rt.maxIterations,
				"dropped", len(dropped))
			for _, q := range dropped {
				if q.drop != nil {
					q.drop()
				}
			}
			return
		}
		queue := rt.pending
		rt.pending = nil
		for _, q := range queue {
			rt.runQueued(q.run)
		}
	}
}

func (rt *Runtime) runQueued(fn func()) {
	defer func() {
		if p := recover(); p != nil {
			rt.Logger().Error("uncaught panic in queued work", "panic", p)
		}
	}()
	fn()
}

// report forwards ev to the spy, if any.
func (rt *Runtime) report(ev Event) {
	if rt.spy != nil {
		rt.spy.SpyEvent(ev)
	}
}

// Transaction runs fn inside a batch on the default runtime.
func Transaction(fn func()) {
	defaultRuntime.Transaction(fn)
}

// Untracked runs fn on the default runtime without tracking reads.
func Untracked(fn func()) {
	defaultRuntime.Untracked(fn)
}
