package reactive

// ComputedValue is a derived reactive cell: a cached computation that tracks
// the cells it reads. When any of them changes the cache is invalidated and
// the next read recomputes.
//
// Computed values are lazy: they only compute when read. If several
// dependencies change before a read, the computation runs once.
type ComputedValue struct {
	atom *Atom

	compute func() any
	setter  func(any)
	equals  Comparer

	// value is the cached result, valid when valid is true.
	value any
	valid bool

	// sources are the atoms read during the last computation.
	sources []*Atom

	// computing guards against circular dependencies.
	computing bool

	// runningSetter guards against a setter assigning to itself.
	runningSetter bool
}

// ComputedOption configures a ComputedValue.
type ComputedOption func(*ComputedValue)

// WithSetter makes the computed value writable: assignments are forwarded to
// fn instead of being stored.
func WithSetter(fn func(any)) ComputedOption {
	return func(c *ComputedValue) {
		c.setter = fn
	}
}

// WithComputedEquals sets the comparer used to decide whether a recomputed
// result differs from the cached one.
func WithComputedEquals(fn Comparer) ComputedOption {
	return func(c *ComputedValue) {
		c.equals = fn
	}
}

// NewComputedValue creates a derived cell. The computation does not run until
// the first read.
func NewComputedValue(rt *Runtime, name string, compute func() any, opts ...ComputedOption) *ComputedValue {
	c := &ComputedValue{
		atom:    NewAtom(rt, name),
		compute: compute,
		equals:  DefaultComparer,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the computed value, recomputing if necessary, and subscribes
// the current derivation.
func (c *ComputedValue) Get() any {
	c.atom.ReportObserved()
	if !c.valid {
		c.recompute()
	}
	return c.value
}

// Peek returns the computed value without subscribing. It still recomputes
// when the cache is invalid.
func (c *ComputedValue) Peek() any {
	if !c.valid {
		c.recompute()
	}
	return c.value
}

// Name returns the cell's debug name.
func (c *ComputedValue) Name() string {
	return c.atom.name
}

// Writable reports whether the computed value has a setter.
func (c *ComputedValue) Writable() bool {
	return c.setter != nil
}

// Set forwards value to the setter. The setter runs untracked inside a batch.
func (c *ComputedValue) Set(value any) error {
	if c.setter == nil {
		return errNotWritable(c.atom.name)
	}
	if c.runningSetter {
		return errSetterCycle(c.atom.name)
	}
	c.runningSetter = true
	defer func() { c.runningSetter = false }()

	rt := c.atom.rt
	rt.StartBatch()
	defer rt.EndBatch()
	rt.Untracked(func() {
		c.setter(value)
	})
	return nil
}

// MarkDirty invalidates the cache and propagates to subscribers.
// Implements the Listener interface.
func (c *ComputedValue) MarkDirty() {
	if !c.valid {
		return
	}
	c.valid = false
	c.atom.ReportChanged()
}

// ID returns the unique identifier for this computed value.
// Implements the Listener interface.
func (c *ComputedValue) ID() uint64 {
	return c.atom.id
}

// addSource records a dependency read during computation.
func (c *ComputedValue) addSource(a *Atom) {
	for _, s := range c.sources {
		if s == a {
			return
		}
	}
	c.sources = append(c.sources, a)
}

// recompute runs the computation and updates the cached value.
func (c *ComputedValue) recompute() {
	// A computation reading itself is a cycle. Production mode logs it and
	// hands back the previous value.
	if c.computing {
		if !ProductionMode {
			panic(errComputedCycle(c.Name()))
		}
		c.atom.rt.Logger().Error("computed value reads itself", "computed", c.Name())
		return
	}
	c.computing = true
	defer func() { c.computing = false }()

	for _, source := range c.sources {
		source.unsubscribe(c)
	}
	c.sources = c.sources[:0]

	var next any
	c.atom.rt.track(c, func() {
		next = c.compute()
	})

	// Keep the cached value when the comparer considers the result unchanged.
	if !c.equals(c.value, next) {
		c.value = next
	}
	c.valid = true
}

var _ derivation = (*ComputedValue)(nil)
