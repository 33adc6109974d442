package reactive

// Cell is a single tracked slot owned by an administration: either a stored
// *ObservableValue or a derived *ComputedValue. The variant is fixed when the
// cell is created.
type Cell interface {
	// Get returns the current value and subscribes the running derivation.
	Get() any

	// Peek returns the current value without subscribing.
	Peek() any

	// Name returns the cell's debug name.
	Name() string
}

// ObservableValue is a stored reactive cell: an explicit value, an equality
// comparer and an enhancer applied to every incoming value.
type ObservableValue struct {
	atom *Atom

	value    any
	enhancer Enhancer
	equals   Comparer
}

// NewObservableValue creates a stored cell. A nil enhancer stores values
// as-is; a nil comparer uses DefaultComparer.
func NewObservableValue(rt *Runtime, name string, initial any, enhancer Enhancer, equals Comparer) *ObservableValue {
	if rt == nil {
		rt = defaultRuntime
	}
	if enhancer == nil {
		enhancer = ReferenceEnhancer
	}
	if equals == nil {
		equals = DefaultComparer
	}
	v := &ObservableValue{
		atom:     NewAtom(rt, name),
		enhancer: enhancer,
		equals:   equals,
	}
	v.value = enhancer(rt, initial, Absent, name)
	return v
}

// Get returns the current value and subscribes the current derivation.
func (v *ObservableValue) Get() any {
	v.atom.ReportObserved()
	return v.value
}

// Peek returns the current value without subscribing.
func (v *ObservableValue) Peek() any {
	return v.value
}

// Name returns the cell's debug name.
func (v *ObservableValue) Name() string {
	return v.atom.name
}

// Set enhances value and stores it if it differs from the current value.
// It reports whether the value changed.
func (v *ObservableValue) Set(value any) bool {
	next, changed := v.prepareNewValue(value)
	if changed {
		v.setNewValue(next)
	}
	return changed
}

// prepareNewValue runs the enhancer and compares the result with the current
// value. The second result is false when the write would not be observable.
func (v *ObservableValue) prepareNewValue(value any) (any, bool) {
	next := v.enhancer(v.atom.rt, value, v.value, v.atom.name)
	if v.equals(v.value, next) {
		return nil, false
	}
	return next, true
}

// setNewValue stores an already prepared value and notifies subscribers.
func (v *ObservableValue) setNewValue(value any) {
	v.value = value
	v.atom.ReportChanged()
}
