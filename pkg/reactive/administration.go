package reactive

import (
	"weak"
)

// Administration is the per-target registry of reactive properties. It owns
// the cells backing each declared key, the lazily created existence cells
// used by Has, a key-set marker, and the interceptors and listeners attached
// to the target.
//
// Every read and write of a declared property goes through Read and Write, so
// dependency tracking, interception, batching and notification all happen in
// one place. An Administration is created once per target by
// CreateAdministration and lives as long as the target.
type Administration struct {
	id     uint64
	name   string
	target Target
	rt     *Runtime

	defaultEnhancer Enhancer
	defaultEquals   Comparer

	// cells maps normalized keys to cells; order keeps declaration order.
	cells map[PropertyKey]Cell
	order []PropertyKey

	// pendingKeys holds existence cells, created on first Has per key.
	pendingKeys map[PropertyKey]*ObservableValue

	// keysAtom changes whenever a key is added or removed.
	keysAtom *Atom

	interceptors hookList[Interceptor]
	listeners    hookList[ChangeListener]

	// view is the dynamic view bound to this administration, if any. The
	// reference is weak: the view does not outlive its users on our account.
	view weak.Pointer[DynamicView]
}

func newAdministration(target Target, name string, rt *Runtime, enhancer Enhancer, equals Comparer) *Administration {
	return &Administration{
		id:              nextID(),
		name:            name,
		target:          target,
		rt:              rt,
		defaultEnhancer: enhancer,
		defaultEquals:   equals,
		cells:           make(map[PropertyKey]Cell),
		keysAtom:        NewAtom(rt, name+".keys"),
	}
}

// Name returns the administration's debug name.
func (a *Administration) Name() string {
	return a.name
}

// Target returns the administered target.
func (a *Administration) Target() Target {
	return a.target
}

// Runtime returns the tracking context the administration's cells use.
func (a *Administration) Runtime() *Runtime {
	return a.rt
}

// View returns the bound dynamic view, or nil.
func (a *Administration) View() *DynamicView {
	return a.view.Value()
}

// Cell returns the cell declared for key.
func (a *Administration) Cell(key any) (Cell, bool) {
	k, ok := NormalizeKey(key)
	if !ok {
		return nil, false
	}
	c, ok := a.cells[k]
	return c, ok
}

// object is what change records point at: the view when bound, else the target.
func (a *Administration) object() any {
	if v := a.view.Value(); v != nil {
		return v
	}
	return a.target
}

func (a *Administration) normalize(key any) (PropertyKey, error) {
	k, ok := NormalizeKey(key)
	if !ok {
		return nil, errInvalidKey(a.name, key)
	}
	return k, nil
}

func (a *Administration) cellName(key PropertyKey) string {
	return a.name + "." + StringifyKey(key)
}

// Read returns the value of a declared property and records the access with
// the derivation currently running.
func (a *Administration) Read(key any) (any, error) {
	k, err := a.normalize(key)
	if err != nil {
		return nil, err
	}
	c, ok := a.cells[k]
	if !ok {
		return nil, errMissingKey(a.name, k)
	}
	return c.Get(), nil
}

// Write assigns a declared property.
//
// Computed properties forward the value to their setter. Stored properties
// run the interceptors, apply the cell's enhancer and drop the write when the
// result equals the current value. Otherwise the value is stored and an
// update is delivered to listeners, at the end of the open transaction if
// there is one.
func (a *Administration) Write(key any, newValue any) error {
	k, err := a.normalize(key)
	if err != nil {
		return err
	}
	c, ok := a.cells[k]
	if !ok {
		return errMissingKey(a.name, k)
	}

	switch cell := c.(type) {
	case *ComputedValue:
		return cell.Set(newValue)

	case *ObservableValue:
		if a.interceptors.len() > 0 {
			change := interceptChange(a.rt, &a.interceptors, &Change{
				Type:     ChangeUpdate,
				Object:   a.object(),
				Name:     k,
				NewValue: newValue,
			})
			if change == nil {
				a.reportVeto(ChangeUpdate, k)
				return nil
			}
			newValue = change.NewValue
		}

		prepared, changed := cell.prepareNewValue(newValue)
		if !changed {
			return nil
		}

		change := Change{
			Type:     ChangeUpdate,
			Object:   a.object(),
			Name:     k,
			OldValue: cell.value,
			NewValue: prepared,
		}
		cell.setNewValue(prepared)
		notifyListeners(a.rt, &a.listeners, change)
		a.reportChange(change)
		return nil
	}
	return errUnsupported(a.name, "unknown cell type")
}

// Set is the generic set-property entry point: it writes a declared key and
// declares a new observable property, with the default enhancer, otherwise.
func (a *Administration) Set(key any, value any) error {
	k, err := a.normalize(key)
	if err != nil {
		return err
	}
	if _, ok := a.cells[k]; ok {
		return a.Write(k, value)
	}
	return a.AddObservableProp(k, value, nil)
}

// Has reports whether key is declared. The answer is itself reactive: a
// derivation calling Has is re-run when the key is later added or removed,
// even if it did not exist at the time of the call.
func (a *Administration) Has(key any) bool {
	k, ok := NormalizeKey(key)
	if !ok {
		return false
	}
	if a.pendingKeys == nil {
		a.pendingKeys = make(map[PropertyKey]*ObservableValue)
	}
	entry, ok := a.pendingKeys[k]
	if !ok {
		_, exists := a.cells[k]
		entry = NewObservableValue(a.rt, a.cellName(k)+"?", exists, ReferenceEnhancer, IdentityComparer)
		a.pendingKeys[k] = entry
	}
	return entry.Get().(bool)
}

// AddObservableProp declares a stored property initialized to value. A nil
// enhancer uses the administration's default.
//
// It fails with ErrNotConfigurable when the key is already declared or the
// target holds a non-configurable property with that key. An interceptor
// veto cancels the declaration silently.
func (a *Administration) AddObservableProp(key any, value any, enhancer Enhancer) error {
	return a.addObservableProp(key, value, enhancer, nil)
}

func (a *Administration) addObservableProp(key any, value any, enhancer Enhancer, equals Comparer) error {
	k, err := a.normalize(key)
	if err != nil {
		return err
	}
	if _, ok := a.cells[k]; ok {
		return errAlreadyDeclared(a.name, k)
	}
	if !ProductionMode {
		if d, ok := a.target.Descriptor(k); ok && !d.Configurable {
			return errNotConfigurable(a.name, k)
		}
	}
	if enhancer == nil {
		enhancer = a.defaultEnhancer
	}
	if equals == nil {
		equals = a.defaultEquals
	}

	if a.interceptors.len() > 0 {
		change := interceptChange(a.rt, &a.interceptors, &Change{
			Type:     ChangeAdd,
			Object:   a.object(),
			Name:     k,
			NewValue: value,
		})
		if change == nil {
			a.reportVeto(ChangeAdd, k)
			return nil
		}
		value = change.NewValue
	}

	cell := NewObservableValue(a.rt, a.cellName(k), value, enhancer, equals)
	if err := a.target.DefineOwn(k, a.propertyDescriptor(k, true)); err != nil {
		return err
	}
	a.install(k, cell)
	a.notifyPropertyAddition(k, cell.value)
	return nil
}

// AddComputedProp declares a derived property. Assignments are forwarded to
// the setter given with WithSetter and fail without one.
//
// Computed properties are not part of the enumerable data of the object, so
// no add change is delivered and Keys does not list them.
func (a *Administration) AddComputedProp(key any, compute func() any, opts ...ComputedOption) error {
	k, err := a.normalize(key)
	if err != nil {
		return err
	}
	if _, ok := a.cells[k]; ok {
		return errAlreadyDeclared(a.name, k)
	}
	cell := NewComputedValue(a.rt, a.cellName(k), compute, opts...)
	if err := a.target.DefineOwn(k, a.propertyDescriptor(k, false)); err != nil {
		return err
	}
	a.install(k, cell)
	if entry, ok := a.pendingKeys[k]; ok {
		entry.Set(true)
	}
	return nil
}

// Remove deletes a declared property. Removing a key that is not declared is
// a no-op; an interceptor veto cancels the removal silently.
//
// The removal runs in a single transaction: the cell is set to Absent, the
// key is dropped from the cells and the target, its existence cell flips to
// false, the key set changes, and listeners receive the remove change.
func (a *Administration) Remove(key any) {
	k, ok := NormalizeKey(key)
	if !ok {
		return
	}
	c, ok := a.cells[k]
	if !ok {
		return
	}
	if a.interceptors.len() > 0 {
		change := interceptChange(a.rt, &a.interceptors, &Change{
			Type:   ChangeRemove,
			Object: a.object(),
			Name:   k,
		})
		if change == nil {
			a.reportVeto(ChangeRemove, k)
			return
		}
	}

	a.rt.StartBatch()
	defer a.rt.EndBatch()

	oldValue := c.Peek()
	if ov, ok := c.(*ObservableValue); ok {
		ov.setNewValue(Absent)
	}
	a.keysAtom.ReportChanged()
	a.uninstall(k)
	if entry, ok := a.pendingKeys[k]; ok {
		entry.Set(false)
	}
	a.target.DeleteOwn(k)

	change := Change{
		Type:     ChangeRemove,
		Object:   a.object(),
		Name:     k,
		OldValue: oldValue,
	}
	notifyListeners(a.rt, &a.listeners, change)
	a.reportChange(change)
}

// Keys returns the declared stored keys in declaration order. Computed keys
// are not included. The call subscribes to key additions and removals.
func (a *Administration) Keys() []PropertyKey {
	a.keysAtom.ReportObserved()
	keys := make([]PropertyKey, 0, len(a.order))
	for _, k := range a.order {
		if _, ok := a.cells[k].(*ObservableValue); ok {
			keys = append(keys, k)
		}
	}
	return keys
}

// ObserveOption configures Observe.
type ObserveOption func(*observeOptions)

type observeOptions struct {
	fireImmediately bool
}

// FireImmediately asks Observe to deliver the current state on registration.
// Object listeners do not support it; Observe rejects the option.
func FireImmediately() ObserveOption {
	return func(o *observeOptions) {
		o.fireImmediately = true
	}
}

// Observe registers a listener for committed changes. Listeners run in
// registration order and only see changes made after they registered.
func (a *Administration) Observe(listener ChangeListener, opts ...ObserveOption) (Disposer, error) {
	var o observeOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.fireImmediately && !ProductionMode {
		return nil, errFireImmediately(a.name)
	}
	return a.listeners.add(listener), nil
}

// Intercept registers an interceptor for pending changes. Interceptors run in
// registration order; the first veto stops the chain.
func (a *Administration) Intercept(interceptor Interceptor) Disposer {
	return a.interceptors.add(interceptor)
}

// ReportKeysObserved subscribes the running derivation to key additions and
// removals.
func (a *Administration) ReportKeysObserved() {
	a.keysAtom.ReportObserved()
}

// install adds a cell under k, keeping declaration order.
func (a *Administration) install(k PropertyKey, c Cell) {
	a.cells[k] = c
	a.order = append(a.order, k)
}

// uninstall drops the cell for k.
func (a *Administration) uninstall(k PropertyKey) {
	delete(a.cells, k)
	a.order = removeKey(a.order, k)
}

// notifyPropertyAddition delivers the add change, flips the existence cell
// and reports the key-set change, as one batch.
func (a *Administration) notifyPropertyAddition(k PropertyKey, value any) {
	a.rt.StartBatch()
	defer a.rt.EndBatch()

	change := Change{
		Type:     ChangeAdd,
		Object:   a.object(),
		Name:     k,
		NewValue: value,
	}
	notifyListeners(a.rt, &a.listeners, change)
	a.reportChange(change)
	if entry, ok := a.pendingKeys[k]; ok {
		entry.Set(true)
	}
	a.keysAtom.ReportChanged()
}

// propertyDescriptor builds the accessor installed on the target for a
// reactive property.
func (a *Administration) propertyDescriptor(k PropertyKey, enumerable bool) Descriptor {
	return Descriptor{
		Get: func() (any, error) {
			return a.Read(k)
		},
		Set: func(v any) error {
			return a.Write(k, v)
		},
		Enumerable:   enumerable,
		Configurable: true,
	}
}

func (a *Administration) reportChange(change Change) {
	if a.rt.spy == nil {
		return
	}
	a.rt.report(Event{Kind: EventChange, Object: a.name, Change: &change})
}

func (a *Administration) reportVeto(t ChangeType, k PropertyKey) {
	if a.rt.spy == nil {
		return
	}
	a.rt.report(Event{Kind: EventVeto, Object: a.name, Change: &Change{Type: t, Object: a.object(), Name: k}})
}
