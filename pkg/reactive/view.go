package reactive

import (
	"weak"
)

// View is the capability set of a dynamic view: property traffic over an
// open-ended key space, backed by a finite registry of declared cells.
type View interface {
	Has(key any) bool
	Get(key any) any
	Set(key any, value any) error
	Delete(key any) error
	Keys() []PropertyKey
}

// DynamicView routes every property access on a target through the target's
// administration, including keys that were never declared. Reading or probing
// an undeclared key subscribes to its existence, so derivations notice when
// the key is added later; assigning an undeclared key declares it.
//
// A view is bound to its administration when it is created and stays bound.
type DynamicView struct {
	target Target
	adm    *Administration
}

// CreateDynamicView binds a view to target. The target must already be
// administered. A target has at most one view; later calls return it.
func CreateDynamicView(target Target) (*DynamicView, error) {
	adm := target.reactiveHost().adm
	if adm == nil {
		return nil, errNotAdministered(target)
	}
	if v := adm.view.Value(); v != nil {
		return v, nil
	}
	v := &DynamicView{target: target, adm: adm}
	adm.view = weak.Make(v)
	return v, nil
}

// Administration returns the administration the view is bound to.
func (v *DynamicView) Administration() *Administration {
	return v.adm
}

// Target returns the underlying target.
func (v *DynamicView) Target() Target {
	return v.target
}

// Has reports whether key exists. Reserved keys are always present; any
// other key is answered reactively by the administration.
func (v *DynamicView) Has(key any) bool {
	if isReservedKey(key) {
		return true
	}
	return v.adm.Has(key)
}

// Get reads key. Declared stored keys read through their cell; everything
// else subscribes to the key's existence and reads the target directly.
// Missing keys read as Absent.
func (v *DynamicView) Get(key any) any {
	if isReservedKey(key) {
		return v.adm
	}
	k, ok := NormalizeKey(key)
	if !ok {
		return Absent
	}
	if cell, ok := v.adm.cells[k].(*ObservableValue); ok {
		result := cell.Get()
		// A removed or unset value has no visible change when the key is
		// deleted, so also subscribe to the key coming back.
		if IsAbsent(result) {
			v.adm.Has(k)
		}
		return result
	}
	v.adm.Has(k)
	result, err := v.target.Get(k)
	if err != nil {
		v.adm.rt.Logger().Debug("dynamic view read failed", "object", v.adm.name, "key", StringifyKey(k), "error", err)
		return Absent
	}
	return result
}

// Lookup is Get with an explicit presence flag.
func (v *DynamicView) Lookup(key any) (any, bool) {
	present := v.Has(key)
	value := v.Get(key)
	return value, present
}

// Set assigns key, declaring a new observable property when it does not
// exist yet.
func (v *DynamicView) Set(key any, value any) error {
	k, ok := NormalizeKey(key)
	if !ok {
		return errInvalidKey(v.adm.name, key)
	}
	return v.adm.Set(k, value)
}

// Delete removes key. Deleting a missing key is a no-op.
func (v *DynamicView) Delete(key any) error {
	k, ok := NormalizeKey(key)
	if !ok {
		return errInvalidKey(v.adm.name, key)
	}
	v.adm.Remove(k)
	return nil
}

// Keys subscribes to key additions and removals and returns the target's own
// keys in their natural order.
func (v *DynamicView) Keys() []PropertyKey {
	v.adm.keysAtom.ReportObserved()
	return v.target.OwnKeys()
}

// PreventExtensions always fails: keys added in the future must stay
// observable, so a dynamic view cannot be sealed.
func (v *DynamicView) PreventExtensions() error {
	return errUnsupported(v.adm.name, "dynamic observable objects cannot be frozen")
}

// Freeze always fails, for the same reason as PreventExtensions.
func (v *DynamicView) Freeze() error {
	return v.PreventExtensions()
}

// Observe registers a change listener on the view's administration.
func (v *DynamicView) Observe(listener ChangeListener, opts ...ObserveOption) (Disposer, error) {
	return v.adm.Observe(listener, opts...)
}

// Intercept registers an interceptor on the view's administration.
func (v *DynamicView) Intercept(interceptor Interceptor) Disposer {
	return v.adm.Intercept(interceptor)
}

// String returns the administration name.
func (v *DynamicView) String() string {
	return v.adm.name
}

func isReservedKey(key any) bool {
	s, ok := key.(*Symbol)
	return ok && s == AdministrationKey
}

var _ View = (*DynamicView)(nil)
