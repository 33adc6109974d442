package reactive

import (
	rerrors "github.com/vango-dev/reactor/internal/errors"
)

// Host is the hidden slot that links a target to its administration.
// Embed it (or *Object, which embeds it) to make a type administrable.
type Host struct {
	adm *Administration
}

// reactiveHost returns the embedded host.
func (h *Host) reactiveHost() *Host {
	return h
}

// attach links adm to the host. A host carries at most one administration.
func (h *Host) attach(adm *Administration) error {
	if h.adm != nil && h.adm != adm {
		return rerrors.New("R003").WithObject(h.adm.name, "").Wrap(ErrAlreadyAdministered)
	}
	h.adm = adm
	return nil
}

// Descriptor describes one own property of a target. A descriptor with Get
// or Set is an accessor property; otherwise it is a data property holding
// Value.
type Descriptor struct {
	Value any

	Get func() (any, error)
	Set func(any) error

	Writable     bool
	Enumerable   bool
	Configurable bool
}

// IsAccessor reports whether the descriptor routes reads or writes through
// functions.
func (d Descriptor) IsAccessor() bool {
	return d.Get != nil || d.Set != nil
}

// Target is the data an administration is attached to. The administration
// does not copy the target; it installs accessor properties on it that route
// through its cells.
type Target interface {
	reactiveHost() *Host

	// OwnKeys returns every own key in the target's natural order.
	OwnKeys() []PropertyKey

	// Descriptor returns the own property descriptor for a normalized key.
	Descriptor(key PropertyKey) (Descriptor, bool)

	// DefineOwn creates or replaces an own property.
	DefineOwn(key PropertyKey, d Descriptor) error

	// DeleteOwn removes an own property. It returns false when the property
	// exists but is not configurable.
	DeleteOwn(key PropertyKey) bool

	// Get reads a property, invoking accessors. Missing keys read as Absent.
	Get(key any) (any, error)

	// Extensible reports whether new properties may be added.
	Extensible() bool
}

// Object is an ordered property bag and the default Target. Without an
// administration it behaves like a plain record; once administered, reactive
// properties are accessors backed by the administration's cells.
type Object struct {
	Host

	strKeys    []PropertyKey
	symKeys    []PropertyKey
	props      map[PropertyKey]*Descriptor
	sealedKeys bool
}

// NewObject creates an empty, extensible object. The zero value is also
// ready to use.
func NewObject() *Object {
	return &Object{props: make(map[PropertyKey]*Descriptor)}
}

// OwnKeys returns string keys in insertion order followed by symbol keys in
// insertion order.
func (o *Object) OwnKeys() []PropertyKey {
	keys := make([]PropertyKey, 0, len(o.strKeys)+len(o.symKeys))
	keys = append(keys, o.strKeys...)
	return append(keys, o.symKeys...)
}

// Descriptor returns a copy of the own property descriptor for key.
func (o *Object) Descriptor(key PropertyKey) (Descriptor, bool) {
	d, ok := o.props[key]
	if !ok {
		return Descriptor{}, false
	}
	return *d, true
}

// DefineOwn creates or replaces an own property. Replacing a non-configurable
// property and adding to a non-extensible object fail.
func (o *Object) DefineOwn(key PropertyKey, d Descriptor) error {
	if existing, ok := o.props[key]; ok {
		if !existing.Configurable {
			return errNotConfigurable(o.name(), key)
		}
		nd := d
		o.props[key] = &nd
		return nil
	}
	if o.sealedKeys {
		return errNotExtensible(o.name())
	}
	if o.props == nil {
		o.props = make(map[PropertyKey]*Descriptor)
	}
	nd := d
	o.props[key] = &nd
	if _, ok := key.(*Symbol); ok {
		o.symKeys = append(o.symKeys, key)
	} else {
		o.strKeys = append(o.strKeys, key)
	}
	return nil
}

// DeleteOwn removes key. Missing keys report true, non-configurable ones false.
func (o *Object) DeleteOwn(key PropertyKey) bool {
	d, ok := o.props[key]
	if !ok {
		return true
	}
	if !d.Configurable {
		return false
	}
	delete(o.props, key)
	if _, ok := key.(*Symbol); ok {
		o.symKeys = removeKey(o.symKeys, key)
	} else {
		o.strKeys = removeKey(o.strKeys, key)
	}
	return true
}

// Get reads key, invoking its getter for accessor properties.
func (o *Object) Get(key any) (any, error) {
	k, ok := NormalizeKey(key)
	if !ok {
		return nil, errInvalidKey(o.name(), key)
	}
	d, ok := o.props[k]
	if !ok {
		return Absent, nil
	}
	if d.Get != nil {
		return d.Get()
	}
	if d.Set != nil {
		return Absent, nil
	}
	return d.Value, nil
}

// Set assigns key. Accessor properties call their setter; missing keys are
// added as plain writable, enumerable, configurable data properties.
func (o *Object) Set(key any, value any) error {
	k, ok := NormalizeKey(key)
	if !ok {
		return errInvalidKey(o.name(), key)
	}
	d, ok := o.props[k]
	if !ok {
		return o.DefineOwn(k, Descriptor{Value: value, Writable: true, Enumerable: true, Configurable: true})
	}
	if d.IsAccessor() {
		if d.Set == nil {
			return errUnsupported(o.name(), "property "+StringifyKey(k)+" has no setter")
		}
		return d.Set(value)
	}
	if !d.Writable {
		return errUnsupported(o.name(), "property "+StringifyKey(k)+" is read-only")
	}
	d.Value = value
	return nil
}

// Define adds a plain data property. Non-configurable properties cannot be
// replaced by reactive ones later.
func (o *Object) Define(key any, value any, configurable bool) error {
	k, ok := NormalizeKey(key)
	if !ok {
		return errInvalidKey(o.name(), key)
	}
	return o.DefineOwn(k, Descriptor{Value: value, Writable: true, Enumerable: true, Configurable: configurable})
}

// Delete removes key, ignoring keys that do not exist.
func (o *Object) Delete(key any) error {
	k, ok := NormalizeKey(key)
	if !ok {
		return errInvalidKey(o.name(), key)
	}
	if !o.DeleteOwn(k) {
		return errNotConfigurable(o.name(), k)
	}
	return nil
}

// Extensible reports whether new properties may be added.
func (o *Object) Extensible() bool {
	return !o.sealedKeys
}

// PreventExtensions forbids adding new properties.
func (o *Object) PreventExtensions() {
	o.sealedKeys = true
}

// Len returns the number of own properties.
func (o *Object) Len() int {
	return len(o.props)
}

// name returns the administration name, if any, for error messages.
func (o *Object) name() string {
	if o.adm != nil {
		return o.adm.name
	}
	return "Object"
}

func removeKey(keys []PropertyKey, key PropertyKey) []PropertyKey {
	for i, k := range keys {
		if k == key {
			return append(keys[:i], keys[i+1:]...)
		}
	}
	return keys
}

var _ Target = (*Object)(nil)
