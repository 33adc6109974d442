package reactive

import (
	rerrors "github.com/vango-dev/reactor/internal/errors"
)

// Field is a typed handle on one stored property of an administered target.
// It reads and writes through the administration, so tracking, interception
// and notification behave exactly as for untyped access.
type Field[T any] struct {
	adm *Administration
	key PropertyKey
}

// FieldOption configures DeclareField.
type FieldOption[T any] func(*fieldOptions[T])

type fieldOptions[T any] struct {
	enhancer Enhancer
	equals   func(a, b T) bool
}

// FieldEnhancer overrides the enhancer of the declared field. Fields store
// values by reference unless told otherwise.
func FieldEnhancer[T any](e Enhancer) FieldOption[T] {
	return func(o *fieldOptions[T]) {
		o.enhancer = e
	}
}

// FieldEquals sets a typed comparer for the field.
func FieldEquals[T any](fn func(a, b T) bool) FieldOption[T] {
	return func(o *fieldOptions[T]) {
		o.equals = fn
	}
}

// DeclareField declares key on target as a stored property holding initial
// and returns a typed handle to it. The target must already be administered.
//
// Example:
//
//	adm, _ := reactive.CreateAdministration(obj)
//	count, err := reactive.DeclareField(obj, "count", 0)
//	_ = count.Set(count.Get() + 1)
func DeclareField[T any](target Target, key any, initial T, opts ...FieldOption[T]) (*Field[T], error) {
	adm := target.reactiveHost().adm
	if adm == nil {
		return nil, errNotAdministered(target)
	}
	k, err := adm.normalize(key)
	if err != nil {
		return nil, err
	}

	o := fieldOptions[T]{enhancer: ReferenceEnhancer}
	for _, opt := range opts {
		opt(&o)
	}
	var equals Comparer
	if o.equals != nil {
		eq := o.equals
		equals = func(a, b any) bool {
			ta, okA := a.(T)
			tb, okB := b.(T)
			if !okA || !okB {
				return IdentityComparer(a, b)
			}
			return eq(ta, tb)
		}
	}

	if err := adm.addObservableProp(k, initial, o.enhancer, equals); err != nil {
		return nil, err
	}
	return &Field[T]{adm: adm, key: k}, nil
}

// Key returns the field's normalized key.
func (f *Field[T]) Key() PropertyKey {
	return f.key
}

// Get returns the current value, or the zero value when the property has been
// removed or holds a value of another type.
func (f *Field[T]) Get() T {
	v, _ := f.Lookup()
	return v
}

// Lookup returns the current value. It fails when the property was removed
// or when an interceptor or enhancer stored a value that is not a T.
func (f *Field[T]) Lookup() (T, error) {
	var zero T
	raw, err := f.adm.Read(f.key)
	if err != nil {
		return zero, err
	}
	if raw == nil {
		return zero, nil
	}
	v, ok := raw.(T)
	if !ok {
		return zero, rerrors.New("U003").
			WithObject(f.adm.name, StringifyKey(f.key)).
			WithDetailf("Field is declared as %T but holds %T.", zero, raw)
	}
	return v, nil
}

// Set writes v through the administration.
func (f *Field[T]) Set(v T) error {
	return f.adm.Write(f.key, v)
}

// Update applies fn to the current value and writes the result.
func (f *Field[T]) Update(fn func(T) T) error {
	cur, err := f.Lookup()
	if err != nil {
		return err
	}
	return f.Set(fn(cur))
}

// ComputedField is a typed handle on a derived property.
type ComputedField[T any] struct {
	adm *Administration
	key PropertyKey
}

// DeclareComputed declares key on target as a computed property. A nil setter
// makes the property read-only.
func DeclareComputed[T any](target Target, key any, compute func() T, setter func(T)) (*ComputedField[T], error) {
	adm := target.reactiveHost().adm
	if adm == nil {
		return nil, errNotAdministered(target)
	}
	k, err := adm.normalize(key)
	if err != nil {
		return nil, err
	}

	var opts []ComputedOption
	if setter != nil {
		opts = append(opts, WithSetter(func(v any) {
			tv, _ := v.(T)
			setter(tv)
		}))
	}
	if err := adm.AddComputedProp(k, func() any { return compute() }, opts...); err != nil {
		return nil, err
	}
	return &ComputedField[T]{adm: adm, key: k}, nil
}

// Key returns the field's normalized key.
func (f *ComputedField[T]) Key() PropertyKey {
	return f.key
}

// Get returns the derived value, or the zero value when the property has
// been removed.
func (f *ComputedField[T]) Get() T {
	var zero T
	raw, err := f.adm.Read(f.key)
	if err != nil {
		return zero
	}
	v, _ := raw.(T)
	return v
}

// Set forwards v to the setter.
func (f *ComputedField[T]) Set(v T) error {
	return f.adm.Write(f.key, v)
}
