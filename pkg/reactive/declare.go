package reactive

import (
	"fmt"
	"reflect"

	rerrors "github.com/vango-dev/reactor/internal/errors"
)

// Option configures CreateAdministration and the object factories.
type Option func(*options)

type options struct {
	name     string
	deep     bool
	enhancer Enhancer
	equals   Comparer
	rt       *Runtime
}

func defaultOptions() options {
	return options{deep: true}
}

// WithName sets the administration name used in cell names and errors.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithDeep selects DeepEnhancer (true, the default) or ReferenceEnhancer
// (false) as the default enhancer.
func WithDeep(deep bool) Option {
	return func(o *options) {
		o.deep = deep
	}
}

// WithEnhancer sets the default enhancer explicitly. It takes precedence
// over WithDeep.
func WithEnhancer(e Enhancer) Option {
	return func(o *options) {
		o.enhancer = e
	}
}

// WithEquals sets the default comparer for stored properties.
func WithEquals(c Comparer) Option {
	return func(o *options) {
		o.equals = c
	}
}

// WithRuntime binds the administration to rt instead of the default runtime.
func WithRuntime(rt *Runtime) Option {
	return func(o *options) {
		o.rt = rt
	}
}

func (o options) resolveEnhancer() Enhancer {
	if o.enhancer != nil {
		return o.enhancer
	}
	if !o.deep {
		return ReferenceEnhancer
	}
	return DeepEnhancer
}

// CreateAdministration attaches an administration to target and returns it.
// The call is idempotent: an administered target returns its existing
// administration and opts are ignored.
//
// Targets without a name are called "ObservableObject@<id>" (or the Go type
// name for types other than *Object).
func CreateAdministration(target Target, opts ...Option) (*Administration, error) {
	host := target.reactiveHost()
	if host.adm != nil {
		return host.adm, nil
	}
	if !ProductionMode && !target.Extensible() {
		return nil, errNotExtensible(fmt.Sprintf("%T", target))
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.rt == nil {
		o.rt = defaultRuntime
	}
	if o.equals == nil {
		o.equals = DefaultComparer
	}

	adm := newAdministration(target, "", o.rt, o.resolveEnhancer(), o.equals)
	adm.name = o.name
	if adm.name == "" {
		adm.name = fmt.Sprintf("%s@%d", targetTypeName(target), adm.id)
	}
	if err := host.attach(adm); err != nil {
		return nil, err
	}
	return adm, nil
}

func targetTypeName(target Target) string {
	if _, ok := target.(*Object); ok {
		return "ObservableObject"
	}
	t := reflect.TypeOf(target)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return "ObservableObject"
	}
	return t.Name()
}

// AdministrationOf returns the administration of a target or dynamic view,
// or nil when v is not administered.
func AdministrationOf(v any) *Administration {
	switch val := v.(type) {
	case *DynamicView:
		return val.adm
	case *Administration:
		return val
	case Target:
		return val.reactiveHost().adm
	default:
		return nil
	}
}

// IsObservableObject reports whether v is an administered target or a
// dynamic view.
func IsObservableObject(v any) bool {
	return AdministrationOf(v) != nil
}

// IsObservableProp reports whether key is declared on v.
func IsObservableProp(v any, key any) bool {
	adm := AdministrationOf(v)
	if adm == nil {
		return false
	}
	_, ok := adm.Cell(key)
	return ok
}

// =============================================================================
// Declarations
// =============================================================================

// Declaration declares one reactive property on an administration.
type Declaration interface {
	// Key returns the property key being declared.
	Key() PropertyKey

	apply(adm *Administration) error
}

type observableDecl struct {
	key      any
	value    any
	enhancer Enhancer
}

func (d observableDecl) Key() PropertyKey { return d.key }

func (d observableDecl) apply(adm *Administration) error {
	return adm.AddObservableProp(d.key, d.value, d.enhancer)
}

type computedDecl struct {
	key     any
	compute func() any
	opts    []ComputedOption
}

func (d computedDecl) Key() PropertyKey { return d.key }

func (d computedDecl) apply(adm *Administration) error {
	return adm.AddComputedProp(d.key, d.compute, d.opts...)
}

// Observable declares a stored property using the administration's default
// enhancer.
func Observable(key any, value any) Declaration {
	return observableDecl{key: key, value: value}
}

// Ref declares a stored property whose values are kept as references.
func Ref(key any, value any) Declaration {
	return observableDecl{key: key, value: value, enhancer: ReferenceEnhancer}
}

// Deep declares a stored property whose values are made deeply reactive.
func Deep(key any, value any) Declaration {
	return observableDecl{key: key, value: value, enhancer: DeepEnhancer}
}

// Shallow declares a stored property whose plain-object values become
// reactive one level deep.
func Shallow(key any, value any) Declaration {
	return observableDecl{key: key, value: value, enhancer: ShallowEnhancer}
}

// Struct declares a stored property that ignores structurally equal writes.
func Struct(key any, value any) Declaration {
	return observableDecl{key: key, value: value, enhancer: StructEnhancer}
}

// Computed declares a derived property.
func Computed(key any, compute func() any, opts ...ComputedOption) Declaration {
	return computedDecl{key: key, compute: compute, opts: opts}
}

// Extend makes target observable (if it is not already) and declares every
// property in decls inside a single transaction, so listeners and reactions
// see the additions together.
func Extend(target Target, decls []Declaration, opts ...Option) (*Administration, error) {
	adm, err := CreateAdministration(target, opts...)
	if err != nil {
		return nil, err
	}
	if err := extendWith(adm, decls); err != nil {
		return adm, err
	}
	return adm, nil
}

func extendWith(adm *Administration, decls []Declaration) error {
	if !ProductionMode {
		if err := validateDeclarations(adm, decls); err != nil {
			return err
		}
	}

	var err error
	adm.rt.Transaction(func() {
		for _, d := range decls {
			if err = d.apply(adm); err != nil {
				return
			}
		}
	})
	return err
}

func validateDeclarations(adm *Administration, decls []Declaration) error {
	seen := make(map[PropertyKey]bool, len(decls))
	for i, d := range decls {
		if d == nil {
			return rerrors.New("U002").WithObject(adm.name, "").WithDetailf("Declaration %d is nil.", i)
		}
		k, ok := NormalizeKey(d.Key())
		if !ok {
			return errInvalidKey(adm.name, d.Key())
		}
		if seen[k] {
			return rerrors.New("U002").
				WithObject(adm.name, StringifyKey(k)).
				WithDetail("The same key is declared twice.").
				Wrap(ErrNotConfigurable)
		}
		if cd, ok := d.(computedDecl); ok && cd.compute == nil {
			return rerrors.New("U002").
				WithObject(adm.name, StringifyKey(k)).
				WithDetail("Computed declaration without a compute function.")
		}
		seen[k] = true
	}
	return nil
}

// NewObservableObject creates a fresh object, binds a dynamic view to it and
// declares decls through the view. Keys assigned through the view later are
// declared on the fly with the default enhancer.
//
// Example:
//
//	todo, err := reactive.NewObservableObject([]reactive.Declaration{
//	    reactive.Observable("title", "buy milk"),
//	    reactive.Observable("done", false),
//	}, reactive.WithName("Todo"))
func NewObservableObject(decls []Declaration, opts ...Option) (*DynamicView, error) {
	target := NewObject()
	adm, err := CreateAdministration(target, opts...)
	if err != nil {
		return nil, err
	}
	view, err := CreateDynamicView(target)
	if err != nil {
		return nil, err
	}
	if err := extendWith(adm, decls); err != nil {
		return nil, err
	}
	return view, nil
}

// NewObservableTarget is NewObservableObject without a view: only the
// declared keys are reactive, and plain Set calls on the returned object add
// ordinary properties.
func NewObservableTarget(decls []Declaration, opts ...Option) (*Object, error) {
	target := NewObject()
	if _, err := Extend(target, decls, opts...); err != nil {
		return nil, err
	}
	return target, nil
}
