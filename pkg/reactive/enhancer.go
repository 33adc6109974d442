package reactive

import "sort"

// Enhancer transforms a value before a stored cell keeps it. It receives the
// incoming value, the value currently held (Absent on creation) and the cell
// name. Enhancers may make the new value reactive itself.
type Enhancer func(rt *Runtime, newValue, oldValue any, name string) any

// ReferenceEnhancer stores values as-is.
func ReferenceEnhancer(_ *Runtime, newValue, _ any, _ string) any {
	return newValue
}

// DeepEnhancer makes plain objects reactive all the way down: a
// map[string]any becomes a dynamic view whose own values are enhanced deeply,
// and an *Object without administration gets one. Anything else is kept as-is.
func DeepEnhancer(rt *Runtime, newValue, _ any, name string) any {
	return enhanceObject(rt, newValue, name, DeepEnhancer)
}

// ShallowEnhancer makes a plain object reactive but keeps its values as
// references.
func ShallowEnhancer(rt *Runtime, newValue, _ any, name string) any {
	return enhanceObject(rt, newValue, name, ReferenceEnhancer)
}

// StructEnhancer keeps the current value when the new one is structurally
// equal to it, so the write becomes a no-op under identity comparison.
func StructEnhancer(_ *Runtime, newValue, oldValue any, _ string) any {
	if StructuralComparer(newValue, oldValue) {
		return oldValue
	}
	return newValue
}

func enhanceObject(rt *Runtime, v any, name string, inner Enhancer) any {
	switch val := v.(type) {
	case nil:
		return nil
	case *DynamicView:
		return val
	case Target:
		if val.reactiveHost().adm != nil {
			return val
		}
		if _, err := CreateAdministration(val, WithRuntime(rt), WithName(name), WithEnhancer(inner)); err != nil {
			rt.Logger().Warn("could not make value observable", "name", name, "error", err)
		}
		return val
	case map[string]any:
		view, err := NewObservableObject(Props(val), WithRuntime(rt), WithName(name), WithEnhancer(inner))
		if err != nil {
			rt.Logger().Warn("could not make value observable", "name", name, "error", err)
			return val
		}
		return view
	default:
		return v
	}
}

// Props converts a map into observable declarations sorted by key, so the
// resulting object enumerates deterministically.
func Props(m map[string]any) []Declaration {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	decls := make([]Declaration, 0, len(keys))
	for _, k := range keys {
		decls = append(decls, Observable(k, m[k]))
	}
	return decls
}
