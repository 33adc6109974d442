package reactive

import (
	"math"
	"reflect"
)

// Comparer decides whether a new value is the same as the current one.
// Writes whose value compares equal are dropped without notification.
type Comparer func(a, b any) bool

// IdentityComparer compares by identity: == for comparable values, and
// backing-store identity for maps and slices. Functions are never equal.
func IdentityComparer(a, b any) bool {
	// Fast path for the common primitive cases.
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case int:
		bv, ok := b.(int)
		return ok && av == bv
	case int64:
		bv, ok := b.(int64)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	}
	return identical(a, b)
}

// DefaultComparer is IdentityComparer with same-value semantics for floats:
// NaN equals NaN and +0 differs from -0.
func DefaultComparer(a, b any) bool {
	switch av := a.(type) {
	case float64:
		bv, ok := b.(float64)
		return ok && sameFloat(av, bv)
	case float32:
		bv, ok := b.(float32)
		return ok && sameFloat(float64(av), float64(bv))
	}
	return IdentityComparer(a, b)
}

// StructuralComparer compares values deeply.
func StructuralComparer(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

func sameFloat(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return a == b && math.Signbit(a) == math.Signbit(b)
}

// identical compares two arbitrary values without panicking on
// non-comparable dynamic types.
func identical(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	if va.Comparable() && vb.Comparable() {
		return a == b
	}
	switch va.Kind() {
	case reflect.Map:
		return va.UnsafePointer() == vb.UnsafePointer()
	case reflect.Slice:
		return va.UnsafePointer() == vb.UnsafePointer() && va.Len() == vb.Len() && va.Cap() == vb.Cap()
	default:
		return false
	}
}
