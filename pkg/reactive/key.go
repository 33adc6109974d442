package reactive

import (
	"fmt"
	"math"
	"strconv"
)

// PropertyKey identifies a property on a target. Normalized keys are either a
// string or a *Symbol; integers and floats are accepted on input and converted
// to their decimal string form, so 1 and "1" name the same property.
type PropertyKey = any

// Symbol is a unique, non-string property key. Two symbols with the same
// description are still distinct keys.
type Symbol struct {
	desc string
}

// NewSymbol creates a new unique symbol.
func NewSymbol(desc string) *Symbol {
	return &Symbol{desc: desc}
}

// Description returns the description the symbol was created with.
func (s *Symbol) Description() string {
	return s.desc
}

// String returns "Symbol(desc)".
func (s *Symbol) String() string {
	return "Symbol(" + s.desc + ")"
}

// AdministrationKey is the reserved key under which a dynamic view exposes
// its administration. It always reports present.
var AdministrationKey = NewSymbol("reactor.administration")

// absent is the type of the Absent sentinel.
type absent struct{}

func (absent) String() string { return "<absent>" }

// Absent is the value of a property that does not exist. Removed cells are
// set to Absent before they are dropped, and raw target reads of missing keys
// return it.
var Absent any = absent{}

// IsAbsent reports whether v is nil or the Absent sentinel.
func IsAbsent(v any) bool {
	return v == nil || v == Absent
}

// NormalizeKey converts key to its canonical form. The second result is false
// when key is not a primitive key type.
func NormalizeKey(key any) (PropertyKey, bool) {
	switch k := key.(type) {
	case string:
		return k, true
	case *Symbol:
		if k == nil {
			return nil, false
		}
		return k, true
	case int:
		return strconv.Itoa(k), true
	case int8:
		return strconv.FormatInt(int64(k), 10), true
	case int16:
		return strconv.FormatInt(int64(k), 10), true
	case int32:
		return strconv.FormatInt(int64(k), 10), true
	case int64:
		return strconv.FormatInt(k, 10), true
	case uint:
		return strconv.FormatUint(uint64(k), 10), true
	case uint8:
		return strconv.FormatUint(uint64(k), 10), true
	case uint16:
		return strconv.FormatUint(uint64(k), 10), true
	case uint32:
		return strconv.FormatUint(uint64(k), 10), true
	case uint64:
		return strconv.FormatUint(k, 10), true
	case float32:
		return formatFloatKey(float64(k)), true
	case float64:
		return formatFloatKey(k), true
	default:
		return nil, false
	}
}

func formatFloatKey(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// StringifyKey renders a key for names and error messages.
func StringifyKey(key PropertyKey) string {
	switch k := key.(type) {
	case string:
		return k
	case *Symbol:
		return k.String()
	default:
		return fmt.Sprint(k)
	}
}
