package reactive

import "fmt"

// ChangeType tags a Change record.
type ChangeType int

const (
	// ChangeAdd carries Name and NewValue.
	ChangeAdd ChangeType = iota + 1

	// ChangeUpdate carries Name, OldValue and NewValue.
	ChangeUpdate

	// ChangeRemove carries Name and OldValue.
	ChangeRemove
)

// String returns "add", "update" or "remove".
func (t ChangeType) String() string {
	switch t {
	case ChangeAdd:
		return "add"
	case ChangeUpdate:
		return "update"
	case ChangeRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Change describes a pending (intercepted) or committed (observed) mutation
// of an administered object.
//
// Interceptors receive a pending change before it is applied: OldValue is not
// filled in, and NewValue may be replaced. Listeners receive a committed
// change with the values that were actually stored.
type Change struct {
	Type ChangeType

	// Object is the dynamic view when one is bound, otherwise the target.
	Object any

	// Name is the normalized property key.
	Name PropertyKey

	OldValue any
	NewValue any
}

// String renders the change for logs and tests.
func (c Change) String() string {
	key := StringifyKey(c.Name)
	switch c.Type {
	case ChangeAdd:
		return fmt.Sprintf("add %s=%v", key, c.NewValue)
	case ChangeUpdate:
		return fmt.Sprintf("update %s: %v -> %v", key, c.OldValue, c.NewValue)
	case ChangeRemove:
		return fmt.Sprintf("remove %s (was %v)", key, c.OldValue)
	default:
		return "unknown change"
	}
}

// Interceptor inspects a pending change. It returns the change to apply
// (possibly modified) or nil to veto it.
type Interceptor func(change *Change) *Change

// ChangeListener is told about every committed change.
type ChangeListener func(change Change)
