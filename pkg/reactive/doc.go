// Package reactive provides per-object reactive administration: a registry
// that turns the properties of a plain object into tracked cells, so that
// reads subscribe the running derivation and writes notify it.
//
// # Core Types
//
// Object is an ordered property bag. CreateAdministration attaches an
// Administration to it, and Extend declares reactive properties:
//
//	obj := reactive.NewObject()
//	adm, _ := reactive.Extend(obj, []reactive.Declaration{
//	    reactive.Observable("first", "Ada"),
//	    reactive.Observable("last", "Lovelace"),
//	    reactive.Computed("full", func() any {
//	        first, _ := obj.Get("first")
//	        last, _ := obj.Get("last")
//	        return fmt.Sprint(first, " ", last)
//	    }),
//	})
//
// Stored properties are ObservableValue cells, derived ones are
// ComputedValue cells. Both are read and written through the administration
// or through the accessor properties it installs on the object.
//
// # Dynamic Views
//
// NewObservableObject returns a DynamicView. Unlike a plain administered
// object, a view reacts to keys that do not exist yet:
//
//	todo, _ := reactive.NewObservableObject(nil)
//	stop := reactive.Autorun(nil, func() {
//	    fmt.Println("has due date:", todo.Has("due"))
//	})
//	_ = todo.Set("due", "friday") // the autorun prints again
//	stop()
//
// # Interception and Observation
//
// Intercept sees pending changes and may rewrite or veto them. Observe sees
// committed changes, as add, update and remove records. Inside a Transaction
// deliveries wait until the outermost transaction ends.
//
// # Runtimes
//
// Every cell belongs to a Runtime, which tracks the running derivation and
// the batch depth. Use DefaultRuntime for process-wide state, or NewRuntime
// for an isolated context (one per test, one per request).
//
// # Thread Safety
//
// A Runtime and everything created against it must be used from one
// goroutine at a time. Separate runtimes are independent.
package reactive
