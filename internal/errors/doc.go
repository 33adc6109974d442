// Package errors provides structured, coded errors for reactor.
//
// Every failure the runtime reports synchronously (a read of an undeclared
// key, an attempt to redeclare a fixed property, an unsupported operation on
// a dynamic view, a malformed scenario) maps to a registered code:
//
//   - runtime: administration and cell errors (R001-R099)
//   - usage: API misuse caught in development mode (U001-U099)
//   - config: configuration file errors (C001-C099)
//   - scenario: scenario file errors (S001-S099)
//
// # Usage
//
//	err := errors.New("R001").
//	    WithObject("Todo@3", "title").
//	    Wrap(reactive.ErrMissingKey)
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR R001: Property is not declared
//	//
//	//   Todo@3.title
//	//
//	//   Reads go through the administration; the property must be declared first.
//	//
//	//   Hint: Declare the property with AddObservableProp or Set before reading it.
//
// Wrapped sentinel errors stay reachable through errors.Is.
package errors
