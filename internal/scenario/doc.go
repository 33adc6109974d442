// Package scenario loads and runs YAML scenarios against a dynamic
// observable object.
//
// A scenario declares the object's initial and derived properties, the
// watchers and intercept rules to install, and the steps to apply:
//
//	name: cart
//	props:
//	  - key: apples
//	    value: 2
//	computed:
//	  - key: total
//	    op: sum
//	    of: [apples, pears]
//	watch:
//	  - kind: get
//	    key: total
//	intercept:
//	  - key: locked
//	    action: veto
//	steps:
//	  - op: set
//	    key: pears
//	    value: 3
//	  - op: tx
//	    name: restock
//	    steps:
//	      - op: set
//	        key: apples
//	        value: 10
//
// The runner records a transcript of watcher output, committed changes,
// vetoes and step results:
//
//	sc, err := scenario.LoadFile("cart.yaml")
//	if err != nil {
//	    return err
//	}
//	report, err := scenario.NewRunner().Run(ctx, sc)
package scenario
