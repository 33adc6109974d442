package reactive

// ProductionMode disables development-time checks that only guard against
// misuse: the extensibility check in CreateAdministration, the configurability
// pre-check in AddObservableProp, declaration validation in Extend and the
// fire-immediately rejection in Observe. Behaviour on valid input is the same
// in both modes.
//
// Set this at startup and do not change it while reactive state is live:
//
//	func main() {
//	    reactive.ProductionMode = os.Getenv("REACTOR_ENV") == "production"
//	    // ...
//	}
var ProductionMode = false

// DebugConfig controls debug logging.
type DebugConfig struct {
	// LogTransactions logs TxNamed/Transaction boundaries at debug level.
	LogTransactions bool

	// LogReactions logs every reaction run at debug level.
	LogReactions bool
}

// DefaultDebugConfig returns a DebugConfig with all debugging disabled.
func DefaultDebugConfig() DebugConfig {
	return DebugConfig{}
}

// Debug is the global debug configuration.
var Debug = DefaultDebugConfig()
