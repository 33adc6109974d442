package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Runtime Errors (R001-R099)
	// ============================================

	"R001": {
		Category:   CategoryRuntime,
		Message:    "Property is not declared",
		Detail:     "Reads go through the administration; the property must be declared first.",
		Suggestion: "Declare the property with AddObservableProp or Set before reading it.",
	},
	"R002": {
		Category:   CategoryRuntime,
		Message:    "Property is not configurable",
		Detail:     "The target already holds a fixed property with this key, so it cannot be replaced by a reactive one.",
		Suggestion: "Define the property as configurable on the target or pick another key.",
	},
	"R003": {
		Category: CategoryRuntime,
		Message:  "Target is already administered",
		Detail:   "A target can carry exactly one administration.",
	},
	"R004": {
		Category: CategoryRuntime,
		Message:  "Unsupported operation",
	},
	"R005": {
		Category:   CategoryRuntime,
		Message:    "Invalid property key type",
		Detail:     "Dynamic views accept strings, integers and symbols as keys.",
		Suggestion: "Convert the key to a string or create a Symbol for it.",
	},
	"R006": {
		Category:   CategoryRuntime,
		Message:    "Computed property is read-only",
		Detail:     "The derived cell has no setter, so assignments cannot be forwarded.",
		Suggestion: "Pass a setter when declaring the computed property.",
	},
	"R007": {
		Category: CategoryRuntime,
		Message:  "Computed setter cycle",
		Detail:   "A computed setter assigned to its own property while it was running.",
	},
	"R008": {
		Category:   CategoryRuntime,
		Message:    "Target is not administered",
		Detail:     "Dynamic views and typed fields need the target to have an administration first.",
		Suggestion: "Call CreateAdministration on the target before declaring fields or creating a view.",
	},
	"R009": {
		Category: CategoryRuntime,
		Message:  "Target is not extensible",
		Detail:   "Only extensible targets can be made observable.",
	},
	"R010": {
		Category: CategoryRuntime,
		Message:  "Property already declared",
		Detail:   "A key holds at most one reactive cell.",
	},
	"R011": {
		Category:   CategoryRuntime,
		Message:    "Computed cycle",
		Detail:     "A computed value read itself while it was being computed.",
		Suggestion: "Break the dependency loop between the derived properties.",
	},

	// ============================================
	// Usage Errors (U001-U099)
	// ============================================

	"U001": {
		Category: CategoryUsage,
		Message:  "Observe does not support fire immediately",
		Detail:   "Object listeners only see changes made after they were registered.",
	},
	"U002": {
		Category: CategoryUsage,
		Message:  "Invalid declaration",
	},
	"U003": {
		Category: CategoryUsage,
		Message:  "Field type mismatch",
	},

	// ============================================
	// Config Errors (C001-C099)
	// ============================================

	"C001": {
		Category: CategoryConfig,
		Message:  "Config file not found",
	},
	"C002": {
		Category: CategoryConfig,
		Message:  "Invalid config file",
		Detail:   "The configuration file has syntax errors or unknown fields.",
	},
	"C003": {
		Category: CategoryConfig,
		Message:  "Config validation failed",
	},

	// ============================================
	// Scenario Errors (S001-S099)
	// ============================================

	"S001": {
		Category: CategoryScenario,
		Message:  "Invalid scenario file",
	},
	"S002": {
		Category: CategoryScenario,
		Message:  "Scenario validation failed",
	},
	"S003": {
		Category: CategoryScenario,
		Message:  "Scenario step failed",
	},
}

// Lookup returns the template registered for code.
func Lookup(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Codes returns all registered error codes.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}
