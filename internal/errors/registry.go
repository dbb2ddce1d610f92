package errors

// Registered error codes.
const (
	CodeUndeclaredStateKey    = "E101"
	CodeInvalidStateValue     = "E102"
	CodeComputedStateKey      = "E103"
	CodeReloadDepthExceeded   = "E201"
	CodeUnknownLifecyclePhase = "E301"
	CodeMountPrecondition     = "E401"
	CodeRenderFailed          = "E402"
	CodeConfigInvalid         = "E501"
)

// Sentinels for errors.Is matching. Compare by code; never mutate.
var (
	ErrUndeclaredStateKey    = &Error{Code: CodeUndeclaredStateKey}
	ErrInvalidStateValue     = &Error{Code: CodeInvalidStateValue}
	ErrComputedStateKey      = &Error{Code: CodeComputedStateKey}
	ErrReloadDepthExceeded   = &Error{Code: CodeReloadDepthExceeded}
	ErrUnknownLifecyclePhase = &Error{Code: CodeUnknownLifecyclePhase}
	ErrMountPrecondition     = &Error{Code: CodeMountPrecondition}
	ErrRenderFailed          = &Error{Code: CodeRenderFailed}
	ErrConfigInvalid         = &Error{Code: CodeConfigInvalid}
)

// Template defines a registered error type.
type Template struct {
	Category   Category
	Message    string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]Template{
	// ============================================
	// State Errors (E101-E199)
	// ============================================

	CodeUndeclaredStateKey: {
		Category:   CategoryState,
		Message:    "Undeclared state key",
		Suggestion: "Declare the key with Define before writing it.",
	},
	CodeInvalidStateValue: {
		Category:   CategoryState,
		Message:    "Invalid state value",
		Suggestion: "Write a value matching the declared type, or declare the key without a type.",
	},
	CodeComputedStateKey: {
		Category:   CategoryState,
		Message:    "Computed state key is read-only",
		Suggestion: "Write the stored keys the computed accessor reads instead.",
	},

	// ============================================
	// Scheduler Errors (E201-E299)
	// ============================================

	CodeReloadDepthExceeded: {
		Category:   CategoryScheduler,
		Message:    "Maximum reload depth exceeded",
		Suggestion: "A render or update hook keeps writing a key it also reads. Guard the write with a condition.",
	},

	// ============================================
	// Lifecycle Errors (E301-E399)
	// ============================================

	CodeUnknownLifecyclePhase: {
		Category: CategoryLifecycle,
		Message:  "Unknown lifecycle phase",
	},

	// ============================================
	// Component Errors (E401-E499)
	// ============================================

	CodeMountPrecondition: {
		Category:   CategoryComponent,
		Message:    "Mount precondition failed",
		Suggestion: "Call Render before Mount, and Unmount before mounting again.",
	},
	CodeRenderFailed: {
		Category: CategoryComponent,
		Message:  "Render failed",
	},

	// ============================================
	// Config Errors (E501-E599)
	// ============================================

	CodeConfigInvalid: {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
	},
}

// Lookup returns the template registered for code.
func Lookup(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}
