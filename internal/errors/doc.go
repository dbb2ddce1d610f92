// Package errors provides structured, coded errors for weft.
//
// Every error the rendering core reports carries a registered code that maps
// to a category, a short message and a longer explanation:
//
//	E1xx  state       writes to undeclared or computed keys, invalid values
//	E2xx  scheduler   runaway reload chains
//	E3xx  lifecycle   unknown phases
//	E4xx  component   mount preconditions, render failures
//	E5xx  config      invalid configuration files
//
// # Usage
//
//	err := errors.New(errors.CodeUndeclaredStateKey).
//	    WithDetail(`key "count" was never passed to Define`).
//	    WithSuggestion(`c.Define(state.Schema{"count": {Type: state.TypeNumber}})`)
//
// Errors compare equal under errors.Is when their codes match, so callers can
// test against the exported sentinels:
//
//	if errors.Is(err, errors.ErrReloadDepthExceeded) { ... }
package errors
