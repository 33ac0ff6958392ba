// Package errors provides standardized error messaging for the verifier.
// Errors of this package signal defects in the input tree or in the
// translator itself. Verification failures are never reported this way:
// they are assertions in the emitted program.
package errors

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/orizon-lang/orizon-verify/internal/position"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryResolution ErrorCategory = "RESOLUTION"
	CategoryStructure  ErrorCategory = "STRUCTURE"
	CategoryInternal   ErrorCategory = "INTERNAL"
	CategoryConfig     ErrorCategory = "CONFIG"
	CategoryInput      ErrorCategory = "INPUT"
)

// StandardError provides a consistent error format
type StandardError struct {
	Category ErrorCategory
	Code     string
	Message  string
	Span     position.Span
	Context  map[string]interface{}
	Caller   string
}

// Error implements the error interface
func (e *StandardError) Error() string {
	if e.Span.Start.IsValid() {
		return fmt.Sprintf("%s: [%s:%s] %s", e.Span, e.Category, e.Code, e.Message)
	}
	return fmt.Sprintf("[%s:%s] %s (caller: %s)", e.Category, e.Code, e.Message, e.Caller)
}

// NewStandardError creates a new standardized error
func NewStandardError(category ErrorCategory, code, message string, context map[string]interface{}) *StandardError {
	pc, _, _, ok := runtime.Caller(2)
	caller := "unknown"
	if ok {
		if fn := runtime.FuncForPC(pc); fn != nil {
			caller = fn.Name()
		}
	}

	return &StandardError{
		Category: category,
		Code:     code,
		Message:  message,
		Context:  context,
		Caller:   caller,
	}
}

// At attaches a source span to the error.
func (e *StandardError) At(span position.Span) *StandardError {
	e.Span = span
	return e
}

// As reports whether err is a *StandardError and returns it.
func As(err error) (*StandardError, bool) {
	var se *StandardError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// Common error constructors
func UnresolvedType(what string) *StandardError {
	return NewStandardError(CategoryResolution, "UNRESOLVED_TYPE",
		fmt.Sprintf("%s has no resolved type", what),
		map[string]interface{}{"node": what})
}

func UnresolvedTarget(kind, name string) *StandardError {
	return NewStandardError(CategoryResolution, "UNRESOLVED_TARGET",
		fmt.Sprintf("%s %q is not bound to a declaration", kind, name),
		map[string]interface{}{"kind": kind, "name": name})
}

func UnsupportedNode(context string, node interface{}) *StandardError {
	return NewStandardError(CategoryStructure, "UNSUPPORTED_NODE",
		fmt.Sprintf("unexpected %T in %s", node, context),
		map[string]interface{}{"context": context})
}

func MalformedTree(details string) *StandardError {
	return NewStandardError(CategoryStructure, "MALFORMED_TREE", details, nil)
}

func ForeignNode(details string) *StandardError {
	return NewStandardError(CategoryInternal, "FOREIGN_NODE", details, nil)
}

func InvalidConfig(field, details string) *StandardError {
	return NewStandardError(CategoryConfig, "INVALID_OPTION",
		fmt.Sprintf("option %s: %s", field, details),
		map[string]interface{}{"field": field})
}

func DecodeFailure(path, details string) *StandardError {
	return NewStandardError(CategoryInput, "DECODE_FAILURE",
		fmt.Sprintf("%s: %s", path, details),
		map[string]interface{}{"path": path})
}

func TranslatorReused(program string) *StandardError {
	return NewStandardError(CategoryStructure, "TRANSLATOR_REUSED",
		fmt.Sprintf("translator already ran on program %s; create a new one per run", program),
		map[string]interface{}{"program": program})
}
