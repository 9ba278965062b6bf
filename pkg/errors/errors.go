// Package errors provides structured error types for attngraph.
// Errors carry a code, a category, key/value context, an optional cause and
// remediation suggestions.
package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// Category classifies errors for consistent handling and display.
type Category string

const (
	CategoryShape      Category = "shape"      // Dimension inconsistencies between ids, bounds and layers
	CategoryFormat     Category = "format"     // attnbin decode failures
	CategoryValidation Category = "validation" // Bad user or API input
	CategoryConfig     Category = "config"     // Configuration loading/parsing errors
	CategoryCommand    Category = "command"    // Shell command errors
	CategoryIO         Category = "io"         // File/IO errors
	CategoryInternal   Category = "internal"   // Internal/unexpected errors
)

// GraphError is a coded error. Context holds key/value details shown
// under the message; Suggestions are remediation hints.
type GraphError struct {
	Code        string
	Category    Category
	Message     string
	Context     map[string]string
	Cause       error
	Suggestions []string
}

// Error implements the error interface.
func (e *GraphError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain inspection.
func (e *GraphError) Unwrap() error {
	return e.Cause
}

// Is reports whether e matches target. Two GraphErrors match if they have
// the same Code.
func (e *GraphError) Is(target error) bool {
	if t, ok := target.(*GraphError); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a new GraphError with the given code, category, and message.
func New(code string, category Category, message string) *GraphError {
	return &GraphError{
		Code:     code,
		Category: category,
		Message:  message,
		Context:  make(map[string]string),
	}
}

// Newf creates a new GraphError with a formatted message.
func Newf(code string, category Category, format string, args ...interface{}) *GraphError {
	return New(code, category, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error with a GraphError.
func Wrap(err error, code string, category Category, message string) *GraphError {
	return New(code, category, message).WithCause(err)
}

// WithContext adds a context key-value pair and returns the error for chaining.
func (e *GraphError) WithContext(key, value string) *GraphError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// WithCause wraps an underlying error and returns the error for chaining.
func (e *GraphError) WithCause(cause error) *GraphError {
	e.Cause = cause
	return e
}

// WithSuggestion adds a remediation suggestion and returns the error for chaining.
func (e *GraphError) WithSuggestion(suggestion string) *GraphError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

func (e *GraphError) HasContext() bool     { return len(e.Context) > 0 }
func (e *GraphError) HasSuggestions() bool { return len(e.Suggestions) > 0 }

// ContextString returns the context entries as sorted key="value" pairs.
func (e *GraphError) ContextString() string {
	if len(e.Context) == 0 {
		return ""
	}
	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%q", k, e.Context[k]))
	}
	return strings.Join(parts, ", ")
}

// AsGraphError finds the first GraphError in err's chain.
func AsGraphError(err error) (*GraphError, bool) {
	var ge *GraphError
	ok := err != nil && stderrors.As(err, &ge)
	return ge, ok
}

// IsCategory reports whether err's chain holds a GraphError of category.
func IsCategory(err error, category Category) bool {
	ge, ok := AsGraphError(err)
	return ok && ge.Category == category
}

// IsCode reports whether err's chain holds a GraphError with code.
func IsCode(err error, code string) bool {
	ge, ok := AsGraphError(err)
	return ok && ge.Code == code
}
