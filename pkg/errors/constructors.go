package errors

import (
	"fmt"
	"strconv"
	"strings"
)

// -----------------------------------------------------------------------------
// Smart Constructors with Auto-Attached Suggestions
// -----------------------------------------------------------------------------

// ShapeMismatch reports a dimension inconsistency. layer is the offending
// layer index, or -1 when the mismatch is in entity ids or bounds.
func ShapeMismatch(what string, layer int, expected, actual []int) *GraphError {
	msg := fmt.Sprintf("%s shape %s != %s", what, FormatShape(actual), FormatShape(expected))
	if layer >= 0 {
		msg = fmt.Sprintf("layer %d shape %s != %s", layer, FormatShape(actual), FormatShape(expected))
	}
	err := New(ErrShapeMismatch, CategoryShape, msg).
		WithContext("expected", FormatShape(expected)).
		WithContext("actual", FormatShape(actual))
	if layer >= 0 {
		err.WithContext("layer", strconv.Itoa(layer))
	} else {
		err.WithContext("field", what)
	}
	return AttachSuggestions(err)
}

// EmptyAxis reports a dataset with no batches, or no heads while it has
// layers. No view state exists for such a shape.
func EmptyAxis(axis string) *GraphError {
	err := Newf(ErrShapeMismatch, CategoryShape, "dataset has no %s", axis).
		WithContext("field", axis)
	return AttachSuggestions(err)
}

// HalfOverflow reports a layer value that float16 cannot represent.
func HalfOverflow(layer, index int, value float32) *GraphError {
	err := Newf(ErrHalfOverflow, CategoryFormat, "layer %d value %g at flat index %d overflows float16", layer, value, index).
		WithContext("layer", strconv.Itoa(layer)).
		WithContext("index", strconv.Itoa(index))
	return AttachSuggestions(err)
}

// NonFinite reports a NaN or Inf value found at location.
func NonFinite(location string, value float64) *GraphError {
	err := Newf(ErrNonFiniteValue, CategoryShape, "non-finite value %v in %s", value, location).
		WithContext("location", location)
	return AttachSuggestions(err)
}

// Malformed reports an attnbin decode failure.
func Malformed(format string, args ...interface{}) *GraphError {
	return AttachSuggestions(Newf(ErrMalformedFile, CategoryFormat, format, args...))
}

// MalformedWrap reports an attnbin decode failure caused by err.
func MalformedWrap(cause error, message string) *GraphError {
	return AttachSuggestions(Wrap(cause, ErrMalformedFile, CategoryFormat, message))
}

// OutOfRange reports an index outside [0, bound).
func OutOfRange(name string, value, bound int) *GraphError {
	return Newf(ErrOutOfRange, CategoryValidation, "%s %d out of range [0, %d)", name, value, bound).
		WithContext(name, strconv.Itoa(value)).
		WithContext("bound", strconv.Itoa(bound))
}

// Validation creates a validation error with auto-attached suggestions.
func Validation(code, message string) *GraphError {
	return AttachSuggestions(New(code, CategoryValidation, message))
}

// Validationf creates a validation error with a formatted message.
func Validationf(code, format string, args ...interface{}) *GraphError {
	return Validation(code, fmt.Sprintf(format, args...))
}

// Config creates a configuration error with auto-attached suggestions.
func Config(code, message string) *GraphError {
	return AttachSuggestions(New(code, CategoryConfig, message))
}

// ConfigWrap wraps an error as a configuration error with auto-attached suggestions.
func ConfigWrap(cause error, code, message string) *GraphError {
	return AttachSuggestions(Wrap(cause, code, CategoryConfig, message))
}

// Command creates a shell command error with auto-attached suggestions.
func Command(code, message string) *GraphError {
	return AttachSuggestions(New(code, CategoryCommand, message))
}

// Commandf creates a command error with a formatted message.
func Commandf(code, format string, args ...interface{}) *GraphError {
	return Command(code, fmt.Sprintf(format, args...))
}

// IOWrap wraps an error as an IO error with auto-attached suggestions.
func IOWrap(cause error, code, message string) *GraphError {
	return AttachSuggestions(Wrap(cause, code, CategoryIO, message))
}

// Internal creates an internal error.
func Internal(message string) *GraphError {
	return New(ErrInternal, CategoryInternal, message)
}

// FormatShape renders a shape the way numpy prints it: (2, 3, 4).
func FormatShape(dims []int) string {
	parts := make([]string, len(dims))
	for i, d := range dims {
		parts[i] = strconv.Itoa(d)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
