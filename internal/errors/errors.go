// Package errors provides the typed domain errors shared by the calculator,
// the currency provider, the catalog loaders and the HTTP API.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Type identifies the category of error
type Type string

const (
	// TypeInvalidInput indicates a rejected top-level request (bad salary, bad currency)
	TypeInvalidInput Type = "INVALID_INPUT"

	// TypeProfileNotFound indicates a country key missing from the catalog
	TypeProfileNotFound Type = "PROFILE_NOT_FOUND"

	// TypeConversionUnavailable indicates a currency code missing from the rate table
	TypeConversionUnavailable Type = "CONVERSION_UNAVAILABLE"

	// TypeCalculation indicates a failure inside one country's pipeline
	TypeCalculation Type = "CALCULATION_FAILURE"

	// TypeRateFetch indicates the remote rate source was unreachable or invalid
	TypeRateFetch Type = "RATE_FETCH_FAILURE"

	// TypeConfig indicates a configuration error
	TypeConfig Type = "CONFIG_ERROR"

	// TypeParsing indicates a parsing error
	TypeParsing Type = "PARSING_ERROR"

	// TypeValidation indicates catalog data that breaks a validation rule
	TypeValidation Type = "VALIDATION_ERROR"

	// TypeInternal indicates an internal error
	TypeInternal Type = "INTERNAL_ERROR"
)

// Error represents a domain error with context
type Error struct {
	Type    Type                   `json:"type"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// HasType reports whether the error itself is of type t
func (e *Error) HasType(t Type) bool {
	return e.Type == t
}

// WithContext adds context to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new error
func New(errType Type, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
	}
}

// Newf creates a new formatted error
func Newf(errType Type, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an error with context
func Wrap(errType Type, message string, cause error) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an error with formatted context
func Wrapf(errType Type, cause error, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// IsType reports whether any error in err's chain is a domain error of type t.
func IsType(err error, t Type) bool {
	var e *Error
	for err != nil {
		if !stderrors.As(err, &e) {
			return false
		}
		if e.Type == t {
			return true
		}
		err = e.Cause
	}
	return false
}

// TypeOf returns the type of the outermost domain error in err's chain,
// or TypeInternal when there is none.
func TypeOf(err error) Type {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return TypeInternal
}

// InvalidInput creates an invalid input error
func InvalidInput(message string) *Error {
	return New(TypeInvalidInput, message)
}

// InvalidInputf creates a formatted invalid input error
func InvalidInputf(format string, args ...interface{}) *Error {
	return Newf(TypeInvalidInput, format, args...)
}

// ProfileNotFound creates a not found error for a country key
func ProfileNotFound(key string) *Error {
	return Newf(TypeProfileNotFound, "country profile not found: %s", key).WithContext("country", key)
}

// ConversionUnavailable creates an error for a missing currency pair
func ConversionUnavailable(from, to string) *Error {
	return Newf(TypeConversionUnavailable, "no exchange rate for %s -> %s", from, to).
		WithContext("from", from).
		WithContext("to", to)
}

// Calculation creates a per-country calculation failure
func Calculation(country string, cause error) *Error {
	return Wrapf(TypeCalculation, cause, "calculation failed for %s", country).WithContext("country", country)
}

// RateFetch creates a rate fetch failure
func RateFetch(message string, cause error) *Error {
	return Wrap(TypeRateFetch, message, cause)
}

// Config creates a configuration error
func Config(message string, cause error) *Error {
	return Wrap(TypeConfig, message, cause)
}

// Parsing creates a parsing error
func Parsing(message string, cause error) *Error {
	return Wrap(TypeParsing, message, cause)
}

// Validation creates a validation error
func Validation(message string) *Error {
	return New(TypeValidation, message)
}

// Internal creates an internal error
func Internal(message string, cause error) *Error {
	return Wrap(TypeInternal, message, cause)
}
