package tx

import (
	"errors"
	"fmt"
)

// BuildError is returned when a transaction cannot be assembled or signed.
//
// Amount and key problems are reported synchronously and never coerced:
// a builder that fails leaves the caller to decide what to do next.
type BuildError struct {
	Code    string // Error code (e.g., ErrInvalidAmount, ErrMissingKey)
	Message string // Human-readable error message
	Cause   error  // Underlying error (if any)
}

func (e *BuildError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("build error [%s]: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("build error [%s]: %s", e.Code, e.Message)
}

func (e *BuildError) Unwrap() error {
	return e.Cause
}

// ParseError is returned when wire bytes do not decode to a transaction.
type ParseError struct {
	Message string // Human-readable error message
	Cause   error  // Underlying decode error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// CombineError is returned when separately signed copies of a transaction
// cannot be merged.
type CombineError struct {
	Code    string
	Message string
}

func (e *CombineError) Error() string {
	return fmt.Sprintf("combine error [%s]: %s", e.Code, e.Message)
}

// Error codes carried by CombineError.
const (
	ErrIncompatible    = "INCOMPATIBLE"     // Copies do not share the same body
	ErrConflictingData = "CONFLICTING_DATA" // Copies carry different unlocks for one input
)

// Error codes carried by BuildError.
const (
	ErrInvalidAmount      = "INVALID_AMOUNT"      // Output amount is zero or negative
	ErrInsufficientAmount = "INSUFFICIENT_AMOUNT" // Outputs and fees exceed the inputs
	ErrPayloadTooLarge    = "PAYLOAD_TOO_LARGE"   // Payload exceeds the size limit
	ErrMissingKey         = "MISSING_KEY"         // No key can sign an input
	ErrAlreadySigned      = "ALREADY_SIGNED"      // Builder was used after signing
	ErrInvalidInput       = "INVALID_INPUT"       // Input data is invalid or malformed
)

// IsCode reports whether err carries a BuildError or CombineError with the
// given code.
func IsCode(err error, code string) bool {
	var be *BuildError
	if errors.As(err, &be) {
		return be.Code == code
	}
	var ce *CombineError
	return errors.As(err, &ce) && ce.Code == code
}
