package policy

import (
	"errors"
	"fmt"
)

// Code is the fixed, finite error-code taxonomy surfaced to callers
// (spec §7). Every error the engine returns wraps one of these.
type Code string

const (
	CodeInvalidInput       Code = "INVALID_INPUT"
	CodeExprTooDeep        Code = "POLICY_EXPR_TOO_DEEP"
	CodeEvalTimeout        Code = "POLICY_EVAL_TIMEOUT"
	CodeFactResolution     Code = "FACT_RESOLUTION_FAILED"
	CodeCompilationFailed  Code = "POLICY_COMPILATION_FAILED"
	CodeInternal           Code = "INTERNAL_ERROR"
)

// Error is the concrete error type every exported engine function
// returns on failure, carrying a stable machine-readable Code alongside
// the human message and, where applicable, the underlying cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// NewError constructs an *Error, optionally wrapping a cause.
func NewError(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Sentinel errors for errors.Is comparisons at call sites that don't
// need the full *Error detail.
var (
	ErrPolicyNotFound   = errors.New("policy: no matching policy found")
	ErrVersionNotFound  = errors.New("policy: no matching version found")
	ErrExpressionTooDeep = errors.New("policy: condition expression exceeds max depth")
	ErrEvalTimeout      = errors.New("policy: evaluation deadline exceeded")
	ErrFactResolution   = errors.New("policy: fact resolution failed")
	ErrCompilationFailed = errors.New("policy: all rules in version failed compilation")
	ErrInvalidInput     = errors.New("policy: invalid input")
)

// CodeOf extracts the Code from err if it is (or wraps) an *Error,
// defaulting to CodeInternal otherwise.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
