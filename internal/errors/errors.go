// Package errors provides standardized error types for the proxmox-ssl-setup CLI.
//
// The errors package defines provisioning-specific error types that enable
// structured error handling and consistent diagnostics throughout the
// application.
//
// # Error Types
//
// ProvisionError is the primary error type, containing:
//   - Code: Categorizes the error (UNREACHABLE, UNAUTHORIZED, etc.)
//   - Stage: The pipeline stage that produced the error (if applicable)
//   - Message: Human-readable error description
//   - Response: The last-seen server response body (if any)
//   - Err: The underlying wrapped error (if any)
//
// # Sentinel Errors
//
// Common error scenarios have pre-defined sentinel errors:
//
//	errors.ErrUnreachable    // endpoint could not be contacted
//	errors.ErrUnauthorized   // credential rejected
//	errors.ErrAlreadyExists  // resource already present (not fatal)
//	errors.ErrRootRequired   // local mode needs root privileges
//
// # Error Checking
//
// Use errors.Is for sentinel error comparison:
//
//	if errors.Is(err, errors.ErrAlreadyExists) {
//	    // Idempotent success, continue
//	}
//
// Use errors.As for type assertion:
//
//	var perr *errors.ProvisionError
//	if errors.As(err, &perr) {
//	    fmt.Printf("Code: %s, Stage: %s\n", perr.Code, perr.Stage)
//	}
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes errors for programmatic handling.
type ErrorCode string

// Error codes for different error categories.
const (
	ErrCodeUnreachable   ErrorCode = "UNREACHABLE"    // Endpoint could not be contacted
	ErrCodeUnauthorized  ErrorCode = "UNAUTHORIZED"   // Credential missing or rejected
	ErrCodeAlreadyExists ErrorCode = "ALREADY_EXISTS" // Resource already present (idempotent success)
	ErrCodeValidation    ErrorCode = "VALIDATION"     // Input validation failed
	ErrCodeConfig        ErrorCode = "CONFIG"         // Configuration error
	ErrCodeIssuance      ErrorCode = "ISSUANCE"       // Certificate ordering or issuance failed
	ErrCodeVerification  ErrorCode = "VERIFICATION"   // Certificate never appeared or smoke test failed
	ErrCodePermission    ErrorCode = "PERMISSION"     // Insufficient privileges
	ErrCodeInternal      ErrorCode = "INTERNAL"       // Internal/unexpected error
)

// ProvisionError represents a structured error with context about the
// provisioning operation that produced it.
type ProvisionError struct {
	Code     ErrorCode // Error category
	Stage    string    // Pipeline stage (probe, account, plugin, order, verify)
	Message  string    // Human-readable message
	Response string    // Last-seen server response body, for diagnosis
	Err      error     // Underlying error (if any)
}

// Error implements the error interface.
func (e *ProvisionError) Error() string {
	msg := e.Message
	if e.Stage != "" {
		msg = fmt.Sprintf("%s: %s", e.Stage, msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Response != "" {
		msg = fmt.Sprintf("%s (server response: %s)", msg, e.Response)
	}
	return msg
}

// Unwrap returns the underlying error for error chain traversal.
func (e *ProvisionError) Unwrap() error {
	return e.Err
}

// Is reports whether target matches this error.
// Comparison is based on error code.
func (e *ProvisionError) Is(target error) bool {
	t, ok := target.(*ProvisionError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Sentinel errors for common error scenarios.
// Use these with errors.Is() for error checking.
var (
	// ErrUnreachable indicates the management endpoint could not be contacted.
	ErrUnreachable = &ProvisionError{Code: ErrCodeUnreachable, Message: "endpoint unreachable"}

	// ErrUnauthorized indicates the management credential was rejected.
	ErrUnauthorized = &ProvisionError{Code: ErrCodeUnauthorized, Message: "unauthorized"}

	// ErrAlreadyExists indicates the resource already exists server-side.
	// This is an idempotent success at the account and plugin stages.
	ErrAlreadyExists = &ProvisionError{Code: ErrCodeAlreadyExists, Message: "already exists"}

	// ErrInvalidDomain indicates the domain name is not valid.
	ErrInvalidDomain = &ProvisionError{Code: ErrCodeValidation, Message: "invalid domain"}

	// ErrInvalidTarget indicates the target kind is not ve or pbs.
	ErrInvalidTarget = &ProvisionError{Code: ErrCodeValidation, Message: "invalid target kind"}

	// ErrInvalidEmail indicates the contact email is not well-formed.
	ErrInvalidEmail = &ProvisionError{Code: ErrCodeValidation, Message: "invalid contact email"}

	// ErrConfigInvalid indicates the configuration file is invalid or corrupt.
	ErrConfigInvalid = &ProvisionError{Code: ErrCodeConfig, Message: "invalid configuration"}

	// ErrIssuanceFailed indicates the issuance trigger was rejected.
	ErrIssuanceFailed = &ProvisionError{Code: ErrCodeIssuance, Message: "issuance failed"}

	// ErrVerificationTimeout indicates the certificate never appeared within
	// the poll budget.
	ErrVerificationTimeout = &ProvisionError{Code: ErrCodeVerification, Message: "verification timed out"}

	// ErrRootRequired indicates root privileges are required for local mode.
	ErrRootRequired = &ProvisionError{Code: ErrCodePermission, Message: "root privileges required"}
)

// Unreachable creates an endpoint-unreachable error wrapping the cause.
func Unreachable(err error) error {
	return &ProvisionError{
		Code:    ErrCodeUnreachable,
		Message: "endpoint unreachable",
		Err:     err,
	}
}

// Unauthorized creates a credential-rejected error carrying the server response.
func Unauthorized(response string) error {
	return &ProvisionError{
		Code:     ErrCodeUnauthorized,
		Message:  "unauthorized",
		Response: response,
	}
}

// AlreadyExists creates the idempotent already-exists marker for a resource.
func AlreadyExists(resource string) error {
	return &ProvisionError{
		Code:    ErrCodeAlreadyExists,
		Message: fmt.Sprintf("%s already exists", resource),
	}
}

// Validation creates a validation error with a custom message.
func Validation(msg string) error {
	return &ProvisionError{
		Code:    ErrCodeValidation,
		Message: msg,
	}
}

// Stage creates an error attributed to a pipeline stage, carrying the server
// response body for diagnosis.
func Stage(code ErrorCode, stage, msg, response string, err error) error {
	return &ProvisionError{
		Code:     code,
		Stage:    stage,
		Message:  msg,
		Response: response,
		Err:      err,
	}
}

// Wrap creates an error with the specified code, message, and underlying error.
func Wrap(code ErrorCode, msg string, err error) error {
	return &ProvisionError{
		Code:    code,
		Message: msg,
		Err:     err,
	}
}

// Is reports whether any error in err's chain matches target.
// This is a re-export of errors.Is for convenience.
var Is = errors.Is

// As finds the first error in err's chain that matches target.
// This is a re-export of errors.As for convenience.
var As = errors.As
