package errors

import "fmt"

// ErrorCode represents a tabvault error code.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400
	ErrNotFound       ErrorCode = "NOT_FOUND"       // 404
	ErrConflict       ErrorCode = "CONFLICT"        // 409
	ErrQuotaExceeded  ErrorCode = "QUOTA_EXCEEDED"  // 413
	ErrWriteFailed    ErrorCode = "WRITE_FAILED"    // 500
	ErrInternal       ErrorCode = "INTERNAL"        // 500
)

// VaultError represents a structured error with code, status, and details.
type VaultError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
	cause   error
}

// Error implements the error interface.
func (e *VaultError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *VaultError) Unwrap() error {
	return e.cause
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *VaultError {
	return &VaultError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing record.
func NewNotFound(identifier string) *VaultError {
	return &VaultError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("record not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewConflict creates a 409 error for general conflicts.
func NewConflict(msg string) *VaultError {
	return &VaultError{
		Code:    ErrConflict,
		Status:  409,
		Message: msg,
	}
}

// NewQuotaExceeded creates a 413 error for values that do not fit the
// sync partition's per-item ceiling.
func NewQuotaExceeded(key string, max, actual int) *VaultError {
	return &VaultError{
		Code:    ErrQuotaExceeded,
		Status:  413,
		Message: fmt.Sprintf("value for key %q exceeds partition quota: %d bytes (max %d)", key, actual, max),
		Details: map[string]any{"key": key, "max_bytes": max, "actual_bytes": actual},
	}
}

// NewWriteFailed creates a 500 error for a backend write that must not be
// dropped silently. op names the logical operation, e.g. "save workspace".
func NewWriteFailed(op string, cause error) *VaultError {
	return &VaultError{
		Code:    ErrWriteFailed,
		Status:  500,
		Message: fmt.Sprintf("failed to %s: %v", op, cause),
		cause:   cause,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *VaultError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &VaultError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		cause:   err,
	}
}

// Is checks if an error is a VaultError with the given code.
func Is(err error, code ErrorCode) bool {
	if vErr, ok := err.(*VaultError); ok {
		return vErr.Code == code
	}
	return false
}
