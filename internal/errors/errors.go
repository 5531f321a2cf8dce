package errors

import "fmt"

// ErrorCode represents a lexintake error code.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400
	ErrNotFound       ErrorCode = "NOT_FOUND"       // 404
	ErrFileNotFound   ErrorCode = "FILE_NOT_FOUND"  // 404
	ErrConflict       ErrorCode = "CONFLICT"        // 409
	ErrCancelled      ErrorCode = "CANCELLED"       // 499
	ErrInternal       ErrorCode = "INTERNAL"        // 500
)

// CaseError represents a structured error with code, status, and details.
type CaseError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *CaseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *CaseError {
	return &CaseError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for when a case id does not resolve.
func NewNotFound(caseID int64) *CaseError {
	return &CaseError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("case not found: %d", caseID),
		Details: map[string]any{"case_id": caseID},
	}
}

// NewFileNotFound creates a 404 error for a missing file path.
func NewFileNotFound(path string) *CaseError {
	return &CaseError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewConflict creates a 409 error for general conflicts.
func NewConflict(msg string) *CaseError {
	return &CaseError{
		Code:    ErrConflict,
		Status:  409,
		Message: msg,
	}
}

// NewCancelled creates a 499 error for a context-cancelled operation.
func NewCancelled(operation string) *CaseError {
	return &CaseError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", operation),
	}
}

// NewInternal creates a 500 error for storage and other unexpected failures.
func NewInternal(err error) *CaseError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &CaseError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a CaseError with the given code.
func Is(err error, code ErrorCode) bool {
	if cErr, ok := err.(*CaseError); ok {
		return cErr.Code == code
	}
	return false
}
