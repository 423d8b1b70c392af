// Package errors provides structured error types for pipebench.
// All errors include a category, code, message, and retryable flag so the
// CLI can decide how a failed run is reported.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors by the phase of a run that produced them.
type ErrorCategory string

const (
	ErrCategoryValidation ErrorCategory = "VALIDATION"
	ErrCategorySetup      ErrorCategory = "SETUP"
	ErrCategoryExecution  ErrorCategory = "EXECUTION"
	ErrCategoryStorage    ErrorCategory = "STORAGE"
	ErrCategoryCatalog    ErrorCategory = "CATALOG"
	ErrCategoryInternal   ErrorCategory = "INTERNAL"
)

// Error codes for each category.
const (
	// Validation codes
	CodeInvalidConfig    = "INVALID_CONFIG"
	CodeUnknownOperation = "UNKNOWN_OPERATION"

	// Setup codes
	CodeGenerationFailed = "GENERATION_FAILED"

	// Execution codes
	CodeOperationFailed        = "OPERATION_FAILED"
	CodeNondeterministicOutput = "NONDETERMINISTIC_OUTPUT"
	CodeCancelled              = "CANCELLED"

	// Storage codes
	CodeUploadFailed   = "UPLOAD_FAILED"
	CodeDeleteFailed   = "DELETE_FAILED"
	CodeObjectNotFound = "OBJECT_NOT_FOUND"

	// Catalog codes
	CodeCatalogWriteFailed = "CATALOG_WRITE_FAILED"
	CodeCatalogReadFailed  = "CATALOG_READ_FAILED"

	// Internal codes
	CodeUnexpected = "UNEXPECTED"
)

// BenchError is the structured error type used throughout the system.
type BenchError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Details   map[string]interface{}
	Cause     error
	Retryable bool
}

// Error returns a formatted error string.
func (e *BenchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *BenchError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches this error's category and code.
func (e *BenchError) Is(target error) bool {
	var t *BenchError
	if errors.As(target, &t) {
		return e.Category == t.Category && e.Code == t.Code
	}
	return false
}

// New creates a new BenchError.
func New(category ErrorCategory, code, message string) *BenchError {
	return &BenchError{
		Category:  category,
		Code:      code,
		Message:   message,
		Retryable: isRetryable(category, code),
	}
}

// Wrap creates a new BenchError wrapping an existing error.
func Wrap(category ErrorCategory, code, message string, cause error) *BenchError {
	return &BenchError{
		Category:  category,
		Code:      code,
		Message:   message,
		Cause:     cause,
		Retryable: isRetryable(category, code),
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *BenchError) WithDetails(details map[string]interface{}) *BenchError {
	cp := *e
	cp.Details = details
	return &cp
}

// IsRetryable checks whether an error (or its chain) is retryable.
func IsRetryable(err error) bool {
	var be *BenchError
	if errors.As(err, &be) {
		return be.Retryable
	}
	return false
}

// GetCategory extracts the error category from an error chain.
// Returns empty string if the error is not a BenchError.
func GetCategory(err error) ErrorCategory {
	var be *BenchError
	if errors.As(err, &be) {
		return be.Category
	}
	return ""
}

// GetCode extracts the error code from an error chain.
// Returns empty string if the error is not a BenchError.
func GetCode(err error) string {
	var be *BenchError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

// isRetryable reports whether a category/code pair may be retried. Timed
// runs are deterministic, so nothing in the execution category is.
func isRetryable(category ErrorCategory, code string) bool {
	switch {
	case category == ErrCategoryStorage && code == CodeUploadFailed:
		return true
	default:
		return false
	}
}

// Convenience constructors for common errors.

func NewValidationError(code, message string) *BenchError {
	return New(ErrCategoryValidation, code, message)
}

func NewSetupError(code, message string, cause error) *BenchError {
	return Wrap(ErrCategorySetup, code, message, cause)
}

func NewExecutionError(code, message string, cause error) *BenchError {
	return Wrap(ErrCategoryExecution, code, message, cause)
}

func NewStorageError(code, message string, cause error) *BenchError {
	return Wrap(ErrCategoryStorage, code, message, cause)
}

func NewCatalogError(code, message string, cause error) *BenchError {
	return Wrap(ErrCategoryCatalog, code, message, cause)
}

func NewInternalError(message string, cause error) *BenchError {
	return Wrap(ErrCategoryInternal, CodeUnexpected, message, cause)
}
