package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestBenchError_Error(t *testing.T) {
	err := New(ErrCategoryValidation, CodeInvalidConfig, "iterations must be positive")
	expected := "[VALIDATION:INVALID_CONFIG] iterations must be positive"
	if err.Error() != expected {
		t.Errorf("got %q, want %q", err.Error(), expected)
	}
}

func TestBenchError_ErrorWithCause(t *testing.T) {
	cause := fmt.Errorf("index out of range")
	err := Wrap(ErrCategoryExecution, CodeOperationFailed, "String Operations failed", cause)
	expected := "[EXECUTION:OPERATION_FAILED] String Operations failed: index out of range"
	if err.Error() != expected {
		t.Errorf("got %q, want %q", err.Error(), expected)
	}
}

func TestBenchError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := Wrap(ErrCategoryCatalog, CodeCatalogWriteFailed, "insert run", cause)
	if !errors.Is(err, cause) {
		t.Error("Unwrap should allow errors.Is to find the cause")
	}
}

func TestBenchError_Is(t *testing.T) {
	err1 := New(ErrCategoryExecution, CodeNondeterministicOutput, "first")
	err2 := New(ErrCategoryExecution, CodeNondeterministicOutput, "second")
	err3 := New(ErrCategoryExecution, CodeOperationFailed, "different code")

	if !errors.Is(err1, err2) {
		t.Error("errors with same category+code should match via Is")
	}
	if errors.Is(err1, err3) {
		t.Error("errors with different codes should not match via Is")
	}

	wrapped := fmt.Errorf("measure: %w", err1)
	if !errors.Is(wrapped, err2) {
		t.Error("Is should see through fmt.Errorf wrapping")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		category  ErrorCategory
		code      string
		retryable bool
	}{
		{ErrCategoryStorage, CodeUploadFailed, true},
		{ErrCategoryStorage, CodeObjectNotFound, false},
		{ErrCategoryExecution, CodeOperationFailed, false},
		{ErrCategoryExecution, CodeNondeterministicOutput, false},
		{ErrCategoryExecution, CodeCancelled, false},
		{ErrCategorySetup, CodeGenerationFailed, false},
		{ErrCategoryValidation, CodeInvalidConfig, false},
		{ErrCategoryCatalog, CodeCatalogWriteFailed, false},
		{ErrCategoryInternal, CodeUnexpected, false},
	}

	for _, tt := range tests {
		err := New(tt.category, tt.code, "test")
		if IsRetryable(err) != tt.retryable {
			t.Errorf("%s:%s retryable=%v, want %v", tt.category, tt.code, IsRetryable(err), tt.retryable)
		}
	}
}

func TestGetCategory(t *testing.T) {
	err := New(ErrCategorySetup, CodeGenerationFailed, "out of memory")
	if GetCategory(err) != ErrCategorySetup {
		t.Errorf("got %q, want %q", GetCategory(err), ErrCategorySetup)
	}
	if GetCategory(fmt.Errorf("plain error")) != "" {
		t.Error("non-BenchError should return empty category")
	}
}

func TestGetCode(t *testing.T) {
	err := New(ErrCategoryValidation, CodeUnknownOperation, "no such operation")
	if GetCode(err) != CodeUnknownOperation {
		t.Errorf("got %q, want %q", GetCode(err), CodeUnknownOperation)
	}
	if GetCode(fmt.Errorf("plain error")) != "" {
		t.Error("non-BenchError should return empty code")
	}
}

func TestWithDetails(t *testing.T) {
	err := New(ErrCategoryExecution, CodeNondeterministicOutput, "fingerprint mismatch")
	detailed := err.WithDetails(map[string]interface{}{"run": 3})

	if detailed.Details["run"] != 3 {
		t.Error("WithDetails should set details")
	}
	// Original should be unmodified
	if err.Details != nil {
		t.Error("WithDetails should not modify original")
	}
}

func TestConvenienceConstructors(t *testing.T) {
	cause := fmt.Errorf("io error")

	v := NewValidationError(CodeInvalidConfig, "bad size")
	if v.Category != ErrCategoryValidation || v.Code != CodeInvalidConfig {
		t.Error("NewValidationError mismatch")
	}

	s := NewSetupError(CodeGenerationFailed, "worker failed", cause)
	if s.Category != ErrCategorySetup || !errors.Is(s, cause) {
		t.Error("NewSetupError mismatch")
	}

	e := NewExecutionError(CodeOperationFailed, "panic", cause)
	if e.Category != ErrCategoryExecution {
		t.Error("NewExecutionError mismatch")
	}

	st := NewStorageError(CodeUploadFailed, "s3 down", cause)
	if st.Category != ErrCategoryStorage || !st.Retryable {
		t.Error("NewStorageError mismatch")
	}

	c := NewCatalogError(CodeCatalogWriteFailed, "locked", cause)
	if c.Category != ErrCategoryCatalog {
		t.Error("NewCatalogError mismatch")
	}

	i := NewInternalError("unexpected", cause)
	if i.Category != ErrCategoryInternal || i.Code != CodeUnexpected {
		t.Error("NewInternalError mismatch")
	}
}
