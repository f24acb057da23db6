// Copyright (c) 2025 A Bit of Help, Inc.

package errors

import (
	"errors"
	"fmt"
	"os"
	"testing"
)

func TestOffloadError(t *testing.T) {
	// Test NewOffloadError
	baseErr := errors.New("test error")
	oe := NewOffloadError(baseErr, "submit", "attach_argument", 100, "test-file.txt")

	// Verify fields
	if oe.Err != baseErr {
		t.Errorf("Expected Err to be %v, got %v", baseErr, oe.Err)
	}
	if oe.Stage != "submit" {
		t.Errorf("Expected Stage to be %s, got %s", "submit", oe.Stage)
	}
	if oe.Operation != "attach_argument" {
		t.Errorf("Expected Operation to be %s, got %s", "attach_argument", oe.Operation)
	}
	if oe.DataSize != 100 {
		t.Errorf("Expected DataSize to be %d, got %d", 100, oe.DataSize)
	}
	if oe.FilePath != "test-file.txt" {
		t.Errorf("Expected FilePath to be %s, got %s", "test-file.txt", oe.FilePath)
	}

	// Test Error method
	errorStr := oe.Error()
	if errorStr == "" {
		t.Error("Error() returned empty string")
	}

	// Test Unwrap method
	unwrappedErr := oe.Unwrap()
	if unwrappedErr != baseErr {
		t.Errorf("Expected Unwrap() to return %v, got %v", baseErr, unwrappedErr)
	}
}

func TestIsReadError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"ErrReadFailure", ErrReadFailure, true},
		{"Wrapped read error", fmt.Errorf("wrapped: %w", ErrReadFailure), true},
		{"Write error", ErrWriteFailure, false},
		{"Other error", errors.New("some other error"), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := IsReadError(tc.err)
			if result != tc.expected {
				t.Errorf("IsReadError(%v) = %v, expected %v", tc.err, result, tc.expected)
			}
		})
	}
}

func TestIsWriteError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"ErrWriteFailure", ErrWriteFailure, true},
		{"Wrapped write error", fmt.Errorf("wrapped: %w", ErrWriteFailure), true},
		{"Read error", ErrReadFailure, false},
		{"Other error", errors.New("some other error"), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := IsWriteError(tc.err)
			if result != tc.expected {
				t.Errorf("IsWriteError(%v) = %v, expected %v", tc.err, result, tc.expected)
			}
		})
	}
}

func TestIsAcceleratorError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"ErrAccelerator", ErrAccelerator, true},
		{"ErrAllocation", ErrAllocation, true},
		{"Wrapped accelerator error", fmt.Errorf("wrapped: %w", ErrAccelerator), true},
		{"Other error", errors.New("some other error"), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := IsAcceleratorError(tc.err)
			if result != tc.expected {
				t.Errorf("IsAcceleratorError(%v) = %v, expected %v", tc.err, result, tc.expected)
			}
		})
	}
}

func TestIsIOError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"ErrIOFailure", ErrIOFailure, true},
		{"PathError", &os.PathError{Op: "open", Path: "nonexistent", Err: os.ErrNotExist}, true},
		{"Other error", errors.New("some other error"), false},
		{"Wrapped IO error", fmt.Errorf("wrapped: %w", ErrIOFailure), true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := IsIOError(tc.err)
			if result != tc.expected {
				t.Errorf("IsIOError(%v) = %v, expected %v", tc.err, result, tc.expected)
			}
		})
	}
}

func TestErrorCollector(t *testing.T) {
	// Test NewErrorCollector
	ec := NewErrorCollector()
	if ec == nil {
		t.Fatal("NewErrorCollector() returned nil")
	}

	// Test HasErrors when empty
	if ec.HasErrors() {
		t.Error("New ErrorCollector should not have errors")
	}

	// Test Error when empty
	if ec.Error() != "no errors" {
		t.Errorf("Expected 'no errors', got '%s'", ec.Error())
	}

	// Test Add with nil
	ec.Add(nil)
	if ec.HasErrors() {
		t.Error("ErrorCollector should not have errors after adding nil")
	}

	// Test Add with error
	err1 := errors.New("error 1")
	ec.Add(err1)

	// Test HasErrors after adding
	if !ec.HasErrors() {
		t.Error("ErrorCollector should have errors after Add")
	}

	// Test Error with one error
	if ec.Error() != err1.Error() {
		t.Errorf("Expected '%s', got '%s'", err1.Error(), ec.Error())
	}

	// Test Errors
	errs := ec.Errors()
	if len(errs) != 1 || errs[0] != err1 {
		t.Errorf("Expected [%v], got %v", []error{err1}, errs)
	}

	// Add another error
	err2 := errors.New("error 2")
	ec.Add(err2)

	// Test Error with multiple errors
	errorMsg := ec.Error()
	if errorMsg == "" {
		t.Error("Error() returned empty string")
	}
	if len(ec.Errors()) != 2 {
		t.Errorf("Expected 2 errors, got %d", len(ec.Errors()))
	}
}
