// Copyright (c) 2025 A Bit of Help, Inc.

// Package errors provides custom error types and error handling utilities for the application.
package errors

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// Standard errors that can be used for comparison with errors.Is
var (
	// ErrReadFailure indicates the input file could not be read
	ErrReadFailure = errors.New("input read failed")

	// ErrWriteFailure indicates the output file could not be written
	ErrWriteFailure = errors.New("output write failed")

	// ErrAccelerator indicates an accelerator job failed at some lifecycle stage
	ErrAccelerator = errors.New("accelerator job failed")

	// ErrAllocation indicates accelerator-visible memory could not be acquired
	ErrAllocation = errors.New("accelerator buffer allocation failed")

	// ErrIOFailure indicates a general I/O operation failed
	ErrIOFailure = errors.New("I/O operation failed")
)

// OffloadError represents an error that occurred during an offload attempt
type OffloadError struct {
	// Err is the underlying error
	Err error

	// Stage is the offload stage where the error occurred
	Stage string

	// Operation is the operation being performed
	Operation string

	// Time is when the error occurred
	Time time.Time

	// DataSize is the size of the data being processed
	DataSize int64

	// FilePath is the path of the file being processed
	FilePath string
}

// Error implements the error interface
func (e *OffloadError) Error() string {
	return fmt.Sprintf("[%s] %s (stage=%s, size=%d, file=%s): %v",
		e.Time.Format(time.RFC3339),
		e.Operation,
		e.Stage,
		e.DataSize,
		e.FilePath,
		e.Err)
}

// Unwrap returns the underlying error
func (e *OffloadError) Unwrap() error {
	return e.Err
}

// NewOffloadError creates a new OffloadError
func NewOffloadError(err error, stage, operation string, dataSize int64, filePath string) *OffloadError {
	return &OffloadError{
		Err:       err,
		Stage:     stage,
		Operation: operation,
		Time:      time.Now(),
		DataSize:  dataSize,
		FilePath:  filePath,
	}
}

// IsReadError checks if the error is an input read failure
func IsReadError(err error) bool {
	return errors.Is(err, ErrReadFailure)
}

// IsWriteError checks if the error is an output write failure
func IsWriteError(err error) bool {
	return errors.Is(err, ErrWriteFailure)
}

// IsAcceleratorError checks if the error originated at the accelerator boundary
func IsAcceleratorError(err error) bool {
	return errors.Is(err, ErrAccelerator) || errors.Is(err, ErrAllocation)
}

// IsIOError checks if the error is an I/O error
func IsIOError(err error) bool {
	var pathErr *os.PathError
	return errors.Is(err, ErrIOFailure) || errors.As(err, &pathErr)
}

// ErrorCollector collects multiple errors
type ErrorCollector struct {
	errors []error
}

// NewErrorCollector creates a new ErrorCollector
func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{
		errors: make([]error, 0),
	}
}

// Add adds an error to the collector
func (c *ErrorCollector) Add(err error) {
	if err != nil {
		c.errors = append(c.errors, err)
	}
}

// HasErrors returns true if the collector has any errors
func (c *ErrorCollector) HasErrors() bool {
	return len(c.errors) > 0
}

// Error implements the error interface
func (c *ErrorCollector) Error() string {
	if len(c.errors) == 0 {
		return "no errors"
	}

	if len(c.errors) == 1 {
		return c.errors[0].Error()
	}

	msg := fmt.Sprintf("%d errors occurred:\n", len(c.errors))
	for i, err := range c.errors {
		msg += fmt.Sprintf("  %d: %v\n", i+1, err)
	}
	return msg
}

// Errors returns all collected errors
func (c *ErrorCollector) Errors() []error {
	return c.errors
}
