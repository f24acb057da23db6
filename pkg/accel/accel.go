// Copyright (c) 2025 A Bit of Help, Inc.

// Package accel defines the opaque boundary to the hardware compression
// accelerator's client runtime.
//
// The runtime is modeled as a job/response lifecycle: allocate
// accelerator-visible memory, create a request for a fixed kernel, attach
// positional scalar and buffer arguments, create a response handle, submit,
// wait, and release. Every lifecycle call can fail independently and must be
// checked by the caller.
//
// A real client binding installs itself once at process startup via
// Register. When nothing is registered, Detect returns an always-unavailable
// runtime whose allocation failures route callers into their normal software
// fallback.
package accel

import (
	"errors"
	"sync"
)

// GzipKernel is the single fixed compression job type this module submits.
const GzipKernel = "intel.compression.gzip"

// ErrUnavailable indicates no accelerator runtime is present.
var ErrUnavailable = errors.New("accelerator runtime unavailable")

// Runtime is the accelerator client runtime boundary.
//
// Implementations are opaque to callers. The only guarantees consumed by
// this module are: Alloc returns memory the accelerator can address, Free
// releases it, and Submit queues a request against a response handle that
// Wait blocks on until the remote job completes or errors.
type Runtime interface {
	// Alloc acquires accelerator-visible memory of the given size.
	Alloc(size int) ([]byte, error)

	// Free releases memory previously returned by Alloc. Freeing a nil
	// buffer is a no-op.
	Free(buf []byte)

	// NewRequest creates a job request for the named kernel.
	NewRequest(kernel string) (Request, error)

	// NewResponse creates a response handle for one submission.
	NewResponse() (Response, error)

	// Submit queues the request for execution. On success the request
	// handle may be released immediately; completion is observed through
	// the response handle.
	Submit(req Request, resp Response) error
}

// Request is one job description under construction. Arguments are
// positional; the accelerator's job contract fixes their order and indices.
type Request interface {
	// Scalar attaches a scalar argument at the given position. The value
	// is the scalar's raw little-endian encoding; its length is the
	// scalar's width.
	Scalar(index int, value []byte) error

	// Buffer attaches a buffer-with-length argument at the given position.
	Buffer(index int, buf []byte) error

	// Release frees the request handle. Releasing does not disturb any
	// error state the caller is propagating.
	Release()
}

// Response is the completion handle for one submitted job.
type Response interface {
	// Wait blocks until the job completes or errors. There is no timeout:
	// a hung accelerator hangs the caller.
	Wait() error

	// Release frees the response handle.
	Release()
}

var (
	registerMu sync.Mutex
	registered Runtime
)

// Register installs a runtime as the process-wide accelerator binding.
// It is intended to be called once at startup by a real client package.
func Register(rt Runtime) {
	registerMu.Lock()
	defer registerMu.Unlock()
	registered = rt
}

// Detect returns the registered accelerator runtime, or an always-unavailable
// runtime when none has been registered.
func Detect() Runtime {
	registerMu.Lock()
	defer registerMu.Unlock()
	if registered != nil {
		return registered
	}
	return Unavailable()
}

// Unavailable returns a Runtime whose every acquisition fails with
// ErrUnavailable. Allocation failure is the first thing an offload attempt
// does through the runtime, so callers degrade to software without any
// special-casing.
func Unavailable() Runtime {
	return unavailable{}
}

type unavailable struct{}

func (unavailable) Alloc(int) ([]byte, error) { return nil, ErrUnavailable }

func (unavailable) Free([]byte) {}

func (unavailable) NewRequest(string) (Request, error) { return nil, ErrUnavailable }

func (unavailable) NewResponse() (Response, error) { return nil, ErrUnavailable }

func (unavailable) Submit(Request, Response) error { return ErrUnavailable }
