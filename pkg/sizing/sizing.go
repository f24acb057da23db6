// Copyright (c) 2025 A Bit of Help, Inc.

// Package sizing provides output buffer sizing for accelerator compression jobs.
//
// The constants here mirror the accelerator's fixed block-parallelism
// characteristics. They are device properties, not tunables.
package sizing

const (
	// KVec is the accelerator's block-parallelism width. The worst-case
	// framing overhead of a compression job is a small multiple of it.
	KVec = 16

	// KMinBufferSize is the smallest output buffer the accelerator accepts.
	// Tiny inputs would otherwise underallocate once overhead is added.
	KMinBufferSize = 16 * 1024

	// MinimumInputSize is the smallest input worth dispatching to hardware.
	// Anything below it routes straight to the software compressor.
	MinimumInputSize = KVec + 1
)

// MaxOutputSize returns a safe upper bound for the compressed output buffer
// for an input of the given size. The bound accounts for worst-case per-block
// framing overhead at maximum parallelism and never drops below the
// accelerator's minimum buffer size.
func MaxOutputSize(inputSize int64) int64 {
	size := inputSize + 16*KVec
	if size < KMinBufferSize {
		size = KMinBufferSize
	}
	return size
}
