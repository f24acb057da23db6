// Copyright (c) 2025 A Bit of Help, Inc.

package offload

import (
	"encoding/binary"
	"fmt"

	"github.com/abitofhelp/fpga_gzip_offload/pkg/accel"
	customErrors "github.com/abitofhelp/fpga_gzip_offload/pkg/errors"
)

// jobArg is one positional argument of the compression job: either a buffer
// or a raw little-endian scalar.
type jobArg struct {
	buffer []byte
	scalar []byte
}

func (a jobArg) attach(req accel.Request, index int) error {
	if a.buffer != nil {
		return req.Buffer(index, a.buffer)
	}
	return req.Scalar(index, a.scalar)
}

func scalar64(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

func scalar32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

// submitJob builds one compression job against the acquired buffers, submits
// it, and blocks until the accelerator finishes or errors.
//
// The job contract fixes the 14 argument positions verbatim; the attachment
// loop preserves that order and short-circuits on the first failure. Any
// failure releases whatever handles were constructed, exactly once, without
// clobbering the error being propagated. On a successful submission the
// request handle is released immediately so accelerator-side resources are
// not held during the wait; the response handle is released after the wait.
func submitJob(rt accel.Runtime, b *buffers) error {
	req, err := rt.NewRequest(accel.GzipKernel)
	if err != nil {
		return fmt.Errorf("%w: create request: %v", customErrors.ErrAccelerator, err)
	}

	inputSize := scalar64(uint64(len(b.in)))
	outputCapacity := scalar64(uint64(len(b.out)))
	recordSize := scalar64(resultRecordSize)
	cellSize := scalar64(checksumCellSize)
	reservedZero := scalar64(0)
	lastBlock := scalar32(1) // single-shot: no continuation blocks follow

	args := []jobArg{
		{scalar: inputSize},
		{buffer: b.in},
		{scalar: inputSize}, // repeated per the job contract, offset base 0
		{scalar: reservedZero},
		{buffer: b.out},
		{scalar: outputCapacity},
		{scalar: reservedZero},
		{buffer: b.record},
		{scalar: recordSize},
		{scalar: reservedZero},
		{buffer: b.cell},
		{scalar: cellSize},
		{scalar: reservedZero},
		{scalar: lastBlock},
	}
	for index, arg := range args {
		if err := arg.attach(req, index); err != nil {
			req.Release()
			return fmt.Errorf("%w: attach argument %d: %v", customErrors.ErrAccelerator, index, err)
		}
	}

	resp, err := rt.NewResponse()
	if err != nil {
		req.Release()
		return fmt.Errorf("%w: create response: %v", customErrors.ErrAccelerator, err)
	}
	if err := rt.Submit(req, resp); err != nil {
		req.Release()
		resp.Release()
		return fmt.Errorf("%w: submit: %v", customErrors.ErrAccelerator, err)
	}
	req.Release()

	if err := resp.Wait(); err != nil {
		resp.Release()
		return fmt.Errorf("%w: wait: %v", customErrors.ErrAccelerator, err)
	}
	resp.Release()
	return nil
}
