// Copyright (c) 2025 A Bit of Help, Inc.

package offload

import (
	"encoding/binary"
	"fmt"

	"github.com/abitofhelp/fpga_gzip_offload/pkg/accel"
	customErrors "github.com/abitofhelp/fpga_gzip_offload/pkg/errors"
)

const (
	// resultRecordSize is the fixed size of the accelerator's result record:
	// an 8-byte compressed size followed by an 8-byte checksum word.
	resultRecordSize = 16

	// checksumCellSize is the size of the mutable checksum cell the
	// accelerator reads its seed from and writes its result to.
	checksumCellSize = 4
)

// buffers owns the four accelerator-visible allocations of one offload
// attempt: input, output, result record and checksum cell. They are acquired
// together and released together; no allocation outlives the attempt.
type buffers struct {
	rt     accel.Runtime
	in     []byte
	out    []byte
	record []byte
	cell   []byte
}

// acquireBuffers allocates all four accelerator-visible buffers. On any
// failure it frees whichever allocations already succeeded and reports an
// allocation error.
func acquireBuffers(rt accel.Runtime, inputSize, outputCapacity int64) (*buffers, error) {
	b := &buffers{rt: rt}
	var err error

	if b.in, err = rt.Alloc(int(inputSize)); err != nil {
		return nil, fmt.Errorf("%w: input buffer: %v", customErrors.ErrAllocation, err)
	}
	if b.out, err = rt.Alloc(int(outputCapacity)); err != nil {
		b.release()
		return nil, fmt.Errorf("%w: output buffer: %v", customErrors.ErrAllocation, err)
	}
	if b.record, err = rt.Alloc(resultRecordSize); err != nil {
		b.release()
		return nil, fmt.Errorf("%w: result record: %v", customErrors.ErrAllocation, err)
	}
	if b.cell, err = rt.Alloc(checksumCellSize); err != nil {
		b.release()
		return nil, fmt.Errorf("%w: checksum cell: %v", customErrors.ErrAllocation, err)
	}
	return b, nil
}

// release frees every buffer still held. It is idempotent so it can sit both
// behind a defer and on explicit early-exit paths.
func (b *buffers) release() {
	if b.in != nil {
		b.rt.Free(b.in)
		b.in = nil
	}
	if b.out != nil {
		b.rt.Free(b.out)
		b.out = nil
	}
	if b.record != nil {
		b.rt.Free(b.record)
		b.record = nil
	}
	if b.cell != nil {
		b.rt.Free(b.cell)
		b.cell = nil
	}
}

// jobResult is the decoded accelerator result record. It is undefined until
// the job reports success.
type jobResult struct {
	// CompressedSize is the final compressed block size.
	CompressedSize uint64

	// Checksum is the checksum word the accelerator wrote into the record.
	Checksum uint32
}

func decodeResult(record []byte) jobResult {
	return jobResult{
		CompressedSize: binary.LittleEndian.Uint64(record[0:8]),
		Checksum:       uint32(binary.LittleEndian.Uint64(record[8:16])),
	}
}
