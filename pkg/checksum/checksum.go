// Copyright (c) 2025 A Bit of Help, Inc.

// Package checksum resumes a rolling CRC-32 across the accelerator boundary.
//
// The accelerator's checksum unit folds data in fixed-width aligned sections.
// After a hardware job reports its checksum, the trailing bytes that fell
// outside the last full section still have to be folded in by software. This
// package does exactly that, producing the same value a sequential software
// CRC-32 over the whole buffer would have produced.
package checksum

import "hash/crc32"

// ParallelNibbles is the width of the accelerator's CRC pipeline in nibbles.
// It is a fixed device characteristic, not a configuration knob.
const ParallelNibbles = 64

// SectionSize is the number of bytes per fully-parallel CRC section.
const SectionSize = ParallelNibbles / 2

// Resume extends a hardware-reported CRC-32 over the remainder of data.
//
// The seed is assumed to already cover the aligned prefix of data, i.e. the
// first len(data) - len(data)%SectionSize bytes folded by the hardware job.
// Only the trailing remainder is fed through the standard CRC-32 (IEEE)
// rolling update. The result is bit-exact with hash/crc32 over the whole
// buffer.
func Resume(data []byte, seed uint32) uint32 {
	sections := len(data) / SectionSize
	remainder := data[sections*SectionSize:]
	return crc32.Update(seed, crc32.IEEETable, remainder)
}
