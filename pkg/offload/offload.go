// Copyright (c) 2025 A Bit of Help, Inc.

package offload

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/abitofhelp/fpga_gzip_offload/pkg/checksum"
	customErrors "github.com/abitofhelp/fpga_gzip_offload/pkg/errors"
	"github.com/abitofhelp/fpga_gzip_offload/pkg/sizing"
	"go.uber.org/zap"
)

// Compress compresses the session's remaining input, attempting hardware
// offload and falling back to the configured software compressor, and
// returns the compressed body length.
//
// Recoverable failures (buffer allocation, any accelerator job stage, an
// implausible result record) are absorbed here: buffers are released, the
// input cursor is restored where bytes were already consumed, and the same
// bytes are recompressed in software. Only an unreadable input and a failed
// write after a successful hardware job escape as errors, because the
// software path would fail identically on the former and would corrupt
// already-written output on the latter.
func (s *Session) Compress() (uint64, error) {
	if s.inputSize < sizing.MinimumInputSize {
		s.logger.Debug("input below offload threshold, compressing in software",
			zap.Int64("input_size", s.inputSize),
			zap.Int64("threshold", sizing.MinimumInputSize))
		return s.fallback()
	}

	// Header bytes go out first so output ordering is preserved regardless
	// of which path compresses the body.
	if err := s.flushPending(); err != nil {
		return 0, customErrors.NewOffloadError(err, "flush", "flush_header", s.inputSize, "")
	}

	// Snapshot the read offset; a fallback after bytes were consumed
	// re-reads from here.
	snapshot, err := s.input.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, customErrors.NewOffloadError(
			fmt.Errorf("%w: cannot resolve input position: %v", customErrors.ErrReadFailure, err),
			"snapshot", "resolve_cursor", s.inputSize, "")
	}

	bufs, err := acquireBuffers(s.runtime, s.inputSize, sizing.MaxOutputSize(s.inputSize))
	if err != nil {
		// No bytes consumed yet, no cursor restoration needed.
		s.logger.Warn("cannot allocate accelerator buffers, compressing in software",
			zap.Error(err),
			zap.Int64("input_size", s.inputSize))
		return s.fallback()
	}
	defer bufs.release()

	if _, err := io.ReadFull(s.input, bufs.in); err != nil {
		bufs.release()
		return 0, customErrors.NewOffloadError(
			fmt.Errorf("%w: %v", customErrors.ErrReadFailure, err),
			"read", "read_input", s.inputSize, "")
	}

	// Seed the checksum cell with the running checksum before submission.
	binary.LittleEndian.PutUint32(bufs.cell, s.checksum)

	if err := submitJob(s.runtime, bufs); err != nil {
		bufs.release()
		s.logger.Warn("accelerator job failed, falling back to software compression",
			zap.Error(err),
			zap.Int64("input_size", s.inputSize))
		return s.fallbackFrom(snapshot)
	}

	result := decodeResult(bufs.record)
	if result.CompressedSize > uint64(len(bufs.out)) {
		bufs.release()
		s.logger.Warn("accelerator reported an implausible compressed size, falling back to software compression",
			zap.Uint64("compressed_size", result.CompressedSize),
			zap.Int64("output_capacity", sizing.MaxOutputSize(s.inputSize)))
		return s.fallbackFrom(snapshot)
	}

	s.logger.Debug("accelerator job complete",
		zap.Uint64("compressed_size", result.CompressedSize),
		zap.Uint32("record_checksum", result.Checksum))

	written, werr := s.output.Write(bufs.out[:result.CompressedSize])

	// Fold the alignment remainder into the accelerator-reported checksum.
	s.checksum = checksum.Resume(bufs.in, binary.LittleEndian.Uint32(bufs.cell))

	read := len(bufs.in)
	bufs.release()

	if werr != nil {
		// The accelerator already succeeded; recompressing here would
		// double-count or corrupt output.
		return 0, customErrors.NewOffloadError(
			fmt.Errorf("%w: %v", customErrors.ErrWriteFailure, werr),
			"success", "write_output", s.inputSize, "")
	}

	s.stats.AddBytesIn(uint64(read))
	s.stats.AddBytesOut(uint64(written))
	s.stats.IncrementHardwareJobs()
	return result.CompressedSize, nil
}

// fallback compresses the remaining input in software from the input's
// current position.
func (s *Session) fallback() (uint64, error) {
	if err := s.flushPending(); err != nil {
		return 0, customErrors.NewOffloadError(err, "software", "flush_header", s.inputSize, "")
	}

	res, err := s.software.Compress(s.input, s.output, s.level)
	if err != nil {
		return 0, customErrors.NewOffloadError(
			fmt.Errorf("%w: %s compressor: %v", customErrors.ErrIOFailure, s.software.Name(), err),
			"software", "software_compress", s.inputSize, "")
	}

	s.checksum = res.Checksum
	s.stats.AddBytesIn(res.BytesRead)
	s.stats.AddBytesOut(res.BytesWritten)
	s.stats.IncrementSoftwareRuns()
	return res.BytesWritten, nil
}

// fallbackFrom restores the input cursor to the snapshot taken before the
// offload attempt, then recompresses the same bytes in software.
func (s *Session) fallbackFrom(snapshot int64) (uint64, error) {
	if _, err := s.input.Seek(snapshot, io.SeekStart); err != nil {
		return 0, customErrors.NewOffloadError(
			fmt.Errorf("%w: cannot restore input position: %v", customErrors.ErrReadFailure, err),
			"fallback", "restore_cursor", s.inputSize, "")
	}
	return s.fallback()
}
