// Copyright (c) 2025 A Bit of Help, Inc.

// Package software provides the software DEFLATE compressors used when
// hardware offload is skipped or fails.
//
// Two variants exist, both producing a raw DEFLATE stream suitable as a gzip
// member body: the general level-driven compressor and a stateless
// low-memory compressor. Exactly one of them is the configured process-wide
// strategy, selected once at startup; callers only ever ask for "the
// configured software compressor".
package software

import (
	"fmt"
	"hash/crc32"
	"io"
	"sync"

	"github.com/klauspost/compress/flate"
)

// Result reports what one software compression run consumed and produced.
type Result struct {
	// BytesRead is the number of input bytes consumed.
	BytesRead uint64

	// BytesWritten is the number of compressed bytes written.
	BytesWritten uint64

	// Checksum is the CRC-32 (IEEE) of the consumed input bytes.
	Checksum uint32
}

// Compressor compresses a byte stream into a raw DEFLATE stream.
//
// Compress reads src to EOF starting at its current position, so a caller
// that restored a file cursor after a failed offload attempt recompresses
// exactly the bytes the hardware would have compressed.
type Compressor interface {
	// Name identifies the variant for logging.
	Name() string

	// Compress reads src to EOF and writes the compressed stream to dst.
	Compress(src io.Reader, dst io.Writer, level int) (Result, error)
}

var (
	configureMu sync.Mutex
	configured  Compressor = NewFlate()
)

// Configure installs the process-wide software compression strategy.
// It is intended to be called once at startup.
func Configure(c Compressor) {
	configureMu.Lock()
	defer configureMu.Unlock()
	if c != nil {
		configured = c
	}
}

// Configured returns the process-wide software compression strategy.
func Configured() Compressor {
	configureMu.Lock()
	defer configureMu.Unlock()
	return configured
}

// copyBuffer is the chunk size for the read/compress loop.
const copyBuffer = 32 * 1024

// countingWriter counts bytes passed through to the underlying writer.
type countingWriter struct {
	w io.Writer
	n uint64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += uint64(n)
	return n, err
}

// run drives src through the given flate writer, accumulating the rolling
// checksum and byte counts shared by both variants.
func run(src io.Reader, fw io.WriteCloser, counted *countingWriter) (Result, error) {
	var res Result
	buf := make([]byte, copyBuffer)
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			res.Checksum = crc32.Update(res.Checksum, crc32.IEEETable, buf[:n])
			res.BytesRead += uint64(n)
			if _, werr := fw.Write(buf[:n]); werr != nil {
				return res, fmt.Errorf("failed to compress data: %w", werr)
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return res, fmt.Errorf("failed to read input: %w", rerr)
		}
	}
	if err := fw.Close(); err != nil {
		return res, fmt.Errorf("failed to finalize compression: %w", err)
	}
	res.BytesWritten = counted.n
	return res, nil
}

// flateCompressor is the general level-driven DEFLATE variant.
type flateCompressor struct{}

// NewFlate returns the general software compressor.
func NewFlate() Compressor {
	return flateCompressor{}
}

func (flateCompressor) Name() string { return "flate" }

func (flateCompressor) Compress(src io.Reader, dst io.Writer, level int) (Result, error) {
	if level < flate.BestSpeed || level > flate.BestCompression {
		level = flate.DefaultCompression
	}
	counted := &countingWriter{w: dst}
	fw, err := flate.NewWriter(counted, level)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create compressor: %w", err)
	}
	return run(src, fw, counted)
}

// statelessCompressor is the low-memory variant. It keeps no dictionary
// state between writes and ignores the level.
type statelessCompressor struct{}

// NewStateless returns the stateless software compressor.
func NewStateless() Compressor {
	return statelessCompressor{}
}

func (statelessCompressor) Name() string { return "stateless" }

func (statelessCompressor) Compress(src io.Reader, dst io.Writer, _ int) (Result, error) {
	counted := &countingWriter{w: dst}
	fw := flate.NewStatelessWriter(counted)
	return run(src, fw, counted)
}
