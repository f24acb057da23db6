// Copyright (c) 2025 A Bit of Help, Inc.

// Package offload orchestrates hardware-accelerated compression of one
// file's contents, falling back transparently to a software compressor on
// any recoverable failure.
//
// A Session owns the state of one compression run: file handles, buffered
// header bytes, the running body checksum, byte counters, and the configured
// collaborators (accelerator runtime and software compressor). Sessions are
// synchronous and not safe for concurrent use; concurrent callers must use
// separate sessions, each with its own buffers and job submissions.
package offload

import (
	"fmt"
	"io"

	"github.com/abitofhelp/fpga_gzip_offload/pkg/accel"
	customErrors "github.com/abitofhelp/fpga_gzip_offload/pkg/errors"
	"github.com/abitofhelp/fpga_gzip_offload/pkg/software"
	"github.com/abitofhelp/fpga_gzip_offload/pkg/stats"
	"go.uber.org/zap"
)

// Config carries the collaborators and parameters of one compression session.
type Config struct {
	// Input is the source file. It must be positioned at the start of the
	// bytes to compress, and seekable so a failed offload attempt can
	// restore its position for the software fallback.
	Input io.ReadSeeker

	// Output receives the compressed stream, append-only.
	Output io.Writer

	// InputSize is the remaining readable size of Input.
	InputSize int64

	// Level is the compression level passed to the software compressor.
	Level int

	// Runtime is the accelerator boundary. Nil means no accelerator; the
	// session degrades to software compression.
	Runtime accel.Runtime

	// Software is the configured fallback compressor.
	Software software.Compressor

	// Stats receives the cumulative byte counters.
	Stats *stats.Stats

	// Logger records routing decisions and fallback transitions.
	Logger *zap.Logger
}

// Session is the state of one compression run.
type Session struct {
	input     io.ReadSeeker
	output    io.Writer
	inputSize int64
	level     int
	runtime   accel.Runtime
	software  software.Compressor
	stats     *stats.Stats
	logger    *zap.Logger

	// pending holds header bytes buffered ahead of the compressed body.
	pending []byte

	// checksum is the rolling CRC-32 of the uncompressed body.
	checksum uint32
}

// NewSession validates the configuration and creates a session.
func NewSession(cfg Config) (*Session, error) {
	if cfg.Input == nil {
		return nil, fmt.Errorf("input cannot be nil")
	}
	if cfg.Output == nil {
		return nil, fmt.Errorf("output cannot be nil")
	}
	if cfg.InputSize < 0 {
		return nil, fmt.Errorf("input size cannot be negative")
	}
	if cfg.Software == nil {
		return nil, fmt.Errorf("software compressor cannot be nil")
	}
	if cfg.Stats == nil {
		return nil, fmt.Errorf("stats cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	rt := cfg.Runtime
	if rt == nil {
		rt = accel.Unavailable()
	}
	return &Session{
		input:     cfg.Input,
		output:    cfg.Output,
		inputSize: cfg.InputSize,
		level:     cfg.Level,
		runtime:   rt,
		software:  cfg.Software,
		stats:     cfg.Stats,
		logger:    cfg.Logger,
	}, nil
}

// BufferHeader queues header bytes to be written ahead of the compressed
// body. They are flushed before either compression path produces output, so
// output ordering is identical whichever path compresses the body.
func (s *Session) BufferHeader(p []byte) {
	s.pending = append(s.pending, p...)
}

// Checksum returns the CRC-32 of the uncompressed body after Compress has
// returned successfully.
func (s *Session) Checksum() uint32 {
	return s.checksum
}

// flushPending writes any buffered header bytes to the output.
func (s *Session) flushPending() error {
	if len(s.pending) == 0 {
		return nil
	}
	n, err := s.output.Write(s.pending)
	s.stats.AddBytesOut(uint64(n))
	if err != nil {
		return fmt.Errorf("%w: flush header: %v", customErrors.ErrWriteFailure, err)
	}
	s.pending = s.pending[:0]
	return nil
}
