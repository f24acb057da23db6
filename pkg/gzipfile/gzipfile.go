// Copyright (c) 2025 A Bit of Help, Inc.

// Package gzipfile assembles complete gzip members around the offload
// orchestrator.
//
// The orchestrator compresses the body; this package contributes the
// RFC 1952 framing: the member header is buffered into the session so it is
// flushed ahead of the body by whichever path compresses it, and the trailer
// is written from the session's final checksum once compression returns.
package gzipfile

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/abitofhelp/fpga_gzip_offload/pkg/accel"
	customErrors "github.com/abitofhelp/fpga_gzip_offload/pkg/errors"
	"github.com/abitofhelp/fpga_gzip_offload/pkg/offload"
	"github.com/abitofhelp/fpga_gzip_offload/pkg/software"
	"github.com/abitofhelp/fpga_gzip_offload/pkg/stats"
	"github.com/klauspost/compress/flate"
	"go.uber.org/zap"
)

const (
	gzipID1 = 0x1f
	gzipID2 = 0x8b
	gzipCM  = 0x08 // DEFLATE

	flagName = 0x08
	osUnix   = 0x03
)

// Header builds a gzip member header. An empty name omits the FNAME field.
func Header(name string, mtime time.Time, level int) []byte {
	hdr := make([]byte, 10, 10+len(name)+1)
	hdr[0] = gzipID1
	hdr[1] = gzipID2
	hdr[2] = gzipCM
	if name != "" {
		hdr[3] = flagName
	}
	if t := mtime.Unix(); t > 0 {
		binary.LittleEndian.PutUint32(hdr[4:8], uint32(t))
	}
	switch level {
	case flate.BestCompression:
		hdr[8] = 2
	case flate.BestSpeed:
		hdr[8] = 4
	}
	hdr[9] = osUnix
	if name != "" {
		hdr = append(hdr, name...)
		hdr = append(hdr, 0)
	}
	return hdr
}

// Trailer builds a gzip member trailer from the body checksum and the
// uncompressed size (stored modulo 2^32).
func Trailer(sum uint32, size uint64) []byte {
	trl := make([]byte, 8)
	binary.LittleEndian.PutUint32(trl[0:4], sum)
	binary.LittleEndian.PutUint32(trl[4:8], uint32(size))
	return trl
}

type fileHandlers struct {
	input  *os.File
	output *os.File
	closed bool
}

func setupFiles(inputPath, outputPath string) (*fileHandlers, error) {
	input, err := os.Open(inputPath)
	if err != nil {
		return nil, wrapIOError(err, "open_input_file", inputPath)
	}

	output, err := os.Create(outputPath)
	if err != nil {
		input.Close()
		return nil, wrapIOError(err, "create_output_file", outputPath)
	}

	return &fileHandlers{input: input, output: output}, nil
}

// closeFiles closes both handles once; later calls are no-ops. Close errors
// go into the collector so a failed flush of the output file is not silently
// dropped.
func closeFiles(files *fileHandlers, collector *customErrors.ErrorCollector) {
	if files.closed {
		return
	}
	files.closed = true
	if err := files.input.Close(); err != nil {
		collector.Add(wrapIOError(err, "close_input_file", files.input.Name()))
	}
	if err := files.output.Close(); err != nil {
		collector.Add(wrapIOError(err, "close_output_file", files.output.Name()))
	}
}

// CompressFile compresses inputPath into a gzip member at outputPath,
// attempting hardware offload through the given runtime and falling back to
// the given software compressor.
func CompressFile(logger *zap.Logger, rt accel.Runtime, sw software.Compressor, inputPath, outputPath string, level int) (*stats.Stats, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if sw == nil {
		return nil, fmt.Errorf("software compressor cannot be nil")
	}
	if inputPath == "" {
		return nil, fmt.Errorf("input path cannot be empty")
	}
	if outputPath == "" {
		return nil, fmt.Errorf("output path cannot be empty")
	}

	startTime := time.Now()

	files, err := setupFiles(inputPath, outputPath)
	if err != nil {
		return nil, err
	}
	collector := customErrors.NewErrorCollector()
	defer closeFiles(files, collector)

	info, err := files.input.Stat()
	if err != nil {
		return nil, wrapIOError(err, "stat_input_file", inputPath)
	}

	sessionStats := stats.NewStats()
	sess, err := offload.NewSession(offload.Config{
		Input:     files.input,
		Output:    files.output,
		InputSize: info.Size(),
		Level:     level,
		Runtime:   rt,
		Software:  sw,
		Stats:     sessionStats,
		Logger:    logger,
	})
	if err != nil {
		return nil, customErrors.NewOffloadError(err, "setup", "create_session", info.Size(), inputPath)
	}

	sess.BufferHeader(Header(filepath.Base(inputPath), info.ModTime(), level))

	if _, err := sess.Compress(); err != nil {
		logger.Error("Compression failed",
			zap.Error(err),
			zap.String("input_file", inputPath),
			zap.String("output_file", outputPath))
		return nil, err
	}

	n, err := files.output.Write(Trailer(sess.Checksum(), uint64(info.Size())))
	sessionStats.AddBytesOut(uint64(n))
	if err != nil {
		return nil, customErrors.NewOffloadError(
			fmt.Errorf("%w: write trailer: %v", customErrors.ErrWriteFailure, err),
			"finalize", "write_trailer", info.Size(), outputPath)
	}

	sessionStats.Checksum = sess.Checksum()
	sessionStats.ProcessingTime = time.Since(startTime)

	closeFiles(files, collector)
	if collector.HasErrors() {
		return nil, collector
	}
	return sessionStats, nil
}

func wrapIOError(err error, operation, path string) error {
	return customErrors.NewOffloadError(
		fmt.Errorf("%w: %v", customErrors.ErrIOFailure, err),
		"files",
		operation,
		0,
		path)
}
