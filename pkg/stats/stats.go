// Copyright (c) 2025 A Bit of Help, Inc.

// Package stats provides functionality for tracking compression session statistics
package stats

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

// Stats tracks compression session statistics with thread-safe access methods.
//
// BytesIn and BytesOut are the cumulative byte counters updated by the
// offload orchestrator on its success paths: bytes actually read from the
// input file and bytes actually written to the output file (including any
// flushed header and trailer bytes).
type Stats struct {
	// Cumulative byte counters
	BytesIn  atomic.Uint64
	BytesOut atomic.Uint64

	// Path counters: how many compression runs went to hardware vs software
	HardwareJobs atomic.Uint64
	SoftwareRuns atomic.Uint64

	// Checksum is the final CRC-32 of the uncompressed body
	Checksum uint32

	// ProcessingTime is the wall-clock duration of the compression run
	ProcessingTime time.Duration
}

// NewStats creates a new Stats instance
func NewStats() *Stats {
	return &Stats{}
}

// AddBytesIn safely adds n bytes to the input byte count
func (s *Stats) AddBytesIn(n uint64) {
	s.BytesIn.Add(n)
}

// AddBytesOut safely adds n bytes to the output byte count
func (s *Stats) AddBytesOut(n uint64) {
	s.BytesOut.Add(n)
}

// IncrementHardwareJobs safely increments the hardware path counter
func (s *Stats) IncrementHardwareJobs() {
	s.HardwareJobs.Add(1)
}

// IncrementSoftwareRuns safely increments the software path counter
func (s *Stats) IncrementSoftwareRuns() {
	s.SoftwareRuns.Add(1)
}

// FormatDuration formats a duration in a human-readable way
func FormatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	milliseconds := int(d.Milliseconds()) % 1000

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds %dms", hours, minutes, seconds, milliseconds)
	} else if minutes > 0 {
		return fmt.Sprintf("%dm %ds %dms", minutes, seconds, milliseconds)
	} else if seconds > 0 {
		return fmt.Sprintf("%ds %dms", seconds, milliseconds)
	}
	return fmt.Sprintf("%dms", milliseconds)
}

// CalculateRatios calculates the compression ratio and the space saved percentage
func (s *Stats) CalculateRatios() (float64, float64) {
	// Avoid division by zero
	if s.BytesIn.Load() == 0 || s.BytesOut.Load() == 0 {
		return 0, 0
	}

	// Ratio as input:output (higher is better compression)
	ratio := float64(s.BytesIn.Load()) / float64(s.BytesOut.Load())

	// Percentage of space saved = (1 - (compressed size / original size)) * 100
	saved := (1 - (float64(s.BytesOut.Load()) / float64(s.BytesIn.Load()))) * 100

	return ratio, saved
}

// DisplaySummary prints and logs a summary of the compression results
func (s *Stats) DisplaySummary(logger *zap.Logger, inputPath, outputPath string) {
	timeFormatted := FormatDuration(s.ProcessingTime)
	ratio, saved := s.CalculateRatios()

	bytesIn := s.BytesIn.Load()
	bytesOut := s.BytesOut.Load()
	hardwareJobs := s.HardwareJobs.Load()
	softwareRuns := s.SoftwareRuns.Load()

	path := "software"
	if hardwareJobs > 0 {
		path = "hardware"
	}

	// Print summary to console
	fmt.Println("\n===================")
	fmt.Println("Compression Summary")
	fmt.Println("===================")
	fmt.Printf("Input file: %s\n", inputPath)
	fmt.Printf("Output file: %s\n", outputPath)
	fmt.Println("-------------------")
	fmt.Printf("Total input bytes: %s (%d bytes)\n", humanize.Bytes(bytesIn), bytesIn)
	fmt.Printf("Total output bytes: %s (%d bytes)\n", humanize.Bytes(bytesOut), bytesOut)
	fmt.Printf("Body CRC-32: %08x\n", s.Checksum)
	fmt.Println("-------------------")
	fmt.Printf("Compression path: %s\n", path)
	fmt.Printf("Compression ratio: %.2f:1\n", ratio)
	fmt.Printf("Space saved: %.2f%%\n", saved)
	fmt.Println("-------------------")
	fmt.Printf("Total processing time: %s (%v)\n", timeFormatted, s.ProcessingTime)
	fmt.Println("===================")

	// Log detailed summary
	logger.Debug("Compression completed successfully",
		zap.String("input_file", inputPath),
		zap.String("output_file", outputPath),
		zap.Uint64("total_input_bytes", bytesIn),
		zap.Uint64("total_output_bytes", bytesOut),
		zap.Uint32("body_crc32", s.Checksum),
		zap.Uint64("hardware_jobs", hardwareJobs),
		zap.Uint64("software_runs", softwareRuns),
		zap.Float64("compression_ratio", ratio),
		zap.Float64("space_saved", saved),
		zap.Duration("processing_time", s.ProcessingTime),
		zap.String("formatted_processing_time", timeFormatted))
}
