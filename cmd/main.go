// Copyright (c) 2025 A Bit of Help, Inc.

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/abitofhelp/fpga_gzip_offload/pkg/accel"
	customErrors "github.com/abitofhelp/fpga_gzip_offload/pkg/errors"
	"github.com/abitofhelp/fpga_gzip_offload/pkg/gzipfile"
	"github.com/abitofhelp/fpga_gzip_offload/pkg/logger"
	"github.com/abitofhelp/fpga_gzip_offload/pkg/software"
	"github.com/abitofhelp/fpga_gzip_offload/pkg/stats"
	"go.uber.org/zap"
)

// ExitFunc is a function that exits the program with a given status code
type ExitFunc func(int)

// DefaultExitFunc is the default implementation of ExitFunc
var DefaultExitFunc = os.Exit

// CompressFileFunc is a function type for compressing a file
type CompressFileFunc func(log *zap.Logger, rt accel.Runtime, sw software.Compressor, inputPath, outputPath string, level int) (*stats.Stats, error)

// run is the main logic of the application, extracted for testability
func run(args []string, level int, log *zap.Logger, exit ExitFunc, compressFile CompressFileFunc) {
	if len(args) != 2 {
		fmt.Println("Usage: program [flags] <input_file_path> <output_file_path>")
		exit(1)
		return
	}

	inputPath := args[0]
	outputPath := args[1]

	rt := accel.Detect()
	sw := software.Configured()
	log.Debug("Compression configured",
		zap.String("software_compressor", sw.Name()),
		zap.Int("level", level))

	// Compress the file, offloading to the accelerator where one is present
	sessionStats, err := compressFile(log, rt, sw, inputPath, outputPath, level)
	if err != nil {
		if customErrors.IsReadError(err) {
			log.Error("Input file became unreadable", zap.Error(err))
		} else if customErrors.IsWriteError(err) {
			log.Error("Output file could not be written", zap.Error(err))
		} else if customErrors.IsIOError(err) {
			log.Error("I/O error during compression", zap.Error(err))
		} else {
			log.Error("Failed to compress file", zap.Error(err))
		}
		exit(1)
		return
	}

	// Display summary
	sessionStats.DisplaySummary(log, inputPath, outputPath)
}

func main() {
	// Parse command line arguments
	level := flag.Int("level", 6, "compression level (1-9)")
	stateless := flag.Bool("stateless", false, "use the low-memory stateless software compressor")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()
	args := flag.Args()

	// Initialize zap logger
	log := logger.InitLogger(*verbose)
	defer func() {
		// Ensure logger syncs before exit
		logger.SafeSync(log)
	}()

	// Select the software strategy once at startup
	if *stateless {
		software.Configure(software.NewStateless())
	}

	// Run the application with the default exit function and gzipfile.CompressFile
	run(args, *level, log, DefaultExitFunc, gzipfile.CompressFile)
}
