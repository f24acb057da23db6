// Copyright (c) 2025 A Bit of Help, Inc.

package software

import (
	"bytes"
	"hash/crc32"
	"io"
	"testing"

	"github.com/klauspost/compress/flate"
)

func roundTrip(t *testing.T, c Compressor, data []byte, level int) {
	t.Helper()

	var compressed bytes.Buffer
	res, err := c.Compress(bytes.NewReader(data), &compressed, level)
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}

	if res.BytesRead != uint64(len(data)) {
		t.Errorf("BytesRead = %d, want %d", res.BytesRead, len(data))
	}
	if res.BytesWritten != uint64(compressed.Len()) {
		t.Errorf("BytesWritten = %d, want %d", res.BytesWritten, compressed.Len())
	}
	if want := crc32.ChecksumIEEE(data); res.Checksum != want {
		t.Errorf("Checksum = %#x, want %#x", res.Checksum, want)
	}

	// Verify that the compressed stream is valid raw DEFLATE
	fr := flate.NewReader(bytes.NewReader(compressed.Bytes()))
	decompressed, err := io.ReadAll(fr)
	if err != nil {
		t.Fatalf("Failed to decompress data: %v", err)
	}
	if !bytes.Equal(decompressed, data) {
		t.Error("Decompressed data does not match original data")
	}
}

func TestFlateCompressor_RoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte("test data for compression "), 100)
	roundTrip(t, NewFlate(), data, 6)
}

func TestFlateCompressor_EmptyInput(t *testing.T) {
	roundTrip(t, NewFlate(), nil, 6)
}

func TestFlateCompressor_AllLevels(t *testing.T) {
	data := bytes.Repeat([]byte("level sweep "), 200)
	for level := flate.BestSpeed; level <= flate.BestCompression; level++ {
		roundTrip(t, NewFlate(), data, level)
	}
}

func TestFlateCompressor_OutOfRangeLevelFallsBackToDefault(t *testing.T) {
	data := []byte("short input")
	roundTrip(t, NewFlate(), data, 42)
	roundTrip(t, NewFlate(), data, -7)
}

func TestStatelessCompressor_RoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte("stateless test data "), 100)
	roundTrip(t, NewStateless(), data, 6)
}

func TestCompressor_ResumableFromOffset(t *testing.T) {
	// Compressing from a reader positioned mid-stream must consume only the
	// remaining bytes, matching the fallback-after-cursor-restore contract.
	data := bytes.Repeat([]byte("resumable input data "), 50)
	r := bytes.NewReader(data)
	if _, err := r.Seek(100, io.SeekStart); err != nil {
		t.Fatalf("Seek failed: %v", err)
	}

	var compressed bytes.Buffer
	res, err := NewFlate().Compress(r, &compressed, 6)
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}
	if res.BytesRead != uint64(len(data)-100) {
		t.Errorf("BytesRead = %d, want %d", res.BytesRead, len(data)-100)
	}

	fr := flate.NewReader(bytes.NewReader(compressed.Bytes()))
	decompressed, err := io.ReadAll(fr)
	if err != nil {
		t.Fatalf("Failed to decompress data: %v", err)
	}
	if !bytes.Equal(decompressed, data[100:]) {
		t.Error("Decompressed data does not match the remaining input")
	}
}

func TestConfigure(t *testing.T) {
	original := Configured()
	defer Configure(original)

	stateless := NewStateless()
	Configure(stateless)
	if got := Configured(); got.Name() != "stateless" {
		t.Errorf("Configured().Name() = %s, want stateless", got.Name())
	}

	// Configuring nil must keep the current strategy
	Configure(nil)
	if got := Configured(); got.Name() != "stateless" {
		t.Errorf("Configured().Name() = %s after Configure(nil), want stateless", got.Name())
	}
}

func TestNames(t *testing.T) {
	if NewFlate().Name() != "flate" {
		t.Errorf("NewFlate().Name() = %s, want flate", NewFlate().Name())
	}
	if NewStateless().Name() != "stateless" {
		t.Errorf("NewStateless().Name() = %s, want stateless", NewStateless().Name())
	}
}
